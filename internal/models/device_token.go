package models

import "gorm.io/gorm"

// DeviceToken is an FCM registration token for a member's device.
type DeviceToken struct {
	gorm.Model
	UserID   uint   `json:"userId" gorm:"not null;index"`
	Token    string `json:"token" gorm:"not null;unique"`
	Platform string `json:"platform"`
}

// TableName specifies the table name
func (DeviceToken) TableName() string {
	return "device_tokens"
}

package models

import (
	"gorm.io/gorm"
)

// Organization represents an aero club. TaxRate is applied to invoices
// raised for the organization's members.
type Organization struct {
	gorm.Model
	Name    string  `json:"name" gorm:"not null"`
	TaxRate float64 `json:"taxRate" gorm:"not null;default:0.15"`
}

// TableName specifies the table name
func (Organization) TableName() string {
	return "organizations"
}

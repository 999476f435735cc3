package models

import (
	"gorm.io/gorm"
)

type ChargeableType string

const (
	ChargeableTypeFlightHour    ChargeableType = "FLIGHT_HOUR"
	ChargeableTypeInstruction   ChargeableType = "INSTRUCTION"
	ChargeableTypeLandingFee    ChargeableType = "LANDING_FEE"
	ChargeableTypeAirwaysFee    ChargeableType = "AIRWAYS_FEE"
	ChargeableTypeEquipment     ChargeableType = "EQUIPMENT"
	ChargeableTypeMembershipFee ChargeableType = "MEMBERSHIP_FEE"
	ChargeableTypeOther         ChargeableType = "OTHER"
)

// Chargeable is a billable catalog item. The FLIGHT_HOUR chargeable is
// created lazily per organization the first time a check-in needs it; its
// unit price is zero because the aircraft rate supplies the actual price.
type Chargeable struct {
	gorm.Model
	Name             string         `json:"name" gorm:"not null"`
	Description      string         `json:"description"`
	Type             ChargeableType `json:"type" gorm:"not null"`
	UnitPrice        float64        `json:"unitPrice" gorm:"not null"`
	UnitPriceInclTax float64        `json:"unitPriceInclTax" gorm:"not null"`
	TaxRate          float64        `json:"taxRate" gorm:"not null;default:0.15"`
	IsActive         bool           `json:"isActive" gorm:"not null;default:true"`
	OrganizationID   uint           `json:"organizationId" gorm:"not null;index"`
}

// TableName specifies the table name
func (Chargeable) TableName() string {
	return "chargeables"
}

// IsValidChargeableType reports whether t is one of the known chargeable types
func IsValidChargeableType(t ChargeableType) bool {
	switch t {
	case ChargeableTypeFlightHour, ChargeableTypeInstruction, ChargeableTypeLandingFee,
		ChargeableTypeAirwaysFee, ChargeableTypeEquipment, ChargeableTypeMembershipFee,
		ChargeableTypeOther:
		return true
	}
	return false
}

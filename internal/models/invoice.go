package models

import (
	"time"

	"gorm.io/gorm"
)

type InvoiceStatus string

const (
	InvoiceStatusPending   InvoiceStatus = "PENDING"
	InvoiceStatusPaid      InvoiceStatus = "PAID"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

// Invoice totals obey total = subtotal + tax, with subtotal equal to the sum
// of the item subtotals.
type Invoice struct {
	gorm.Model
	UserID         uint          `json:"userId" gorm:"not null;index"`
	User           *User         `json:"user,omitempty" gorm:"foreignKey:UserID"`
	OrganizationID uint          `json:"organizationId" gorm:"not null;index"`
	Reference      string        `json:"reference"`
	Status         InvoiceStatus `json:"status" gorm:"not null;default:'PENDING'"`
	Subtotal       float64       `json:"subtotal" gorm:"not null"`
	Tax            float64       `json:"tax" gorm:"not null"`
	Total          float64       `json:"total" gorm:"not null"`
	DueDate        time.Time     `json:"dueDate" gorm:"not null"`
	Items          []InvoiceItem `json:"items,omitempty" gorm:"foreignKey:InvoiceID"`
	Payments       []Payment     `json:"payments,omitempty" gorm:"foreignKey:InvoiceID"`
}

// TableName specifies the table name
func (Invoice) TableName() string {
	return "invoices"
}

type InvoiceItem struct {
	gorm.Model
	InvoiceID      uint        `json:"invoiceId" gorm:"not null;index"`
	ChargeableID   uint        `json:"chargeableId" gorm:"not null"`
	Chargeable     *Chargeable `json:"chargeable,omitempty" gorm:"foreignKey:ChargeableID"`
	Description    string      `json:"description"`
	Quantity       float64     `json:"quantity" gorm:"not null"`
	UnitPrice      float64     `json:"unitPrice" gorm:"not null"`
	TaxRate        float64     `json:"taxRate" gorm:"not null"`
	SubTotal       float64     `json:"subTotal" gorm:"not null"`
	Total          float64     `json:"total" gorm:"not null"` // tax inclusive
	OrganizationID uint        `json:"organizationId" gorm:"not null"`
}

// TableName specifies the table name
func (InvoiceItem) TableName() string {
	return "invoice_items"
}

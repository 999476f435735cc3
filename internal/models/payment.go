package models

import (
	"time"

	"gorm.io/gorm"
)

type PaymentMethod string

const (
	PaymentMethodCash          PaymentMethod = "CASH"
	PaymentMethodBankTransfer  PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCreditCard    PaymentMethod = "CREDIT_CARD"
	PaymentMethodAccountCredit PaymentMethod = "ACCOUNT_CREDIT"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// Payment records money received against an invoice. The sum of completed
// payments never exceeds the invoice total.
type Payment struct {
	gorm.Model
	InvoiceID      uint          `json:"invoiceId" gorm:"not null;index"`
	UserID         uint          `json:"userId" gorm:"not null"`
	User           *User         `json:"user,omitempty" gorm:"foreignKey:UserID"`
	OrganizationID uint          `json:"organizationId" gorm:"not null"`
	Amount         float64       `json:"amount" gorm:"not null"`
	Method         PaymentMethod `json:"method" gorm:"not null"`
	Status         PaymentStatus `json:"status" gorm:"not null;default:'PENDING'"`
	Reference      string        `json:"reference"`
	Notes          string        `json:"notes"`
	ProcessedAt    *time.Time    `json:"processedAt"`
}

// TableName specifies the table name
func (Payment) TableName() string {
	return "payments"
}

// Transaction is the receipt record written alongside each completed payment.
type Transaction struct {
	gorm.Model
	PaymentID     uint   `json:"paymentId" gorm:"not null;unique"`
	ReceiptNumber string `json:"receiptNumber" gorm:"not null;unique"`
}

// TableName specifies the table name
func (Transaction) TableName() string {
	return "transactions"
}

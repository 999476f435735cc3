package handlers

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/aeroclubnz/aeroclub-backend/internal/models"
	"github.com/aeroclubnz/aeroclub-backend/internal/services"
	"github.com/aeroclubnz/aeroclub-backend/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreatePaymentInput struct {
	InvoiceID           uint                 `json:"invoiceId" binding:"required"`
	Amount              float64              `json:"amount" binding:"required,gt=0"`
	Method              models.PaymentMethod `json:"method" binding:"required"`
	AccountCreditAmount *float64             `json:"accountCreditAmount"`
	Reference           string               `json:"reference"`
	Notes               string               `json:"notes"`
}

func isValidPaymentMethod(m models.PaymentMethod) bool {
	switch m {
	case models.PaymentMethodCash, models.PaymentMethodBankTransfer,
		models.PaymentMethodCreditCard, models.PaymentMethodAccountCredit:
		return true
	}
	return false
}

// CreatePayment records money against a pending invoice. The amount may be
// split: accountCreditAmount is drawn from the member's account as an
// ACCOUNT_CREDIT payment and the remainder is recorded under the given
// method. Each completed payment gets its own receipt, and the invoice flips
// to PAID once fully covered. All of it commits together.
func CreatePayment(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetUint("organizationId")

		var input CreatePaymentInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		if !isValidPaymentMethod(input.Method) {
			c.JSON(400, gin.H{"error": "Invalid payment method"})
			return
		}

		amount := utils.Round2(input.Amount)

		creditAmount := 0.0
		if input.Method == models.PaymentMethodAccountCredit {
			// the whole payment comes from the account
			creditAmount = amount
		} else if input.AccountCreditAmount != nil {
			creditAmount = utils.Round2(*input.AccountCreditAmount)
			if creditAmount < 0 || creditAmount > amount {
				c.JSON(400, gin.H{"error": "accountCreditAmount must be between 0 and the payment amount"})
				return
			}
		}
		methodAmount := utils.Round2(amount - creditAmount)

		var invoice models.Invoice
		if err := db.Preload("Payments").
			Where("organization_id = ?", orgID).
			First(&invoice, input.InvoiceID).Error; err != nil {
			c.JSON(404, gin.H{"error": "Invoice not found"})
			return
		}

		if invoice.Status == models.InvoiceStatusCancelled {
			c.JSON(400, gin.H{"error": "Cannot pay a cancelled invoice"})
			return
		}
		if invoice.Status == models.InvoiceStatusPaid {
			c.JSON(400, gin.H{"error": "Invoice is already paid"})
			return
		}

		paid := 0.0
		for _, p := range invoice.Payments {
			if p.Status == models.PaymentStatusCompleted {
				paid += p.Amount
			}
		}
		remaining := utils.Round2(invoice.Total - paid)

		if amount > remaining {
			c.JSON(400, gin.H{"error": fmt.Sprintf("Payment exceeds balance remaining of %.2f", remaining)})
			return
		}

		tx := db.Begin()
		defer func() {
			if r := recover(); r != nil {
				tx.Rollback()
			}
		}()

		now := time.Now()
		var payments []models.Payment
		var receipts []string

		record := func(method models.PaymentMethod, value float64) bool {
			payment := models.Payment{
				InvoiceID:      invoice.ID,
				UserID:         invoice.UserID,
				OrganizationID: orgID,
				Amount:         value,
				Method:         method,
				Status:         models.PaymentStatusCompleted,
				Reference:      input.Reference,
				Notes:          input.Notes,
				ProcessedAt:    &now,
			}
			if err := tx.Create(&payment).Error; err != nil {
				tx.Rollback()
				c.JSON(500, gin.H{"error": "Failed to create payment"})
				return false
			}
			transaction := models.Transaction{
				PaymentID:     payment.ID,
				ReceiptNumber: "rcpt-" + uuid.New().String(),
			}
			if err := tx.Create(&transaction).Error; err != nil {
				tx.Rollback()
				c.JSON(500, gin.H{"error": "Failed to create transaction record"})
				return false
			}
			payments = append(payments, payment)
			receipts = append(receipts, transaction.ReceiptNumber)
			return true
		}

		if creditAmount > 0 {
			var account models.MemberAccount
			if err := tx.Where("user_id = ?", invoice.UserID).First(&account).Error; err != nil {
				tx.Rollback()
				c.JSON(404, gin.H{"error": "Member account not found"})
				return
			}
			if account.Balance < creditAmount {
				tx.Rollback()
				c.JSON(400, gin.H{"error": "Insufficient account balance"})
				return
			}
			account.Balance = utils.Round2(account.Balance - creditAmount)
			if err := tx.Save(&account).Error; err != nil {
				tx.Rollback()
				c.JSON(500, gin.H{"error": "Failed to update member account"})
				return
			}
			if !record(models.PaymentMethodAccountCredit, creditAmount) {
				return
			}
		}

		if methodAmount > 0 {
			if !record(input.Method, methodAmount) {
				return
			}
		}

		newRemaining := utils.Round2(remaining - amount)
		if newRemaining <= 0 {
			invoice.Status = models.InvoiceStatusPaid
			if err := tx.Model(&models.Invoice{}).
				Where("id = ?", invoice.ID).
				Update("status", models.InvoiceStatusPaid).Error; err != nil {
				tx.Rollback()
				c.JSON(500, gin.H{"error": "Failed to update invoice status"})
				return
			}
		}

		if err := tx.Commit().Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to record payment"})
			return
		}

		ctx := context.Background()
		if creditAmount > 0 {
			services.InvalidateMemberBalance(ctx, invoice.UserID)
		}
		services.InvalidateDashboardStats(ctx, orgID)
		services.SendPaymentReceivedNotification(ctx, db, invoice.UserID, payments[len(payments)-1].ID, amount)

		var user models.User
		if err := db.First(&user, invoice.UserID).Error; err == nil && user.Email != "" {
			if err := utils.SendPaymentReceiptEmail(user.Email, receipts[len(receipts)-1], amount); err != nil {
				log.Printf("Failed to send receipt email for invoice %d: %v", invoice.ID, err)
			}
		}

		c.JSON(201, gin.H{
			"payments":         payments,
			"receiptNumbers":   receipts,
			"invoiceStatus":    invoice.Status,
			"balanceRemaining": newRemaining,
		})
	}
}

// GetInvoicePayments lists the payments recorded against an invoice
func GetInvoicePayments(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetUint("organizationId")

		var invoice models.Invoice
		if err := db.Where("organization_id = ?", orgID).
			First(&invoice, c.Param("id")).Error; err != nil {
			c.JSON(404, gin.H{"error": "Invoice not found"})
			return
		}

		var payments []models.Payment
		if err := db.Where("invoice_id = ?", invoice.ID).
			Order("created_at ASC").
			Find(&payments).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch payments"})
			return
		}

		c.JSON(200, payments)
	}
}

// GetPaymentTransaction returns the receipt record for a payment
func GetPaymentTransaction(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetUint("organizationId")

		var payment models.Payment
		if err := db.Where("organization_id = ?", orgID).
			First(&payment, c.Param("id")).Error; err != nil {
			c.JSON(404, gin.H{"error": "Payment not found"})
			return
		}

		var transaction models.Transaction
		if err := db.Where("payment_id = ?", payment.ID).First(&transaction).Error; err != nil {
			c.JSON(404, gin.H{"error": "Transaction not found"})
			return
		}

		c.JSON(200, gin.H{
			"payment":       payment,
			"receiptNumber": transaction.ReceiptNumber,
			"processedAt":   payment.ProcessedAt,
		})
	}
}

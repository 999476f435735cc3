package handlers

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/aeroclubnz/aeroclub-backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func paymentsRouter(db *gorm.DB, orgID uint) *gin.Engine {
	r := gin.New()
	r.Use(testAuth(1, orgID, "STAFF"))
	r.POST("/payments", CreatePayment(db))
	r.GET("/payments/:id/transaction", GetPaymentTransaction(db))
	r.GET("/invoices/:id", GetInvoice(db))
	r.GET("/invoices/:id/payments", GetInvoicePayments(db))
	return r
}

func seedInvoice(t *testing.T, db *gorm.DB, fix clubFixture, total float64) models.Invoice {
	t.Helper()

	invoice := models.Invoice{
		UserID:         fix.Member.ID,
		OrganizationID: fix.Org.ID,
		Reference:      "Flight: ZK-ABC - Dual Instruction",
		Status:         models.InvoiceStatusPending,
		Subtotal:       total / 1.15,
		Tax:            total - total/1.15,
		Total:          total,
		DueDate:        time.Now().AddDate(0, 0, 14),
	}
	require.NoError(t, db.Create(&invoice).Error)
	return invoice
}

func TestCreatePayment_partialThenPaid(t *testing.T) {
	db := newTestDB(t)
	fix := seedClub(t, db)
	r := paymentsRouter(db, fix.Org.ID)
	invoice := seedInvoice(t, db, fix, 454.25)

	// partial cash payment leaves the invoice pending
	w := performJSON(t, r, "POST", "/payments", map[string]interface{}{
		"invoiceId": invoice.ID,
		"amount":    200.0,
		"method":    "CASH",
	})
	require.Equal(t, 201, w.Code, w.Body.String())

	resp := decodeBody(t, w)
	assert.Equal(t, "PENDING", resp["invoiceStatus"])
	assert.Equal(t, 254.25, resp["balanceRemaining"])

	receipts := resp["receiptNumbers"].([]interface{})
	require.Len(t, receipts, 1)
	assert.True(t, strings.HasPrefix(receipts[0].(string), "rcpt-"))

	// second payment covers the rest and flips the invoice to PAID
	w = performJSON(t, r, "POST", "/payments", map[string]interface{}{
		"invoiceId": invoice.ID,
		"amount":    254.25,
		"method":    "BANK_TRANSFER",
	})
	require.Equal(t, 201, w.Code, w.Body.String())

	resp = decodeBody(t, w)
	assert.Equal(t, "PAID", resp["invoiceStatus"])
	assert.Equal(t, 0.0, resp["balanceRemaining"])

	var updated models.Invoice
	require.NoError(t, db.First(&updated, invoice.ID).Error)
	assert.Equal(t, models.InvoiceStatusPaid, updated.Status)

	// each payment has its own receipt
	var transactions int64
	require.NoError(t, db.Model(&models.Transaction{}).Count(&transactions).Error)
	assert.Equal(t, int64(2), transactions)
}

func TestCreatePayment_rejectsOverpayment(t *testing.T) {
	db := newTestDB(t)
	fix := seedClub(t, db)
	r := paymentsRouter(db, fix.Org.ID)
	invoice := seedInvoice(t, db, fix, 100.0)

	w := performJSON(t, r, "POST", "/payments", map[string]interface{}{
		"invoiceId": invoice.ID,
		"amount":    150.0,
		"method":    "CASH",
	})
	require.Equal(t, 400, w.Code)
	assert.Contains(t, decodeBody(t, w)["error"], "exceeds balance remaining")

	var paymentCount int64
	require.NoError(t, db.Model(&models.Payment{}).Count(&paymentCount).Error)
	assert.Equal(t, int64(0), paymentCount)
}

func TestCreatePayment_accountCredit(t *testing.T) {
	db := newTestDB(t)
	fix := seedClub(t, db)
	r := paymentsRouter(db, fix.Org.ID)

	// member account was seeded with a 500 balance
	invoice := seedInvoice(t, db, fix, 454.25)

	w := performJSON(t, r, "POST", "/payments", map[string]interface{}{
		"invoiceId": invoice.ID,
		"amount":    454.25,
		"method":    "ACCOUNT_CREDIT",
	})
	require.Equal(t, 201, w.Code, w.Body.String())
	assert.Equal(t, "PAID", decodeBody(t, w)["invoiceStatus"])

	var account models.MemberAccount
	require.NoError(t, db.Where("user_id = ?", fix.Member.ID).First(&account).Error)
	assert.Equal(t, 45.75, account.Balance)
}

func TestCreatePayment_splitsCreditAndCash(t *testing.T) {
	db := newTestDB(t)
	fix := seedClub(t, db)
	r := paymentsRouter(db, fix.Org.ID)
	invoice := seedInvoice(t, db, fix, 454.25)

	w := performJSON(t, r, "POST", "/payments", map[string]interface{}{
		"invoiceId":           invoice.ID,
		"amount":              454.25,
		"method":              "CASH",
		"accountCreditAmount": 100.0,
	})
	require.Equal(t, 201, w.Code, w.Body.String())

	resp := decodeBody(t, w)
	assert.Equal(t, "PAID", resp["invoiceStatus"])

	// one ACCOUNT_CREDIT payment and one CASH payment, each with a receipt
	require.Len(t, resp["payments"].([]interface{}), 2)
	require.Len(t, resp["receiptNumbers"].([]interface{}), 2)

	var payments []models.Payment
	require.NoError(t, db.Where("invoice_id = ?", invoice.ID).Order("id ASC").Find(&payments).Error)
	require.Len(t, payments, 2)
	assert.Equal(t, models.PaymentMethodAccountCredit, payments[0].Method)
	assert.Equal(t, 100.0, payments[0].Amount)
	assert.Equal(t, models.PaymentMethodCash, payments[1].Method)
	assert.Equal(t, 354.25, payments[1].Amount)

	var account models.MemberAccount
	require.NoError(t, db.Where("user_id = ?", fix.Member.ID).First(&account).Error)
	assert.Equal(t, 400.0, account.Balance)
}

func TestCreatePayment_accountCreditInsufficientBalance(t *testing.T) {
	db := newTestDB(t)
	fix := seedClub(t, db)
	r := paymentsRouter(db, fix.Org.ID)
	invoice := seedInvoice(t, db, fix, 600.0)

	w := performJSON(t, r, "POST", "/payments", map[string]interface{}{
		"invoiceId": invoice.ID,
		"amount":    600.0,
		"method":    "ACCOUNT_CREDIT",
	})
	require.Equal(t, 400, w.Code)
	assert.Contains(t, decodeBody(t, w)["error"], "Insufficient account balance")

	// balance untouched, no payment recorded
	var account models.MemberAccount
	require.NoError(t, db.Where("user_id = ?", fix.Member.ID).First(&account).Error)
	assert.Equal(t, 500.0, account.Balance)

	var paymentCount int64
	require.NoError(t, db.Model(&models.Payment{}).Count(&paymentCount).Error)
	assert.Equal(t, int64(0), paymentCount)
}

func TestCreatePayment_rejectsPaidInvoice(t *testing.T) {
	db := newTestDB(t)
	fix := seedClub(t, db)
	r := paymentsRouter(db, fix.Org.ID)

	invoice := seedInvoice(t, db, fix, 100.0)
	require.NoError(t, db.Model(&invoice).Update("status", models.InvoiceStatusPaid).Error)

	w := performJSON(t, r, "POST", "/payments", map[string]interface{}{
		"invoiceId": invoice.ID,
		"amount":    100.0,
		"method":    "CASH",
	})
	require.Equal(t, 400, w.Code)
	assert.Contains(t, decodeBody(t, w)["error"], "already paid")
}

func TestGetInvoice_balanceRemaining(t *testing.T) {
	db := newTestDB(t)
	fix := seedClub(t, db)
	r := paymentsRouter(db, fix.Org.ID)
	invoice := seedInvoice(t, db, fix, 454.25)

	w := performJSON(t, r, "POST", "/payments", map[string]interface{}{
		"invoiceId": invoice.ID,
		"amount":    100.0,
		"method":    "CASH",
	})
	require.Equal(t, 201, w.Code, w.Body.String())

	w = performJSON(t, r, "GET", fmt.Sprintf("/invoices/%d", invoice.ID), nil)
	require.Equal(t, 200, w.Code)

	resp := decodeBody(t, w)
	assert.Equal(t, 100.0, resp["amountPaid"])
	assert.Equal(t, 354.25, resp["balanceRemaining"])
}

func TestGetPaymentTransaction(t *testing.T) {
	db := newTestDB(t)
	fix := seedClub(t, db)
	r := paymentsRouter(db, fix.Org.ID)
	invoice := seedInvoice(t, db, fix, 50.0)

	w := performJSON(t, r, "POST", "/payments", map[string]interface{}{
		"invoiceId": invoice.ID,
		"amount":    50.0,
		"method":    "CREDIT_CARD",
		"reference": "visa-1234",
	})
	require.Equal(t, 201, w.Code, w.Body.String())

	var payment models.Payment
	require.NoError(t, db.Where("invoice_id = ?", invoice.ID).First(&payment).Error)

	w = performJSON(t, r, "GET", fmt.Sprintf("/payments/%d/transaction", payment.ID), nil)
	require.Equal(t, 200, w.Code)

	resp := decodeBody(t, w)
	assert.True(t, strings.HasPrefix(resp["receiptNumber"].(string), "rcpt-"))
	assert.NotNil(t, resp["processedAt"])
}

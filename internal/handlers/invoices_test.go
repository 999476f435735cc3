package handlers

import (
	"fmt"
	"testing"

	"github.com/aeroclubnz/aeroclub-backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func invoicesRouter(db *gorm.DB, orgID uint) *gin.Engine {
	r := gin.New()
	r.Use(testAuth(1, orgID, "STAFF"))
	r.POST("/invoices", CreateInvoice(db))
	r.GET("/invoices/unpaid-count", GetUnpaidInvoicesCount(db))
	r.PATCH("/invoices/:id/items/:itemId", UpdateInvoiceItem(db))
	r.DELETE("/invoices/:id/items/:itemId", RemoveInvoiceItem(db))
	r.POST("/chargeables/ensure-flight-hour", EnsureFlightHourChargeableHandler(db))
	return r
}

func TestCreateInvoice_usesChargeableTaxRates(t *testing.T) {
	db := newTestDB(t)
	fix := seedClub(t, db)
	r := invoicesRouter(db, fix.Org.ID)

	taxed := models.Chargeable{
		Name:           "Headset Hire",
		Type:           models.ChargeableTypeEquipment,
		UnitPrice:      10,
		TaxRate:        0.15,
		IsActive:       true,
		OrganizationID: fix.Org.ID,
	}
	require.NoError(t, db.Create(&taxed).Error)

	exempt := models.Chargeable{
		Name:           "Airways Fee",
		Type:           models.ChargeableTypeAirwaysFee,
		UnitPrice:      30,
		TaxRate:        0,
		IsActive:       true,
		OrganizationID: fix.Org.ID,
	}
	require.NoError(t, db.Create(&exempt).Error)

	w := performJSON(t, r, "POST", "/invoices", map[string]interface{}{
		"userId":    fix.Member.ID,
		"reference": "Monthly charges",
		"items": []map[string]interface{}{
			{"chargeableId": taxed.ID, "quantity": 2.0},
			{"chargeableId": exempt.ID, "quantity": 1.0},
		},
	})
	require.Equal(t, 201, w.Code, w.Body.String())

	invoiceID := uint(decodeBody(t, w)["invoiceId"].(float64))

	var invoice models.Invoice
	require.NoError(t, db.Preload("Items", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("invoice_items.id ASC")
	}).First(&invoice, invoiceID).Error)

	// 2 x $10 at 15% plus 1 x $30 tax exempt
	assert.Equal(t, 50.0, invoice.Subtotal)
	assert.Equal(t, 3.0, invoice.Tax)
	assert.Equal(t, 53.0, invoice.Total)

	require.Len(t, invoice.Items, 2)
	assert.Equal(t, 0.15, invoice.Items[0].TaxRate)
	assert.Equal(t, "Headset Hire", invoice.Items[0].Description)
	assert.Equal(t, 0.0, invoice.Items[1].TaxRate)
	assert.Equal(t, 30.0, invoice.Items[1].Total)
}

func TestCreateInvoice_unknownChargeable(t *testing.T) {
	db := newTestDB(t)
	fix := seedClub(t, db)
	r := invoicesRouter(db, fix.Org.ID)

	w := performJSON(t, r, "POST", "/invoices", map[string]interface{}{
		"userId": fix.Member.ID,
		"items": []map[string]interface{}{
			{"chargeableId": 999, "quantity": 1.0},
		},
	})
	require.Equal(t, 404, w.Code)

	var invoiceCount int64
	require.NoError(t, db.Model(&models.Invoice{}).Count(&invoiceCount).Error)
	assert.Equal(t, int64(0), invoiceCount)
}

func TestRemoveInvoiceItem(t *testing.T) {
	db := newTestDB(t)
	fix := seedClub(t, db)
	r := invoicesRouter(db, fix.Org.ID)

	flightHour := models.Chargeable{
		Name:           "Flight Time",
		Type:           models.ChargeableTypeFlightHour,
		TaxRate:        0.15,
		IsActive:       true,
		OrganizationID: fix.Org.ID,
	}
	require.NoError(t, db.Create(&flightHour).Error)
	landingFee := models.Chargeable{
		Name:           "Landing Fee",
		Type:           models.ChargeableTypeLandingFee,
		UnitPrice:      20,
		TaxRate:        0.15,
		IsActive:       true,
		OrganizationID: fix.Org.ID,
	}
	require.NoError(t, db.Create(&landingFee).Error)

	invoice := seedInvoice(t, db, fix, 454.25)
	flightItem := models.InvoiceItem{
		InvoiceID:      invoice.ID,
		ChargeableID:   flightHour.ID,
		Description:    "Flight Time: 2.50 hrs - ZK-ABC C172",
		Quantity:       1,
		UnitPrice:      375,
		TaxRate:        0.15,
		SubTotal:       375,
		Total:          431.25,
		OrganizationID: fix.Org.ID,
	}
	require.NoError(t, db.Create(&flightItem).Error)
	feeItem := models.InvoiceItem{
		InvoiceID:      invoice.ID,
		ChargeableID:   landingFee.ID,
		Description:    "Landing Fee",
		Quantity:       1,
		UnitPrice:      20,
		TaxRate:        0.15,
		SubTotal:       20,
		Total:          23,
		OrganizationID: fix.Org.ID,
	}
	require.NoError(t, db.Create(&feeItem).Error)

	// the flight charge line is protected
	w := performJSON(t, r, "DELETE",
		fmt.Sprintf("/invoices/%d/items/%d", invoice.ID, flightItem.ID), nil)
	require.Equal(t, 400, w.Code)
	assert.Contains(t, decodeBody(t, w)["error"], "cannot be removed")

	// removing the fee recomputes the totals
	w = performJSON(t, r, "DELETE",
		fmt.Sprintf("/invoices/%d/items/%d", invoice.ID, feeItem.ID), nil)
	require.Equal(t, 200, w.Code, w.Body.String())

	resp := decodeBody(t, w)
	assert.Equal(t, 375.0, resp["subtotal"])
	assert.Equal(t, 56.25, resp["tax"])
	assert.Equal(t, 431.25, resp["total"])

	var remaining int64
	require.NoError(t, db.Model(&models.InvoiceItem{}).
		Where("invoice_id = ?", invoice.ID).Count(&remaining).Error)
	assert.Equal(t, int64(1), remaining)
}

func TestRemoveInvoiceItem_firstLineOfGenericInvoice(t *testing.T) {
	db := newTestDB(t)
	fix := seedClub(t, db)
	r := invoicesRouter(db, fix.Org.ID)

	chargeable := models.Chargeable{
		Name:           "Headset Hire",
		Type:           models.ChargeableTypeEquipment,
		UnitPrice:      10,
		TaxRate:        0.15,
		IsActive:       true,
		OrganizationID: fix.Org.ID,
	}
	require.NoError(t, db.Create(&chargeable).Error)

	invoice := seedInvoice(t, db, fix, 23.0)
	first := models.InvoiceItem{
		InvoiceID:      invoice.ID,
		ChargeableID:   chargeable.ID,
		Description:    "Headset Hire",
		Quantity:       1,
		UnitPrice:      10,
		TaxRate:        0.15,
		SubTotal:       10,
		Total:          11.5,
		OrganizationID: fix.Org.ID,
	}
	require.NoError(t, db.Create(&first).Error)
	second := models.InvoiceItem{
		InvoiceID:      invoice.ID,
		ChargeableID:   chargeable.ID,
		Description:    "Headset Hire",
		Quantity:       1,
		UnitPrice:      10,
		TaxRate:        0.15,
		SubTotal:       10,
		Total:          11.5,
		OrganizationID: fix.Org.ID,
	}
	require.NoError(t, db.Create(&second).Error)

	// only the flight charge line is protected; a generic invoice's first
	// line can be removed like any other
	w := performJSON(t, r, "DELETE",
		fmt.Sprintf("/invoices/%d/items/%d", invoice.ID, first.ID), nil)
	require.Equal(t, 200, w.Code, w.Body.String())

	resp := decodeBody(t, w)
	assert.Equal(t, 10.0, resp["subtotal"])
	assert.Equal(t, 1.5, resp["tax"])
	assert.Equal(t, 11.5, resp["total"])

	var remaining int64
	require.NoError(t, db.Model(&models.InvoiceItem{}).
		Where("invoice_id = ?", invoice.ID).Count(&remaining).Error)
	assert.Equal(t, int64(1), remaining)
}

func TestUpdateInvoiceItem_recomputesTotals(t *testing.T) {
	db := newTestDB(t)
	fix := seedClub(t, db)
	r := invoicesRouter(db, fix.Org.ID)

	chargeable := models.Chargeable{
		Name:           "Landing Fee",
		Type:           models.ChargeableTypeLandingFee,
		UnitPrice:      20,
		TaxRate:        0.15,
		IsActive:       true,
		OrganizationID: fix.Org.ID,
	}
	require.NoError(t, db.Create(&chargeable).Error)

	invoice := seedInvoice(t, db, fix, 23.0)
	item := models.InvoiceItem{
		InvoiceID:      invoice.ID,
		ChargeableID:   chargeable.ID,
		Description:    "Landing Fee",
		Quantity:       1,
		UnitPrice:      20,
		TaxRate:        0.15,
		SubTotal:       20,
		Total:          23,
		OrganizationID: fix.Org.ID,
	}
	require.NoError(t, db.Create(&item).Error)

	w := performJSON(t, r, "PATCH",
		fmt.Sprintf("/invoices/%d/items/%d", invoice.ID, item.ID),
		map[string]interface{}{
			"description": "Landing Fee x3",
			"quantity":    3.0,
		})
	require.Equal(t, 200, w.Code, w.Body.String())

	resp := decodeBody(t, w)
	assert.Equal(t, "Landing Fee x3", resp["description"])
	assert.Equal(t, 60.0, resp["subTotal"])
	assert.Equal(t, 69.0, resp["total"])

	var updated models.Invoice
	require.NoError(t, db.First(&updated, invoice.ID).Error)
	assert.Equal(t, 60.0, updated.Subtotal)
	assert.Equal(t, 9.0, updated.Tax)
	assert.Equal(t, 69.0, updated.Total)

	// zero quantity is rejected
	w = performJSON(t, r, "PATCH",
		fmt.Sprintf("/invoices/%d/items/%d", invoice.ID, item.ID),
		map[string]interface{}{"quantity": 0.0})
	require.Equal(t, 400, w.Code)
}

func TestGetUnpaidInvoicesCount(t *testing.T) {
	db := newTestDB(t)
	fix := seedClub(t, db)
	r := invoicesRouter(db, fix.Org.ID)

	seedInvoice(t, db, fix, 100)
	seedInvoice(t, db, fix, 200)
	paid := seedInvoice(t, db, fix, 300)
	require.NoError(t, db.Model(&paid).Update("status", models.InvoiceStatusPaid).Error)

	w := performJSON(t, r, "GET", "/invoices/unpaid-count", nil)
	require.Equal(t, 200, w.Code)
	assert.Equal(t, 2.0, decodeBody(t, w)["count"])
}

func TestEnsureFlightHourChargeable_idempotent(t *testing.T) {
	db := newTestDB(t)
	fix := seedClub(t, db)
	r := invoicesRouter(db, fix.Org.ID)

	w := performJSON(t, r, "POST", "/chargeables/ensure-flight-hour", nil)
	require.Equal(t, 200, w.Code, w.Body.String())
	first := decodeBody(t, w)
	assert.Equal(t, "Flight Time", first["name"])
	assert.Equal(t, "FLIGHT_HOUR", first["type"])

	w = performJSON(t, r, "POST", "/chargeables/ensure-flight-hour", nil)
	require.Equal(t, 200, w.Code)
	second := decodeBody(t, w)
	assert.Equal(t, first["ID"], second["ID"])

	var count int64
	require.NoError(t, db.Model(&models.Chargeable{}).
		Where("type = ?", models.ChargeableTypeFlightHour).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

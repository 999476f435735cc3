package handlers

import (
	"strconv"
	"time"

	"github.com/aeroclubnz/aeroclub-backend/internal/models"
	"github.com/aeroclubnz/aeroclub-backend/pkg/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetInvoices lists the organization's invoices, newest first
func GetInvoices(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetUint("organizationId")

		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		if page < 1 {
			page = 1
		}
		if limit < 1 || limit > 100 {
			limit = 20
		}
		offset := (page - 1) * limit

		query := db.Model(&models.Invoice{}).Where("organization_id = ?", orgID)
		if status := c.Query("status"); status != "" {
			query = query.Where("status = ?", status)
		}
		if userID := c.Query("userId"); userID != "" {
			query = query.Where("user_id = ?", userID)
		}

		var total int64
		if err := query.Count(&total).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch invoices"})
			return
		}

		var invoices []models.Invoice
		if err := query.Preload("User").
			Order("created_at DESC").
			Limit(limit).Offset(offset).
			Find(&invoices).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch invoices"})
			return
		}

		totalPages := int((total + int64(limit) - 1) / int64(limit))
		c.JSON(200, gin.H{
			"invoices":   invoices,
			"total":      total,
			"page":       page,
			"totalPages": totalPages,
		})
	}
}

// GetInvoice returns one invoice with its items and payments, plus the
// balance remaining after completed payments
func GetInvoice(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetUint("organizationId")

		var invoice models.Invoice
		if err := db.Preload("User").
			Preload("Items", func(tx *gorm.DB) *gorm.DB {
				return tx.Order("invoice_items.id ASC")
			}).
			Preload("Items.Chargeable").
			Preload("Payments").
			Where("organization_id = ?", orgID).
			First(&invoice, c.Param("id")).Error; err != nil {
			c.JSON(404, gin.H{"error": "Invoice not found"})
			return
		}

		paid := 0.0
		for _, payment := range invoice.Payments {
			if payment.Status == models.PaymentStatusCompleted {
				paid += payment.Amount
			}
		}

		c.JSON(200, gin.H{
			"invoice":          invoice,
			"amountPaid":       utils.Round2(paid),
			"balanceRemaining": utils.Round2(invoice.Total - paid),
		})
	}
}

type CreateInvoiceItemInput struct {
	ChargeableID uint    `json:"chargeableId" binding:"required"`
	Description  string  `json:"description"`
	Quantity     float64 `json:"quantity" binding:"required,gt=0"`
	UnitPrice    *float64 `json:"unitPrice"`
}

type CreateInvoiceInput struct {
	UserID    uint                     `json:"userId" binding:"required"`
	Reference string                   `json:"reference"`
	Items     []CreateInvoiceItemInput `json:"items" binding:"required,min=1"`
}

// CreateInvoice raises an ad hoc invoice from chargeable line items. Unlike
// flight invoicing, each line uses its chargeable's own tax rate.
func CreateInvoice(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetUint("organizationId")

		var input CreateInvoiceInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		var user models.User
		if err := db.Where("organization_id = ?", orgID).First(&user, input.UserID).Error; err != nil {
			c.JSON(404, gin.H{"error": "Member not found"})
			return
		}

		// Resolve every chargeable before opening the transaction
		type resolvedItem struct {
			chargeable models.Chargeable
			input      CreateInvoiceItemInput
			unitPrice  float64
		}
		resolved := make([]resolvedItem, 0, len(input.Items))
		for _, item := range input.Items {
			var chargeable models.Chargeable
			if err := db.Where("organization_id = ? AND is_active = ?", orgID, true).
				First(&chargeable, item.ChargeableID).Error; err != nil {
				c.JSON(404, gin.H{"error": "Chargeable not found"})
				return
			}
			unitPrice := chargeable.UnitPrice
			if item.UnitPrice != nil {
				if *item.UnitPrice < 0 {
					c.JSON(400, gin.H{"error": "Unit price must be non-negative"})
					return
				}
				unitPrice = *item.UnitPrice
			}
			resolved = append(resolved, resolvedItem{chargeable: chargeable, input: item, unitPrice: unitPrice})
		}

		itemInputs := make([]utils.InvoiceItemInput, len(resolved))
		for i, r := range resolved {
			itemInputs[i] = utils.InvoiceItemInput{
				Quantity:  r.input.Quantity,
				UnitPrice: r.unitPrice,
				TaxRate:   r.chargeable.TaxRate,
			}
		}
		totals := utils.CalculateInvoiceTotals(itemInputs)

		tx := db.Begin()
		defer func() {
			if r := recover(); r != nil {
				tx.Rollback()
			}
		}()

		invoice := models.Invoice{
			UserID:         input.UserID,
			OrganizationID: orgID,
			Reference:      input.Reference,
			Status:         models.InvoiceStatusPending,
			Subtotal:       totals.Subtotal,
			Tax:            totals.Tax,
			Total:          totals.Total,
			DueDate:        time.Now().AddDate(0, 0, utils.InvoiceDueDays),
		}
		if err := tx.Create(&invoice).Error; err != nil {
			tx.Rollback()
			c.JSON(500, gin.H{"error": "Failed to create invoice"})
			return
		}

		for _, r := range resolved {
			description := r.input.Description
			if description == "" {
				description = r.chargeable.Name
			}
			lineInput := utils.InvoiceItemInput{
				Quantity:  r.input.Quantity,
				UnitPrice: r.unitPrice,
				TaxRate:   r.chargeable.TaxRate,
			}
			item := models.InvoiceItem{
				InvoiceID:      invoice.ID,
				ChargeableID:   r.chargeable.ID,
				Description:    description,
				Quantity:       r.input.Quantity,
				UnitPrice:      r.unitPrice,
				TaxRate:        r.chargeable.TaxRate,
				SubTotal:       utils.ItemSubtotal(lineInput),
				Total:          utils.ItemTotal(lineInput),
				OrganizationID: orgID,
			}
			if err := tx.Create(&item).Error; err != nil {
				tx.Rollback()
				c.JSON(500, gin.H{"error": "Failed to create invoice items"})
				return
			}
		}

		if err := tx.Commit().Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to create invoice"})
			return
		}

		c.JSON(201, gin.H{"invoiceId": invoice.ID})
	}
}

type UpdateInvoiceItemInput struct {
	Description *string  `json:"description"`
	Quantity    *float64 `json:"quantity"`
	UnitPrice   *float64 `json:"unitPrice"`
}

// UpdateInvoiceItem edits a line on a pending invoice and recomputes the
// totals. The flight charge line can be re-described and re-priced but never
// removed.
func UpdateInvoiceItem(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetUint("organizationId")

		var input UpdateInvoiceItemInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		var invoice models.Invoice
		if err := db.Where("organization_id = ?", orgID).
			First(&invoice, c.Param("id")).Error; err != nil {
			c.JSON(404, gin.H{"error": "Invoice not found"})
			return
		}

		if invoice.Status != models.InvoiceStatusPending {
			c.JSON(400, gin.H{"error": "Only pending invoices can be modified"})
			return
		}

		var item models.InvoiceItem
		if err := db.Where("invoice_id = ?", invoice.ID).
			First(&item, c.Param("itemId")).Error; err != nil {
			c.JSON(404, gin.H{"error": "Invoice item not found"})
			return
		}

		if input.Description != nil {
			item.Description = *input.Description
		}
		if input.Quantity != nil {
			if *input.Quantity <= 0 {
				c.JSON(400, gin.H{"error": "Quantity must be positive"})
				return
			}
			item.Quantity = *input.Quantity
		}
		if input.UnitPrice != nil {
			if *input.UnitPrice < 0 {
				c.JSON(400, gin.H{"error": "Unit price must be non-negative"})
				return
			}
			item.UnitPrice = *input.UnitPrice
		}

		lineInput := utils.InvoiceItemInput{
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			TaxRate:   item.TaxRate,
		}
		item.SubTotal = utils.ItemSubtotal(lineInput)
		item.Total = utils.ItemTotal(lineInput)

		tx := db.Begin()
		defer func() {
			if r := recover(); r != nil {
				tx.Rollback()
			}
		}()

		if err := tx.Save(&item).Error; err != nil {
			tx.Rollback()
			c.JSON(500, gin.H{"error": "Failed to update invoice item"})
			return
		}

		var items []models.InvoiceItem
		if err := tx.Where("invoice_id = ?", invoice.ID).Find(&items).Error; err != nil {
			tx.Rollback()
			c.JSON(500, gin.H{"error": "Failed to update invoice totals"})
			return
		}

		subtotal := 0.0
		tax := 0.0
		for _, it := range items {
			subtotal += it.SubTotal
			tax += utils.ItemTax(utils.InvoiceItemInput{
				Quantity:  it.Quantity,
				UnitPrice: it.UnitPrice,
				TaxRate:   it.TaxRate,
			})
		}

		if err := tx.Model(&models.Invoice{}).Where("id = ?", invoice.ID).Updates(map[string]interface{}{
			"subtotal": utils.Round2(subtotal),
			"tax":      utils.Round2(tax),
			"total":    utils.Round2(subtotal + tax),
		}).Error; err != nil {
			tx.Rollback()
			c.JSON(500, gin.H{"error": "Failed to update invoice totals"})
			return
		}

		if err := tx.Commit().Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to update invoice item"})
			return
		}

		c.JSON(200, item)
	}
}

// RemoveInvoiceItem deletes a line from a pending invoice and recomputes the
// totals. The flight charge line on a flight invoice cannot be removed.
func RemoveInvoiceItem(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetUint("organizationId")

		var invoice models.Invoice
		if err := db.Preload("Items", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("invoice_items.id ASC")
		}).Preload("Items.Chargeable").
			Where("organization_id = ?", orgID).
			First(&invoice, c.Param("id")).Error; err != nil {
			c.JSON(404, gin.H{"error": "Invoice not found"})
			return
		}

		if invoice.Status != models.InvoiceStatusPending {
			c.JSON(400, gin.H{"error": "Only pending invoices can be modified"})
			return
		}

		itemID, err := strconv.ParseUint(c.Param("itemId"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid item ID"})
			return
		}

		itemIndex := -1
		for i, item := range invoice.Items {
			if item.ID == uint(itemID) {
				itemIndex = i
				break
			}
		}
		if itemIndex == -1 {
			c.JSON(404, gin.H{"error": "Invoice item not found"})
			return
		}

		target := invoice.Items[itemIndex]
		if target.Chargeable != nil && target.Chargeable.Type == models.ChargeableTypeFlightHour {
			c.JSON(400, gin.H{"error": "The flight charge item cannot be removed"})
			return
		}

		tx := db.Begin()
		defer func() {
			if r := recover(); r != nil {
				tx.Rollback()
			}
		}()

		if err := tx.Delete(&invoice.Items[itemIndex]).Error; err != nil {
			tx.Rollback()
			c.JSON(500, gin.H{"error": "Failed to remove invoice item"})
			return
		}

		subtotal := 0.0
		tax := 0.0
		for i, item := range invoice.Items {
			if i == itemIndex {
				continue
			}
			subtotal += item.SubTotal
			tax += utils.ItemTax(utils.InvoiceItemInput{
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
				TaxRate:   item.TaxRate,
			})
		}
		invoice.Subtotal = utils.Round2(subtotal)
		invoice.Tax = utils.Round2(tax)
		invoice.Total = utils.Round2(subtotal + tax)

		if err := tx.Model(&models.Invoice{}).Where("id = ?", invoice.ID).Updates(map[string]interface{}{
			"subtotal": invoice.Subtotal,
			"tax":      invoice.Tax,
			"total":    invoice.Total,
		}).Error; err != nil {
			tx.Rollback()
			c.JSON(500, gin.H{"error": "Failed to update invoice totals"})
			return
		}

		if err := tx.Commit().Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to remove invoice item"})
			return
		}

		c.JSON(200, gin.H{
			"subtotal": invoice.Subtotal,
			"tax":      invoice.Tax,
			"total":    invoice.Total,
		})
	}
}

// GetUnpaidInvoicesCount returns how many pending invoices the organization has
func GetUnpaidInvoicesCount(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetUint("organizationId")

		var count int64
		if err := db.Model(&models.Invoice{}).
			Where("organization_id = ? AND status = ?", orgID, models.InvoiceStatusPending).
			Count(&count).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to count unpaid invoices"})
			return
		}

		c.JSON(200, gin.H{"count": count})
	}
}

package handlers

import (
	"github.com/aeroclubnz/aeroclub-backend/internal/models"
	"github.com/aeroclubnz/aeroclub-backend/pkg/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetChargeables lists the organization's billable item definitions,
// optionally filtered by type
func GetChargeables(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetUint("organizationId")

		query := db.Where("organization_id = ? AND is_active = ?", orgID, true)
		if chargeableType := c.Query("type"); chargeableType != "" {
			query = query.Where("type = ?", chargeableType)
		}

		var chargeables []models.Chargeable
		if err := query.Order("name ASC").Find(&chargeables).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch chargeables"})
			return
		}

		c.JSON(200, chargeables)
	}
}

type CreateChargeableInput struct {
	Name        string                `json:"name" binding:"required"`
	Description string                `json:"description"`
	Type        models.ChargeableType `json:"type" binding:"required"`
	UnitPrice   float64               `json:"unitPrice" binding:"gte=0"`
	TaxRate     *float64              `json:"taxRate"`
}

// CreateChargeable adds a billable item definition for the organization
func CreateChargeable(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetUint("organizationId")

		var input CreateChargeableInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		if !models.IsValidChargeableType(input.Type) {
			c.JSON(400, gin.H{"error": "Invalid chargeable type"})
			return
		}

		taxRate := utils.DefaultTaxRate
		if input.TaxRate != nil {
			if *input.TaxRate < 0 || *input.TaxRate > 1 {
				c.JSON(400, gin.H{"error": "Tax rate must be between 0 and 1"})
				return
			}
			taxRate = *input.TaxRate
		}

		chargeable := models.Chargeable{
			Name:             input.Name,
			Description:      input.Description,
			Type:             input.Type,
			UnitPrice:        input.UnitPrice,
			UnitPriceInclTax: utils.Round2(input.UnitPrice * (1 + taxRate)),
			TaxRate:          taxRate,
			IsActive:         true,
			OrganizationID:   orgID,
		}

		if err := db.Create(&chargeable).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to create chargeable"})
			return
		}

		c.JSON(201, chargeable)
	}
}

// EnsureFlightHourChargeableHandler returns the organization's FLIGHT_HOUR
// chargeable, creating it when missing. The check-in screen calls this before
// submitting.
func EnsureFlightHourChargeableHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetUint("organizationId")

		chargeable, err := EnsureFlightHourChargeable(db, orgID)
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to ensure FLIGHT_HOUR chargeable exists"})
			return
		}

		c.JSON(200, chargeable)
	}
}

// EnsureFlightHourChargeable finds the active FLIGHT_HOUR chargeable for the
// organization, creating a zero-priced one when none exists. The unit price is
// a placeholder; flight invoicing always prices from the aircraft rate.
func EnsureFlightHourChargeable(db *gorm.DB, organizationID uint) (models.Chargeable, error) {
	var chargeable models.Chargeable
	err := db.Where("organization_id = ? AND type = ? AND is_active = ?",
		organizationID, models.ChargeableTypeFlightHour, true).
		First(&chargeable).Error
	if err == nil {
		return chargeable, nil
	}
	if err != gorm.ErrRecordNotFound {
		return models.Chargeable{}, err
	}

	chargeable = models.Chargeable{
		Name:           "Flight Time",
		Description:    "Standard flight time charge",
		Type:           models.ChargeableTypeFlightHour,
		UnitPrice:      0,
		TaxRate:        utils.DefaultTaxRate,
		IsActive:       true,
		OrganizationID: organizationID,
	}
	if err := db.Create(&chargeable).Error; err != nil {
		return models.Chargeable{}, err
	}
	return chargeable, nil
}

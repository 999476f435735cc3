package handlers

import (
	"strconv"

	"github.com/aeroclubnz/aeroclub-backend/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetAircraft lists the organization's aircraft with types and rates
func GetAircraft(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetUint("organizationId")

		var aircraft []models.Aircraft
		if err := db.Preload("AircraftType").
			Preload("Rates").
			Where("organization_id = ?", orgID).
			Find(&aircraft).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch aircraft"})
			return
		}

		c.JSON(200, aircraft)
	}
}

// GetAircraftRates lists the configured rates for one aircraft
func GetAircraftRates(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetUint("organizationId")

		var aircraft models.Aircraft
		if err := db.Where("organization_id = ?", orgID).First(&aircraft, c.Param("id")).Error; err != nil {
			c.JSON(404, gin.H{"error": "Aircraft not found"})
			return
		}

		var rates []models.AircraftRate
		if err := db.Preload("FlightType").
			Where("aircraft_id = ? AND organization_id = ?", aircraft.ID, orgID).
			Find(&rates).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch rates"})
			return
		}

		c.JSON(200, rates)
	}
}

// GetAircraftTechLog returns the latest instrument readings for an aircraft
func GetAircraftTechLog(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetUint("organizationId")

		var aircraft models.Aircraft
		if err := db.Where("organization_id = ?", orgID).First(&aircraft, c.Param("id")).Error; err != nil {
			c.JSON(404, gin.H{"error": "Aircraft not found"})
			return
		}

		var techLog models.AircraftTechLog
		if err := db.Where("aircraft_id = ?", aircraft.ID).
			Order("created_at DESC").
			First(&techLog).Error; err != nil {
			c.JSON(404, gin.H{"error": "No tech log entries for this aircraft"})
			return
		}

		c.JSON(200, techLog)
	}
}

// CreateTechLogEntry appends a new instrument reading. Readings only move
// forward; a reading below the current one is rejected.
func CreateTechLogEntry(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetUint("organizationId")

		aircraftID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid aircraft ID"})
			return
		}

		var input struct {
			CurrentTacho float64 `json:"currentTacho" binding:"required"`
			CurrentHobbs float64 `json:"currentHobbs" binding:"required"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		if input.CurrentTacho < 0 || input.CurrentHobbs < 0 {
			c.JSON(400, gin.H{"error": "Readings must be non-negative"})
			return
		}

		var aircraft models.Aircraft
		if err := db.Where("organization_id = ?", orgID).First(&aircraft, aircraftID).Error; err != nil {
			c.JSON(404, gin.H{"error": "Aircraft not found"})
			return
		}

		var latest models.AircraftTechLog
		if err := db.Where("aircraft_id = ?", aircraft.ID).
			Order("created_at DESC").
			First(&latest).Error; err == nil {
			if input.CurrentTacho < latest.CurrentTacho || input.CurrentHobbs < latest.CurrentHobbs {
				c.JSON(400, gin.H{"error": "Readings cannot go backwards"})
				return
			}
		}

		entry := models.AircraftTechLog{
			AircraftID:   aircraft.ID,
			CurrentTacho: input.CurrentTacho,
			CurrentHobbs: input.CurrentHobbs,
		}

		if err := db.Create(&entry).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to create tech log entry"})
			return
		}

		c.JSON(201, entry)
	}
}

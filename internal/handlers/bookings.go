package handlers

import (
	"context"
	"strconv"

	"github.com/aeroclubnz/aeroclub-backend/internal/models"
	"github.com/aeroclubnz/aeroclub-backend/internal/services"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetBookings lists the organization's bookings with pagination
func GetBookings(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetUint("organizationId")

		pageStr := c.DefaultQuery("page", "1")
		limitStr := c.DefaultQuery("limit", "10")

		page, err := strconv.Atoi(pageStr)
		if err != nil || page < 1 {
			page = 1
		}

		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 || limit > 100 {
			limit = 10
		}

		offset := (page - 1) * limit

		var bookings []models.Booking
		if err := db.Preload("Aircraft").
			Preload("FlightType").
			Preload("User").
			Preload("Instructor").
			Where("organization_id = ?", orgID).
			Order("created_at DESC").
			Offset(offset).
			Limit(limit).
			Find(&bookings).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch bookings"})
			return
		}

		var total int64
		db.Model(&models.Booking{}).Where("organization_id = ?", orgID).Count(&total)

		c.JSON(200, gin.H{
			"bookings": bookings,
			"pagination": gin.H{
				"page":       page,
				"limit":      limit,
				"total":      total,
				"totalPages": (total + int64(limit) - 1) / int64(limit),
			},
		})
	}
}

// CreateBooking schedules a flight for a member
func CreateBooking(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetUint("organizationId")

		var input struct {
			AircraftID   uint   `json:"aircraftId" binding:"required"`
			FlightTypeID uint   `json:"flightTypeId" binding:"required"`
			UserID       *uint  `json:"userId"`
			InstructorID *uint  `json:"instructorId"`
			LessonID     *uint  `json:"lessonId"`
			Description  string `json:"description"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		var aircraft models.Aircraft
		if err := db.Where("organization_id = ?", orgID).First(&aircraft, input.AircraftID).Error; err != nil {
			c.JSON(404, gin.H{"error": "Aircraft not found"})
			return
		}

		var flightType models.FlightType
		if err := db.Where("organization_id = ?", orgID).First(&flightType, input.FlightTypeID).Error; err != nil {
			c.JSON(404, gin.H{"error": "Flight type not found"})
			return
		}

		booking := models.Booking{
			Status:         models.BookingStatusConfirmed,
			AircraftID:     input.AircraftID,
			FlightTypeID:   input.FlightTypeID,
			UserID:         input.UserID,
			InstructorID:   input.InstructorID,
			LessonID:       input.LessonID,
			OrganizationID: orgID,
			Description:    input.Description,
		}

		if err := db.Create(&booking).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to create booking"})
			return
		}

		c.JSON(201, booking)
	}
}

// GetBooking retrieves one booking with everything check-in needs: aircraft
// with type and rates, people, flight type, lesson, latest tech log readings
// and the rate applicable to the booking's flight type
func GetBooking(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetUint("organizationId")

		var booking models.Booking
		if err := db.Preload("Aircraft").
			Preload("Aircraft.AircraftType").
			Preload("Aircraft.Rates", "organization_id = ?", orgID).
			Preload("FlightType").
			Preload("User").
			Preload("Instructor").
			Preload("Lesson").
			Preload("BookingFlightTimes").
			Where("organization_id = ?", orgID).
			First(&booking, c.Param("id")).Error; err != nil {
			c.JSON(404, gin.H{"error": "Booking not found"})
			return
		}

		// Latest tech log row holds the start readings for check-in
		var techLog *models.AircraftTechLog
		var latest models.AircraftTechLog
		if err := db.Where("aircraft_id = ?", booking.AircraftID).
			Order("created_at DESC").
			First(&latest).Error; err == nil {
			techLog = &latest
		}

		// Default rate selection: the rate matching the booking's flight type
		var applicableRate *models.AircraftRate
		if booking.Aircraft != nil {
			for i := range booking.Aircraft.Rates {
				if booking.Aircraft.Rates[i].FlightTypeID == booking.FlightTypeID {
					applicableRate = &booking.Aircraft.Rates[i]
					break
				}
			}
		}

		c.JSON(200, gin.H{
			"booking":        booking,
			"techLog":        techLog,
			"applicableRate": applicableRate,
		})
	}
}

// CheckOutBooking moves a confirmed booking to flying and tells the flight
// board
func CheckOutBooking(db *gorm.DB, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetUint("organizationId")

		var booking models.Booking
		if err := db.Preload("Aircraft").
			Where("organization_id = ?", orgID).
			First(&booking, c.Param("id")).Error; err != nil {
			c.JSON(404, gin.H{"error": "Booking not found"})
			return
		}

		if booking.Status != models.BookingStatusConfirmed {
			c.JSON(400, gin.H{"error": "Booking must be confirmed before check-out"})
			return
		}

		booking.Status = models.BookingStatusFlying
		if err := db.Save(&booking).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to update booking status"})
			return
		}

		registration := ""
		if booking.Aircraft != nil {
			registration = booking.Aircraft.Registration
		}
		hub.SendFlightStatusUpdate(services.FlightStatusUpdate{
			BookingID:    booking.ID,
			AircraftID:   booking.AircraftID,
			Registration: registration,
			Status:       string(booking.Status),
		})

		ctx := context.Background()
		services.InvalidateDashboardStats(ctx, orgID)
		services.PublishBookingUpdate(ctx, booking.ID, string(booking.Status), nil)

		c.JSON(200, gin.H{"success": true, "status": booking.Status})
	}
}

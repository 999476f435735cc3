package handlers

import (
	"context"
	"fmt"
	"log"
	"math"
	"strconv"
	"time"

	"github.com/aeroclubnz/aeroclub-backend/internal/models"
	"github.com/aeroclubnz/aeroclub-backend/internal/services"
	"github.com/aeroclubnz/aeroclub-backend/pkg/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// chargeTolerance is the maximum drift allowed between client-supplied
// figures and the server's own recomputation from raw readings
const chargeTolerance = 0.01

type AdditionalInvoiceItem struct {
	Description  string  `json:"description"`
	Quantity     float64 `json:"quantity" binding:"required,gt=0"`
	UnitPrice    float64 `json:"unitPrice" binding:"gte=0"`
	Total        float64 `json:"total" binding:"gte=0"`
	ChargeableID uint    `json:"chargeableId" binding:"required"`
}

type CheckInInput struct {
	StartTacho             *float64                `json:"startTacho" binding:"required"`
	EndTacho               *float64                `json:"endTacho" binding:"required"`
	StartHobbs             *float64                `json:"startHobbs" binding:"required"`
	EndHobbs               *float64                `json:"endHobbs" binding:"required"`
	FlightTime             float64                 `json:"flightTime" binding:"required,gt=0"`
	Comments               string                  `json:"comments"`
	CalculatedCharge       *float64                `json:"calculatedCharge" binding:"required"`
	ChargeableID           uint                    `json:"chargeableId" binding:"required"`
	OrganizationID         uint                    `json:"organizationId" binding:"required"`
	RateID                 *uint                   `json:"rateId"`
	AdditionalInvoiceItems []AdditionalInvoiceItem `json:"additionalInvoiceItems"`
}

// CalculateFlightCharges computes elapsed times, the instrument discrepancy
// warning and the flight charge for a booking, without writing anything. The
// operator calls this before check-in; a missing end reading simply yields no
// charge.
func CalculateFlightCharges(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetUint("organizationId")

		var input struct {
			EndTacho *float64 `json:"endTacho"`
			EndHobbs *float64 `json:"endHobbs"`
			RateID   *uint    `json:"rateId"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		var booking models.Booking
		if err := db.Preload("Aircraft").
			Preload("Aircraft.Rates", "organization_id = ?", orgID).
			Where("organization_id = ?", orgID).
			First(&booking, c.Param("id")).Error; err != nil {
			c.JSON(404, gin.H{"error": "Booking not found"})
			return
		}

		if booking.Aircraft == nil {
			c.JSON(400, gin.H{"error": "Booking has no aircraft"})
			return
		}

		var techLog models.AircraftTechLog
		if err := db.Where("aircraft_id = ?", booking.AircraftID).
			Order("created_at DESC").
			First(&techLog).Error; err != nil {
			c.JSON(400, gin.H{"error": "No tech log readings for this aircraft"})
			return
		}

		result := utils.FlightTimeResult{}
		if input.EndTacho != nil {
			if elapsed, ok := utils.ElapsedTime(techLog.CurrentTacho, *input.EndTacho); ok {
				result.TachoElapsed = &elapsed
			}
		}
		if input.EndHobbs != nil {
			if elapsed, ok := utils.ElapsedTime(techLog.CurrentHobbs, *input.EndHobbs); ok {
				result.HobbsElapsed = &elapsed
			}
		}
		if result.TachoElapsed != nil && result.HobbsElapsed != nil {
			result.DiscrepancyPct = utils.TimeDiscrepancyPct(*result.TachoElapsed, *result.HobbsElapsed)
			result.TimeWarning = result.DiscrepancyPct > utils.DiscrepancyThresholdPct
		}

		response := gin.H{
			"startTacho":       techLog.CurrentTacho,
			"startHobbs":       techLog.CurrentHobbs,
			"tachoElapsed":     result.TachoElapsed,
			"hobbsElapsed":     result.HobbsElapsed,
			"timeWarning":      result.TimeWarning,
			"discrepancyPct":   result.DiscrepancyPct,
			"calculatedCharge": nil,
			"flightTime":       nil,
		}

		rate := resolveRate(booking.Aircraft.Rates, booking.FlightTypeID, input.RateID)
		if rate != nil {
			response["rateId"] = rate.ID
			response["rate"] = rate.Rate
		}

		hours, ok := utils.BillableHours(
			booking.Aircraft.RecordTacho,
			booking.Aircraft.RecordHobbs,
			result.TachoElapsed,
			result.HobbsElapsed,
		)
		if ok && rate != nil {
			response["flightTime"] = hours
			response["calculatedCharge"] = utils.FlightCharge(hours, rate.Rate)
		}

		c.JSON(200, response)
	}
}

// CheckInBooking finalizes a flight: it validates the operator's readings,
// recomputes the charge server-side, then creates the flight-time record,
// marks the booking complete and raises the invoice with its items in a
// single transaction.
func CheckInBooking(db *gorm.DB, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetUint("organizationId")

		bookingID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid booking ID"})
			return
		}

		var input CheckInInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		if input.OrganizationID != orgID {
			c.JSON(403, gin.H{"error": "User does not have access to this organization"})
			return
		}

		if *input.StartTacho < 0 || *input.EndTacho < 0 || *input.StartHobbs < 0 || *input.EndHobbs < 0 {
			c.JSON(400, gin.H{"error": "Instrument readings must be non-negative"})
			return
		}

		if *input.CalculatedCharge < 0 {
			c.JSON(400, gin.H{"error": "Calculated charge must be non-negative"})
			return
		}

		var booking models.Booking
		if err := db.Preload("Aircraft").
			Preload("Aircraft.AircraftType").
			Preload("Aircraft.Rates", "organization_id = ?", orgID).
			Preload("FlightType").
			Preload("User").
			Where("organization_id = ?", orgID).
			First(&booking, bookingID).Error; err != nil {
			c.JSON(404, gin.H{"error": "Booking not found"})
			return
		}

		if booking.UserID == nil {
			c.JSON(404, gin.H{"error": "Booking not found or has no associated user"})
			return
		}

		// Double check-in guard
		switch booking.Status {
		case models.BookingStatusComplete:
			c.JSON(400, gin.H{"error": "Booking has already been checked in"})
			return
		case models.BookingStatusCancelled, models.BookingStatusUnconfirmed:
			c.JSON(400, gin.H{"error": fmt.Sprintf("Booking cannot be checked in from status %q", booking.Status)})
			return
		}

		if booking.Aircraft == nil {
			c.JSON(400, gin.H{"error": "Booking has no aircraft"})
			return
		}

		// Recompute flight times from the raw readings rather than trusting
		// the client's arithmetic
		times := utils.CalculateFlightTimes(*input.StartTacho, *input.EndTacho, *input.StartHobbs, *input.EndHobbs)

		hours, ok := utils.BillableHours(
			booking.Aircraft.RecordTacho,
			booking.Aircraft.RecordHobbs,
			times.TachoElapsed,
			times.HobbsElapsed,
		)
		if !ok {
			c.JSON(400, gin.H{"error": "No valid time calculation available"})
			return
		}

		if math.Abs(hours-input.FlightTime) > chargeTolerance {
			c.JSON(400, gin.H{"error": "Flight time does not match the submitted readings"})
			return
		}

		rate := resolveRate(booking.Aircraft.Rates, booking.FlightTypeID, input.RateID)
		if rate == nil {
			c.JSON(400, gin.H{"error": "No rate selected for this aircraft and flight type"})
			return
		}

		charge := utils.FlightCharge(hours, rate.Rate)
		if math.Abs(charge-*input.CalculatedCharge) > chargeTolerance {
			c.JSON(400, gin.H{"error": "Calculated charge does not match flight time and rate"})
			return
		}

		// Validate ad hoc items and recompute their subtotals
		itemSubtotals := make([]float64, len(input.AdditionalInvoiceItems))
		for i, item := range input.AdditionalInvoiceItems {
			subTotal := utils.Round2(item.Quantity * item.UnitPrice)
			if math.Abs(subTotal-item.Total) > chargeTolerance {
				c.JSON(400, gin.H{"error": fmt.Sprintf("Item %d total does not match quantity and unit price", i+1)})
				return
			}
			itemSubtotals[i] = subTotal
		}

		taxRate := utils.DefaultTaxRate
		var org models.Organization
		if err := db.First(&org, orgID).Error; err == nil && org.TaxRate > 0 {
			taxRate = org.TaxRate
		}

		// The FLIGHT_HOUR chargeable is ensured outside the main transaction;
		// its failure aborts the whole check-in
		flightHourChargeable, err := EnsureFlightHourChargeable(db, orgID)
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to ensure FLIGHT_HOUR chargeable exists"})
			return
		}

		registration := booking.Aircraft.Registration
		flightTypeName := "Flight"
		if booking.FlightType != nil && booking.FlightType.Name != "" {
			flightTypeName = booking.FlightType.Name
		}
		aircraftModel := ""
		if booking.Aircraft.AircraftType != nil {
			aircraftModel = booking.Aircraft.AircraftType.Model
		}

		// Start transaction
		tx := db.Begin()
		defer func() {
			if r := recover(); r != nil {
				tx.Rollback()
			}
		}()

		flightTimes := models.BookingFlightTimes{
			StartTacho: *input.StartTacho,
			EndTacho:   *input.EndTacho,
			StartHobbs: *input.StartHobbs,
			EndHobbs:   *input.EndHobbs,
			FlightTime: hours,
		}
		if err := tx.Create(&flightTimes).Error; err != nil {
			tx.Rollback()
			c.JSON(500, gin.H{"error": "Failed to create flight times"})
			return
		}

		booking.BookingFlightTimesID = &flightTimes.ID
		booking.Status = models.BookingStatusComplete
		booking.Description = input.Comments
		if err := tx.Save(&booking).Error; err != nil {
			tx.Rollback()
			c.JSON(500, gin.H{"error": "Failed to update booking"})
			return
		}

		// Invoice totals are built from the per-item figures so the stored
		// total always equals the sum of the item totals, even when an item's
		// tax lands on a half-cent
		flightTax := utils.Round2(charge * taxRate)
		itemTaxes := make([]float64, len(itemSubtotals))
		subtotal := charge
		tax := flightTax
		for i, s := range itemSubtotals {
			itemTaxes[i] = utils.Round2(s * taxRate)
			subtotal += s
			tax += itemTaxes[i]
		}
		subtotal = utils.Round2(subtotal)
		tax = utils.Round2(tax)
		total := utils.Round2(subtotal + tax)
		dueDate := time.Now().AddDate(0, 0, utils.InvoiceDueDays)

		invoice := models.Invoice{
			UserID:         *booking.UserID,
			OrganizationID: orgID,
			Reference:      fmt.Sprintf("Flight: %s - %s", registration, flightTypeName),
			Status:         models.InvoiceStatusPending,
			Subtotal:       subtotal,
			Tax:            tax,
			Total:          total,
			DueDate:        dueDate,
		}
		if err := tx.Create(&invoice).Error; err != nil {
			tx.Rollback()
			c.JSON(500, gin.H{"error": "Failed to create invoice"})
			return
		}

		// Flight charge is always the first invoice item
		flightItem := models.InvoiceItem{
			InvoiceID:      invoice.ID,
			ChargeableID:   flightHourChargeable.ID,
			Description:    fmt.Sprintf("Flight Time: %.2f hrs - %s %s", hours, registration, aircraftModel),
			Quantity:       1,
			UnitPrice:      charge,
			TaxRate:        taxRate,
			SubTotal:       charge,
			Total:          utils.Round2(charge + flightTax),
			OrganizationID: orgID,
		}
		if err := tx.Create(&flightItem).Error; err != nil {
			tx.Rollback()
			c.JSON(500, gin.H{"error": "Failed to create invoice items"})
			return
		}

		for i, item := range input.AdditionalInvoiceItems {
			invoiceItem := models.InvoiceItem{
				InvoiceID:      invoice.ID,
				ChargeableID:   item.ChargeableID,
				Description:    item.Description,
				Quantity:       item.Quantity,
				UnitPrice:      item.UnitPrice,
				TaxRate:        taxRate,
				SubTotal:       itemSubtotals[i],
				Total:          utils.Round2(itemSubtotals[i] + itemTaxes[i]),
				OrganizationID: orgID,
			}
			if err := tx.Create(&invoiceItem).Error; err != nil {
				tx.Rollback()
				c.JSON(500, gin.H{"error": "Failed to create invoice items"})
				return
			}
		}

		if err := tx.Commit().Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to complete check-in"})
			return
		}

		ctx := context.Background()
		services.InvalidateDashboardStats(ctx, orgID)
		services.PublishBookingUpdate(ctx, booking.ID, string(booking.Status), map[string]interface{}{
			"invoiceId": invoice.ID,
		})

		hub.SendFlightStatusUpdate(services.FlightStatusUpdate{
			BookingID:    booking.ID,
			AircraftID:   booking.AircraftID,
			Registration: registration,
			Status:       string(booking.Status),
		})
		hub.SendInvoiceReady(*booking.UserID, services.InvoiceReady{
			InvoiceID: invoice.ID,
			BookingID: booking.ID,
			Total:     invoice.Total,
		})
		if times.TimeWarning {
			hub.SendMaintenanceAlert(services.MaintenanceAlert{
				BookingID:      booking.ID,
				AircraftID:     booking.AircraftID,
				Registration:   registration,
				DiscrepancyPct: times.DiscrepancyPct,
			})
		}

		services.SendInvoiceReadyNotification(ctx, db, *booking.UserID, invoice.ID, invoice.Reference, invoice.Total)

		if booking.User != nil && booking.User.Email != "" {
			if err := utils.SendInvoiceEmail(booking.User.Email, invoice.Reference, invoice.Total, invoice.DueDate); err != nil {
				log.Printf("Failed to send invoice email for invoice %d: %v", invoice.ID, err)
			}
		}

		c.JSON(200, gin.H{
			"success":   true,
			"invoiceId": invoice.ID,
		})
	}
}

// resolveRate picks the explicitly selected rate, falling back to the rate
// configured for the booking's flight type. Selection never falls back to an
// arbitrary rate.
func resolveRate(rates []models.AircraftRate, flightTypeID uint, rateID *uint) *models.AircraftRate {
	if rateID != nil {
		for i := range rates {
			if rates[i].ID == *rateID {
				return &rates[i]
			}
		}
		return nil
	}
	for i := range rates {
		if rates[i].FlightTypeID == flightTypeID {
			return &rates[i]
		}
	}
	return nil
}

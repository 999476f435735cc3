package handlers

import (
	"context"
	"time"

	"github.com/aeroclubnz/aeroclub-backend/internal/models"
	"github.com/aeroclubnz/aeroclub-backend/internal/services"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetDashboardStats returns the operations dashboard counters. Results are
// cached briefly in Redis since the front desk polls this; the connected
// client count is live and never cached.
func GetDashboardStats(db *gorm.DB, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetUint("organizationId")
		ctx := context.Background()

		if cached, err := services.GetDashboardStats(ctx, orgID); err == nil {
			cached["connectedClients"] = hub.GetConnectedClients()
			c.JSON(200, cached)
			return
		}

		now := time.Now()
		startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		endOfDay := startOfDay.AddDate(0, 0, 1)

		var todaysBookings int64
		if err := db.Model(&models.Booking{}).
			Where("organization_id = ? AND created_at >= ? AND created_at < ?", orgID, startOfDay, endOfDay).
			Count(&todaysBookings).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch dashboard stats"})
			return
		}

		var activeFlights int64
		if err := db.Model(&models.Booking{}).
			Where("organization_id = ? AND status = ?", orgID, models.BookingStatusFlying).
			Count(&activeFlights).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch dashboard stats"})
			return
		}

		var pendingInvoices int64
		if err := db.Model(&models.Invoice{}).
			Where("organization_id = ? AND status = ?", orgID, models.InvoiceStatusPending).
			Count(&pendingInvoices).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch dashboard stats"})
			return
		}

		var memberCount int64
		if err := db.Model(&models.User{}).
			Where("organization_id = ?", orgID).
			Count(&memberCount).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch dashboard stats"})
			return
		}

		stats := map[string]interface{}{
			"todaysBookings":  todaysBookings,
			"activeFlights":   activeFlights,
			"pendingInvoices": pendingInvoices,
			"memberCount":     memberCount,
		}

		services.SetDashboardStats(ctx, orgID, stats)

		stats["connectedClients"] = hub.GetConnectedClients()
		c.JSON(200, stats)
	}
}

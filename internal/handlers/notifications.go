package handlers

import (
	"github.com/aeroclubnz/aeroclub-backend/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RegisterDeviceTokenInput struct {
	Token    string `json:"token" binding:"required"`
	Platform string `json:"platform" binding:"required,oneof=ios android web"`
}

// RegisterDeviceToken stores a push token for the authenticated user.
// Re-registering an existing token moves it to the current user.
func RegisterDeviceToken(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")

		var input RegisterDeviceTokenInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		token := models.DeviceToken{
			UserID:   userID,
			Token:    input.Token,
			Platform: input.Platform,
		}

		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "token"}},
			DoUpdates: clause.AssignmentColumns([]string{"user_id", "platform"}),
		}).Create(&token).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to register device token"})
			return
		}

		c.JSON(200, gin.H{"success": true})
	}
}

// RemoveDeviceToken deletes a push token so the device stops receiving
// notifications
func RemoveDeviceToken(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")

		var input struct {
			Token string `json:"token" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		if err := db.Where("user_id = ? AND token = ?", userID, input.Token).
			Delete(&models.DeviceToken{}).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to remove device token"})
			return
		}

		c.JSON(200, gin.H{"success": true})
	}
}

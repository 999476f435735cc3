package handlers

import (
	"log"

	"github.com/aeroclubnz/aeroclub-backend/internal/models"
	"github.com/aeroclubnz/aeroclub-backend/pkg/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type RegisterInput struct {
	Name             string `json:"name" binding:"required"`
	Email            string `json:"email" binding:"required,email"`
	Password         string `json:"password" binding:"required,min=6"`
	Phone            string `json:"phone"`
	OrganizationID   uint   `json:"organizationId"`
	OrganizationName string `json:"organizationName"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register creates a user account. With organizationName it creates a new
// club and an ADMIN user; with organizationId it joins an existing club as a
// MEMBER with a fresh member account.
func Register(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input RegisterInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		if input.OrganizationID == 0 && input.OrganizationName == "" {
			c.JSON(400, gin.H{"error": "Either organizationId or organizationName is required"})
			return
		}

		var user models.User
		err := db.Transaction(func(tx *gorm.DB) error {
			orgID := input.OrganizationID
			role := models.UserRoleMember

			if input.OrganizationName != "" {
				org := models.Organization{
					Name:    input.OrganizationName,
					TaxRate: utils.DefaultTaxRate,
				}
				if err := tx.Create(&org).Error; err != nil {
					return err
				}
				orgID = org.ID
				role = models.UserRoleAdmin
			} else {
				var org models.Organization
				if err := tx.First(&org, orgID).Error; err != nil {
					return err
				}
			}

			user = models.User{
				Name:           input.Name,
				Email:          input.Email,
				Password:       input.Password,
				Phone:          input.Phone,
				Role:           role,
				OrganizationID: orgID,
			}
			if err := user.HashPassword(); err != nil {
				return err
			}
			if err := tx.Create(&user).Error; err != nil {
				return err
			}

			if role == models.UserRoleMember {
				account := models.MemberAccount{UserID: user.ID}
				if err := tx.Create(&account).Error; err != nil {
					return err
				}
			}

			return nil
		})
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to create user: " + err.Error()})
			return
		}

		// Welcome email is best-effort
		if err := utils.SendWelcomeEmail(user.Email, user.Name); err != nil {
			log.Printf("Failed to send welcome email to %s: %v", user.Email, err)
		}

		c.JSON(201, gin.H{
			"message": "User created successfully",
			"user": gin.H{
				"id":             user.ID,
				"email":          user.Email,
				"name":           user.Name,
				"role":           user.Role,
				"organizationId": user.OrganizationID,
			},
		})
	}
}

func Login(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input LoginInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		var user models.User
		if result := db.Where("email = ?", input.Email).First(&user); result.Error != nil {
			c.JSON(401, gin.H{"error": "Invalid credentials"})
			return
		}

		if err := user.CheckPassword(input.Password); err != nil {
			c.JSON(401, gin.H{"error": "Invalid credentials"})
			return
		}

		token, err := utils.GenerateToken(&user)
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to generate token"})
			return
		}

		c.JSON(200, gin.H{
			"token": token,
			"user": gin.H{
				"id":             user.ID,
				"email":          user.Email,
				"name":           user.Name,
				"role":           user.Role,
				"organizationId": user.OrganizationID,
			},
		})
	}
}

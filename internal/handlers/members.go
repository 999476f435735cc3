package handlers

import (
	"context"
	"strconv"

	"github.com/aeroclubnz/aeroclub-backend/internal/models"
	"github.com/aeroclubnz/aeroclub-backend/internal/services"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetMembers lists the organization's members with pagination and an
// optional search over name, email and member number
func GetMembers(db *gorm.DB) gin.HandlerFunc {
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

		query := db.Model(&models.User{}).
			Where("organization_id = ? AND role = ?", orgID, models.UserRoleMember)

		if search := c.Query("search"); search != "" {
			like := "%" + search + "%"
			query = query.Where("name ILIKE ? OR email ILIKE ? OR member_number ILIKE ?", like, like, like)
		}

		var members []models.User
		if err := query.
			Preload("MemberAccount").
			Order("created_at DESC").
			Offset(offset).
			Limit(limit).
			Find(&members).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch members"})
			return
		}

		var total int64
		query.Count(&total)

		c.JSON(200, gin.H{
			"members": members,
			"pagination": gin.H{
				"page":       page,
				"limit":      limit,
				"total":      total,
				"totalPages": (total + int64(limit) - 1) / int64(limit),
			},
		})
	}
}

// GetMember retrieves one member with account and recent invoices
func GetMember(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetUint("organizationId")

		var member models.User
		if err := db.Preload("MemberAccount").
			Where("organization_id = ? AND role = ?", orgID, models.UserRoleMember).
			First(&member, c.Param("id")).Error; err != nil {
			c.JSON(404, gin.H{"error": "Member not found"})
			return
		}

		var invoices []models.Invoice
		if err := db.Preload("Payments").
			Where("user_id = ?", member.ID).
			Order("created_at DESC").
			Limit(5).
			Find(&invoices).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch member invoices"})
			return
		}

		var documents []models.MemberDocument
		db.Where("user_id = ?", member.ID).Find(&documents)

		c.JSON(200, gin.H{
			"member":    member,
			"invoices":  invoices,
			"documents": documents,
		})
	}
}

// CreateMember creates a member user plus their account record
func CreateMember(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetUint("organizationId")

		var input struct {
			Name         string `json:"name" binding:"required"`
			Email        string `json:"email" binding:"required,email"`
			Phone        string `json:"phone"`
			MemberNumber string `json:"memberNumber"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		member := models.User{
			Name:           input.Name,
			Email:          input.Email,
			Phone:          input.Phone,
			MemberNumber:   input.MemberNumber,
			Role:           models.UserRoleMember,
			OrganizationID: orgID,
			// Password is set by the member through the auth flow
			PasswordHash: "",
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&member).Error; err != nil {
				return err
			}
			account := models.MemberAccount{UserID: member.ID}
			return tx.Create(&account).Error
		})
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to create member"})
			return
		}

		c.JSON(201, member)
	}
}

// GetMemberBalance returns a member's account credit balance, served from the
// Redis cache when possible
func GetMemberBalance(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetUint("organizationId")

		memberID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid member ID"})
			return
		}

		ctx := context.Background()
		if balance, ok := services.GetMemberBalance(ctx, uint(memberID)); ok {
			c.JSON(200, gin.H{"balance": balance})
			return
		}

		var member models.User
		if err := db.Where("organization_id = ?", orgID).First(&member, memberID).Error; err != nil {
			c.JSON(404, gin.H{"error": "Member not found"})
			return
		}

		var account models.MemberAccount
		if err := db.Where("user_id = ?", member.ID).First(&account).Error; err != nil {
			// No account yet means no credit
			c.JSON(200, gin.H{"balance": 0.0})
			return
		}

		services.SetMemberBalance(ctx, member.ID, account.Balance)

		c.JSON(200, gin.H{"balance": account.Balance})
	}
}

// UploadMemberDocument stores a licence or medical scan for a member
func UploadMemberDocument(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetUint("organizationId")

		var member models.User
		if err := db.Where("organization_id = ?", orgID).First(&member, c.Param("id")).Error; err != nil {
			c.JSON(404, gin.H{"error": "Member not found"})
			return
		}

		kind := c.PostForm("kind")
		if kind == "" {
			kind = "other"
		}

		file, err := c.FormFile("document")
		if err != nil {
			c.JSON(400, gin.H{"error": "document file is required"})
			return
		}

		path, err := services.UploadDocument(file, "documents")
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to store document"})
			return
		}

		doc := models.MemberDocument{
			UserID: member.ID,
			Kind:   kind,
			URL:    services.GetDocumentURL(path),
		}
		if err := db.Create(&doc).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to save document record"})
			return
		}

		c.JSON(201, doc)
	}
}

// GetMemberInvoices lists a member's invoices with pagination
func GetMemberInvoices(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetUint("organizationId")

		var member models.User
		if err := db.Where("organization_id = ?", orgID).First(&member, c.Param("id")).Error; err != nil {
			c.JSON(404, gin.H{"error": "Member not found"})
			return
		}

		pageStr := c.DefaultQuery("page", "1")
		limitStr := c.DefaultQuery("limit", "5")

		page, err := strconv.Atoi(pageStr)
		if err != nil || page < 1 {
			page = 1
		}

		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 || limit > 100 {
			limit = 5
		}

		offset := (page - 1) * limit

		var invoices []models.Invoice
		if err := db.Where("user_id = ?", member.ID).
			Order("created_at DESC").
			Offset(offset).
			Limit(limit).
			Find(&invoices).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch invoices"})
			return
		}

		var total int64
		db.Model(&models.Invoice{}).Where("user_id = ?", member.ID).Count(&total)

		c.JSON(200, gin.H{
			"invoices": invoices,
			"pagination": gin.H{
				"page":       page,
				"limit":      limit,
				"total":      total,
				"totalPages": (total + int64(limit) - 1) / int64(limit),
			},
		})
	}
}

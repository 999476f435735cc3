package models

import (
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserRole string

const (
	UserRoleAdmin  UserRole = "ADMIN"
	UserRoleStaff  UserRole = "STAFF"
	UserRoleMember UserRole = "MEMBER"
)

type User struct {
	gorm.Model     // This embeds ID, CreatedAt, UpdatedAt, and DeletedAt
	Name           string         `json:"name" gorm:"column:name;not null"`
	Email          string         `json:"email" gorm:"column:email;unique;not null"`
	Password       string         `json:"-" gorm:"-"` // Temporary field for password handling
	PasswordHash   string         `json:"-" gorm:"column:password_hash;not null"`
	Phone          string         `json:"phone" gorm:"column:phone"`
	Role           UserRole       `json:"role" gorm:"column:role;not null;default:'MEMBER'"`
	MemberNumber   string         `json:"memberNumber" gorm:"column:member_number"`
	OrganizationID uint           `json:"organizationId" gorm:"not null;index"`
	Organization   *Organization  `json:"organization,omitempty" gorm:"foreignKey:OrganizationID"`
	MemberAccount  *MemberAccount `json:"memberAccount,omitempty" gorm:"foreignKey:UserID"`
}

// TableName specifies the table name
func (User) TableName() string {
	return "users"
}

func (u *User) HashPassword() error {
	if u.Password == "" {
		return nil
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}

// MemberAccount holds a member's account credit balance. Credit is applied
// against invoices during payment.
type MemberAccount struct {
	gorm.Model
	UserID  uint    `json:"userId" gorm:"not null;unique"`
	Balance float64 `json:"balance" gorm:"not null;default:0"`
}

// TableName specifies the table name
func (MemberAccount) TableName() string {
	return "member_accounts"
}

// MemberDocument is an uploaded document attached to a member record
// (licence scan, medical certificate, etc.)
type MemberDocument struct {
	gorm.Model
	UserID uint   `json:"userId" gorm:"not null;index"`
	Kind   string `json:"kind" gorm:"not null"`
	URL    string `json:"url" gorm:"not null"`
}

// TableName specifies the table name
func (MemberDocument) TableName() string {
	return "member_documents"
}

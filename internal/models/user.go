package models

import (
	"time"

	"gorm.io/gorm"
)

// UserRole represents the role of a user
type UserRole string

const (
	UserRoleAdmin  UserRole = "admin"
	UserRoleMember UserRole = "member"
)

// User represents a gym member or an administrator
type User struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Name         string   `gorm:"type:varchar(255)" json:"name"`
	Phone        string   `gorm:"type:varchar(50)" json:"phone"`
	Email        string   `gorm:"type:varchar(255);uniqueIndex" json:"email"`
	PasswordHash string   `gorm:"type:varchar(255)" json:"-"`
	Role         UserRole `gorm:"type:varchar(20);default:'member'" json:"role"`
	IsActive     bool     `gorm:"default:true" json:"is_active"`

	// Email verification
	EmailVerified         bool       `gorm:"default:false" json:"email_verified"`
	VerificationToken     *string    `gorm:"type:varchar(64);uniqueIndex" json:"-"`
	VerificationExpiresAt *time.Time `json:"-"`

	// Relationships
	Memberships []Membership `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"memberships,omitempty"`
}

// IsAdmin reports whether the user holds the admin role
func (u User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

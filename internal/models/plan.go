package models

import (
	"time"

	"gorm.io/gorm"
)

// MembershipPlan is a subscription offer members can buy
type MembershipPlan struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	// Name is unique among plans that are not deleted, see services.AutoMigrate
	Name         string  `gorm:"type:varchar(255);not null" json:"name"`
	DurationDays int     `gorm:"not null" json:"duration_days"`
	Price        float64 `gorm:"type:decimal(10,2)" json:"price"`
	Description  string  `gorm:"type:text" json:"description"`
}

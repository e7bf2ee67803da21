package models

import (
	"time"
)

// HealthMetric is a member's body measurement for one day, unique per (user, entry date)
type HealthMetric struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID    uint      `gorm:"uniqueIndex:idx_health_user_date,priority:1" json:"user_id"`
	EntryDate time.Time `gorm:"type:date;uniqueIndex:idx_health_user_date,priority:2" json:"entry_date"`

	WeightKg      *float64 `gorm:"type:decimal(5,2)" json:"weight_kg"`
	HeightCm      *float64 `gorm:"type:decimal(5,2)" json:"height_cm"`
	BMI           *float64 `gorm:"column:bmi;type:decimal(5,2)" json:"bmi"`
	HeartRate     *int     `json:"heart_rate"`
	CalorieIntake *int     `json:"calorie_intake"`

	// Relationships
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
}

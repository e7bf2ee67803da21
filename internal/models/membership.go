package models

import (
	"time"

	"gorm.io/gorm"
)

// MembershipStatus is the lifecycle state of a membership
type MembershipStatus string

const (
	MembershipStatusPending MembershipStatus = "pending"
	MembershipStatusActive  MembershipStatus = "active"
	MembershipStatusExpired MembershipStatus = "expired"
)

// Membership binds a user to a plan for a date window.
// Status only changes through the lifecycle sweep.
type Membership struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	UserID    uint             `gorm:"index" json:"user_id"`
	PlanID    uint             `gorm:"index" json:"plan_id"`
	StartDate time.Time        `gorm:"type:date;index:idx_memberships_status_start,priority:2" json:"start_date"`
	EndDate   time.Time        `gorm:"type:date;index:idx_memberships_status_end,priority:2" json:"end_date"`
	Status    MembershipStatus `gorm:"type:varchar(20);index:idx_memberships_status_start,priority:1;index:idx_memberships_status_end,priority:1" json:"status"`

	// Relationships
	User User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Plan MembershipPlan `gorm:"foreignKey:PlanID;constraint:OnDelete:SET NULL" json:"plan,omitempty"`
}

package models

import (
	"time"
)

// NotificationType tags what a notification is about
type NotificationType string

const (
	NotificationTypeRenewal    NotificationType = "renewal"
	NotificationTypeAttendance NotificationType = "attendance"
	NotificationTypeHealth     NotificationType = "health"
	NotificationTypeSystem     NotificationType = "system"
)

// Notification is the in-app record of a message sent to a user.
// Only IsRead is ever updated after creation.
type Notification struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index:idx_notifications_user_type_created,priority:3" json:"created_at"`

	UserID  uint             `gorm:"index:idx_notifications_user_type_created,priority:1" json:"user_id"`
	Type    NotificationType `gorm:"type:varchar(20);index:idx_notifications_user_type_created,priority:2" json:"type"`
	Subject string           `gorm:"type:varchar(255)" json:"subject"`
	Message string           `gorm:"type:text" json:"message"`
	IsRead  bool             `gorm:"default:false" json:"is_read"`

	// Relationships
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
}

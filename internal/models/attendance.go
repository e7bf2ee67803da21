package models

import (
	"time"
)

// AttendanceMethod tags how a check-in was recorded
type AttendanceMethod string

const (
	AttendanceMethodManual AttendanceMethod = "manual"
	AttendanceMethodQR     AttendanceMethod = "qr"
	AttendanceMethodAdmin  AttendanceMethod = "admin"
)

// AttendanceEntry is one gym visit. A user has at most one entry with a nil CheckOut.
type AttendanceEntry struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID   uint             `gorm:"index:idx_attendance_user_checkin,priority:1" json:"user_id"`
	CheckIn  time.Time        `gorm:"index:idx_attendance_user_checkin,priority:2;index" json:"check_in"`
	CheckOut *time.Time       `json:"check_out"`
	Method   AttendanceMethod `gorm:"type:varchar(20);default:'manual'" json:"method"`

	// Relationships
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
}

// IsOpen reports whether the visit has not been checked out yet
func (a AttendanceEntry) IsOpen() bool {
	return a.CheckOut == nil
}

// Duration returns the visit length, zero while the entry is open
func (a AttendanceEntry) Duration() time.Duration {
	if a.CheckOut == nil {
		return 0
	}
	return a.CheckOut.Sub(a.CheckIn)
}

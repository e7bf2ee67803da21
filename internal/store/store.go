// Package store is the persistence boundary of the app. GormStore talks to
// postgres or mysql; MemoryStore keeps everything in maps for tests and demos.
package store

import (
	"context"
	"errors"
	"time"

	"gymtrack_app_echo/internal/models"
)

var (
	ErrNotFound  = errors.New("store: record not found")
	ErrDuplicate = errors.New("store: duplicate entry")
)

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uint) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByVerificationToken(ctx context.Context, token string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	ListUsers(ctx context.Context) ([]models.User, error)
	CountUsers(ctx context.Context) (int64, error)
	// ListActiveMembers returns users with role member that are not deactivated
	ListActiveMembers(ctx context.Context) ([]models.User, error)

	GetNotifPreference(ctx context.Context, userID uint) (*models.UserNotifPreference, error)
	SaveNotifPreference(ctx context.Context, pref *models.UserNotifPreference) error
}

type PlanStore interface {
	CreatePlan(ctx context.Context, plan *models.MembershipPlan) error
	GetPlan(ctx context.Context, id uint) (*models.MembershipPlan, error)
	UpdatePlan(ctx context.Context, plan *models.MembershipPlan) error
	DeletePlan(ctx context.Context, id uint) error
	ListPlans(ctx context.Context) ([]models.MembershipPlan, error)
}

type MembershipStore interface {
	CreateMembership(ctx context.Context, m *models.Membership) error
	// ListMembershipsByUser returns the user's memberships with Plan loaded, latest start first
	ListMembershipsByUser(ctx context.Context, userID uint) ([]models.Membership, error)
	// LatestActiveMembership returns the active membership with the furthest end date
	// that is on or after the given day, or ErrNotFound
	LatestActiveMembership(ctx context.Context, userID uint, onOrAfter time.Time) (*models.Membership, error)
	// ActivatePending moves pending memberships with start_date <= today to active
	ActivatePending(ctx context.Context, today time.Time) (int64, error)
	// ExpireActive moves active memberships with end_date < today to expired
	ExpireActive(ctx context.Context, today time.Time) (int64, error)
	// ListActiveEndingOn returns active memberships of active users whose end date is
	// one of days, with User and Plan loaded
	ListActiveEndingOn(ctx context.Context, days []time.Time) ([]models.Membership, error)
	CountMembershipsByStatus(ctx context.Context) (map[models.MembershipStatus]int64, error)
}

type AttendanceStore interface {
	CreateAttendance(ctx context.Context, entry *models.AttendanceEntry) error
	// GetOpenAttendance returns the entry without check-out, or ErrNotFound
	GetOpenAttendance(ctx context.Context, userID uint) (*models.AttendanceEntry, error)
	CloseAttendance(ctx context.Context, id uint, checkOut time.Time) error
	ListAttendanceByUser(ctx context.Context, userID uint, limit int) ([]models.AttendanceEntry, error)
	// ListAttendanceBetween returns entries with from <= check_in < to, User loaded, oldest first
	ListAttendanceBetween(ctx context.Context, from, to time.Time) ([]models.AttendanceEntry, error)
	// CountAttendanceSince counts entries per user with check_in >= since
	CountAttendanceSince(ctx context.Context, since time.Time) (map[uint]int64, error)
}

type HealthStore interface {
	// UpsertHealthMetric inserts or overwrites the row keyed by (user, entry date)
	UpsertHealthMetric(ctx context.Context, metric *models.HealthMetric) error
	// LatestHeight returns the most recent known height on or before the day, nil if none
	LatestHeight(ctx context.Context, userID uint, onOrBefore time.Time) (*float64, error)
	ListHealthMetrics(ctx context.Context, userID uint, limit int) ([]models.HealthMetric, error)
}

type NotificationStore interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	HasNotificationSince(ctx context.Context, userID uint, typ models.NotificationType, since time.Time) (bool, error)
	ListNotifications(ctx context.Context, userID uint, limit int) ([]models.Notification, error)
	CountUnread(ctx context.Context, userID uint) (int64, error)
	MarkAllRead(ctx context.Context, userID uint) (int64, error)
	CountNotificationsSince(ctx context.Context, since time.Time) (int64, error)
}

type JobRunStore interface {
	CreateJobRun(ctx context.Context, run *models.JobRun) error
	ListJobRuns(ctx context.Context, limit int) ([]models.JobRun, error)
}

// Store is everything the services need from persistence
type Store interface {
	UserStore
	PlanStore
	MembershipStore
	AttendanceStore
	HealthStore
	NotificationStore
	JobRunStore
}

// dayKeys formats dates for comparison against DATE columns
func dayKeys(days []time.Time) []string {
	keys := make([]string, 0, len(days))
	for _, d := range days {
		keys = append(keys, d.Format("2006-01-02"))
	}
	return keys
}

package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gymtrack_app_echo/internal/clock"
	"gymtrack_app_echo/internal/store"
)

// RenewalOffsets are the days-before-end on which a renewal reminder is due
var RenewalOffsets = []int{3, 1, 0}

const (
	// AttendanceWindowDays is the number of calendar days, today included,
	// over which check-ins are counted
	AttendanceWindowDays = 7
	// AttendanceThreshold is the check-in count below which a member is nudged
	AttendanceThreshold = 2
)

type RenewalReminder struct {
	MembershipID uint
	UserID       uint
	UserName     string
	PlanName     string
	EndDate      time.Time
	DaysLeft     int
}

func (r RenewalReminder) Subject() string {
	switch r.DaysLeft {
	case 0:
		return "Your membership ends today"
	case 1:
		return "Your membership ends tomorrow"
	default:
		return fmt.Sprintf("Your membership ends in %d days", r.DaysLeft)
	}
}

func (r RenewalReminder) Message() string {
	return fmt.Sprintf("Hi %s, your %s membership ends on %s. Renew now to keep training without a break.",
		r.UserName, r.PlanName, clock.DayKey(r.EndDate))
}

type AttendanceReminder struct {
	UserID   uint
	UserName string
	CheckIns int64
}

func (r AttendanceReminder) Subject() string {
	return "We miss you at the gym"
}

func (r AttendanceReminder) Message() string {
	visits := "visits"
	if r.CheckIns == 1 {
		visits = "visit"
	}
	return fmt.Sprintf("Hi %s, you have %d %s in the last %d days. Aim for at least %d a week to stay on track.",
		r.UserName, r.CheckIns, visits, AttendanceWindowDays, AttendanceThreshold)
}

// EngagementService decides who is due a reminder. It only reads.
type EngagementService struct {
	store store.Store
}

func NewEngagementService(s store.Store) *EngagementService {
	return &EngagementService{store: s}
}

// FindDueRenewalReminders returns active memberships of active users ending
// exactly RenewalOffsets days from today
func (s *EngagementService) FindDueRenewalReminders(ctx context.Context, today time.Time) ([]RenewalReminder, error) {
	today = clock.Today(today)
	days := make([]time.Time, 0, len(RenewalOffsets))
	for _, offset := range RenewalOffsets {
		days = append(days, clock.AddDays(today, offset))
	}

	memberships, err := s.store.ListActiveEndingOn(ctx, days)
	if err != nil {
		return nil, fmt.Errorf("list memberships ending soon: %w", err)
	}

	reminders := make([]RenewalReminder, 0, len(memberships))
	for _, m := range memberships {
		reminders = append(reminders, RenewalReminder{
			MembershipID: m.ID,
			UserID:       m.UserID,
			UserName:     m.User.Name,
			PlanName:     m.Plan.Name,
			EndDate:      m.EndDate,
			DaysLeft:     clock.DaysBetween(today, m.EndDate),
		})
	}
	return reminders, nil
}

// AttendanceWindowStart is midnight of the first day of the trailing window
func AttendanceWindowStart(today time.Time) time.Time {
	return clock.AddDays(today, -(AttendanceWindowDays - 1))
}

// FindDueAttendanceReminders returns active members with fewer than
// AttendanceThreshold check-ins in the trailing window
func (s *EngagementService) FindDueAttendanceReminders(ctx context.Context, today time.Time) ([]AttendanceReminder, error) {
	members, err := s.store.ListActiveMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active members: %w", err)
	}
	counts, err := s.store.CountAttendanceSince(ctx, AttendanceWindowStart(today))
	if err != nil {
		return nil, fmt.Errorf("count attendance: %w", err)
	}

	var reminders []AttendanceReminder
	for _, u := range members {
		if n := counts[u.ID]; n < AttendanceThreshold {
			reminders = append(reminders, AttendanceReminder{UserID: u.ID, UserName: u.Name, CheckIns: n})
		}
	}
	sort.Slice(reminders, func(i, j int) bool { return reminders[i].UserID < reminders[j].UserID })
	return reminders, nil
}

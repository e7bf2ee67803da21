package services

import (
	"context"
	"testing"

	"gymtrack_app_echo/internal/clock"
	"gymtrack_app_echo/internal/logger"
	"gymtrack_app_echo/internal/models"
)

func TestAdminReport(t *testing.T) {
	now := day(2024, 3, 10, 11, 0)
	c := clock.NewFixed(now)
	st := newTestStore(c)
	ctx := context.Background()

	p := seedPlan(t, st, "Monthly", 30)
	ann := seedUser(t, st, "ann")
	bo := seedUser(t, st, "bo")
	seedMembership(t, st, ann.ID, p.ID, clock.AddDays(now, -5), clock.AddDays(now, 25), models.MembershipStatusActive)
	seedMembership(t, st, bo.ID, p.ID, clock.AddDays(now, -40), clock.AddDays(now, -10), models.MembershipStatusExpired)

	attendance := NewAttendanceService(st, c, logger.Discard())
	if _, err := attendance.CheckIn(ctx, ann.ID, models.AttendanceMethodQR); err != nil {
		t.Fatal(err)
	}
	notes := NewNotificationService(st, nil, c, logger.Discard())
	if _, err := notes.NotifyOnce(ctx, bo.ID, models.NotificationTypeSystem, "s", "m", SameDay); err != nil {
		t.Fatal(err)
	}

	report, err := NewReportService(st, nil, c).AdminReport(ctx)
	if err != nil {
		t.Fatalf("AdminReport: %v", err)
	}
	if report.TotalUsers != 2 || report.ActiveMembers != 2 {
		t.Errorf("users = %d/%d; want 2/2", report.TotalUsers, report.ActiveMembers)
	}
	if report.MembershipsByStatus[models.MembershipStatusActive] != 1 || report.MembershipsByStatus[models.MembershipStatusExpired] != 1 {
		t.Errorf("by status = %v", report.MembershipsByStatus)
	}
	if report.CheckInsToday != 1 || report.NotificationsToday != 1 {
		t.Errorf("today = %d check-ins, %d notifications; want 1, 1", report.CheckInsToday, report.NotificationsToday)
	}
	if report.Day != "2024-03-10" {
		t.Errorf("day = %s", report.Day)
	}
}

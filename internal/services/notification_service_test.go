package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"gymtrack_app_echo/internal/clock"
	"gymtrack_app_echo/internal/logger"
	"gymtrack_app_echo/internal/models"
	"gymtrack_app_echo/internal/store"
)

func TestNotifyOnceSameDay(t *testing.T) {
	c := clock.NewFixed(day(2024, 3, 1, 9, 0))
	st := newTestStore(c)
	u := seedUser(t, st, "ann")
	m := &fakeMessenger{}
	svc := NewNotificationService(st, m, c, logger.Discard())
	ctx := context.Background()

	steps := []struct {
		at   time.Time
		want NotifyOutcome
	}{
		{day(2024, 3, 1, 9, 0), NotifySent},
		{day(2024, 3, 1, 23, 59), NotifySkipped},
		{day(2024, 3, 2, 0, 0), NotifySent},
		{day(2024, 3, 2, 10, 0), NotifySkipped},
	}
	for i, step := range steps {
		c.Set(step.at)
		res, err := svc.NotifyOnce(ctx, u.ID, models.NotificationTypeRenewal, "Renew", "Your plan ends soon", WindowFor(models.NotificationTypeRenewal))
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if res.Outcome != step.want {
			t.Errorf("step %d at %s: outcome = %s; want %s", i, step.at, res.Outcome, step.want)
		}
	}

	if got := m.count(); got != 2 {
		t.Errorf("messages sent = %d; want 2", got)
	}
	list, _ := st.ListNotifications(ctx, u.ID, 0)
	if len(list) != 2 {
		t.Errorf("notifications stored = %d; want 2", len(list))
	}
}

func TestNotifyOnceTrailingWeek(t *testing.T) {
	c := clock.NewFixed(day(2024, 3, 1, 10, 0))
	st := newTestStore(c)
	u := seedUser(t, st, "ann")
	svc := NewNotificationService(st, &fakeMessenger{}, c, logger.Discard())
	window := WindowFor(models.NotificationTypeAttendance)

	steps := []struct {
		day  int
		want NotifyOutcome
	}{
		{1, NotifySent},
		{5, NotifySkipped},
		{9, NotifySent},
	}
	for _, step := range steps {
		c.Set(day(2024, 3, step.day, 10, 0))
		res, err := svc.NotifyOnce(context.Background(), u.ID, models.NotificationTypeAttendance, "Visit", "Come back", window)
		if err != nil {
			t.Fatalf("day %d: %v", step.day, err)
		}
		if res.Outcome != step.want {
			t.Errorf("day %d: outcome = %s; want %s", step.day, res.Outcome, step.want)
		}
	}
}

func TestNotifyOnceTypesAreIndependent(t *testing.T) {
	c := clock.NewFixed(day(2024, 3, 1, 10, 0))
	st := newTestStore(c)
	u := seedUser(t, st, "ann")
	svc := NewNotificationService(st, &fakeMessenger{}, c, logger.Discard())
	ctx := context.Background()

	if _, err := svc.NotifyOnce(ctx, u.ID, models.NotificationTypeRenewal, "a", "b", SameDay); err != nil {
		t.Fatal(err)
	}
	res, err := svc.NotifyOnce(ctx, u.ID, models.NotificationTypeAttendance, "a", "b", SameDay)
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != NotifySent {
		t.Errorf("outcome = %s; want sent", res.Outcome)
	}
}

func TestNotifyOnceDeliveryOutcomes(t *testing.T) {
	tests := []struct {
		name    string
		sendErr error
		want    NotifyOutcome
	}{
		{"delivered", nil, NotifySent},
		{"transport down", errors.New("smtp: connection refused"), NotifyDeliveryFailed},
		{"opted out", ErrNoChannel, NotifyInAppOnly},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := clock.NewFixed(day(2024, 3, 1, 10, 0))
			st := newTestStore(c)
			u := seedUser(t, st, "ann")
			svc := NewNotificationService(st, &fakeMessenger{err: tt.sendErr}, c, logger.Discard())

			res, err := svc.NotifyOnce(context.Background(), u.ID, models.NotificationTypeRenewal, "s", "m", SameDay)
			if err != nil {
				t.Fatalf("NotifyOnce returned error: %v", err)
			}
			if res.Outcome != tt.want {
				t.Errorf("outcome = %s; want %s", res.Outcome, tt.want)
			}
			if res.Notification == nil || res.Notification.ID == 0 {
				t.Error("notification row not persisted")
			}
			if tt.want == NotifyDeliveryFailed && res.DeliveryErr == nil {
				t.Error("DeliveryErr not set")
			}
		})
	}
}

// brokenNotifications fails every history lookup
type brokenNotifications struct {
	store.NotificationStore
}

func (brokenNotifications) HasNotificationSince(context.Context, uint, models.NotificationType, time.Time) (bool, error) {
	return false, errors.New("connection reset")
}

func TestNotifyOnceStoreError(t *testing.T) {
	c := clock.NewFixed(day(2024, 3, 1, 10, 0))
	m := &fakeMessenger{}
	svc := NewNotificationService(brokenNotifications{}, m, c, logger.Discard())

	if _, err := svc.NotifyOnce(context.Background(), 1, models.NotificationTypeRenewal, "s", "m", SameDay); err == nil {
		t.Fatal("expected store error")
	}
	if m.count() != 0 {
		t.Error("messenger called despite store error")
	}
}

func TestWindowSince(t *testing.T) {
	now := day(2024, 3, 9, 15, 45)
	if got := SameDay.Since(now); !got.Equal(day(2024, 3, 9, 0, 0)) {
		t.Errorf("SameDay.Since = %s", got)
	}
	if got := Trailing(7 * 24 * time.Hour).Since(now); !got.Equal(day(2024, 3, 2, 15, 45)) {
		t.Errorf("Trailing.Since = %s", got)
	}
}

func TestMarkAllRead(t *testing.T) {
	c := clock.NewFixed(day(2024, 3, 1, 10, 0))
	st := newTestStore(c)
	u := seedUser(t, st, "ann")
	svc := NewNotificationService(st, nil, c, logger.Discard())
	ctx := context.Background()

	for _, typ := range []models.NotificationType{models.NotificationTypeRenewal, models.NotificationTypeAttendance} {
		if _, err := svc.NotifyOnce(ctx, u.ID, typ, "s", "m", SameDay); err != nil {
			t.Fatal(err)
		}
	}
	if n, _ := svc.UnreadCount(ctx, u.ID); n != 2 {
		t.Fatalf("unread = %d; want 2", n)
	}
	if n, _ := svc.MarkAllRead(ctx, u.ID); n != 2 {
		t.Errorf("marked = %d; want 2", n)
	}
	if n, _ := svc.UnreadCount(ctx, u.ID); n != 0 {
		t.Errorf("unread after mark = %d; want 0", n)
	}
}

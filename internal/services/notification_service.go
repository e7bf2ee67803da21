package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gymtrack_app_echo/internal/clock"
	"gymtrack_app_echo/internal/metrics"
	"gymtrack_app_echo/internal/models"
	"gymtrack_app_echo/internal/store"
)

// Window is the dedupe period of NotifyOnce: a notification of the same type
// created at or after Since(now) suppresses a new one.
type Window struct {
	trailing time.Duration
}

// SameDay dedupes from midnight of the current day
var SameDay = Window{}

// Trailing dedupes over the last d
func Trailing(d time.Duration) Window {
	return Window{trailing: d}
}

func (w Window) Since(now time.Time) time.Time {
	if w.trailing <= 0 {
		return clock.Today(now)
	}
	return now.Add(-w.trailing)
}

func (w Window) String() string {
	if w.trailing <= 0 {
		return "same-day"
	}
	return "trailing " + w.trailing.String()
}

// WindowFor returns the default dedupe window of a notification type
func WindowFor(typ models.NotificationType) Window {
	switch typ {
	case models.NotificationTypeAttendance:
		return Trailing(AttendanceWindowDays * 24 * time.Hour)
	default:
		return SameDay
	}
}

type NotifyOutcome string

const (
	NotifySent           NotifyOutcome = "sent"
	NotifySkipped        NotifyOutcome = "skipped"
	NotifyInAppOnly      NotifyOutcome = "in_app_only"
	NotifyDeliveryFailed NotifyOutcome = "delivery_failed"
)

type NotifyResult struct {
	Outcome      NotifyOutcome
	Notification *models.Notification
	// DeliveryErr is set when Outcome is NotifyDeliveryFailed
	DeliveryErr error
}

type NotificationService struct {
	store     store.NotificationStore
	messenger Messenger
	clock     clock.Clock
	log       *slog.Logger
}

func NewNotificationService(s store.NotificationStore, m Messenger, c clock.Clock, log *slog.Logger) *NotificationService {
	return &NotificationService{store: s, messenger: m, clock: c, log: log}
}

// NotifyOnce records a notification and pushes it to the user unless one of
// the same type already exists inside the window. The row is written before
// delivery; a delivery failure is reported in the result, never as an error.
func (s *NotificationService) NotifyOnce(ctx context.Context, userID uint, typ models.NotificationType, subject, message string, window Window) (NotifyResult, error) {
	now := s.clock.Now()

	exists, err := s.store.HasNotificationSince(ctx, userID, typ, window.Since(now))
	if err != nil {
		return NotifyResult{}, fmt.Errorf("check notification history: %w", err)
	}
	if exists {
		metrics.Notifications.WithLabelValues(string(typ), string(NotifySkipped)).Inc()
		return NotifyResult{Outcome: NotifySkipped}, nil
	}

	n := &models.Notification{
		CreatedAt: now,
		UserID:    userID,
		Type:      typ,
		Subject:   subject,
		Message:   message,
	}
	if err := s.store.CreateNotification(ctx, n); err != nil {
		return NotifyResult{}, fmt.Errorf("create notification: %w", err)
	}

	res := NotifyResult{Outcome: NotifySent, Notification: n}
	if s.messenger != nil {
		err := s.messenger.Send(ctx, userID, subject, message)
		switch {
		case err == nil:
		case errors.Is(err, ErrNoChannel):
			res.Outcome = NotifyInAppOnly
		default:
			s.log.Warn("notification delivery failed",
				"user_id", userID,
				"type", typ,
				"notification_id", n.ID,
				"err", err,
			)
			res.Outcome = NotifyDeliveryFailed
			res.DeliveryErr = err
		}
	} else {
		res.Outcome = NotifyInAppOnly
	}

	metrics.Notifications.WithLabelValues(string(typ), string(res.Outcome)).Inc()
	return res, nil
}

func (s *NotificationService) List(ctx context.Context, userID uint, limit int) ([]models.Notification, error) {
	return s.store.ListNotifications(ctx, userID, limit)
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.store.CountUnread(ctx, userID)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	return s.store.MarkAllRead(ctx, userID)
}

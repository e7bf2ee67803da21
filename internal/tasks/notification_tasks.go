package tasks

import (
	"context"
	"log/slog"
	"time"

	"gymtrack_app_echo/internal/clock"
	"gymtrack_app_echo/internal/models"
	"gymtrack_app_echo/internal/services"
)

// reminderTally counts NotifyOnce outcomes for the job history
type reminderTally struct {
	total   int
	sent    int
	inApp   int
	skipped int
	failure int
	errors  []string
}

func (r *reminderTally) add(res services.NotifyResult) {
	r.total++
	switch res.Outcome {
	case services.NotifySent:
		r.sent++
	case services.NotifyInAppOnly:
		r.inApp++
	case services.NotifySkipped:
		r.skipped++
	case services.NotifyDeliveryFailed:
		r.failure++
		if res.DeliveryErr != nil {
			r.errors = append(r.errors, res.DeliveryErr.Error())
		}
	}
}

func (r *reminderTally) result(day time.Time) map[string]interface{} {
	result := map[string]interface{}{
		"day":         clock.DayKey(day),
		"total":       r.total,
		"success":     r.sent,
		"in_app_only": r.inApp,
		"skipped":     r.skipped,
		"failure":     r.failure,
	}
	if len(r.errors) > 0 {
		result["errors"] = r.errors
	}
	return result
}

// RenewalRemindersTaskDef notifies members whose membership ends in 3, 1 or 0 days
type RenewalRemindersTaskDef struct {
	Engagement *services.EngagementService
	Notifier   *services.NotificationService
	Log        *slog.Logger
}

// TaskID returns the unique identifier for this task
func (t *RenewalRemindersTaskDef) TaskID() string {
	return TaskRenewalReminders
}

// HandleExecution sends at most one renewal reminder per member per day
func (t *RenewalRemindersTaskDef) HandleExecution(ctx context.Context, now time.Time) (map[string]interface{}, error) {
	due, err := t.Engagement.FindDueRenewalReminders(ctx, now)
	if err != nil {
		return nil, err
	}

	var tally reminderTally
	for _, r := range due {
		res, err := t.Notifier.NotifyOnce(ctx, r.UserID, models.NotificationTypeRenewal, r.Subject(), r.Message(), services.WindowFor(models.NotificationTypeRenewal))
		if err != nil {
			return nil, err
		}
		tally.add(res)
	}

	t.Log.Info("renewal reminders processed", "due", len(due), "sent", tally.sent, "skipped", tally.skipped, "failed", tally.failure)
	return tally.result(now), nil
}

// AttendanceRemindersTaskDef nudges members who barely visited this week
type AttendanceRemindersTaskDef struct {
	Engagement *services.EngagementService
	Notifier   *services.NotificationService
	Log        *slog.Logger
}

// TaskID returns the unique identifier for this task
func (t *AttendanceRemindersTaskDef) TaskID() string {
	return TaskAttendanceReminders
}

// HandleExecution sends at most one attendance reminder per member per week
func (t *AttendanceRemindersTaskDef) HandleExecution(ctx context.Context, now time.Time) (map[string]interface{}, error) {
	due, err := t.Engagement.FindDueAttendanceReminders(ctx, now)
	if err != nil {
		return nil, err
	}

	var tally reminderTally
	for _, r := range due {
		res, err := t.Notifier.NotifyOnce(ctx, r.UserID, models.NotificationTypeAttendance, r.Subject(), r.Message(), services.WindowFor(models.NotificationTypeAttendance))
		if err != nil {
			return nil, err
		}
		tally.add(res)
	}

	t.Log.Info("attendance reminders processed", "due", len(due), "sent", tally.sent, "skipped", tally.skipped, "failed", tally.failure)
	return tally.result(now), nil
}

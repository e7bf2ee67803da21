package tasks

import (
	"context"
	"time"

	"gymtrack_app_echo/internal/clock"
	"gymtrack_app_echo/internal/services"
)

// AdvanceLifecycleTaskDef runs the membership state sweep
type AdvanceLifecycleTaskDef struct {
	Memberships *services.MembershipService
}

// TaskID returns the unique identifier for this task
func (t *AdvanceLifecycleTaskDef) TaskID() string {
	return TaskAdvanceLifecycle
}

// HandleExecution activates and expires memberships for the day of now
func (t *AdvanceLifecycleTaskDef) HandleExecution(ctx context.Context, now time.Time) (map[string]interface{}, error) {
	res, err := t.Memberships.AdvanceLifecycle(ctx, now)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"day":       clock.DayKey(now),
		"activated": res.Activated,
		"expired":   res.Expired,
	}, nil
}

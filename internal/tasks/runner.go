package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gymtrack_app_echo/internal/clock"
	"gymtrack_app_echo/internal/metrics"
	"gymtrack_app_echo/internal/models"
	"gymtrack_app_echo/internal/store"
)

// RunSummary maps task names to their result for one invocation
type RunSummary map[string]map[string]interface{}

// Runner executes the hourly and daily tasks. RunHourly and TriggerNow hold
// the same lock, so two passes never interleave within a process.
type Runner struct {
	mu       sync.Mutex
	registry *Registry
	gate     *DailyGate
	history  store.JobRunStore
	clock    clock.Clock
	log      *slog.Logger

	hourly []string
	daily  []string
}

func NewRunner(reg *Registry, gate *DailyGate, history store.JobRunStore, c clock.Clock, log *slog.Logger) *Runner {
	return &Runner{
		registry: reg,
		gate:     gate,
		history:  history,
		clock:    c,
		log:      log,
		hourly:   HourlyTasks,
		daily:    DailyTasks,
	}
}

func (r *Runner) Gate() *DailyGate {
	return r.gate
}

// RunHourly is the body of one tick: the hourly tasks always run, the daily
// tasks run when the gate admits them. A failure leaves the gate untouched so
// the next tick retries.
func (r *Runner) RunHourly(ctx context.Context) (RunSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	summary := make(RunSummary)
	if err := r.runAll(ctx, r.hourly, now, models.JobTriggerTick, summary); err != nil {
		return summary, err
	}

	if !r.gate.ShouldRun(now) {
		return summary, nil
	}
	if err := r.runAll(ctx, r.daily, now, models.JobTriggerTick, summary); err != nil {
		return summary, err
	}
	r.markDailyDone(now)
	return summary, nil
}

// TriggerNow runs every task immediately regardless of the gate and then
// marks the day as done
func (r *Runner) TriggerNow(ctx context.Context, trigger models.JobTrigger) (RunSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	summary := make(RunSummary)
	if err := r.runAll(ctx, r.hourly, now, trigger, summary); err != nil {
		return summary, err
	}
	if err := r.runAll(ctx, r.daily, now, trigger, summary); err != nil {
		return summary, err
	}
	r.markDailyDone(now)
	return summary, nil
}

// RunTask runs a single named task for the given moment without touching the gate
func (r *Runner) RunTask(ctx context.Context, name string, at time.Time, trigger models.JobTrigger) (map[string]interface{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.execute(ctx, name, at, trigger)
}

func (r *Runner) markDailyDone(now time.Time) {
	r.gate.MarkDone(now)
	metrics.LastDailyRun.Set(float64(now.Unix()))
	r.log.Info("daily job completed", "day", clock.DayKey(now))
}

func (r *Runner) runAll(ctx context.Context, names []string, now time.Time, trigger models.JobTrigger, summary RunSummary) error {
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		result, err := r.execute(ctx, name, now, trigger)
		if err != nil {
			return fmt.Errorf("task %s: %w", name, err)
		}
		summary[name] = result
	}
	return nil
}

// execute runs one handler and records its history row
func (r *Runner) execute(ctx context.Context, name string, now time.Time, trigger models.JobTrigger) (map[string]interface{}, error) {
	handler, found := r.registry.Get(name)
	if !found {
		return nil, fmt.Errorf("task handler not found: %s", name)
	}

	startTime := time.Now()
	result, err := handler(ctx, now)
	runtimeMs := int(time.Since(startTime).Milliseconds())

	status := models.JobRunStatusSuccess
	resultData := result
	if err != nil {
		status = models.JobRunStatusFailure
		resultData = map[string]interface{}{"error": err.Error()}
		r.log.Error("task failed", "task", name, "trigger", trigger, "err", err)
	} else {
		r.log.Debug("task completed", "task", name, "trigger", trigger, "runtime_ms", runtimeMs)
	}
	metrics.JobRuns.WithLabelValues(name, status).Inc()

	if r.history != nil {
		run := &models.JobRun{
			TaskName: name,
			Trigger:  trigger,
			RunAt:    now,
			Runtime:  runtimeMs,
			Status:   status,
			Result:   resultData,
		}
		// recorded even when ctx is already cancelled
		if herr := r.history.CreateJobRun(context.WithoutCancel(ctx), run); herr != nil {
			r.log.Warn("failed to record job run", "task", name, "err", herr)
		}
	}

	return result, err
}

// Start ticks on the schedule until ctx is cancelled. With runOnBoot the first
// pass happens immediately.
func (r *Runner) Start(ctx context.Context, sched *Schedule, runOnBoot bool) {
	tick := func() {
		if _, err := r.RunHourly(ctx); err != nil && ctx.Err() == nil {
			r.log.Error("scheduled run failed", "err", err)
		}
	}

	if runOnBoot {
		tick()
	}

	for {
		next := sched.Next(r.clock.Now())
		wait := time.Until(next)
		if wait < 0 {
			wait = 0
		}
		r.log.Debug("waiting for next tick", "next", next)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			r.log.Info("scheduler stopped")
			return
		case <-timer.C:
			tick()
		}
	}
}

package tasks

import (
	"log/slog"

	"gymtrack_app_echo/internal/services"
)

const (
	TaskAdvanceLifecycle    = "advance_lifecycle"
	TaskRenewalReminders    = "renewal_reminders"
	TaskAttendanceReminders = "attendance_reminders"
)

// HourlyTasks run on every tick
var HourlyTasks = []string{TaskAdvanceLifecycle}

// DailyTasks run once per day once the gate opens
var DailyTasks = []string{TaskRenewalReminders, TaskAttendanceReminders}

// Deps are the services the task definitions need
type Deps struct {
	Memberships *services.MembershipService
	Engagement  *services.EngagementService
	Notifier    *services.NotificationService
	Log         *slog.Logger
}

// DefineTasks registers all available tasks
func DefineTasks(reg *Registry, deps Deps) {
	lifecycle := &AdvanceLifecycleTaskDef{Memberships: deps.Memberships}
	reg.Register(lifecycle.TaskID(), lifecycle.HandleExecution)

	renewal := &RenewalRemindersTaskDef{Engagement: deps.Engagement, Notifier: deps.Notifier, Log: deps.Log}
	reg.Register(renewal.TaskID(), renewal.HandleExecution)

	attendance := &AttendanceRemindersTaskDef{Engagement: deps.Engagement, Notifier: deps.Notifier, Log: deps.Log}
	reg.Register(attendance.TaskID(), attendance.HandleExecution)
}

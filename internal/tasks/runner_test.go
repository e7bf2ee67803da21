package tasks

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"gymtrack_app_echo/internal/clock"
	"gymtrack_app_echo/internal/logger"
	"gymtrack_app_echo/internal/models"
	"gymtrack_app_echo/internal/services"
	"gymtrack_app_echo/internal/store"
)

type nopMessenger struct {
	mu    sync.Mutex
	count int
}

func (m *nopMessenger) Send(context.Context, uint, string, string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.count++
	return nil
}

type fixture struct {
	store     *store.MemoryStore
	clock     *clock.Fixed
	registry  *Registry
	runner    *Runner
	messenger *nopMessenger
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()
	c := clock.NewFixed(now)
	st := store.NewMemoryStore()
	st.SetNow(c.Now)
	log := logger.Discard()
	m := &nopMessenger{}

	reg := NewRegistry()
	DefineTasks(reg, Deps{
		Memberships: services.NewMembershipService(st, c, log),
		Engagement:  services.NewEngagementService(st),
		Notifier:    services.NewNotificationService(st, m, c, log),
		Log:         log,
	})

	return &fixture{
		store:     st,
		clock:     c,
		registry:  reg,
		runner:    NewRunner(reg, NewDailyGate(9), st, c, log),
		messenger: m,
	}
}

func (f *fixture) member(t *testing.T, name string) *models.User {
	t.Helper()
	u := &models.User{Name: name, Email: name + "@example.com", Role: models.UserRoleMember, IsActive: true, EmailVerified: true}
	if err := f.store.CreateUser(context.Background(), u); err != nil {
		t.Fatal(err)
	}
	return u
}

func (f *fixture) plan(t *testing.T, name string, days int) *models.MembershipPlan {
	t.Helper()
	p := &models.MembershipPlan{Name: name, DurationDays: days}
	if err := f.store.CreatePlan(context.Background(), p); err != nil {
		t.Fatal(err)
	}
	return p
}

func (f *fixture) membership(t *testing.T, userID, planID uint, start, end time.Time, status models.MembershipStatus) *models.Membership {
	t.Helper()
	m := &models.Membership{UserID: userID, PlanID: planID, StartDate: clock.Today(start), EndDate: clock.Today(end), Status: status}
	if err := f.store.CreateMembership(context.Background(), m); err != nil {
		t.Fatal(err)
	}
	return m
}

// checkInDaily keeps a member out of the attendance reminders
func (f *fixture) checkInDaily(t *testing.T, userID uint, today time.Time) {
	t.Helper()
	for i := 0; i < 2; i++ {
		entry := &models.AttendanceEntry{UserID: userID, CheckIn: clock.AddDays(today, -i).Add(6 * time.Hour)}
		if err := f.store.CreateAttendance(context.Background(), entry); err != nil {
			t.Fatal(err)
		}
	}
}

func (f *fixture) notifications(t *testing.T, userID uint, typ models.NotificationType) []models.Notification {
	t.Helper()
	all, err := f.store.ListNotifications(context.Background(), userID, 0)
	if err != nil {
		t.Fatal(err)
	}
	var out []models.Notification
	for _, n := range all {
		if n.Type == typ {
			out = append(out, n)
		}
	}
	return out
}

func TestRenewalReminderAtTen(t *testing.T) {
	f := newFixture(t, at(10, 10, 0))
	u := f.member(t, "ann")
	p := f.plan(t, "Gold Monthly", 30)
	f.membership(t, u.ID, p.ID, at(10, 0, 0).AddDate(0, 0, -27), at(13, 0, 0), models.MembershipStatusActive)
	f.checkInDaily(t, u.ID, at(10, 0, 0))

	if _, err := f.runner.RunHourly(context.Background()); err != nil {
		t.Fatalf("RunHourly: %v", err)
	}

	got := f.notifications(t, u.ID, models.NotificationTypeRenewal)
	if len(got) != 1 {
		t.Fatalf("renewal notifications = %d; want 1", len(got))
	}
	if !strings.Contains(got[0].Message, "Gold Monthly") || !strings.Contains(got[0].Message, "2024-03-13") {
		t.Errorf("message does not name plan and end date: %q", got[0].Message)
	}

	f.clock.Set(at(10, 11, 0))
	if _, err := f.runner.RunHourly(context.Background()); err != nil {
		t.Fatalf("second RunHourly: %v", err)
	}
	if n := len(f.notifications(t, u.ID, models.NotificationTypeRenewal)); n != 1 {
		t.Errorf("renewal notifications after second tick = %d; want 1", n)
	}
	if f.messenger.count != 1 {
		t.Errorf("messages sent = %d; want 1", f.messenger.count)
	}
}

func TestRunHourlyBeforeGateOnlyAdvancesLifecycle(t *testing.T) {
	f := newFixture(t, at(10, 8, 0))
	u := f.member(t, "ann")
	p := f.plan(t, "Monthly", 30)
	m := f.membership(t, u.ID, p.ID, at(10, 0, 0), at(10, 0, 0).AddDate(0, 0, 3), models.MembershipStatusPending)

	summary, err := f.runner.RunHourly(context.Background())
	if err != nil {
		t.Fatalf("RunHourly: %v", err)
	}
	if _, ran := summary[TaskRenewalReminders]; ran {
		t.Error("daily tasks ran before the configured hour")
	}
	if stored, _ := f.store.GetMembership(m.ID); stored.Status != models.MembershipStatusActive {
		t.Errorf("status = %s; want active", stored.Status)
	}
	if n := len(f.notifications(t, u.ID, models.NotificationTypeRenewal)); n != 0 {
		t.Errorf("notifications before gate = %d", n)
	}
}

func TestMultiDaySequence(t *testing.T) {
	f := newFixture(t, at(10, 9, 0))
	u := f.member(t, "ann")
	p := f.plan(t, "Monthly", 30)
	m := f.membership(t, u.ID, p.ID, at(10, 0, 0).AddDate(0, 0, -27), at(13, 0, 0), models.MembershipStatusActive)

	// hourly ticks from day 10 09:00 to day 14 12:00
	for now := at(10, 9, 0); !now.After(at(14, 12, 0)); now = now.Add(time.Hour) {
		f.clock.Set(now)
		if _, err := f.runner.RunHourly(context.Background()); err != nil {
			t.Fatalf("RunHourly at %s: %v", now, err)
		}
	}

	// 3 days, 1 day and 0 days before the end
	if n := len(f.notifications(t, u.ID, models.NotificationTypeRenewal)); n != 3 {
		t.Errorf("renewal notifications = %d; want 3", n)
	}
	// a single attendance reminder: day 10 and then not again within 7 days
	if n := len(f.notifications(t, u.ID, models.NotificationTypeAttendance)); n != 1 {
		t.Errorf("attendance notifications = %d; want 1", n)
	}
	if stored, _ := f.store.GetMembership(m.ID); stored.Status != models.MembershipStatusExpired {
		t.Errorf("status = %s; want expired after end date", stored.Status)
	}
}

func TestTriggerNowBypassesHourAndMarksDay(t *testing.T) {
	f := newFixture(t, at(10, 7, 0))
	u := f.member(t, "ann")
	p := f.plan(t, "Monthly", 30)
	f.membership(t, u.ID, p.ID, at(10, 0, 0).AddDate(0, 0, -29), at(11, 0, 0), models.MembershipStatusActive)

	summary, err := f.runner.TriggerNow(context.Background(), models.JobTriggerManual)
	if err != nil {
		t.Fatalf("TriggerNow: %v", err)
	}
	for _, name := range append(HourlyTasks, DailyTasks...) {
		if _, ok := summary[name]; !ok {
			t.Errorf("task %s missing from summary", name)
		}
	}
	if n := len(f.notifications(t, u.ID, models.NotificationTypeRenewal)); n != 1 {
		t.Fatalf("renewal notifications = %d; want 1", n)
	}
	if f.runner.Gate().LastRunDay() != "2024-03-10" {
		t.Errorf("gate not marked: %q", f.runner.Gate().LastRunDay())
	}

	f.clock.Set(at(10, 10, 0))
	summary, err = f.runner.RunHourly(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if _, ran := summary[TaskRenewalReminders]; ran {
		t.Error("daily tasks ran again after manual trigger")
	}

	runs, _ := f.store.ListJobRuns(context.Background(), 0)
	manual := 0
	for _, r := range runs {
		if r.Trigger == models.JobTriggerManual {
			manual++
		}
	}
	if manual != 3 {
		t.Errorf("manual job runs = %d; want 3", manual)
	}
}

func TestFailedDailyRunLeavesGateOpen(t *testing.T) {
	f := newFixture(t, at(10, 10, 0))
	working, _ := f.registry.Get(TaskRenewalReminders)

	broken := true
	f.registry.Register(TaskRenewalReminders, func(ctx context.Context, now time.Time) (map[string]interface{}, error) {
		if broken {
			return nil, errors.New("database is locked")
		}
		return working(ctx, now)
	})

	if _, err := f.runner.RunHourly(context.Background()); err == nil {
		t.Fatal("expected error from failing task")
	}
	if f.runner.Gate().LastRunDay() != "" {
		t.Error("gate marked despite failure")
	}

	runs, _ := f.store.ListJobRuns(context.Background(), 0)
	if len(runs) == 0 || runs[0].Status != models.JobRunStatusFailure {
		t.Errorf("failure not recorded: %+v", runs)
	}

	broken = false
	f.clock.Set(at(10, 11, 0))
	if _, err := f.runner.RunHourly(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if f.runner.Gate().LastRunDay() != "2024-03-10" {
		t.Error("gate not marked after successful retry")
	}
}

func TestConcurrentTriggersDoNotDuplicate(t *testing.T) {
	f := newFixture(t, at(10, 10, 0))
	u := f.member(t, "ann")
	p := f.plan(t, "Monthly", 30)
	f.membership(t, u.ID, p.ID, at(10, 0, 0).AddDate(0, 0, -29), at(11, 0, 0), models.MembershipStatusActive)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = f.runner.RunHourly(context.Background())
		}()
		go func() {
			defer wg.Done()
			_, _ = f.runner.TriggerNow(context.Background(), models.JobTriggerManual)
		}()
	}
	wg.Wait()

	if n := len(f.notifications(t, u.ID, models.NotificationTypeRenewal)); n != 1 {
		t.Errorf("renewal notifications = %d; want 1", n)
	}
	if n := len(f.notifications(t, u.ID, models.NotificationTypeAttendance)); n != 1 {
		t.Errorf("attendance notifications = %d; want 1", n)
	}
}

func TestRunTaskUnknown(t *testing.T) {
	f := newFixture(t, at(10, 10, 0))
	if _, err := f.runner.RunTask(context.Background(), "nope", at(10, 10, 0), models.JobTriggerCLI); err == nil {
		t.Error("expected error for unknown task")
	}
}

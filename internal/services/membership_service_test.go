package services

import (
	"context"
	"errors"
	"testing"

	"gymtrack_app_echo/internal/clock"
	"gymtrack_app_echo/internal/logger"
	"gymtrack_app_echo/internal/models"
)

func TestAdvanceLifecycle(t *testing.T) {
	today := day(2024, 3, 10, 0, 0)
	c := clock.NewFixed(today)

	tests := []struct {
		name       string
		start, end int // offsets from today
		status     models.MembershipStatus
		want       models.MembershipStatus
	}{
		{"pending starting today activates", 0, 30, models.MembershipStatusPending, models.MembershipStatusActive},
		{"pending starting tomorrow waits", 1, 31, models.MembershipStatusPending, models.MembershipStatusPending},
		{"active ending yesterday expires", -30, -1, models.MembershipStatusActive, models.MembershipStatusExpired},
		{"active ending today stays", -30, 0, models.MembershipStatusActive, models.MembershipStatusActive},
		{"overdue pending activates then expires", -10, -2, models.MembershipStatusPending, models.MembershipStatusExpired},
		{"expired is terminal", -40, -10, models.MembershipStatusExpired, models.MembershipStatusExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newTestStore(c)
			u := seedUser(t, st, "ann")
			p := seedPlan(t, st, "Monthly", 30)
			m := seedMembership(t, st, u.ID, p.ID, clock.AddDays(today, tt.start), clock.AddDays(today, tt.end), tt.status)

			svc := NewMembershipService(st, c, logger.Discard())
			if _, err := svc.AdvanceLifecycle(context.Background(), today); err != nil {
				t.Fatalf("AdvanceLifecycle: %v", err)
			}

			got, _ := st.GetMembership(m.ID)
			if got.Status != tt.want {
				t.Errorf("status = %s; want %s", got.Status, tt.want)
			}
		})
	}
}

func TestAdvanceLifecycleIdempotent(t *testing.T) {
	today := day(2024, 3, 10, 0, 0)
	c := clock.NewFixed(today)
	st := newTestStore(c)
	u := seedUser(t, st, "ann")
	p := seedPlan(t, st, "Monthly", 30)
	seedMembership(t, st, u.ID, p.ID, today, clock.AddDays(today, 30), models.MembershipStatusPending)
	seedMembership(t, st, u.ID, p.ID, clock.AddDays(today, -31), clock.AddDays(today, -1), models.MembershipStatusActive)

	svc := NewMembershipService(st, c, logger.Discard())
	first, err := svc.AdvanceLifecycle(context.Background(), today)
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	if first.Activated != 1 || first.Expired != 1 {
		t.Errorf("first pass = %+v; want 1 activated, 1 expired", first)
	}

	second, err := svc.AdvanceLifecycle(context.Background(), today)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if second.Activated != 0 || second.Expired != 0 {
		t.Errorf("second pass = %+v; want no changes", second)
	}
}

func TestSubscribe(t *testing.T) {
	now := day(2024, 3, 10, 14, 30)
	today := clock.Today(now)

	tests := []struct {
		name       string
		existing   *[2]int // start/end offsets of an active membership
		wantStatus models.MembershipStatus
		wantStart  int
		wantEnd    int
	}{
		{
			name:       "no membership starts today",
			wantStatus: models.MembershipStatusActive,
			wantStart:  0,
			wantEnd:    30,
		},
		{
			name:       "chains after current membership",
			existing:   &[2]int{-25, 5},
			wantStatus: models.MembershipStatusPending,
			wantStart:  6,
			wantEnd:    36,
		},
		{
			name:       "membership ending today still chains",
			existing:   &[2]int{-30, 0},
			wantStatus: models.MembershipStatusPending,
			wantStart:  1,
			wantEnd:    31,
		},
		{
			name:       "lapsed membership not yet swept is ignored",
			existing:   &[2]int{-31, -1},
			wantStatus: models.MembershipStatusActive,
			wantStart:  0,
			wantEnd:    30,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := clock.NewFixed(now)
			st := newTestStore(c)
			u := seedUser(t, st, "ann")
			p := seedPlan(t, st, "Monthly", 30)
			if tt.existing != nil {
				seedMembership(t, st, u.ID, p.ID, clock.AddDays(today, tt.existing[0]), clock.AddDays(today, tt.existing[1]), models.MembershipStatusActive)
			}

			svc := NewMembershipService(st, c, logger.Discard())
			m, err := svc.Subscribe(context.Background(), u.ID, p.ID)
			if err != nil {
				t.Fatalf("Subscribe: %v", err)
			}
			if m.Status != tt.wantStatus {
				t.Errorf("status = %s; want %s", m.Status, tt.wantStatus)
			}
			if got := clock.DaysBetween(today, m.StartDate); got != tt.wantStart {
				t.Errorf("start offset = %d; want %d", got, tt.wantStart)
			}
			if got := clock.DaysBetween(today, m.EndDate); got != tt.wantEnd {
				t.Errorf("end offset = %d; want %d", got, tt.wantEnd)
			}
			if m.EndDate.Before(m.StartDate) {
				t.Error("end date before start date")
			}
		})
	}
}

func TestSubscribeErrors(t *testing.T) {
	c := clock.NewFixed(day(2024, 3, 10, 9, 0))
	st := newTestStore(c)
	u := seedUser(t, st, "ann")
	p := seedPlan(t, st, "Monthly", 30)
	svc := NewMembershipService(st, c, logger.Discard())

	if _, err := svc.Subscribe(context.Background(), u.ID, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown plan: err = %v; want ErrNotFound", err)
	}

	u.IsActive = false
	if err := st.UpdateUser(context.Background(), u); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Subscribe(context.Background(), u.ID, p.ID); !errors.Is(err, ErrUserInactive) {
		t.Errorf("inactive user: err = %v; want ErrUserInactive", err)
	}
}

func TestPlanValidation(t *testing.T) {
	c := clock.NewFixed(day(2024, 3, 10, 9, 0))
	svc := NewMembershipService(newTestStore(c), c, logger.Discard())

	tests := []struct {
		name string
		in   PlanInput
		want error
	}{
		{"valid", PlanInput{Name: "Monthly", DurationDays: 30, Price: 20}, nil},
		{"missing name", PlanInput{Name: " ", DurationDays: 30}, ErrInvalidInput},
		{"zero duration", PlanInput{Name: "Zero", DurationDays: 0}, ErrInvalidInput},
		{"negative price", PlanInput{Name: "Cheap", DurationDays: 7, Price: -1}, ErrInvalidInput},
		{"duplicate name", PlanInput{Name: "Monthly", DurationDays: 30}, ErrDuplicate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreatePlan(context.Background(), tt.in)
			if !errors.Is(err, tt.want) {
				t.Errorf("CreatePlan() error = %v; want %v", err, tt.want)
			}
		})
	}
}

func TestPlanUpdateAndDelete(t *testing.T) {
	c := clock.NewFixed(day(2024, 3, 10, 9, 0))
	svc := NewMembershipService(newTestStore(c), c, logger.Discard())
	ctx := context.Background()

	monthly, err := svc.CreatePlan(ctx, PlanInput{Name: "Monthly", DurationDays: 30, Price: 20})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreatePlan(ctx, PlanInput{Name: "Yearly", DurationDays: 365, Price: 200}); err != nil {
		t.Fatal(err)
	}

	updated, err := svc.UpdatePlan(ctx, monthly.ID, PlanInput{Name: " Monthly Plus ", DurationDays: 31, Price: 25})
	if err != nil {
		t.Fatalf("UpdatePlan: %v", err)
	}
	if updated.Name != "Monthly Plus" || updated.DurationDays != 31 {
		t.Errorf("updated plan = %+v", updated)
	}
	if _, err := svc.UpdatePlan(ctx, monthly.ID, PlanInput{Name: "Yearly", DurationDays: 30}); !errors.Is(err, ErrDuplicate) {
		t.Errorf("rename onto existing plan: error = %v; want ErrDuplicate", err)
	}

	if err := svc.DeletePlan(ctx, monthly.ID); err != nil {
		t.Fatalf("DeletePlan: %v", err)
	}
	if _, err := svc.GetPlan(ctx, monthly.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetPlan after delete: error = %v; want ErrNotFound", err)
	}
	if err := svc.DeletePlan(ctx, monthly.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeletePlan: error = %v; want ErrNotFound", err)
	}
}

func TestDeletedPlanNameIsReusable(t *testing.T) {
	today := day(2024, 3, 10, 9, 0)
	c := clock.NewFixed(today)
	st := newTestStore(c)
	svc := NewMembershipService(st, c, logger.Discard())
	ctx := context.Background()

	u := seedUser(t, st, "ann")
	old := seedPlan(t, st, "Monthly", 30)
	seedMembership(t, st, u.ID, old.ID, today, clock.AddDays(today, 29), models.MembershipStatusActive)

	if err := svc.DeletePlan(ctx, old.ID); err != nil {
		t.Fatalf("DeletePlan: %v", err)
	}
	recreated, err := svc.CreatePlan(ctx, PlanInput{Name: "Monthly", DurationDays: 31, Price: 30})
	if err != nil {
		t.Fatalf("recreate after delete: %v", err)
	}
	if recreated.ID == old.ID {
		t.Errorf("recreated plan reused id %d", old.ID)
	}
	if _, err := svc.CreatePlan(ctx, PlanInput{Name: "Monthly", DurationDays: 30}); !errors.Is(err, ErrDuplicate) {
		t.Errorf("second live Monthly: error = %v; want ErrDuplicate", err)
	}

	plans, err := svc.ListPlans(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(plans) != 1 || plans[0].ID != recreated.ID {
		t.Errorf("ListPlans = %+v; want only plan %d", plans, recreated.ID)
	}

	history, err := svc.History(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 || history[0].Plan.Name != "Monthly" || history[0].PlanID != old.ID {
		t.Errorf("history = %+v; want the membership on the deleted Monthly plan", history)
	}
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gymtrack_app_echo/internal/clock"
	"gymtrack_app_echo/internal/metrics"
	"gymtrack_app_echo/internal/models"
	"gymtrack_app_echo/internal/store"
)

// LifecycleResult counts the rows moved by one sweep
type LifecycleResult struct {
	Activated int64 `json:"activated"`
	Expired   int64 `json:"expired"`
}

// PlanInput is the editable part of a membership plan
type PlanInput struct {
	Name         string
	DurationDays int
	Price        float64
	Description  string
}

func (in PlanInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: plan name is required", ErrInvalidInput)
	}
	if in.DurationDays <= 0 {
		return fmt.Errorf("%w: duration must be at least one day", ErrInvalidInput)
	}
	if in.Price < 0 {
		return fmt.Errorf("%w: price cannot be negative", ErrInvalidInput)
	}
	return nil
}

type MembershipService struct {
	store store.Store
	clock clock.Clock
	log   *slog.Logger
}

func NewMembershipService(s store.Store, c clock.Clock, log *slog.Logger) *MembershipService {
	return &MembershipService{store: s, clock: c, log: log}
}

// AdvanceLifecycle activates pending memberships whose start date has come and
// expires active ones whose end date has passed, in that order. Running it
// twice for the same day changes nothing the second time.
func (s *MembershipService) AdvanceLifecycle(ctx context.Context, today time.Time) (LifecycleResult, error) {
	var res LifecycleResult
	today = clock.Today(today)

	activated, err := s.store.ActivatePending(ctx, today)
	if err != nil {
		return res, fmt.Errorf("activate pending memberships: %w", err)
	}
	res.Activated = activated
	metrics.LifecycleTransitions.WithLabelValues(string(models.MembershipStatusActive)).Add(float64(activated))

	expired, err := s.store.ExpireActive(ctx, today)
	if err != nil {
		return res, fmt.Errorf("expire active memberships: %w", err)
	}
	res.Expired = expired
	metrics.LifecycleTransitions.WithLabelValues(string(models.MembershipStatusExpired)).Add(float64(expired))

	if activated > 0 || expired > 0 {
		s.log.Info("membership lifecycle advanced", "day", clock.DayKey(today), "activated", activated, "expired", expired)
	}
	return res, nil
}

// Subscribe creates a membership for the plan. A user already holding an
// active membership that reaches today or later gets a pending one chained
// after its end date; otherwise the membership is active from today.
func (s *MembershipService) Subscribe(ctx context.Context, userID, planID uint) (*models.Membership, error) {
	plan, err := s.store.GetPlan(ctx, planID)
	if err != nil {
		return nil, translate(err)
	}
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, translate(err)
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	today := clock.Today(s.clock.Now())
	m := &models.Membership{
		UserID:    userID,
		PlanID:    plan.ID,
		StartDate: today,
		Status:    models.MembershipStatusActive,
	}

	current, err := s.store.LatestActiveMembership(ctx, userID, today)
	switch {
	case err == nil:
		m.StartDate = clock.AddDays(inLocation(current.EndDate, today.Location()), 1)
		m.Status = models.MembershipStatusPending
	case errors.Is(err, store.ErrNotFound):
	default:
		return nil, err
	}
	m.EndDate = clock.AddDays(m.StartDate, plan.DurationDays)

	if err := s.store.CreateMembership(ctx, m); err != nil {
		return nil, fmt.Errorf("create membership: %w", err)
	}
	m.Plan = *plan

	s.log.Info("membership created",
		"user_id", userID,
		"plan", plan.Name,
		"status", m.Status,
		"start", clock.DayKey(m.StartDate),
		"end", clock.DayKey(m.EndDate),
	)
	return m, nil
}

// CurrentMembership returns the active membership covering today, or nil
func (s *MembershipService) CurrentMembership(ctx context.Context, userID uint) (*models.Membership, error) {
	today := clock.Today(s.clock.Now())
	m, err := s.store.LatestActiveMembership(ctx, userID, today)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if clock.DaysBetween(today, m.StartDate) > 0 {
		return nil, nil
	}
	return m, nil
}

func (s *MembershipService) History(ctx context.Context, userID uint) ([]models.Membership, error) {
	return s.store.ListMembershipsByUser(ctx, userID)
}

// DaysLeft counts calendar days from today until the membership ends
func (s *MembershipService) DaysLeft(m models.Membership) int {
	return clock.DaysBetween(s.clock.Now(), m.EndDate)
}

func (s *MembershipService) ListPlans(ctx context.Context) ([]models.MembershipPlan, error) {
	return s.store.ListPlans(ctx)
}

func (s *MembershipService) GetPlan(ctx context.Context, id uint) (*models.MembershipPlan, error) {
	plan, err := s.store.GetPlan(ctx, id)
	return plan, translate(err)
}

func (s *MembershipService) CreatePlan(ctx context.Context, in PlanInput) (*models.MembershipPlan, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	plan := &models.MembershipPlan{
		Name:         strings.TrimSpace(in.Name),
		DurationDays: in.DurationDays,
		Price:        in.Price,
		Description:  strings.TrimSpace(in.Description),
	}
	if err := s.store.CreatePlan(ctx, plan); err != nil {
		return nil, translate(err)
	}
	return plan, nil
}

func (s *MembershipService) UpdatePlan(ctx context.Context, id uint, in PlanInput) (*models.MembershipPlan, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	plan, err := s.store.GetPlan(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	plan.Name = strings.TrimSpace(in.Name)
	plan.DurationDays = in.DurationDays
	plan.Price = in.Price
	plan.Description = strings.TrimSpace(in.Description)
	if err := s.store.UpdatePlan(ctx, plan); err != nil {
		return nil, translate(err)
	}
	return plan, nil
}

func (s *MembershipService) DeletePlan(ctx context.Context, id uint) error {
	return translate(s.store.DeletePlan(ctx, id))
}

// inLocation reinterprets a date read back from a DATE column as the same
// calendar day in loc
func inLocation(day time.Time, loc *time.Location) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

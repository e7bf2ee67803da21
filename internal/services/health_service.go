package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"gymtrack_app_echo/internal/clock"
	"gymtrack_app_echo/internal/models"
	"gymtrack_app_echo/internal/store"
)

// HealthInput is one day's measurements; nil fields were left blank
type HealthInput struct {
	EntryDate     time.Time
	WeightKg      *float64
	HeightCm      *float64
	HeartRate     *int
	CalorieIntake *int
}

func (in HealthInput) validate() error {
	if in.EntryDate.IsZero() {
		return fmt.Errorf("%w: entry date is required", ErrInvalidInput)
	}
	if in.WeightKg != nil && (*in.WeightKg <= 0 || *in.WeightKg > 500) {
		return fmt.Errorf("%w: weight must be between 0 and 500 kg", ErrInvalidInput)
	}
	if in.HeightCm != nil && (*in.HeightCm <= 0 || *in.HeightCm > 300) {
		return fmt.Errorf("%w: height must be between 0 and 300 cm", ErrInvalidInput)
	}
	if in.HeartRate != nil && (*in.HeartRate <= 0 || *in.HeartRate > 300) {
		return fmt.Errorf("%w: heart rate must be between 0 and 300 bpm", ErrInvalidInput)
	}
	if in.CalorieIntake != nil && *in.CalorieIntake < 0 {
		return fmt.Errorf("%w: calorie intake cannot be negative", ErrInvalidInput)
	}
	return nil
}

// BMI computes weight / height(m)^2 rounded to two decimals. It returns nil
// when either input is missing or not positive.
func BMI(weightKg, heightCm *float64) *float64 {
	if weightKg == nil || heightCm == nil || *weightKg <= 0 || *heightCm <= 0 {
		return nil
	}
	h := *heightCm / 100
	v := math.Round(*weightKg/(h*h)*100) / 100
	return &v
}

type HealthService struct {
	store store.HealthStore
	clock clock.Clock
}

func NewHealthService(s store.HealthStore, c clock.Clock) *HealthService {
	return &HealthService{store: s, clock: c}
}

// Record stores the measurements for the entry date, replacing whatever was
// recorded for that day. A missing height is taken from the latest earlier entry.
func (s *HealthService) Record(ctx context.Context, userID uint, in HealthInput) (*models.HealthMetric, error) {
	if in.EntryDate.IsZero() {
		in.EntryDate = s.clock.Now()
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	day := clock.Today(in.EntryDate)

	height := in.HeightCm
	if height == nil {
		known, err := s.store.LatestHeight(ctx, userID, day)
		if err != nil {
			return nil, fmt.Errorf("look up height: %w", err)
		}
		height = known
	}

	metric := &models.HealthMetric{
		UserID:        userID,
		EntryDate:     day,
		WeightKg:      in.WeightKg,
		HeightCm:      height,
		BMI:           BMI(in.WeightKg, height),
		HeartRate:     in.HeartRate,
		CalorieIntake: in.CalorieIntake,
	}
	if err := s.store.UpsertHealthMetric(ctx, metric); err != nil {
		return nil, fmt.Errorf("save health metric: %w", err)
	}
	return metric, nil
}

func (s *HealthService) History(ctx context.Context, userID uint, limit int) ([]models.HealthMetric, error) {
	return s.store.ListHealthMetrics(ctx, userID, limit)
}

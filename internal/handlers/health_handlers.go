package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"gymtrack_app_echo/internal/clock"
	"gymtrack_app_echo/internal/models"
	"gymtrack_app_echo/internal/services"
)

type HealthHandler struct {
	health *services.HealthService
	clock  clock.Clock
	loc    *time.Location
}

func NewHealthHandler(h *services.HealthService, c clock.Clock, loc *time.Location) *HealthHandler {
	if loc == nil {
		loc = time.Local
	}
	return &HealthHandler{health: h, clock: c, loc: loc}
}

type healthData struct {
	Today   string
	History []models.HealthMetric
}

// HealthPage renders the measurement form and recent entries
func (h *HealthHandler) HealthPage(c echo.Context) error {
	return h.render(c, http.StatusOK, "")
}

func (h *HealthHandler) render(c echo.Context, status int, formErr string) error {
	history, err := h.health.History(c.Request().Context(), getUintFromContext(c, "userID"), 60)
	if err != nil {
		return err
	}
	page := newPage(c, "Health", "health", healthData{
		Today:   clock.DayKey(h.clock.Now().In(h.loc)),
		History: history,
	})
	if formErr != "" {
		page.Error = formErr
	}
	return c.Render(status, "health.html", page)
}

// RecordHealth stores the submitted measurements
func (h *HealthHandler) RecordHealth(c echo.Context) error {
	in, err := h.healthInputFromForm(c)
	if err == nil {
		_, err = h.health.Record(c.Request().Context(), getUintFromContext(c, "userID"), in)
	}
	if err != nil {
		if isUserError(err) {
			return h.render(c, http.StatusUnprocessableEntity, err.Error())
		}
		return err
	}
	return redirectWith(c, "/health-metrics", "notice", "Measurements saved.")
}

func (h *HealthHandler) healthInputFromForm(c echo.Context) (services.HealthInput, error) {
	var in services.HealthInput
	var err error
	if v := strings.TrimSpace(c.FormValue("entry_date")); v != "" {
		if in.EntryDate, err = clock.ParseDay(v, h.loc); err != nil {
			return in, fmt.Errorf("%w: entry date must be YYYY-MM-DD", services.ErrInvalidInput)
		}
	}
	if in.WeightKg, err = optionalFloat(c.FormValue("weight_kg"), "weight"); err != nil {
		return in, err
	}
	if in.HeightCm, err = optionalFloat(c.FormValue("height_cm"), "height"); err != nil {
		return in, err
	}
	if in.HeartRate, err = optionalInt(c.FormValue("heart_rate"), "heart rate"); err != nil {
		return in, err
	}
	if in.CalorieIntake, err = optionalInt(c.FormValue("calorie_intake"), "calorie intake"); err != nil {
		return in, err
	}
	return in, nil
}

func optionalFloat(raw, field string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a number", services.ErrInvalidInput, field)
	}
	return &v, nil
}

func optionalInt(raw, field string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a whole number", services.ErrInvalidInput, field)
	}
	return &v, nil
}

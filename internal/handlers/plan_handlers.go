package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"gymtrack_app_echo/internal/models"
	"gymtrack_app_echo/internal/services"
)

type PlanHandler struct {
	memberships *services.MembershipService
	reports     *services.ReportService
}

func NewPlanHandler(m *services.MembershipService, r *services.ReportService) *PlanHandler {
	return &PlanHandler{memberships: m, reports: r}
}

type plansData struct {
	Plans   []models.MembershipPlan
	Current *models.Membership
}

type planFormData struct {
	IsEdit bool
	Plan   models.MembershipPlan
}

// ListPlans renders the plans a member can subscribe to
func (h *PlanHandler) ListPlans(c echo.Context) error {
	ctx := c.Request().Context()
	plans, err := h.memberships.ListPlans(ctx)
	if err != nil {
		return err
	}
	current, err := h.memberships.CurrentMembership(ctx, getUintFromContext(c, "userID"))
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "plans.html", newPage(c, "Plans", "plans", plansData{Plans: plans, Current: current}))
}

// Subscribe starts or queues a membership on the chosen plan
func (h *PlanHandler) Subscribe(c echo.Context) error {
	planID, err := paramID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	m, err := h.memberships.Subscribe(ctx, getUintFromContext(c, "userID"), planID)
	if err != nil {
		if isUserError(err) {
			return redirectWith(c, "/plans", "error", err.Error())
		}
		return httpError(err)
	}
	_ = h.reports.InvalidateReport(ctx)

	msg := fmt.Sprintf("Subscribed to %s until %s.", m.Plan.Name, m.EndDate.Format("2006-01-02"))
	if m.Status == models.MembershipStatusPending {
		msg = fmt.Sprintf("%s starts on %s, right after your current membership.", m.Plan.Name, m.StartDate.Format("2006-01-02"))
	}
	return redirectWith(c, "/memberships", "notice", msg)
}

// AdminListPlans renders the plan management table
func (h *PlanHandler) AdminListPlans(c echo.Context) error {
	plans, err := h.memberships.ListPlans(c.Request().Context())
	if err != nil {
		return err
	}
	page := newPage(c, "Plan Management", "admin", plans)
	page.Breadcrumbs = []Breadcrumb{{Title: "Admin", URL: "/admin"}, {Title: "Plans"}}
	return c.Render(http.StatusOK, "admin_plans.html", page)
}

// CreatePlanPage renders the create plan form
func (h *PlanHandler) CreatePlanPage(c echo.Context) error {
	page := newPage(c, "Create New Plan", "admin", planFormData{Plan: models.MembershipPlan{DurationDays: 30}})
	page.Breadcrumbs = []Breadcrumb{{Title: "Admin", URL: "/admin"}, {Title: "Plans", URL: "/admin/plans"}, {Title: "Create Plan"}}
	return c.Render(http.StatusOK, "admin_plan_form.html", page)
}

// StorePlan handles the creation of a new plan
func (h *PlanHandler) StorePlan(c echo.Context) error {
	in, err := planInputFromForm(c)
	if err == nil {
		_, err = h.memberships.CreatePlan(c.Request().Context(), in)
	}
	if err != nil {
		if !isUserError(err) {
			return err
		}
		page := newPage(c, "Create New Plan", "admin", planFormData{Plan: planFromInput(in)})
		page.Error = err.Error()
		return c.Render(http.StatusUnprocessableEntity, "admin_plan_form.html", page)
	}
	return redirectWith(c, "/admin/plans", "notice", "Plan created.")
}

// EditPlanPage renders the edit plan form
func (h *PlanHandler) EditPlanPage(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	plan, err := h.memberships.GetPlan(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	page := newPage(c, "Edit Plan", "admin", planFormData{IsEdit: true, Plan: *plan})
	page.Breadcrumbs = []Breadcrumb{{Title: "Admin", URL: "/admin"}, {Title: "Plans", URL: "/admin/plans"}, {Title: "Edit Plan"}}
	return c.Render(http.StatusOK, "admin_plan_form.html", page)
}

// UpdatePlan handles updating an existing plan
func (h *PlanHandler) UpdatePlan(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	in, err := planInputFromForm(c)
	if err == nil {
		_, err = h.memberships.UpdatePlan(c.Request().Context(), id, in)
	}
	if err != nil {
		if !isUserError(err) {
			return httpError(err)
		}
		plan := planFromInput(in)
		plan.ID = id
		page := newPage(c, "Edit Plan", "admin", planFormData{IsEdit: true, Plan: plan})
		page.Error = err.Error()
		return c.Render(http.StatusUnprocessableEntity, "admin_plan_form.html", page)
	}
	return redirectWith(c, "/admin/plans", "notice", "Plan updated.")
}

// DeletePlan removes a plan
func (h *PlanHandler) DeletePlan(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if err := h.memberships.DeletePlan(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return redirectWith(c, "/admin/plans", "notice", "Plan deleted.")
}

func planInputFromForm(c echo.Context) (services.PlanInput, error) {
	in := services.PlanInput{
		Name:        strings.TrimSpace(c.FormValue("name")),
		Description: strings.TrimSpace(c.FormValue("description")),
	}
	days, err := strconv.Atoi(c.FormValue("duration_days"))
	if err != nil {
		return in, fmt.Errorf("%w: duration must be a whole number of days", services.ErrInvalidInput)
	}
	in.DurationDays = days
	price, err := strconv.ParseFloat(c.FormValue("price"), 64)
	if err != nil {
		return in, fmt.Errorf("%w: price must be a number", services.ErrInvalidInput)
	}
	in.Price = price
	return in, nil
}

func planFromInput(in services.PlanInput) models.MembershipPlan {
	return models.MembershipPlan{
		Name:         in.Name,
		DurationDays: in.DurationDays,
		Price:        in.Price,
		Description:  in.Description,
	}
}

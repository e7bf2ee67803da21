package handlers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"gymtrack_app_echo/internal/models"
	"gymtrack_app_echo/internal/services"
	"gymtrack_app_echo/internal/store"
	"gymtrack_app_echo/internal/tasks"
)

type AdminHandler struct {
	reports *services.ReportService
	runner  *tasks.Runner
	jobRuns store.JobRunStore
}

func NewAdminHandler(reports *services.ReportService, runner *tasks.Runner, jobRuns store.JobRunStore) *AdminHandler {
	return &AdminHandler{reports: reports, runner: runner, jobRuns: jobRuns}
}

type jobsData struct {
	Runs      []models.JobRun
	LastDaily string
	DailyHour int
}

// Report renders the admin overview
func (h *AdminHandler) Report(c echo.Context) error {
	report, err := h.reports.AdminReport(c.Request().Context())
	if err != nil {
		return err
	}
	page := newPage(c, "Admin", "admin", report)
	page.Breadcrumbs = []Breadcrumb{{Title: "Admin"}}
	return c.Render(http.StatusOK, "admin_report.html", page)
}

// Jobs renders the recent background job runs
func (h *AdminHandler) Jobs(c echo.Context) error {
	runs, err := h.jobRuns.ListJobRuns(c.Request().Context(), 50)
	if err != nil {
		return err
	}
	page := newPage(c, "Background Jobs", "admin", jobsData{
		Runs:      runs,
		LastDaily: h.runner.Gate().LastRunDay(),
		DailyHour: h.runner.Gate().Hour(),
	})
	page.Breadcrumbs = []Breadcrumb{{Title: "Admin", URL: "/admin"}, {Title: "Jobs"}}
	return c.Render(http.StatusOK, "admin_jobs.html", page)
}

// RunJobs runs the lifecycle sweep and both reminder jobs immediately
func (h *AdminHandler) RunJobs(c echo.Context) error {
	ctx := c.Request().Context()
	summary, err := h.runner.TriggerNow(ctx, models.JobTriggerManual)
	if err != nil {
		c.Logger().Error(err)
		return redirectWith(c, "/admin/jobs", "error", fmt.Sprintf("Job run failed: %v", err))
	}
	_ = h.reports.InvalidateReport(ctx)
	return redirectWith(c, "/admin/jobs", "notice", fmt.Sprintf("Ran %d tasks.", len(summary)))
}

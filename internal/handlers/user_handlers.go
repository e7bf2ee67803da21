package handlers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"gymtrack_app_echo/internal/services"
)

type UserHandler struct {
	users   *services.UserService
	reports *services.ReportService
}

func NewUserHandler(users *services.UserService, reports *services.ReportService) *UserHandler {
	return &UserHandler{users: users, reports: reports}
}

// ListUsers renders every account for the admin
func (h *UserHandler) ListUsers(c echo.Context) error {
	users, err := h.users.List(c.Request().Context())
	if err != nil {
		return err
	}
	page := newPage(c, "User Management", "admin", users)
	page.Breadcrumbs = []Breadcrumb{{Title: "Admin", URL: "/admin"}, {Title: "Users"}}
	return c.Render(http.StatusOK, "admin_users.html", page)
}

// Activate re-enables an account
func (h *UserHandler) Activate(c echo.Context) error {
	return h.setActive(c, true)
}

// Deactivate disables an account; the user can no longer log in
func (h *UserHandler) Deactivate(c echo.Context) error {
	return h.setActive(c, false)
}

func (h *UserHandler) setActive(c echo.Context, active bool) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if !active && id == getUintFromContext(c, "userID") {
		return redirectWith(c, "/admin/users", "error", "You cannot deactivate your own account.")
	}
	user, err := h.users.SetActive(c.Request().Context(), id, active)
	if err != nil {
		return httpError(err)
	}
	_ = h.reports.InvalidateReport(c.Request().Context())

	state := "deactivated"
	if active {
		state = "activated"
	}
	return redirectWith(c, "/admin/users", "notice", fmt.Sprintf("%s %s.", user.Name, state))
}

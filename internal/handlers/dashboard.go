package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"gymtrack_app_echo/internal/models"
	"gymtrack_app_echo/internal/services"
)

// DashboardHandler handles dashboard endpoints
type DashboardHandler struct {
	memberships   *services.MembershipService
	attendance    *services.AttendanceService
	notifications *services.NotificationService
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(m *services.MembershipService, a *services.AttendanceService, n *services.NotificationService) *DashboardHandler {
	return &DashboardHandler{memberships: m, attendance: a, notifications: n}
}

type dashboardData struct {
	Membership   *models.Membership
	DaysLeft     int
	OpenVisit    *models.AttendanceEntry
	Unread       int64
	RecentVisits []models.AttendanceEntry
}

// Dashboard renders the member's overview
func (h *DashboardHandler) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()
	userID := getUintFromContext(c, "userID")

	var data dashboardData
	current, err := h.memberships.CurrentMembership(ctx, userID)
	if err != nil {
		return err
	}
	if current != nil {
		data.Membership = current
		data.DaysLeft = h.memberships.DaysLeft(*current)
	}
	if data.OpenVisit, err = h.attendance.OpenVisit(ctx, userID); err != nil {
		return err
	}
	if data.Unread, err = h.notifications.UnreadCount(ctx, userID); err != nil {
		return err
	}
	if data.RecentVisits, err = h.attendance.History(ctx, userID, 5); err != nil {
		return err
	}

	return c.Render(http.StatusOK, "dashboard.html", newPage(c, "Dashboard", "dashboard", data))
}

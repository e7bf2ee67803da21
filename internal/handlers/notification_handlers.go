package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"gymtrack_app_echo/internal/services"
)

type NotificationHandler struct {
	notifications *services.NotificationService
}

func NewNotificationHandler(n *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: n}
}

// ListNotifications renders the member's inbox, newest first
func (h *NotificationHandler) ListNotifications(c echo.Context) error {
	items, err := h.notifications.List(c.Request().Context(), getUintFromContext(c, "userID"), 50)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "notifications.html", newPage(c, "Notifications", "notifications", items))
}

// MarkAllRead clears the unread badge
func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	if _, err := h.notifications.MarkAllRead(c.Request().Context(), getUintFromContext(c, "userID")); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/notifications")
}

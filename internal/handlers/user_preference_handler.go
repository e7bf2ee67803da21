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

type UserPreferenceHandler struct {
	users *services.UserService
}

func NewUserPreferenceHandler(users *services.UserService) *UserPreferenceHandler {
	return &UserPreferenceHandler{users: users}
}

// GetUserPreference renders the notification settings form
func (h *UserPreferenceHandler) GetUserPreference(c echo.Context) error {
	pref, err := h.users.Preference(c.Request().Context(), getUintFromContext(c, "userID"))
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "preferences.html", newPage(c, "Notification settings", "", pref))
}

// UpdateUserPreference handles the form submission
func (h *UserPreferenceHandler) UpdateUserPreference(c echo.Context) error {
	userID := getUintFromContext(c, "userID")
	in := services.PreferenceInput{
		Channel:            models.NotificationChannel(c.FormValue("channel")), // email, whatsapp, telegram or none
		WhatsappTargetType: c.FormValue("whatsapp_target_type"),                // personal or group
		WhatsappGroupID:    c.FormValue("whatsapp_group_id"),
	}
	var err error
	if raw := strings.TrimSpace(c.FormValue("telegram_chat_id")); raw != "" {
		in.TelegramChatID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			err = fmt.Errorf("%w: telegram chat id must be a number", services.ErrInvalidInput)
		}
	}
	if err == nil {
		_, err = h.users.SavePreference(c.Request().Context(), userID, in)
	}
	if err != nil {
		if !isUserError(err) {
			return err
		}
		page := newPage(c, "Notification settings", "", models.UserNotifPreference{
			UserID:             userID,
			Channel:            in.Channel,
			WhatsappTargetType: in.WhatsappTargetType,
			WhatsappGroupID:    in.WhatsappGroupID,
			TelegramChatID:     in.TelegramChatID,
		})
		page.Error = err.Error()
		return c.Render(http.StatusUnprocessableEntity, "preferences.html", page)
	}
	return redirectWith(c, "/preferences", "notice", "Preferences saved.")
}

package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"gymtrack_app_echo/internal/models"
	"gymtrack_app_echo/internal/services"
)

type MembershipHandler struct {
	memberships *services.MembershipService
}

func NewMembershipHandler(m *services.MembershipService) *MembershipHandler {
	return &MembershipHandler{memberships: m}
}

type membershipRow struct {
	models.Membership
	DaysLeft int
}

// ListMemberships renders the user's membership history, newest first
func (h *MembershipHandler) ListMemberships(c echo.Context) error {
	items, err := h.memberships.History(c.Request().Context(), getUintFromContext(c, "userID"))
	if err != nil {
		return err
	}
	rows := make([]membershipRow, 0, len(items))
	for _, m := range items {
		row := membershipRow{Membership: m}
		if m.Status != models.MembershipStatusExpired {
			row.DaysLeft = h.memberships.DaysLeft(m)
		}
		rows = append(rows, row)
	}
	return c.Render(http.StatusOK, "memberships.html", newPage(c, "Memberships", "memberships", rows))
}

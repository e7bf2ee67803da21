package middleware

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"gymtrack_app_echo/internal/auth"
	"gymtrack_app_echo/internal/models"
)

// UserLoader resolves the user behind a session
type UserLoader interface {
	Get(ctx context.Context, id uint) (*models.User, error)
}

func clearSession(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     "session",
		Value:    "",
		MaxAge:   -1,
		HttpOnly: true,
		Path:     "/",
	})
}

// RequireAuth returns a middleware that verifies the session cookie and
// loads the current user
func RequireAuth(tokens *auth.TokenManager, users UserLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// Get the session cookie
			cookie, err := c.Cookie("session")
			if err != nil || cookie.Value == "" {
				return c.Redirect(http.StatusSeeOther, "/login")
			}

			claims, err := tokens.Parse(cookie.Value)
			if err != nil {
				// Invalid session, clear cookie and redirect
				clearSession(c)
				return c.Redirect(http.StatusSeeOther, "/login")
			}

			user, err := users.Get(c.Request().Context(), claims.UserID)
			if err != nil || !user.IsActive {
				clearSession(c)
				return c.Redirect(http.StatusSeeOther, "/login?error=account+unavailable")
			}

			// Set user info in context for downstream handlers
			c.Set("user", user)
			c.Set("userID", user.ID)
			c.Set("userEmail", user.Email)
			c.Set("userName", user.Name)

			return next(c)
		}
	}
}

// RequireAdmin rejects non-admin users; it must run after RequireAuth
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, ok := c.Get("user").(*models.User)
		if !ok || !user.IsAdmin() {
			return echo.NewHTTPError(http.StatusForbidden)
		}
		return next(c)
	}
}

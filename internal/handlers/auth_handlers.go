package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"gymtrack_app_echo/internal/auth"
	"gymtrack_app_echo/internal/services"
)

// SessionCookie is the name of the cookie holding the session token
const SessionCookie = "session"

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	users  *services.UserService
	tokens *auth.TokenManager
	secure bool
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(users *services.UserService, tokens *auth.TokenManager, secureCookies bool) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, secure: secureCookies}
}

type authForm struct {
	Name  string
	Email string
	Phone string
}

// LoginPage renders the login page
func (h *AuthHandler) LoginPage(c echo.Context) error {
	return c.Render(http.StatusOK, "login.html", newPage(c, "Log in", "", authForm{}))
}

// HandleLogin checks the credentials and sets the session cookie
func (h *AuthHandler) HandleLogin(c echo.Context) error {
	email := c.FormValue("email")
	user, err := h.users.Login(c.Request().Context(), email, c.FormValue("password"))
	if err != nil {
		if !isUserError(err) {
			return err
		}
		page := newPage(c, "Log in", "", authForm{Email: email})
		page.Error = err.Error()
		return c.Render(http.StatusUnauthorized, "login.html", page)
	}

	token, err := h.tokens.Issue(user.ID, user.Email, user.Name, string(user.Role))
	if err != nil {
		return err
	}

	// Set HTTP-Only Cookie
	c.SetCookie(&http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		MaxAge:   int(h.tokens.TTL().Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})

	if user.IsAdmin() {
		return c.Redirect(http.StatusSeeOther, "/admin")
	}
	return c.Redirect(http.StatusSeeOther, "/dashboard")
}

// RegisterPage renders the sign-up form
func (h *AuthHandler) RegisterPage(c echo.Context) error {
	return c.Render(http.StatusOK, "register.html", newPage(c, "Sign up", "", authForm{}))
}

// HandleRegister creates the account and tells the user to check their inbox
func (h *AuthHandler) HandleRegister(c echo.Context) error {
	form := authForm{
		Name:  c.FormValue("name"),
		Email: c.FormValue("email"),
		Phone: c.FormValue("phone"),
	}
	user, err := h.users.Register(c.Request().Context(), services.RegisterInput{
		Name:     form.Name,
		Email:    form.Email,
		Phone:    form.Phone,
		Password: c.FormValue("password"),
	})
	if err != nil {
		if !isUserError(err) {
			return err
		}
		page := newPage(c, "Sign up", "", form)
		page.Error = err.Error()
		if errors.Is(err, services.ErrDuplicate) {
			page.Error = "An account with this email already exists."
		}
		return c.Render(http.StatusUnprocessableEntity, "register.html", page)
	}

	if user.EmailVerified {
		return redirectWith(c, "/login", "notice", "Account created. You can log in now.")
	}
	return redirectWith(c, "/login", "notice", "Check your inbox for a verification link.")
}

// Verify confirms the email behind the link
func (h *AuthHandler) Verify(c echo.Context) error {
	_, err := h.users.Verify(c.Request().Context(), c.Param("token"))
	switch {
	case err == nil:
		return redirectWith(c, "/login", "notice", "Email verified. You can log in now.")
	case errors.Is(err, services.ErrTokenExpired):
		return redirectWith(c, "/register", "error", "This link has expired. Sign up again to get a new one.")
	case errors.Is(err, services.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "This verification link is not valid.")
	default:
		return err
	}
}

// HandleLogout clears the session cookie
func (h *AuthHandler) HandleLogout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Path:     "/",
	})
	return c.Redirect(http.StatusSeeOther, "/login")
}

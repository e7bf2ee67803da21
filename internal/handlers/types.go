package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"

	"gymtrack_app_echo/internal/models"
	"gymtrack_app_echo/internal/services"
)

// Breadcrumb represents a navigation trail
type Breadcrumb struct {
	Title string
	URL   string
}

// PageData represents the common data structure passed to templates
type PageData struct {
	Title       string
	ActiveNav   string
	Breadcrumbs []Breadcrumb
	User        *models.User
	Notice      string
	Error       string
	Data        interface{} // Page-specific data
}

// newPage fills the common page fields from the request
func newPage(c echo.Context, title, nav string, data interface{}) PageData {
	crumbs := []Breadcrumb{{Title: "Home", URL: "/dashboard"}}
	if title != "" {
		crumbs = append(crumbs, Breadcrumb{Title: title})
	}
	return PageData{
		Title:       title,
		ActiveNav:   nav,
		Breadcrumbs: crumbs,
		User:        currentUser(c),
		Notice:      c.QueryParam("notice"),
		Error:       c.QueryParam("error"),
		Data:        data,
	}
}

// currentUser returns the user set by the auth middleware, nil on public pages
func currentUser(c echo.Context) *models.User {
	if u, ok := c.Get("user").(*models.User); ok {
		return u
	}
	return nil
}

func getUintFromContext(c echo.Context, key string) uint {
	val := c.Get(key)
	if val == nil {
		return 0
	}
	uintVal, ok := val.(uint)
	if !ok {
		return 0
	}
	return uintVal
}

func paramID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid ID")
	}
	return uint(id), nil
}

// redirectWith sends the browser back to path with a notice or error message
func redirectWith(c echo.Context, path, key, msg string) error {
	q := url.Values{}
	q.Set(key, msg)
	return c.Redirect(http.StatusSeeOther, path+"?"+q.Encode())
}

// httpError maps service errors onto HTTP errors for the error page
func httpError(err error) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound)
	case errors.Is(err, services.ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrDuplicate):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrUserInactive):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	default:
		return err
	}
}

// isUserError reports whether err should be shown back on the form
func isUserError(err error) bool {
	for _, target := range []error{
		services.ErrInvalidInput,
		services.ErrDuplicate,
		services.ErrAlreadyCheckedIn,
		services.ErrNotCheckedIn,
		services.ErrInvalidCredentials,
		services.ErrEmailNotVerified,
		services.ErrUserInactive,
		services.ErrTokenExpired,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

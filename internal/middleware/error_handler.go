package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"gymtrack_app_echo/internal/models"
	"gymtrack_app_echo/web/components"
)

// CustomErrorHandler creates a custom error handler for Echo
func CustomErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	errorTitle := "Internal Server Error"
	errorMessage := ""

	// Check if it's an Echo HTTPError
	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code

		if msg, ok := he.Message.(string); ok && msg != "" && msg != http.StatusText(code) {
			errorMessage = msg
		}

		switch code {
		case http.StatusNotFound:
			errorTitle = "Page Not Found"
			if errorMessage == "" {
				errorMessage = "The page you're looking for doesn't exist."
			}
		case http.StatusForbidden:
			errorTitle = "Access Denied"
			if errorMessage == "" {
				errorMessage = "You don't have permission to access this resource."
			}
		case http.StatusUnauthorized:
			errorTitle = "Unauthorized"
			if errorMessage == "" {
				errorMessage = "Please log in to continue."
			}
		case http.StatusBadRequest:
			errorTitle = "Bad Request"
			if errorMessage == "" {
				errorMessage = "The request could not be processed."
			}
		case http.StatusConflict:
			errorTitle = "Conflict"
		default:
			if code < 500 {
				errorTitle = http.StatusText(code)
			}
			if errorMessage == "" {
				errorMessage = "Something went wrong. Please try again later."
			}
		}
	} else {
		errorMessage = "Something went wrong. Please try again later."
	}

	if code >= 500 {
		c.Logger().Error(err)
	}

	props := components.ErrorPageProps{
		Title:   errorTitle,
		Message: errorMessage,
		Code:    code,
	}
	if user, ok := c.Get("user").(*models.User); ok {
		props.UserName = user.Name
		props.IsAdmin = user.IsAdmin()
	}

	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)

	path := c.Request().URL.Path
	var renderErr error
	if props.UserName == "" || strings.HasPrefix(path, "/static") {
		renderErr = components.PublicErrorPage(props).Render(c.Request().Context(), c.Response())
	} else {
		renderErr = components.ErrorPage(props).Render(c.Request().Context(), c.Response())
	}

	if renderErr != nil {
		// Fallback to plain text if template fails
		c.Logger().Error(fmt.Errorf("failed to render error page: %w", renderErr))
		_, _ = c.Response().Write([]byte(errorMessage))
	}
}

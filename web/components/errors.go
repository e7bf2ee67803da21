// Package components holds the templ components rendered outside the page
// templates, such as the error pages.
package components

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// ErrorPageProps defines the properties for the error pages
type ErrorPageProps struct {
	Title    string
	Message  string
	Code     int
	UserName string
	IsAdmin  bool
}

const pageHead = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s · GymTrack</title>
<link rel="stylesheet" href="/static/app.css">
</head>
`

func errorBody(w io.Writer, p ErrorPageProps, backLink, backText string) error {
	_, err := fmt.Fprintf(w, `<main class="error-page">
<p class="error-code">%d</p>
<h1>%s</h1>
<p>%s</p>
<a class="button" href="%s">%s</a>
</main>
`, p.Code, templ.EscapeString(p.Title), templ.EscapeString(p.Message), backLink, backText)
	return err
}

// ErrorPage renders the error page inside the member navigation
func ErrorPage(p ErrorPageProps) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, pageHead, templ.EscapeString(p.Title)); err != nil {
			return err
		}
		nav := `<body>
<nav class="topbar"><a class="brand" href="/dashboard">GymTrack</a>`
		if p.IsAdmin {
			nav += `<a href="/admin">Admin</a>`
		}
		nav += fmt.Sprintf(`<span class="who">%s</span></nav>
`, templ.EscapeString(p.UserName))
		if _, err := io.WriteString(w, nav); err != nil {
			return err
		}
		if err := errorBody(w, p, "/dashboard", "Back to dashboard"); err != nil {
			return err
		}
		_, err := io.WriteString(w, "</body>\n</html>\n")
		return err
	})
}

// PublicErrorPage renders the error page for visitors without a session
func PublicErrorPage(p ErrorPageProps) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, pageHead, templ.EscapeString(p.Title)); err != nil {
			return err
		}
		if _, err := io.WriteString(w, "<body class=\"public\">\n"); err != nil {
			return err
		}
		if err := errorBody(w, p, "/login", "Go to login"); err != nil {
			return err
		}
		_, err := io.WriteString(w, "</body>\n</html>\n")
		return err
	})
}

package web

import (
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"path"
	"time"

	"github.com/labstack/echo/v4"
)

// TemplateRenderer is a custom html/template renderer for Echo.
// Uses per-page template cloning to allow each page to define its own blocks.
type TemplateRenderer struct {
	templates map[string]*template.Template
}

// NewTemplateRenderer parses the layouts, partials and pages found in fsys.
// Times are shown in loc.
func NewTemplateRenderer(fsys fs.FS, loc *time.Location) (*TemplateRenderer, error) {
	if loc == nil {
		loc = time.Local
	}
	templates := make(map[string]*template.Template)

	// Parse base layout and partials as the foundation
	baseTemplate, err := template.New("").Funcs(funcMap(loc)).ParseFS(fsys, "layouts/*.html", "partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse layouts: %w", err)
	}

	pages, err := fs.Glob(fsys, "pages/*.html")
	if err != nil {
		return nil, err
	}
	for _, page := range pages {
		// Clone the base template for this page
		pageTemplate, err := baseTemplate.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := pageTemplate.ParseFS(fsys, page); err != nil {
			return nil, fmt.Errorf("parse %s: %w", page, err)
		}
		templates[path.Base(page)] = pageTemplate
	}

	// Standalone templates (like login) that don't use the base layout
	standalonePages, err := fs.Glob(fsys, "*.html")
	if err != nil {
		return nil, err
	}
	for _, page := range standalonePages {
		name := path.Base(page)
		if _, exists := templates[name]; exists {
			continue
		}
		tmpl, err := template.New(name).Funcs(funcMap(loc)).ParseFS(fsys, page)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", page, err)
		}
		templates[name] = tmpl
	}

	return &TemplateRenderer{templates: templates}, nil
}

// Render renders a template document
func (t *TemplateRenderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	tmpl, ok := t.templates[name]
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "Template not found: "+name)
	}
	// Page templates render through "base", standalone templates directly
	if tmpl.Lookup("base") != nil {
		return tmpl.ExecuteTemplate(w, "base", data)
	}
	return tmpl.ExecuteTemplate(w, name, data)
}

func funcMap(loc *time.Location) template.FuncMap {
	return template.FuncMap{
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("2006-01-02")
		},
		"datetime": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.In(loc).Format("2006-01-02 15:04")
		},
		"datetimeptr": func(t *time.Time) string {
			if t == nil {
				return ""
			}
			return t.In(loc).Format("2006-01-02 15:04")
		},
		"decimal": func(v *float64) string {
			if v == nil {
				return "-"
			}
			return fmt.Sprintf("%.2f", *v)
		},
		"number": func(v *int) string {
			if v == nil {
				return "-"
			}
			return fmt.Sprintf("%d", *v)
		},
		"money": func(v float64) string {
			return fmt.Sprintf("%.2f", v)
		},
		"duration": func(d time.Duration) string {
			if d <= 0 {
				return ""
			}
			return d.Round(time.Minute).String()
		},
	}
}

package web

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/labstack/echo/v4"
)

func TestTemplateRenderer(t *testing.T) {
	fsys := fstest.MapFS{
		"layouts/base.html":   {Data: []byte(`{{define "base"}}<main>{{template "content" .}}</main>{{end}}`)},
		"partials/flash.html": {Data: []byte(`{{define "flash"}}[{{.}}]{{end}}`)},
		"pages/day.html":      {Data: []byte(`{{define "content"}}{{template "flash" "ok"}} {{date .}}{{end}}`)},
		"login.html":          {Data: []byte(`login {{datetime .}}`)},
	}
	r, err := NewTemplateRenderer(fsys, time.UTC)
	if err != nil {
		t.Fatalf("NewTemplateRenderer: %v", err)
	}

	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	when := time.Date(2025, 3, 9, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		tmpl string
		want string
	}{
		{"page uses base layout", "day.html", "<main>[ok] 2025-03-09</main>"},
		{"standalone page", "login.html", "login 2025-03-09 14:30"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := r.Render(&buf, tt.tmpl, when, c); err != nil {
				t.Fatalf("Render: %v", err)
			}
			if got := strings.TrimSpace(buf.String()); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}

	if err := r.Render(&bytes.Buffer{}, "missing.html", nil, c); err == nil {
		t.Error("expected error for unknown template")
	}
}

func TestEmbeddedTemplatesParse(t *testing.T) {
	r, err := NewTemplateRenderer(Templates(), time.UTC)
	if err != nil {
		t.Fatalf("embedded templates: %v", err)
	}
	for _, name := range []string{"login.html", "register.html", "dashboard.html", "admin_report.html"} {
		if _, ok := r.templates[name]; !ok {
			t.Errorf("template %s not loaded", name)
		}
	}
}

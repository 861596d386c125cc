// Package view renders the HTML pages.
//
// Every page is the "layout" template with the page's own {{define "content"}}
// block filled in, the same composition as a base template plus a content
// template. Templates are embedded in the binary and parsed once at startup.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names, one per file under templates/.
const (
	PageHome     = "home"
	PageLogin    = "login"
	PageRegister = "register"
	PageSearch   = "search"
	PageLibrary  = "library"
	PageReview   = "review"
	PageError    = "error"
)

// Renderer writes a named page with the given status.
type Renderer interface {
	Render(w http.ResponseWriter, status int, name string, data *Page) error
}

// Templates is the html/template Renderer.
type Templates struct {
	pages map[string]*template.Template
}

var _ Renderer = (*Templates)(nil)

var funcs = template.FuncMap{
	"deref": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
	"rating": func(avg *float64) string {
		if avg == nil {
			return "N/A"
		}
		return fmt.Sprintf("%.1f", *avg)
	},
	"seq": func(from, to int) []int {
		out := make([]int, 0, to-from+1)
		for i := from; i <= to; i++ {
			out = append(out, i)
		}
		return out
	},
	"active": func(current, path string) bool {
		return current == path || strings.HasPrefix(current, path+"/")
	},
}

// New parses every page against the layout. A template error here is a
// programming mistake, so it fails startup rather than the first request.
func New() (*Templates, error) {
	names, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("view: listing templates: %w", err)
	}

	t := &Templates{pages: make(map[string]*template.Template)}
	for _, file := range names {
		name := strings.TrimSuffix(strings.TrimPrefix(file, "templates/"), ".html")
		if name == "layout" {
			continue
		}

		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", file)
		if err != nil {
			return nil, fmt.Errorf("view: parsing %s: %w", name, err)
		}
		t.pages[name] = tmpl
	}
	return t, nil
}

// Render executes into a buffer first so a failing template never leaves a
// half-written page behind a 200 status.
func (t *Templates) Render(w http.ResponseWriter, status int, name string, data *Page) error {
	tmpl, ok := t.pages[name]
	if !ok {
		return fmt.Errorf("view: unknown page %q", name)
	}
	if data == nil {
		data = &Page{}
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("view: rendering %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

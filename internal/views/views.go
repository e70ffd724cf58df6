// Package views renders the server-side HTML pages from embedded templates.
package views

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"sync"
	"time"
)

//go:embed templates
var files embed.FS

// DefaultLayout wraps every page unless Render is given another layout.
const DefaultLayout = "layouts/main"

// Engine implements fiber.Views over the embedded template set.
type Engine struct {
	mu    sync.RWMutex
	pages map[string]*template.Template
}

// New returns an Engine; templates are parsed on Load.
func New() *Engine {
	return &Engine{}
}

var funcs = template.FuncMap{
	"join": strings.Join,
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("2 Jan 2006")
	},
}

// Load parses every page together with the layouts.
func (e *Engine) Load() error {
	layouts, err := fs.Glob(files, "templates/layouts/*.html")
	if err != nil {
		return err
	}
	pageFiles, err := fs.Glob(files, "templates/*.html")
	if err != nil {
		return err
	}

	pages := make(map[string]*template.Template, len(pageFiles))
	for _, file := range pageFiles {
		name := strings.TrimSuffix(path.Base(file), ".html")
		patterns := append([]string{file}, layouts...)
		t, err := template.New(name).Funcs(funcs).ParseFS(files, patterns...)
		if err != nil {
			return fmt.Errorf("views: parse %s: %w", name, err)
		}
		pages[name] = t
	}

	e.mu.Lock()
	e.pages = pages
	e.mu.Unlock()
	return nil
}

// Render executes page name inside layout (DefaultLayout when omitted).
func (e *Engine) Render(w io.Writer, name string, binding interface{}, layout ...string) error {
	e.mu.RLock()
	t, ok := e.pages[name]
	e.mu.RUnlock()
	if !ok {
		return fmt.Errorf("views: template %q not found", name)
	}

	target := DefaultLayout
	if len(layout) > 0 && layout[0] != "" {
		target = layout[0]
	}
	return t.ExecuteTemplate(w, target, binding)
}

// Pages lists the loaded page names.
func (e *Engine) Pages() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, 0, len(e.pages))
	for name := range e.pages {
		out = append(out, name)
	}
	return out
}

package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Renderer manages template parsing and rendering.
//
// Templates are organized as:
//   - layouts/base.html - the single page layout
//   - pages/*.html      - pages rendered inside the base layout
//
// Every page template defines a "content" block that the layout includes.
type Renderer struct {
	templates map[string]*template.Template
	logger    *slog.Logger
	isDev     bool
	mu        sync.RWMutex

	// For dev mode hot-reload
	templatesDir string
}

// RendererConfig holds configuration for the renderer.
type RendererConfig struct {
	TemplatesDir string
	Logger       *slog.Logger
	IsDev        bool
}

// NewRenderer creates a new template renderer reading from disk.
func NewRenderer(cfg RendererConfig) (*Renderer, error) {
	r := &Renderer{
		templates:    make(map[string]*template.Template),
		logger:       cfg.Logger,
		isDev:        cfg.IsDev,
		templatesDir: cfg.TemplatesDir,
	}

	if err := r.loadTemplates(nil); err != nil {
		return nil, err
	}

	return r, nil
}

// NewRendererFromFS creates a renderer from a filesystem, typically an
// embedded one. Hot-reload is disabled.
func NewRendererFromFS(fsys fs.FS, logger *slog.Logger) (*Renderer, error) {
	r := &Renderer{
		templates: make(map[string]*template.Template),
		logger:    logger,
		isDev:     false,
	}

	if err := r.loadTemplates(fsys); err != nil {
		return nil, err
	}

	return r, nil
}

// loadTemplates parses the base layout and clones it once per page. A nil
// fsys reads from templatesDir on disk.
func (r *Renderer) loadTemplates(fsys fs.FS) error {
	if fsys == nil {
		fsys = os.DirFS(r.templatesDir)
	}

	base, err := template.New("base").Funcs(TemplateFuncs()).ParseFS(fsys, "layouts/base.html")
	if err != nil {
		return fmt.Errorf("failed to parse base layout: %w", err)
	}

	pages, err := fs.Glob(fsys, "pages/*.html")
	if err != nil {
		return fmt.Errorf("failed to glob pages: %w", err)
	}

	templates := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		pageTmpl, err := base.Clone()
		if err != nil {
			return fmt.Errorf("failed to clone base template for %s: %w", page, err)
		}

		pageTmpl, err = pageTmpl.ParseFS(fsys, page)
		if err != nil {
			return fmt.Errorf("failed to parse page %s: %w", page, err)
		}

		// Store as "home", "location", etc.
		pageName := strings.TrimSuffix(filepath.Base(page), filepath.Ext(page))
		templates[pageName] = pageTmpl
	}

	r.mu.Lock()
	r.templates = templates
	r.mu.Unlock()

	return nil
}

// Reload re-parses all templates from disk. Used in dev mode.
func (r *Renderer) Reload() error {
	return r.loadTemplates(nil)
}

// ListTemplates returns the names of all loaded templates.
func (r *Renderer) ListTemplates() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	return names
}

// Render renders a page template to the writer.
func (r *Renderer) Render(w io.Writer, name string, data interface{}) error {
	// In dev mode, reload templates on each request
	if r.isDev {
		if err := r.Reload(); err != nil {
			return fmt.Errorf("template reload failed: %w", err)
		}
	}

	r.mu.RLock()
	tmpl, ok := r.templates[name]
	r.mu.RUnlock()

	if !ok {
		return fmt.Errorf("template %q not found", name)
	}

	return tmpl.ExecuteTemplate(w, "base", data)
}

// RenderHTTP renders a page template directly to an http.ResponseWriter.
// Output is buffered so template errors never produce a half-written page.
func (r *Renderer) RenderHTTP(w http.ResponseWriter, name string, data interface{}) {
	var buf bytes.Buffer
	if err := r.Render(&buf, name, data); err != nil {
		r.logger.Error("template rendering failed", "name", name, "error", err)
		http.Error(w, "Template rendering failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// TemplateFuncs returns the function map available to all templates.
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"title": func(s string) string {
			if s == "" {
				return s
			}
			return strings.ToUpper(s[:1]) + s[1:]
		},
	}
}

// Package web embeds the HTML templates and static assets and renders pages
// for gin.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"path"

	"github.com/gin-gonic/gin/render"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Static returns the embedded static assets rooted at the static directory.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Renderer holds one parsed template set per page. Every page is parsed
// together with base.html and executed through its "base" template.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses every embedded page.
func NewRenderer() (*Renderer, error) {
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, file := range files {
		name := path.Base(file)
		if name == "base.html" {
			continue
		}
		tmpl, err := template.New(name).ParseFS(templateFS, "templates/base.html", file)
		if err != nil {
			slog.Error("Failed to parse template", "file", file, "error", err)
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		r.pages[name] = tmpl
		slog.Debug("Cached template", "name", name)
	}
	return r, nil
}

// Has reports whether a page of that name exists.
func (r *Renderer) Has(name string) bool {
	_, ok := r.pages[name]
	return ok
}

// Instance implements render.HTMLRender. Unknown pages fall back to the
// error page.
func (r *Renderer) Instance(name string, data any) render.Render {
	tmpl, ok := r.pages[name]
	if !ok {
		slog.Error("Template not found", "name", name)
		tmpl = r.pages["error.html"]
	}
	return render.HTML{Template: tmpl, Name: "base", Data: data}
}

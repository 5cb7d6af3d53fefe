// Package views renders card views into HTML pages.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/klotz/summarizer-service/internal/cards"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutFile = "templates/layout.html"

// Renderer holds one parsed template set per page file.
type Renderer struct {
	pages    map[string]*template.Template
	markdown goldmark.Markdown
	policy   *bluemonday.Policy
}

func New() (*Renderer, error) {
	r := &Renderer{
		pages:    map[string]*template.Template{},
		markdown: goldmark.New(goldmark.WithExtensions(extension.GFM)),
		policy:   bluemonday.UGCPolicy(),
	}
	funcs := template.FuncMap{
		"markdown": r.Markdown,
		"selected": func(option string, value string) bool { return option == value },
	}

	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	for _, file := range files {
		if file == layoutFile {
			continue
		}
		tmpl, err := template.New(path.Base(layoutFile)).Funcs(funcs).ParseFS(templateFS, layoutFile, file)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		r.pages[path.Base(file)] = tmpl
	}
	return r, nil
}

// Markdown converts text to sanitized HTML.
func (r *Renderer) Markdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(r.policy.Sanitize(buf.String()))
}

// Render writes the page for view. Unknown templates fall back to the error
// page.
func (r *Renderer) Render(w io.Writer, view cards.View) error {
	tmpl, ok := r.pages[view.Template]
	if !ok {
		tmpl, ok = r.pages[cards.PageError+".html"]
		if !ok {
			return fmt.Errorf("template %q not found", view.Template)
		}
	}
	return tmpl.ExecuteTemplate(w, "layout", view)
}

package web

import (
	"fmt"
	"html/template"
	"net/http"

	"github.com/freshcart/freshcart/internal/logging"
	"github.com/freshcart/freshcart/templates"
)

// Renderer renders the embedded page templates
type Renderer struct {
	templates *template.Template
}

func NewRenderer() (*Renderer, error) {
	t, err := template.ParseFS(templates.FS, "*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Renderer{templates: t}, nil
}

// Render writes a page to the response. Render errors surface as a bare
// 500 since the page body cannot be trusted at that point.
func (rd *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := rd.templates.ExecuteTemplate(w, name, data); err != nil {
		logging.GetLoggerFromContext(r.Context()).Error("failed to render template",
			"template", name,
			"error", err.Error(),
		)
	}
}

// respondText writes a plain-text response, used for terminal activation
// errors that have no form to return to.
func respondText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintln(w, msg)
}

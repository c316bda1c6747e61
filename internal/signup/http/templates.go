package http

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/microscopium/signup/internal/signup/domain"
	"github.com/microscopium/signup/pkg/slogx"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// formPage is the data for the signup form template, covering both the
// initial render and redisplay with errors.
type formPage struct {
	// Nonce is the hidden single-use token for this render of the form.
	Nonce string

	// Values are the previously submitted field values kept across a
	// redisplay so the user does not retype everything.
	Values domain.SignupRequest

	// FieldErrors holds per-field validation messages keyed by field name.
	FieldErrors domain.FieldErrors

	// Error is a generic banner shown on fatal provisioning failures.
	// It never carries internal detail.
	Error string

	HelpMessage string
	Version     string
}

// ackPage is the data for the post-signup acknowledgement template.
type ackPage struct {
	Login string
	Email string

	// Password is shown inline only when email notification is disabled.
	Password string

	// EmailSent and EmailFailed select the acknowledgement variant.
	EmailSent   bool
	EmailFailed bool

	Version string
}

// render executes a template into a buffer first so a render error can
// still produce a clean 500 instead of a half-written page.
func render(w http.ResponseWriter, r *http.Request, code int, name string, data any) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		slogx.FromContext(r.Context()).Error("template render failed", "template", name, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	_, _ = buf.WriteTo(w)
}

package handler

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"

	"github.com/faucetdb/useradmin/internal/server/middleware"
	"github.com/faucetdb/useradmin/internal/ui"
)

// Renderer renders a named view.
type Renderer interface {
	Render(w io.Writer, view string, data ui.Page) error
}

// pages holds what every HTML handler needs to produce a response.
type pages struct {
	renderer Renderer
	logger   *slog.Logger
}

// render fills in the per-request parts of page (pending flashes, the
// signed-in admin, the CSRF field) and writes the view with status.
func (p pages) render(w http.ResponseWriter, r *http.Request, status int, view string, page ui.Page) {
	page.Flashes = middleware.ConsumeFlashes(r)
	if sess := middleware.GetSession(r.Context()); sess != nil {
		page.Username = sess.Username
	}
	page.CSRFField = csrf.TemplateField(r)

	var buf bytes.Buffer
	if err := p.renderer.Render(&buf, view, page); err != nil {
		p.logger.Error("render failed", "view", view, "error", err, "request_id", middleware.GetRequestID(r.Context()))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// flashRedirect queues a flash and redirects with 302.
func flashRedirect(w http.ResponseWriter, r *http.Request, category, message, location string) {
	middleware.AddFlash(r, category, message)
	http.Redirect(w, r, location, http.StatusFound)
}

// userID parses the {id} route parameter. The route pattern restricts it to
// digits, so the only failure is a value that overflows int64, which no
// stored row can carry. Zero parses like any other id.
func userID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// formRole returns the submitted role, or the default role when the field
// was not submitted at all. A submitted empty value is returned as-is.
func formRole(r *http.Request, defaultRole string) string {
	if vals, ok := r.PostForm["rol"]; ok && len(vals) > 0 {
		return vals[0]
	}
	return defaultRole
}

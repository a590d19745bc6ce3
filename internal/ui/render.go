// Package ui renders the server-side HTML views.
package ui

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"time"

	"github.com/faucetdb/useradmin/internal/model"
)

// View names.
const (
	ViewLogin      = "login"
	ViewDashboard  = "dashboard"
	ViewCreateUser = "create_user"
	ViewEditUser   = "edit_user"
)

var views = []string{ViewLogin, ViewDashboard, ViewCreateUser, ViewEditUser}

// Page is the data every view is rendered with. Username is empty on
// anonymous pages.
type Page struct {
	Flashes   []model.Flash
	Username  string
	CSRFField template.HTML
	Users     []model.User
	User      *model.User
}

// Renderer executes the embedded views. It is safe for concurrent use.
type Renderer struct {
	views map[string]*template.Template
}

var funcs = template.FuncMap{
	"formatTime": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("2006-01-02 15:04")
	},
	"roleLabel": func(role string) string {
		if role == model.RoleAdmin {
			return "Administrador"
		}
		return "Usuario"
	},
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	return NewRendererFS(Templates)
}

// NewRendererFS parses layout.html plus one file per view from fsys, which
// must contain a templates/ directory.
func NewRendererFS(fsys fs.FS) (*Renderer, error) {
	r := &Renderer{views: make(map[string]*template.Template, len(views))}
	for _, name := range views {
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(fsys,
			"templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse view %s: %w", name, err)
		}
		r.views[name] = t
	}
	return r, nil
}

// Render executes view with data into w. Output is buffered so a template
// error never leaves a half-written page.
func (r *Renderer) Render(w io.Writer, view string, data Page) error {
	t, ok := r.views[view]
	if !ok {
		return fmt.Errorf("unknown view %q", view)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		return fmt.Errorf("render %s: %w", view, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

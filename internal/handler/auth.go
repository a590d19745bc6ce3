package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/faucetdb/useradmin/internal/model"
	"github.com/faucetdb/useradmin/internal/server/middleware"
	"github.com/faucetdb/useradmin/internal/service"
	"github.com/faucetdb/useradmin/internal/ui"
)

const (
	msgCredentialsRequired = "Por favor ingrese usuario y contraseña."
	msgLoginSuccess        = "¡Inicio de sesión exitoso!"
	msgLoginFailed         = "Usuario o contraseña incorrectos."
	msgLoginThrottled      = "Demasiados intentos de inicio de sesión. Intente de nuevo en un minuto."
	msgLoggedOut           = "Ha cerrado sesión correctamente."
)

// Authenticator verifies administrator credentials and issues sessions.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*model.Admin, error)
	IssueSession(admin *model.Admin) (string, *service.Session, error)
}

// AuthHandler serves the login and logout routes.
type AuthHandler struct {
	pages
	auth         Authenticator
	cookieSecure bool
}

func NewAuthHandler(auth Authenticator, renderer Renderer, cookieSecure bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		pages:        pages{renderer: renderer, logger: logger},
		auth:         auth,
		cookieSecure: cookieSecure,
	}
}

// Index redirects the site root to the login page.
// GET /
func (h *AuthHandler) Index(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/login", http.StatusFound)
}

// LoginForm renders the login page.
// GET /login
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, ui.ViewLogin, ui.Page{})
}

// Login verifies the submitted credentials. On success it sets the session
// cookie and redirects to the dashboard; every failure re-renders the login
// page with the same generic message.
// POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	if username == "" || password == "" {
		middleware.AddFlash(r, model.FlashDanger, msgCredentialsRequired)
		h.render(w, r, http.StatusOK, ui.ViewLogin, ui.Page{})
		return
	}

	admin, err := h.auth.Authenticate(r.Context(), username, password)
	if err != nil {
		if !errors.Is(err, service.ErrInvalidCredentials) {
			h.logger.Error("login lookup failed", "error", err, "request_id", middleware.GetRequestID(r.Context()))
		} else {
			h.logger.Warn("login failed", "username", username, "remote_addr", r.RemoteAddr)
		}
		middleware.AddFlash(r, model.FlashDanger, msgLoginFailed)
		h.render(w, r, http.StatusOK, ui.ViewLogin, ui.Page{})
		return
	}

	token, sess, err := h.auth.IssueSession(admin)
	if err != nil {
		h.logger.Error("issue session failed", "error", err, "admin_id", admin.ID)
		middleware.AddFlash(r, model.FlashDanger, msgLoginFailed)
		h.render(w, r, http.StatusOK, ui.ViewLogin, ui.Page{})
		return
	}

	middleware.SetSessionCookie(w, token, sess.ExpiresAt, h.cookieSecure)
	h.logger.Info("admin logged in", "admin_id", admin.ID, "username", admin.Username)
	flashRedirect(w, r, model.FlashSuccess, msgLoginSuccess, "/dashboard")
}

// LoginThrottled renders the login page with 429 when the login rate limit
// is exceeded.
func (h *AuthHandler) LoginThrottled(w http.ResponseWriter, r *http.Request) {
	middleware.AddFlash(r, model.FlashDanger, msgLoginThrottled)
	h.render(w, r, http.StatusTooManyRequests, ui.ViewLogin, ui.Page{})
}

// Logout clears the session cookie. Calling it without a session behaves
// the same.
// GET /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	middleware.ClearSessionCookie(w, h.cookieSecure)
	flashRedirect(w, r, model.FlashInfo, msgLoggedOut, "/login")
}

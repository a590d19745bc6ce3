package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/faucetdb/useradmin/internal/model"
	"github.com/faucetdb/useradmin/internal/server/middleware"
	"github.com/faucetdb/useradmin/internal/service"
	"github.com/faucetdb/useradmin/internal/store"
	"github.com/faucetdb/useradmin/internal/ui"
)

const (
	msgNameEmailRequired = "El nombre y el email son obligatorios."
	msgInvalidRole       = `El rol debe ser "admin" o "usuario".`
	msgUserCreated       = `Usuario "%s" creado exitosamente.`
	msgCreateFailed      = "Error al crear usuario: %v"
	msgUserNotFound      = "Usuario no encontrado."
	msgUserUpdated       = "Usuario actualizado exitosamente."
	msgUpdateFailed      = "Error al actualizar usuario: %v"
	msgUserDeleted       = "Usuario eliminado exitosamente."
	msgDeleteFailed      = "Error al eliminar usuario: %v"
	msgListFailed        = "Error al cargar usuarios: %v"
	msgLoadFailed        = "Error al cargar usuario: %v"
	msgFormInvalid       = "Error al procesar el formulario: %v"
)

// UserStore is the persistence the user handlers need.
type UserStore interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	GetUser(ctx context.Context, id int64) (*model.User, error)
	CreateUser(ctx context.Context, u *model.User) error
	UpdateUser(ctx context.Context, u *model.User) error
	DeleteUser(ctx context.Context, id int64) error
}

// UserHandler serves the protected user management routes. It must be
// mounted behind middleware.RequireSession.
type UserHandler struct {
	pages
	store UserStore
}

func NewUserHandler(s UserStore, renderer Renderer, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		pages: pages{renderer: renderer, logger: logger},
		store: s,
	}
}

// validationMessage maps a validation error to the text shown to the admin.
func validationMessage(err error) string {
	if errors.Is(err, service.ErrInvalidRole) {
		return msgInvalidRole
	}
	return msgNameEmailRequired
}

// Dashboard lists every user, highest id first.
// GET /dashboard
func (h *UserHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		h.logger.Error("list users failed", "error", err)
		middleware.AddFlash(r, model.FlashDanger, fmt.Sprintf(msgListFailed, err))
	}
	h.render(w, r, http.StatusOK, ui.ViewDashboard, ui.Page{Users: users})
}

// CreateForm renders the empty create form.
// GET /user/create
func (h *UserHandler) CreateForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, ui.ViewCreateUser, ui.Page{})
}

// Create validates and inserts a new user. Validation and store failures
// re-render an empty form.
// POST /user/create
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		middleware.AddFlash(r, model.FlashDanger, fmt.Sprintf(msgFormInvalid, err))
		h.render(w, r, http.StatusOK, ui.ViewCreateUser, ui.Page{})
		return
	}
	u, err := service.ValidateUser(r.PostForm.Get("nombre"), r.PostForm.Get("email"), formRole(r, model.DefaultRole))
	if err != nil {
		middleware.AddFlash(r, model.FlashDanger, validationMessage(err))
		h.render(w, r, http.StatusOK, ui.ViewCreateUser, ui.Page{})
		return
	}

	if err := h.store.CreateUser(r.Context(), u); err != nil {
		h.logger.Error("create user failed", "error", err)
		middleware.AddFlash(r, model.FlashDanger, fmt.Sprintf(msgCreateFailed, err))
		h.render(w, r, http.StatusOK, ui.ViewCreateUser, ui.Page{})
		return
	}

	h.logger.Info("user created", "user_id", u.ID, "admin", sessionUsername(r))
	flashRedirect(w, r, model.FlashSuccess, fmt.Sprintf(msgUserCreated, u.Name), "/dashboard")
}

// EditForm renders the edit form pre-filled with the stored record.
// GET /user/edit/{id}
func (h *UserHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(r)
	if !ok {
		flashRedirect(w, r, model.FlashDanger, msgUserNotFound, "/dashboard")
		return
	}
	u, ok := h.loadUser(w, r, id)
	if !ok {
		return
	}
	h.render(w, r, http.StatusOK, ui.ViewEditUser, ui.Page{User: u})
}

// Edit validates and applies new name, email and role to an existing user.
// On a validation failure the form shows the stored record again, not the
// submitted values. Updating an id that no longer exists reports success.
// POST /user/edit/{id}
func (h *UserHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(r)
	if !ok {
		flashRedirect(w, r, model.FlashDanger, msgUserNotFound, "/dashboard")
		return
	}

	var u *model.User
	var msg string
	if err := r.ParseForm(); err != nil {
		msg = fmt.Sprintf(msgFormInvalid, err)
	} else if u, err = service.ValidateUser(r.PostForm.Get("nombre"), r.PostForm.Get("email"), formRole(r, model.DefaultRole)); err != nil {
		msg = validationMessage(err)
	}
	if msg != "" {
		stored, ok := h.loadUser(w, r, id)
		if !ok {
			return
		}
		middleware.AddFlash(r, model.FlashDanger, msg)
		h.render(w, r, http.StatusOK, ui.ViewEditUser, ui.Page{User: stored})
		return
	}

	u.ID = id
	if err := h.store.UpdateUser(r.Context(), u); err != nil && !errors.Is(err, store.ErrNotFound) {
		h.logger.Error("update user failed", "user_id", id, "error", err)
		flashRedirect(w, r, model.FlashDanger, fmt.Sprintf(msgUpdateFailed, err), fmt.Sprintf("/user/edit/%d", id))
		return
	}

	h.logger.Info("user updated", "user_id", id, "admin", sessionUsername(r))
	flashRedirect(w, r, model.FlashSuccess, msgUserUpdated, "/dashboard")
}

// Delete removes a user. Deleting an id that does not exist reports success.
// POST /user/delete/{id}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(r)
	if !ok {
		flashRedirect(w, r, model.FlashSuccess, msgUserDeleted, "/dashboard")
		return
	}

	if err := h.store.DeleteUser(r.Context(), id); err != nil && !errors.Is(err, store.ErrNotFound) {
		h.logger.Error("delete user failed", "user_id", id, "error", err)
		flashRedirect(w, r, model.FlashDanger, fmt.Sprintf(msgDeleteFailed, err), "/dashboard")
		return
	}

	h.logger.Info("user deleted", "user_id", id, "admin", sessionUsername(r))
	flashRedirect(w, r, model.FlashSuccess, msgUserDeleted, "/dashboard")
}

// loadUser fetches a user for the edit form. When it cannot, it writes the
// redirect to the dashboard itself and returns false.
func (h *UserHandler) loadUser(w http.ResponseWriter, r *http.Request, id int64) (*model.User, bool) {
	u, err := h.store.GetUser(r.Context(), id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		flashRedirect(w, r, model.FlashDanger, msgUserNotFound, "/dashboard")
		return nil, false
	case err != nil:
		h.logger.Error("get user failed", "user_id", id, "error", err)
		flashRedirect(w, r, model.FlashDanger, fmt.Sprintf(msgLoadFailed, err), "/dashboard")
		return nil, false
	}
	return u, true
}

func sessionUsername(r *http.Request) string {
	if sess := middleware.GetSession(r.Context()); sess != nil {
		return sess.Username
	}
	return ""
}

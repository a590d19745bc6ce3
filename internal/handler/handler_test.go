package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/faucetdb/useradmin/internal/model"
	"github.com/faucetdb/useradmin/internal/server/middleware"
	"github.com/faucetdb/useradmin/internal/service"
	"github.com/faucetdb/useradmin/internal/store"
	"github.com/faucetdb/useradmin/internal/ui"
)

const (
	testSecret   = "test-secret-for-handler-tests"
	testPassword = "admin123"
)

// failingStore wraps a real store and fails the operations named in fail.
type failingStore struct {
	UserStore
	fail map[string]bool
}

var errStoreDown = errors.New("connection refused")

func (f *failingStore) ListUsers(ctx context.Context) ([]model.User, error) {
	if f.fail["list"] {
		return nil, errStoreDown
	}
	return f.UserStore.ListUsers(ctx)
}

func (f *failingStore) GetUser(ctx context.Context, id int64) (*model.User, error) {
	if f.fail["get"] {
		return nil, errStoreDown
	}
	return f.UserStore.GetUser(ctx, id)
}

func (f *failingStore) CreateUser(ctx context.Context, u *model.User) error {
	if f.fail["create"] {
		return errStoreDown
	}
	return f.UserStore.CreateUser(ctx, u)
}

func (f *failingStore) UpdateUser(ctx context.Context, u *model.User) error {
	if f.fail["update"] {
		return errStoreDown
	}
	return f.UserStore.UpdateUser(ctx, u)
}

func (f *failingStore) DeleteUser(ctx context.Context, id int64) error {
	if f.fail["delete"] {
		return errStoreDown
	}
	return f.UserStore.DeleteUser(ctx, id)
}

// testEnv holds shared state for handler tests.
type testEnv struct {
	store   *store.Store
	users   *failingStore
	authSvc *service.AuthService
	router  chi.Router
	cookies map[string]*http.Cookie
}

// newTestEnv creates an in-memory store with one admin account and a router
// wired the way the server wires it.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	s, err := store.OpenMemory(context.Background())
	if err != nil {
		t.Fatalf("store.OpenMemory: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	hash, err := service.HashPassword(testPassword)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if err := s.CreateAdmin(context.Background(), &model.Admin{Username: "admin", PasswordHash: hash}); err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}

	renderer, err := ui.NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	authSvc := service.NewAuthService(s, testSecret, time.Hour)
	users := &failingStore{UserStore: s, fail: map[string]bool{}}
	authH := NewAuthHandler(authSvc, renderer, false, logger)
	userH := NewUserHandler(users, renderer, logger)

	r := chi.NewRouter()
	r.Use(middleware.Flashes(testSecret, false))
	r.Get("/", authH.Index)
	r.Get("/login", authH.LoginForm)
	r.Post("/login", authH.Login)
	r.Get("/logout", authH.Logout)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession(authSvc, false))
		r.Get("/dashboard", userH.Dashboard)
		r.Get("/user/create", userH.CreateForm)
		r.Post("/user/create", userH.Create)
		r.Get("/user/edit/{id:[0-9]+}", userH.EditForm)
		r.Post("/user/edit/{id:[0-9]+}", userH.Edit)
		r.Post("/user/delete/{id:[0-9]+}", userH.Delete)
	})

	return &testEnv{
		store:   s,
		users:   users,
		authSvc: authSvc,
		router:  r,
		cookies: map[string]*http.Cookie{},
	}
}

// do executes a request carrying the cookies collected so far and records
// the cookies the response sets.
func (e *testEnv) do(t *testing.T, method, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	return e.serve(req)
}

// doRaw posts body verbatim as a urlencoded form, for payloads url.Values
// cannot produce.
func (e *testEnv) doRaw(t *testing.T, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.serve(req)
}

func (e *testEnv) serve(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range e.cookies {
		req.AddCookie(c)
	}

	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)

	for _, c := range rr.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(e.cookies, c.Name)
			continue
		}
		e.cookies[c.Name] = c
	}
	return rr
}

// follow performs a GET on the redirect target of rr.
func (e *testEnv) follow(t *testing.T, rr *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	t.Helper()
	assertRedirect(t, rr, "")
	return e.do(t, "GET", rr.Header().Get("Location"), nil)
}

func (e *testEnv) login(t *testing.T) {
	t.Helper()
	rr := e.do(t, "POST", "/login", url.Values{"username": {"admin"}, "password": {testPassword}})
	assertRedirect(t, rr, "/dashboard")
	// Drain the login flash.
	e.follow(t, rr)
}

func (e *testEnv) seedUser(t *testing.T, name, email, role string) *model.User {
	t.Helper()
	u := &model.User{Name: name, Email: email, Role: role}
	if err := e.store.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("seedUser: %v", err)
	}
	return u
}

func (e *testEnv) countUsers(t *testing.T) int {
	t.Helper()
	users, err := e.store.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	return len(users)
}

func assertStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Errorf("status = %d, want %d; body = %s", rr.Code, want, rr.Body.String())
	}
}

// assertRedirect checks for a 302; an empty want accepts any location.
func assertRedirect(t *testing.T, rr *httptest.ResponseRecorder, want string) {
	t.Helper()
	if rr.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302; body = %s", rr.Code, rr.Body.String())
	}
	if got := rr.Header().Get("Location"); want != "" && got != want {
		t.Fatalf("Location = %q, want %q", got, want)
	}
}

func assertBodyContains(t *testing.T, rr *httptest.ResponseRecorder, want ...string) {
	t.Helper()
	body := rr.Body.String()
	for _, w := range want {
		if !strings.Contains(body, w) {
			t.Errorf("body missing %q", w)
		}
	}
}

// flashHTML renders how a flash appears in a page.
func flashHTML(category, message string) string {
	return `class="flash flash-` + category + `" role="alert">` + htmlEscape(message) + `</div>`
}

func htmlEscape(s string) string {
	return strings.NewReplacer(`"`, "&#34;", "'", "&#39;", "<", "&lt;", ">", "&gt;", "&", "&amp;").Replace(s)
}

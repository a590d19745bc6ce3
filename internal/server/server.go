package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"

	"github.com/faucetdb/useradmin/internal/handler"
	"github.com/faucetdb/useradmin/internal/server/middleware"
	"github.com/faucetdb/useradmin/internal/service"
	"github.com/faucetdb/useradmin/internal/store"
)

// CSRFCookieName and CSRFFieldName name the CSRF token carriers when CSRF
// protection is enabled.
const (
	CSRFCookieName = "useradmin_csrf"
	CSRFFieldName  = "csrf_token"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	// SecretKey signs the flash cookie. Session tokens are signed by the
	// AuthService with the same key.
	SecretKey    string
	CookieSecure bool
	// LoginRateLimit caps POST /login per client IP per minute. Zero
	// disables the limit.
	LoginRateLimit int
	// CSRFKey enables CSRF protection on every form when non-empty.
	CSRFKey string
}

// DefaultConfig returns a Config with the default listener settings.
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            5000,
		ShutdownTimeout: 30 * time.Second,
	}
}

// Store is the persistence the server routes need.
type Store interface {
	handler.UserStore
	Ping(ctx context.Context) error
}

// Server is the top-level HTTP server. It owns the chi router and the
// handlers; the store's lifetime belongs to the caller.
type Server struct {
	cfg        Config
	router     chi.Router
	store      Store
	authSvc    *service.AuthService
	renderer   handler.Renderer
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a Server with all routes and middleware wired. Call
// ListenAndServe to start accepting connections.
func New(cfg Config, st Store, authSvc *service.AuthService, renderer handler.Renderer, logger *slog.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		store:    st,
		authSvc:  authSvc,
		renderer: renderer,
		logger:   logger,
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// --- Global middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger, "/healthz", "/readyz"))
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(middleware.Flashes(s.cfg.SecretKey, s.cfg.CookieSecure))
	if s.cfg.CSRFKey != "" {
		r.Use(s.csrfProtect())
	}

	// --- Health checks ---
	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)

	authH := handler.NewAuthHandler(s.authSvc, s.renderer, s.cfg.CookieSecure, s.logger)
	userH := handler.NewUserHandler(s.store, s.renderer, s.logger)

	// --- Public routes ---
	r.Get("/", authH.Index)
	r.Get("/login", authH.LoginForm)
	if s.cfg.LoginRateLimit > 0 {
		r.With(middleware.RateLimit(s.cfg.LoginRateLimit, authH.LoginThrottled)).Post("/login", authH.Login)
	} else {
		r.Post("/login", authH.Login)
	}
	r.Get("/logout", authH.Logout)

	// --- Session-protected routes ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession(s.authSvc, s.cfg.CookieSecure))

		r.Get("/dashboard", userH.Dashboard)
		r.Get("/user/create", userH.CreateForm)
		r.Post("/user/create", userH.Create)
		r.Get("/user/edit/{id:[0-9]+}", userH.EditForm)
		r.Post("/user/edit/{id:[0-9]+}", userH.Edit)
		r.Post("/user/delete/{id:[0-9]+}", userH.Delete)
	})

	s.router = r
}

// csrfProtect wraps gorilla/csrf. Over plain HTTP the request is marked as
// such so the HTTPS-only Referer check is skipped.
func (s *Server) csrfProtect() func(http.Handler) http.Handler {
	protect := csrf.Protect([]byte(s.cfg.CSRFKey),
		csrf.Secure(s.cfg.CookieSecure),
		csrf.Path("/"),
		csrf.HttpOnly(true),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.CookieName(CSRFCookieName),
		csrf.FieldName(CSRFFieldName),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.logger.Warn("csrf check failed", "reason", csrf.FailureReason(r), "path", r.URL.Path,
				"request_id", middleware.GetRequestID(r.Context()))
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})),
	)

	return func(next http.Handler) http.Handler {
		protected := protect(next)
		if s.cfg.CookieSecure {
			return protected
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			protected.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
		})
	}
}

// handleHealthz is a liveness probe. Returns 200 if the process is running.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// handleReadyz is a readiness probe. Returns 200 when the database answers a
// ping, 503 otherwise.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status, check, httpStatus := "ok", "ok", http.StatusOK
	if err := s.store.Ping(ctx); err != nil {
		status, check, httpStatus = "degraded", "error: "+err.Error(), http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": status,
		"checks": map[string]string{"database": check},
	})
}

// ListenAndServe starts the HTTP server and blocks until a SIGINT or SIGTERM
// is received, then drains in-flight requests within ShutdownTimeout.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// Router returns the underlying chi router, useful for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ServeHTTP implements http.Handler, delegating to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

var _ Store = (*store.Store)(nil)

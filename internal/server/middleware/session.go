package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/faucetdb/useradmin/internal/model"
	"github.com/faucetdb/useradmin/internal/service"
)

// SessionCookieName holds the signed session token.
const SessionCookieName = "useradmin_session"

// LoginRequiredMessage is flashed when an anonymous request hits a protected
// route.
const LoginRequiredMessage = "Por favor inicie sesión para acceder a esta página."

const sessionKey contextKey = "session"

// SessionValidator verifies a session token.
type SessionValidator interface {
	ValidateSession(token string) (*service.Session, error)
}

// RequireSession returns an HTTP middleware that admits only requests with a
// valid session cookie. Anything else gets a warning flash and a redirect to
// /login before the wrapped handler runs. The verified session is placed in
// the request context.
func RequireSession(sessions SessionValidator, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var sess *service.Session
			c, err := r.Cookie(SessionCookieName)
			if err == nil {
				sess, err = sessions.ValidateSession(c.Value)
			}
			if err != nil {
				if c != nil {
					ClearSessionCookie(w, secure)
				}
				AddFlash(r, model.FlashWarning, LoginRequiredMessage)
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			}

			annotateAdmin(r.Context(), sess.Username)
			ctx := context.WithValue(r.Context(), sessionKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSession extracts the verified session from the context. Returns nil
// outside RequireSession.
func GetSession(ctx context.Context) *service.Session {
	if s, ok := ctx.Value(sessionKey).(*service.Session); ok {
		return s
	}
	return nil
}

// SetSessionCookie stores token in an HttpOnly cookie that expires with the
// token.
func SetSessionCookie(w http.ResponseWriter, token string, expires time.Time, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(time.Until(expires).Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie tells the browser to drop the session cookie.
func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/faucetdb/useradmin/internal/model"
)

// FlashCookieName carries queued flash messages across a redirect.
const FlashCookieName = "useradmin_flash"

const (
	flashKey    contextKey = "flashes"
	flashIssuer            = "useradmin-flash"
	flashMaxAge            = 10 * time.Minute
)

type flashQueue struct {
	mu        sync.Mutex
	items     []model.Flash
	hadCookie bool
}

type flashClaims struct {
	Flashes []model.Flash `json:"f"`
	jwt.RegisteredClaims
}

// Flashes returns an HTTP middleware that gives each request a flash queue.
// Messages left by the previous response are loaded from a signed cookie.
// When the response header is written, messages that were not rendered are
// stored back into the cookie so they survive a redirect; once the queue is
// empty the cookie is cleared.
func Flashes(secret string, secure bool) func(http.Handler) http.Handler {
	key := []byte(secret)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := &flashQueue{}
			if c, err := r.Cookie(FlashCookieName); err == nil {
				q.hadCookie = true
				q.items = decodeFlashes(c.Value, key)
			}

			fw := &flashWriter{ResponseWriter: w, queue: q, key: key, secure: secure}
			next.ServeHTTP(fw, r.WithContext(context.WithValue(r.Context(), flashKey, q)))
			fw.commit()
		})
	}
}

// AddFlash queues a message for the next rendered page. It is a no-op on
// requests that did not pass through Flashes.
func AddFlash(r *http.Request, category, message string) {
	q, ok := r.Context().Value(flashKey).(*flashQueue)
	if !ok {
		return
	}
	q.mu.Lock()
	q.items = append(q.items, model.Flash{Category: category, Message: message})
	q.mu.Unlock()
}

// ConsumeFlashes returns every queued message and empties the queue.
func ConsumeFlashes(r *http.Request) []model.Flash {
	q, ok := r.Context().Value(flashKey).(*flashQueue)
	if !ok {
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}

func decodeFlashes(value string, key []byte) []model.Flash {
	claims := &flashClaims{}
	_, err := jwt.ParseWithClaims(value, claims, func(*jwt.Token) (interface{}, error) {
		return key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(flashIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil
	}
	return claims.Flashes
}

func encodeFlashes(items []model.Flash, key []byte) (string, error) {
	now := time.Now()
	claims := flashClaims{
		Flashes: items,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    flashIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(flashMaxAge)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

// flashWriter persists the queue in a cookie just before the header goes out.
type flashWriter struct {
	http.ResponseWriter
	queue     *flashQueue
	key       []byte
	secure    bool
	committed bool
}

func (w *flashWriter) commit() {
	if w.committed {
		return
	}
	w.committed = true

	w.queue.mu.Lock()
	items := w.queue.items
	w.queue.mu.Unlock()

	cookie := &http.Cookie{
		Name:     FlashCookieName,
		Path:     "/",
		HttpOnly: true,
		Secure:   w.secure,
		SameSite: http.SameSiteLaxMode,
	}
	switch {
	case len(items) > 0:
		value, err := encodeFlashes(items, w.key)
		if err != nil {
			return
		}
		cookie.Value = value
		cookie.MaxAge = int(flashMaxAge.Seconds())
	case w.queue.hadCookie:
		cookie.MaxAge = -1
	default:
		return
	}
	http.SetCookie(w.ResponseWriter, cookie)
}

func (w *flashWriter) WriteHeader(code int) {
	w.commit()
	w.ResponseWriter.WriteHeader(code)
}

func (w *flashWriter) Write(b []byte) (int, error) {
	w.commit()
	return w.ResponseWriter.Write(b)
}

// Unwrap returns the underlying ResponseWriter for http.ResponseController.
func (w *flashWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

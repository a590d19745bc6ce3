package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

// RateLimit returns an HTTP middleware that limits requests per client IP to
// requestsPerMinute over a sliding window. onLimit renders the rejection;
// nil falls back to a plain 429.
func RateLimit(requestsPerMinute int, onLimit http.HandlerFunc) func(http.Handler) http.Handler {
	opts := []httprate.Option{httprate.WithKeyFuncs(httprate.KeyByIP)}
	if onLimit != nil {
		opts = append(opts, httprate.WithLimitHandler(onLimit))
	}
	return httprate.Limit(requestsPerMinute, time.Minute, opts...)
}

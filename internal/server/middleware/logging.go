package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

const logAttrsKey contextKey = "log_attrs"

// logAttrs collects values discovered further down the chain (the
// authenticated admin) so the access log line can include them.
type logAttrs struct {
	admin string
}

func annotateAdmin(ctx context.Context, username string) {
	if a, ok := ctx.Value(logAttrsKey).(*logAttrs); ok {
		a.admin = username
	}
}

// Logger returns an HTTP middleware that writes one structured log line per
// request: method, path, status, duration, bytes, request ID, remote address
// and, on protected routes, the admin username. Requests to the paths in
// quiet are logged at debug level.
func Logger(logger *slog.Logger, quiet ...string) func(http.Handler) http.Handler {
	quietPaths := make(map[string]bool, len(quiet))
	for _, p := range quiet {
		quietPaths[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			attrs := &logAttrs{}

			next.ServeHTTP(ww, r.WithContext(context.WithValue(r.Context(), logAttrsKey, attrs)))

			level := slog.LevelInfo
			switch {
			case ww.status >= 500:
				level = slog.LevelError
			case ww.status >= 400:
				level = slog.LevelWarn
			case quietPaths[r.URL.Path]:
				level = slog.LevelDebug
			}

			args := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.status,
				"duration_ms", float64(time.Since(start).Microseconds()) / 1000.0,
				"bytes", ww.bytes,
				"request_id", GetRequestID(r.Context()),
				"remote_addr", r.RemoteAddr,
			}
			if attrs.admin != "" {
				args = append(args, "admin", attrs.admin)
			}
			if loc := ww.Header().Get("Location"); loc != "" && ww.status >= 300 && ww.status < 400 {
				args = append(args, "location", loc)
			}
			logger.Log(r.Context(), level, "request", args...)
		})
	}
}

// responseWriter captures the status code and bytes written.
type responseWriter struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func (w *responseWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// Unwrap returns the underlying ResponseWriter for http.ResponseController.
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

package middleware

import (
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// Logger writes one access line per API call: 4xx at warn, 5xx at error.
// Bearer tokens only appear at debug level, masked.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			began := time.Now()
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"elapsed_ms", float64(time.Since(began).Microseconds()) / 1000.0,
				"request_id", GetRequestID(r.Context()),
				"remote_addr", r.RemoteAddr,
			}
			ctx := r.Context()
			if auth := r.Header.Get("Authorization"); auth != "" && logger.Enabled(ctx, slog.LevelDebug) {
				attrs = append(attrs, "authorization", MaskSecret(auth))
			}
			logger.Log(ctx, accessLevel(status), "request", attrs...)
		})
	}
}

func accessLevel(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// MaskSecret keeps the last four characters of a credential and stars out
// the rest.
func MaskSecret(v string) string {
	const stars = "****"
	if len(v) <= len(stars) {
		return stars
	}
	return stars + v[len(v)-4:]
}

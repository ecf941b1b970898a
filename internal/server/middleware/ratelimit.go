package middleware

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/httprate"

	"github.com/bemfst/portal/internal/metrics"
	"github.com/bemfst/portal/internal/ratelimit"
)

// TooManyRequestsMessage is the body message of every 429 response.
const TooManyRequestsMessage = "Too many requests, please try again later"

// RateLimit enforces p per client address using the limiter's store. Rejected
// requests get a JSON 429 with Retry-After and never reach the handler.
func RateLimit(l *ratelimit.Limiter, p ratelimit.Policy, trustForwarded bool, logger *slog.Logger) func(http.Handler) http.Handler {
	retryAfter := strconv.Itoa(int(p.Window.Seconds()))
	return httprate.Limit(
		p.Limit,
		p.Window,
		httprate.WithLimitCounter(ratelimit.NewCounter(l, p, logger)),
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return ratelimit.ClientIP(r, trustForwarded), nil
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.RecordRateLimited(p.Name)
			if w.Header().Get("Retry-After") == "" {
				w.Header().Set("Retry-After", retryAfter)
			}
			writeError(w, http.StatusTooManyRequests, TooManyRequestsMessage)
		}),
	)
}

// Package metrics exposes Prometheus instrumentation for the portal API.
package metrics

import (
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "portal"

// Package-level vectors are nil until Init runs, so every Record function is
// safe to call from tests and from code paths that run without metrics.
var (
	requestsTotal         atomic.Pointer[prometheus.CounterVec]
	requestDuration       atomic.Pointer[prometheus.HistogramVec]
	authFailuresTotal     atomic.Pointer[prometheus.CounterVec]
	rateLimitedTotal      atomic.Pointer[prometheus.CounterVec]
	activityWriteFailures atomic.Pointer[prometheus.Counter]
	activityDroppedTotal  atomic.Pointer[prometheus.Counter]
	activityRecordedTotal atomic.Pointer[prometheus.CounterVec]
)

// Init registers all collectors with reg. Call it once at startup.
func Init(reg prometheus.Registerer) error {
	reqs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "requests_total",
		Help:      "Total number of HTTP requests handled.",
	}, []string{"method", "path", "status"})

	dur := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	authFail := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_failures_total",
		Help:      "Total number of rejected logins and bearer tokens.",
	}, []string{"reason"})

	limited := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Total number of requests rejected by a rate-limit policy.",
	}, []string{"policy"})

	writeFail := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "activity_write_failures_total",
		Help:      "Activity log entries that could not be persisted.",
	})

	dropped := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "activity_dropped_total",
		Help:      "Activity log entries dropped because too many writes were in flight.",
	})

	recorded := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "activity_recorded_total",
		Help:      "Activity log entries persisted, by action.",
	}, []string{"action"})

	for name, c := range map[string]prometheus.Collector{
		"requests_total":                reqs,
		"request_duration_seconds":      dur,
		"auth_failures_total":           authFail,
		"rate_limited_total":            limited,
		"activity_write_failures_total": writeFail,
		"activity_dropped_total":        dropped,
		"activity_recorded_total":       recorded,
	} {
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("register %s: %w", name, err)
		}
	}

	requestsTotal.Store(reqs)
	requestDuration.Store(dur)
	authFailuresTotal.Store(authFail)
	rateLimitedTotal.Store(limited)
	activityWriteFailures.Store(&writeFail)
	activityDroppedTotal.Store(&dropped)
	activityRecordedTotal.Store(recorded)
	return nil
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func RecordRequest(method, path, status string, seconds float64) {
	if c := requestsTotal.Load(); c != nil {
		c.WithLabelValues(method, path, status).Inc()
	}
	if h := requestDuration.Load(); h != nil {
		h.WithLabelValues(method, path, status).Observe(seconds)
	}
}

// RecordAuthFailure counts a rejected credential or token. Typical reasons:
// "invalid_credentials", "not_configured", "missing_token", "invalid_token",
// "revoked_token".
func RecordAuthFailure(reason string) {
	if c := authFailuresTotal.Load(); c != nil {
		c.WithLabelValues(reason).Inc()
	}
}

func RecordRateLimited(policy string) {
	if c := rateLimitedTotal.Load(); c != nil {
		c.WithLabelValues(policy).Inc()
	}
}

func RecordActivityWriteFailure() {
	if c := activityWriteFailures.Load(); c != nil {
		(*c).Inc()
	}
}

func RecordActivityDropped() {
	if c := activityDroppedTotal.Load(); c != nil {
		(*c).Inc()
	}
}

func RecordActivity(action string) {
	if c := activityRecordedTotal.Load(); c != nil {
		c.WithLabelValues(action).Inc()
	}
}

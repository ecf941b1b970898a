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
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bemfst/portal/internal/activity"
	"github.com/bemfst/portal/internal/handler"
	"github.com/bemfst/portal/internal/metrics"
	"github.com/bemfst/portal/internal/ratelimit"
	"github.com/bemfst/portal/internal/server/middleware"
	"github.com/bemfst/portal/internal/service"
	"github.com/bemfst/portal/internal/store"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host              string
	Port              int
	ShutdownTimeout   time.Duration
	CORSOrigins       []string
	TrustForwardedFor bool
	MaxBodySize       int64 // bytes
	GlobalLimit       ratelimit.Policy
	LoginLimit        ratelimit.Policy
	RetentionDays     int
	Version           string
}

// DefaultConfig returns a Config with sensible production defaults.
func DefaultConfig() Config {
	return Config{
		Host:              "0.0.0.0",
		Port:              8080,
		ShutdownTimeout:   30 * time.Second,
		CORSOrigins:       []string{"http://localhost:3000"},
		TrustForwardedFor: true,
		MaxBodySize:       1 << 20,
		GlobalLimit:       ratelimit.GlobalPolicy(),
		LoginLimit:        ratelimit.LoginPolicy(),
		RetentionDays:     activity.DefaultRetentionDays,
	}
}

// Pinger is a dependency checked by the readiness check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the server routes requests to.
type Deps struct {
	Store    *store.Store
	Recorder *activity.Recorder
	Auth     *service.AuthService
	Limiter  *ratelimit.Limiter
	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
	// Checks are pinged by /readyz in addition to the store.
	Checks map[string]Pinger
	Logger *slog.Logger
}

// Server is the top-level HTTP server for the portal API. It owns the Chi
// router and the long-lived collaborators it shuts down on exit.
type Server struct {
	cfg        Config
	deps       Deps
	router     chi.Router
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a new Server, wires up all routes and middleware, and returns
// it ready to listen. Call ListenAndServe to start accepting connections.
func New(cfg Config, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Limiter == nil {
		deps.Limiter = ratelimit.NewLimiter(ratelimit.NewMemoryStore())
	}
	s := &Server{
		cfg:    cfg,
		deps:   deps,
		logger: deps.Logger,
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()
	trust := s.cfg.TrustForwardedFor

	// --- Global middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if s.cfg.MaxBodySize > 0 {
		r.Use(chimw.RequestSize(s.cfg.MaxBodySize))
	}

	// --- Health checks and documents (no auth, no rate limit) ---
	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	r.Get("/openapi.json", handler.NewOpenAPIHandler(s.cfg.Version).ServeSpec)
	if s.deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(s.deps.Gatherer))
	}

	authH := handler.NewAuthHandler(s.deps.Auth, trust, s.logger)
	activityH := handler.NewActivityHandler(s.deps.Recorder, s.cfg.RetentionDays, trust)
	postH := handler.NewPostHandler(s.deps.Store, s.deps.Recorder, trust, s.logger)
	periodH := handler.NewPeriodHandler(s.deps.Store, s.deps.Recorder, trust, s.logger)
	orgH := handler.NewOrganizationHandler(s.deps.Store, s.deps.Recorder, trust, s.logger)

	guard := middleware.Authenticate(s.deps.Auth, s.logger)

	// --- API routes ---
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(s.deps.Limiter, s.cfg.GlobalLimit, trust, s.logger))

		r.With(middleware.RateLimit(s.deps.Limiter, s.cfg.LoginLimit, trust, s.logger)).
			Post("/auth/login", authH.Login)

		// Public reads of the website content
		r.Get("/posts", postH.List)
		r.Get("/posts/slug/{slug}", postH.GetBySlug)
		r.Get("/posts/{id}", postH.Get)
		r.Get("/periods", periodH.List)
		r.Get("/periods/{id}", periodH.Get)
		r.Get("/organization", orgH.Get)
		r.Get("/organization/{id}", orgH.GetByID)

		// Everything else requires an admin token
		r.Group(func(r chi.Router) {
			r.Use(guard)
			r.Use(middleware.RequireAdmin())

			r.Post("/auth/logout", authH.Logout)
			r.Get("/auth/me", authH.Me)

			r.Get("/activity-logs", activityH.List)
			r.Delete("/activity-logs/clear-old", activityH.ClearOld)

			r.Post("/posts", postH.Create)
			r.Patch("/posts/{id}", postH.Update)
			r.Delete("/posts/{id}", postH.Delete)

			r.Post("/periods", periodH.Create)
			r.Put("/periods/{id}", periodH.Update)
			r.Delete("/periods/{id}", periodH.Delete)

			r.Put("/organization/{id}", orgH.Update)
		})
	})

	s.router = r
}

// handleHealthz is a liveness check. Returns 200 if the process is running.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// handleReadyz is a readiness check. Returns 200 when the database and every
// extra check respond, or 503 otherwise.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]string)

	pingers := map[string]Pinger{}
	if s.deps.Store != nil {
		pingers["database"] = s.deps.Store
	}
	for name, p := range s.deps.Checks {
		pingers[name] = p
	}

	for name, p := range pingers {
		if err := p.Ping(ctx); err != nil {
			s.logger.Warn("readiness check failed", "check", name, "error", err)
			checks[name] = "unavailable"
			status = "unavailable"
			continue
		}
		checks[name] = "ok"
	}

	if status != "ready" {
		httpStatus = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(map[string]any{
		"status": status,
		"checks": checks,
	})
}

// ListenAndServe starts the HTTP server and blocks until a SIGINT or SIGTERM
// is received. It then drains in-flight requests, waits for pending audit
// writes and closes the database.
func (s *Server) ListenAndServe() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// Run serves until ctx is cancelled or the listener fails.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr, "version", s.cfg.Version)
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
	if err := s.deps.Recorder.Close(shutdownCtx); err != nil {
		s.logger.Warn("activity writes still pending at shutdown", "error", err)
	}
	if s.deps.Store != nil {
		if err := s.deps.Store.Close(); err != nil {
			s.logger.Warn("close store", "error", err)
		}
	}
	s.logger.Info("server stopped")
	return nil
}

// Router returns the underlying Chi router, useful for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ServeHTTP implements http.Handler, delegating to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bemfst/portal/internal/activity"
	"github.com/bemfst/portal/internal/config"
	"github.com/bemfst/portal/internal/metrics"
	"github.com/bemfst/portal/internal/ratelimit"
	"github.com/bemfst/portal/internal/server"
	"github.com/bemfst/portal/internal/service"
	"github.com/bemfst/portal/internal/store"
)

const banner = `
 ___  ___  ___ _____ _   _
| _ \/ _ \| _ \_   _/_\ | |
|  _/ (_) |   / | |/ _ \| |__
|_|  \___/|_|_\ |_/_/ \_\____|
`

func newServeCmd() *cobra.Command {
	var (
		port int
		host string
		dev  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Portal API server",
		Long: `Start the HTTP server exposing the admin API.

The admin identity and token secret must be configured (auth.username,
auth.password_hash or auth.password, auth.jwt_secret); the server refuses
to start without them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(dev)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "HTTP listen port")
	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "HTTP listen host")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable development mode (debug logging)")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))

	return cmd
}

func runServe(dev bool) error {
	settings, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	fmt.Print(banner)
	fmt.Println()

	if dev {
		settings.Log.Level = "debug"
	}
	logger := newLogger(settings.Log, os.Stderr)
	slog.SetDefault(logger)

	// 1. Database
	dsn := settings.Database.DSN
	if settings.Database.Driver == store.DriverSQLite && dsn == "" {
		dsn = resolveDataDir()
	}
	st, err := store.Open(settings.Database.Driver, dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	logger.Info("database ready", "driver", st.Driver())

	// 2. Metrics
	var gatherer prometheus.Gatherer
	if settings.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		if err := metrics.Init(reg); err != nil {
			st.Close()
			return err
		}
		gatherer = reg
	}

	// 3. Activity recorder
	recorder := activity.NewRecorder(st, activity.Options{
		MaxInFlight:  settings.Activity.MaxInFlight,
		WriteTimeout: settings.Activity.WriteTimeout,
		Logger:       logger,
	})

	// 4. Auth
	authSvc, err := newAuthService(settings.Auth, recorder, logger)
	if err != nil {
		st.Close()
		return err
	}

	// 5. Rate limiting
	limiter, checks, closeLimiter, err := newLimiter(settings.RateLimit, logger)
	if err != nil {
		st.Close()
		return err
	}
	defer closeLimiter()

	// 6. HTTP server
	srvCfg := server.Config{
		Host:              settings.Server.Host,
		Port:              settings.Server.Port,
		ShutdownTimeout:   settings.Server.ShutdownTimeout,
		CORSOrigins:       settings.Server.CORSOrigins,
		TrustForwardedFor: settings.Server.TrustForwardedFor,
		MaxBodySize:       settings.Server.MaxBodySize,
		GlobalLimit:       policy("global", settings.RateLimit.Global),
		LoginLimit:        policy("login", settings.RateLimit.Login),
		RetentionDays:     settings.Activity.RetentionDays,
		Version:           versionString(),
	}

	srv := server.New(srvCfg, server.Deps{
		Store:    st,
		Recorder: recorder,
		Auth:     authSvc,
		Limiter:  limiter,
		Gatherer: gatherer,
		Checks:   checks,
		Logger:   logger,
	})

	host, port := settings.Server.Host, settings.Server.Port
	fmt.Printf("→ Portal %s\n", versionString())
	fmt.Printf("→ Listening on http://%s:%d\n", host, port)
	fmt.Printf("→ API:        http://%s:%d/api/v1\n", host, port)
	fmt.Printf("→ OpenAPI:    http://%s:%d/openapi.json\n", host, port)
	fmt.Printf("→ Health:     http://%s:%d/healthz\n", host, port)
	if gatherer != nil {
		fmt.Printf("→ Metrics:    http://%s:%d/metrics\n", host, port)
	}
	fmt.Printf("→ Rate limit: %s backend\n", settings.RateLimit.Backend)
	fmt.Println()

	return srv.ListenAndServe()
}

func newAuthService(s config.AuthSettings, recorder service.Recorder, logger *slog.Logger) (*service.AuthService, error) {
	verifier, err := service.NewVerifier(s.Username, s.Password, s.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("admin credential: %w", err)
	}
	if verifier.UsesPlaintext() {
		logger.Warn("auth.password is stored in plain text; set auth.password_hash instead (see 'portal admin hash-password')")
	}

	tokens, err := service.NewTokenIssuer(s.JWTSecret, s.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("token issuer: %w", err)
	}
	revoked := service.NewRevocations(s.RevocationCapacity, tokens.TTL(), service.WithRevocationClock(tokens.Now))

	return service.NewAuthService(verifier, tokens, revoked, recorder, logger), nil
}

// newLimiter builds the limiter for the configured backend. The returned
// checks are added to the readiness check and closeFn releases connections.
func newLimiter(s config.RateLimitSettings, logger *slog.Logger) (*ratelimit.Limiter, map[string]server.Pinger, func(), error) {
	switch s.Backend {
	case "redis":
		rdb := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{s.RedisAddr}})
		rs := ratelimit.NewRedisStore(rdb, s.RedisPrefix)

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := rs.Ping(ctx); err != nil {
			// Counting fails open, so an unreachable Redis is not fatal.
			logger.Warn("redis unreachable, rate limiting will admit every request until it recovers", "addr", s.RedisAddr, "error", err)
		}
		logger.Info("rate limiter using redis", "addr", s.RedisAddr)

		closeFn := func() {
			if err := rdb.Close(); err != nil {
				logger.Warn("close redis", "error", err)
			}
		}
		return ratelimit.NewLimiter(rs), map[string]server.Pinger{"redis": rs}, closeFn, nil
	case "memory", "":
		return ratelimit.NewLimiter(ratelimit.NewMemoryStore()), nil, func() {}, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown rate_limit.backend %q", s.Backend)
	}
}

func policy(name string, s config.PolicySettings) ratelimit.Policy {
	return ratelimit.Policy{Name: name, Limit: s.Limit, Window: s.Window}
}

package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// PORTAL_AUTH_JWT_SECRET for auth.jwt_secret.
const EnvPrefix = "PORTAL"

// ErrAuthNotConfigured means the admin identity or token secret is missing.
// The server refuses to start rather than run with guessable defaults.
var ErrAuthNotConfigured = errors.New("authentication is not configured")

// Settings is the effective portal configuration.
type Settings struct {
	Server    ServerSettings    `mapstructure:"server" yaml:"server"`
	Database  DatabaseSettings  `mapstructure:"database" yaml:"database"`
	Auth      AuthSettings      `mapstructure:"auth" yaml:"auth"`
	RateLimit RateLimitSettings `mapstructure:"rate_limit" yaml:"rate_limit"`
	Activity  ActivitySettings  `mapstructure:"activity" yaml:"activity"`
	Log       LogSettings       `mapstructure:"log" yaml:"log"`
	Metrics   MetricsSettings   `mapstructure:"metrics" yaml:"metrics"`
}

type ServerSettings struct {
	Host              string        `mapstructure:"host" yaml:"host"`
	Port              int           `mapstructure:"port" yaml:"port"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	CORSOrigins       []string      `mapstructure:"cors_origins" yaml:"cors_origins"`
	TrustForwardedFor bool          `mapstructure:"trust_forwarded_for" yaml:"trust_forwarded_for"`
	MaxBodySize       int64         `mapstructure:"max_body_size" yaml:"max_body_size"`
}

type DatabaseSettings struct {
	Driver string `mapstructure:"driver" yaml:"driver"`
	DSN    string `mapstructure:"dsn" yaml:"dsn"`
}

type AuthSettings struct {
	Username           string        `mapstructure:"username" yaml:"username"`
	Password           string        `mapstructure:"password" yaml:"password"`
	PasswordHash       string        `mapstructure:"password_hash" yaml:"password_hash"`
	JWTSecret          string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	TokenTTL           time.Duration `mapstructure:"token_ttl" yaml:"token_ttl"`
	RevocationCapacity int           `mapstructure:"revocation_capacity" yaml:"revocation_capacity"`
}

type PolicySettings struct {
	Limit  int           `mapstructure:"limit" yaml:"limit"`
	Window time.Duration `mapstructure:"window" yaml:"window"`
}

type RateLimitSettings struct {
	Global      PolicySettings `mapstructure:"global" yaml:"global"`
	Login       PolicySettings `mapstructure:"login" yaml:"login"`
	Backend     string         `mapstructure:"backend" yaml:"backend"`
	RedisAddr   string         `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisPrefix string         `mapstructure:"redis_prefix" yaml:"redis_prefix"`
}

type ActivitySettings struct {
	RetentionDays int           `mapstructure:"retention_days" yaml:"retention_days"`
	MaxInFlight   int           `mapstructure:"max_in_flight" yaml:"max_in_flight"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
}

type LogSettings struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

type MetricsSettings struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// defaults lists every known key. Keys must be registered for AutomaticEnv
// to pick up overrides during Unmarshal, so secrets are registered empty.
var defaults = []struct {
	key   string
	value any
}{
	{"server.host", "0.0.0.0"},
	{"server.port", 8080},
	{"server.shutdown_timeout", "30s"},
	{"server.cors_origins", []string{"*"}},
	{"server.trust_forwarded_for", true},
	{"server.max_body_size", 1 << 20},
	{"database.driver", "sqlite"},
	{"database.dsn", ""},
	{"auth.username", ""},
	{"auth.password", ""},
	{"auth.password_hash", ""},
	{"auth.jwt_secret", ""},
	{"auth.token_ttl", "24h"},
	{"auth.revocation_capacity", 1024},
	{"rate_limit.global.limit", 30},
	{"rate_limit.global.window", "60s"},
	{"rate_limit.login.limit", 5},
	{"rate_limit.login.window", "60s"},
	{"rate_limit.backend", "memory"},
	{"rate_limit.redis_addr", ""},
	{"rate_limit.redis_prefix", "portal:ratelimit"},
	{"activity.retention_days", 180},
	{"activity.max_in_flight", 64},
	{"activity.write_timeout", "5s"},
	{"log.level", "info"},
	{"log.format", "text"},
	{"metrics.enabled", true},
}

// Defaults registers default values and environment binding on v.
func Defaults(v *viper.Viper) {
	for _, d := range defaults {
		v.SetDefault(d.key, d.value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load decodes the effective configuration from v. It does not validate.
func Load(v *viper.Viper) (*Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &s, nil
}

var (
	validDrivers  = []string{"sqlite", "postgres", "mysql", "sqlserver"}
	validBackends = []string{"memory", "redis"}
	validLevels   = []string{"debug", "info", "warn", "error"}
	validFormats  = []string{"text", "json"}
)

// Validate reports every problem at once. Missing credentials or a missing
// token secret wrap ErrAuthNotConfigured.
func (s *Settings) Validate() error {
	var errs []error

	if s.Auth.Username == "" {
		errs = append(errs, fmt.Errorf("%w: auth.username is empty", ErrAuthNotConfigured))
	}
	if s.Auth.Password == "" && s.Auth.PasswordHash == "" {
		errs = append(errs, fmt.Errorf("%w: set auth.password_hash (or auth.password)", ErrAuthNotConfigured))
	}
	if s.Auth.JWTSecret == "" {
		errs = append(errs, fmt.Errorf("%w: auth.jwt_secret is empty", ErrAuthNotConfigured))
	}
	if s.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}

	if !slices.Contains(validDrivers, s.Database.Driver) {
		errs = append(errs, fmt.Errorf("database.driver %q: must be one of %v", s.Database.Driver, validDrivers))
	}
	if s.Database.Driver != "sqlite" && s.Database.DSN == "" {
		errs = append(errs, fmt.Errorf("database.dsn is required for %s", s.Database.Driver))
	}

	for name, p := range map[string]PolicySettings{"global": s.RateLimit.Global, "login": s.RateLimit.Login} {
		if p.Limit < 1 || p.Window <= 0 {
			errs = append(errs, fmt.Errorf("rate_limit.%s: limit and window must be positive", name))
		}
	}
	if !slices.Contains(validBackends, s.RateLimit.Backend) {
		errs = append(errs, fmt.Errorf("rate_limit.backend %q: must be one of %v", s.RateLimit.Backend, validBackends))
	}
	if s.RateLimit.Backend == "redis" && s.RateLimit.RedisAddr == "" {
		errs = append(errs, errors.New("rate_limit.redis_addr is required for the redis backend"))
	}

	if s.Activity.RetentionDays < 1 {
		errs = append(errs, errors.New("activity.retention_days must be at least 1"))
	}
	if !slices.Contains(validLevels, strings.ToLower(s.Log.Level)) {
		errs = append(errs, fmt.Errorf("log.level %q: must be one of %v", s.Log.Level, validLevels))
	}
	if !slices.Contains(validFormats, s.Log.Format) {
		errs = append(errs, fmt.Errorf("log.format %q: must be one of %v", s.Log.Format, validFormats))
	}

	return errors.Join(errs...)
}

const masked = "****"

// Redacted returns the settings as a nested map with secrets masked, for
// display.
func (s *Settings) Redacted() map[string]any {
	mask := func(v string) string {
		if v == "" {
			return ""
		}
		return masked
	}
	return map[string]any{
		"server": map[string]any{
			"host":                s.Server.Host,
			"port":                s.Server.Port,
			"shutdown_timeout":    s.Server.ShutdownTimeout.String(),
			"cors_origins":        s.Server.CORSOrigins,
			"trust_forwarded_for": s.Server.TrustForwardedFor,
			"max_body_size":       s.Server.MaxBodySize,
		},
		"database": map[string]any{
			"driver": s.Database.Driver,
			"dsn":    redactDSN(s.Database.DSN),
		},
		"auth": map[string]any{
			"username":            s.Auth.Username,
			"password":            mask(s.Auth.Password),
			"password_hash":       mask(s.Auth.PasswordHash),
			"jwt_secret":          mask(s.Auth.JWTSecret),
			"token_ttl":           s.Auth.TokenTTL.String(),
			"revocation_capacity": s.Auth.RevocationCapacity,
		},
		"rate_limit": map[string]any{
			"global":       map[string]any{"limit": s.RateLimit.Global.Limit, "window": s.RateLimit.Global.Window.String()},
			"login":        map[string]any{"limit": s.RateLimit.Login.Limit, "window": s.RateLimit.Login.Window.String()},
			"backend":      s.RateLimit.Backend,
			"redis_addr":   s.RateLimit.RedisAddr,
			"redis_prefix": s.RateLimit.RedisPrefix,
		},
		"activity": map[string]any{
			"retention_days": s.Activity.RetentionDays,
			"max_in_flight":  s.Activity.MaxInFlight,
			"write_timeout":  s.Activity.WriteTimeout.String(),
		},
		"log": map[string]any{
			"level":  s.Log.Level,
			"format": s.Log.Format,
		},
		"metrics": map[string]any{
			"enabled": s.Metrics.Enabled,
		},
	}
}

// redactDSN masks the password of a URL-style or user:pass@ DSN.
func redactDSN(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	if at < 0 {
		return dsn
	}
	creds := dsn[:at]
	scheme := ""
	if i := strings.Index(creds, "://"); i >= 0 {
		scheme, creds = creds[:i+3], creds[i+3:]
	}
	user, _, hasPass := strings.Cut(creds, ":")
	if !hasPass {
		return dsn
	}
	return scheme + user + ":" + masked + dsn[at:]
}

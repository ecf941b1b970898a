package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bemfst/portal/internal/metrics"
	"github.com/bemfst/portal/internal/model"
	"github.com/bemfst/portal/internal/service"
)

type contextKeyAuth string

// AuthClaimsKey is the context key for the validated token claims.
const AuthClaimsKey contextKeyAuth = "auth_claims"

// UnauthorizedMessage is returned for every missing, malformed, expired or
// revoked token. Callers cannot tell the causes apart.
const UnauthorizedMessage = "Invalid or missing authentication token"

// Authenticator validates bearer tokens.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*service.Claims, error)
}

// Authenticate returns the auth guard. It reads "Authorization: Bearer
// <token>", validates the token and stores the claims in the request
// context. Any failure ends the request with 401 before next runs.
func Authenticate(auth Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				metrics.RecordAuthFailure("missing_token")
				writeError(w, http.StatusUnauthorized, UnauthorizedMessage)
				return
			}

			claims, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				reason := "invalid_token"
				if errors.Is(err, service.ErrTokenRevoked) {
					reason = "revoked_token"
				}
				metrics.RecordAuthFailure(reason)
				logger.Debug("token rejected",
					"request_id", GetRequestID(r.Context()),
					"reason", reason,
					"error", err,
				)
				writeError(w, http.StatusUnauthorized, UnauthorizedMessage)
				return
			}

			ctx := context.WithValue(r.Context(), AuthClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin enforces the admin role. It must run after Authenticate.
func RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !GetPrincipal(r.Context()).IsAdmin() {
				writeError(w, http.StatusForbidden, "Admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetClaims returns the validated token claims, or nil on an unguarded route.
func GetClaims(ctx context.Context) *service.Claims {
	if c, ok := ctx.Value(AuthClaimsKey).(*service.Claims); ok {
		return c
	}
	return nil
}

// GetPrincipal returns the authenticated identity, or nil.
func GetPrincipal(ctx context.Context) *model.Principal {
	c := GetClaims(ctx)
	if c == nil {
		return nil
	}
	p := c.Principal()
	return &p
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bemfst/portal/internal/metrics"
	"github.com/bemfst/portal/internal/model"
)

// ErrTokenRevoked is returned for a token that was explicitly logged out.
// It wraps ErrTokenInvalid so callers keep a single rejection path.
var ErrTokenRevoked = fmt.Errorf("%w: token revoked", ErrTokenInvalid)

// Recorder persists activity log entries without blocking the caller.
type Recorder interface {
	Record(ctx context.Context, entry model.ActivityLog)
}

// LoginResult is returned on a successful login.
type LoginResult struct {
	Token     *IssuedToken
	Principal model.Principal
}

// AuthService ties together credential verification, token issuance and
// revocation, and records every login attempt.
type AuthService struct {
	verifier *Verifier
	tokens   *TokenIssuer
	revoked  *Revocations
	recorder Recorder
	logger   *slog.Logger
}

// NewAuthService wires the auth path. A nil verifier or token issuer leaves
// the service fail-closed: every login and every token is rejected.
func NewAuthService(v *Verifier, tokens *TokenIssuer, revoked *Revocations, recorder Recorder, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		verifier: v,
		tokens:   tokens,
		revoked:  revoked,
		recorder: recorder,
		logger:   logger,
	}
}

// Login verifies the credentials and issues a token. Both outcomes are
// recorded; the submitted password never is.
func (s *AuthService) Login(ctx context.Context, username, password, ip string) (*LoginResult, error) {
	if s.tokens == nil {
		s.loginFailed(ctx, username, ip, "not_configured")
		return nil, fmt.Errorf("%w: token issuer missing", ErrNotConfigured)
	}

	p, err := s.verifier.Verify(username, password)
	if err != nil {
		reason := "invalid_credentials"
		if errors.Is(err, ErrNotConfigured) {
			reason = "not_configured"
		}
		s.loginFailed(ctx, username, ip, reason)
		return nil, err
	}

	tok, err := s.tokens.Issue(*p)
	if err != nil {
		return nil, err
	}

	s.record(ctx, model.ActivityLog{
		Action:    model.ActionLogin,
		Actor:     p.Username,
		IPAddress: model.StringPtr(ip),
		Metadata:  map[string]any{"token_id": tok.ID},
	})
	return &LoginResult{Token: tok, Principal: *p}, nil
}

func (s *AuthService) loginFailed(ctx context.Context, username, ip, reason string) {
	metrics.RecordAuthFailure(reason)
	s.logger.Warn("login failed", "username", username, "ip", ip, "reason", reason)
	s.record(ctx, model.ActivityLog{
		Action:    model.ActionLoginFailed,
		Actor:     username,
		IPAddress: model.StringPtr(ip),
		Metadata:  map[string]any{"reason": reason},
	})
}

// Authenticate validates a bearer token and checks it has not been revoked.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*Claims, error) {
	if s.tokens == nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, ErrNotConfigured)
	}
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, err
	}
	if s.revoked.IsRevoked(claims.ID) {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// Logout revokes the token described by claims for the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, claims *Claims, ip string) {
	if claims == nil {
		return
	}
	if claims.ExpiresAt != nil {
		s.revoked.Revoke(claims.ID, claims.ExpiresAt.Time)
	}
	s.record(ctx, model.ActivityLog{
		Action:    model.ActionLogout,
		Actor:     claims.Username,
		IPAddress: model.StringPtr(ip),
		Metadata:  map[string]any{"token_id": claims.ID},
	})
}

func (s *AuthService) record(ctx context.Context, entry model.ActivityLog) {
	if s.recorder == nil {
		return
	}
	s.recorder.Record(ctx, entry)
}

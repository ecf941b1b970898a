package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/bemfst/portal/internal/model"
)

// DefaultTokenTTL is used when no token lifetime is configured.
const DefaultTokenTTL = 24 * time.Hour

// DefaultIssuer is written to the iss claim and required on validation.
const DefaultIssuer = "portal"

// ErrTokenInvalid covers every token rejection: bad signature, malformed
// input, wrong algorithm and expiry. The wrapped cause is for logs only.
var ErrTokenInvalid = errors.New("token invalid")

// Claims is the payload carried by an access token.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Principal returns the identity asserted by the token.
func (c *Claims) Principal() model.Principal {
	return model.Principal{Username: c.Username, Role: c.Role}
}

// IssuedToken is a freshly signed access token.
type IssuedToken struct {
	Token     string
	ID        string
	ExpiresAt time.Time
	ExpiresIn int // seconds
}

// TokenOption configures a TokenIssuer.
type TokenOption func(*TokenIssuer)

// WithClock overrides the time source used for iat, exp and validation.
func WithClock(now func() time.Time) TokenOption {
	return func(t *TokenIssuer) { t.now = now }
}

// WithIssuer overrides the iss claim.
func WithIssuer(iss string) TokenOption {
	return func(t *TokenIssuer) { t.issuer = iss }
}

// TokenIssuer signs and validates HS256 access tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewTokenIssuer returns ErrNotConfigured when secret is empty. A
// non-positive ttl falls back to DefaultTokenTTL.
func NewTokenIssuer(secret string, ttl time.Duration, opts ...TokenOption) (*TokenIssuer, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: jwt secret is empty", ErrNotConfigured)
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	t := &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: DefaultIssuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// TTL is the lifetime given to every issued token.
func (t *TokenIssuer) TTL() time.Duration { return t.ttl }

// Now is the issuer's clock, used for iat, exp and validation.
func (t *TokenIssuer) Now() time.Time { return t.now() }

// Issue signs a token for p that expires TTL from now.
func (t *TokenIssuer) Issue(p model.Principal) (*IssuedToken, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate token id: %w", err)
	}

	now := t.now().UTC().Truncate(jwt.TimePrecision)
	exp := now.Add(t.ttl)
	claims := Claims{
		Username: p.Username,
		Role:     p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id.String(),
			Issuer:    t.issuer,
			Subject:   p.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &IssuedToken{
		Token:     signed,
		ID:        claims.ID,
		ExpiresAt: exp,
		ExpiresIn: int(t.ttl / time.Second),
	}, nil
}

// Validate verifies the signature, algorithm, issuer and expiry of token. A
// token is rejected from the instant its exp is reached.
func (t *TokenIssuer) Validate(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithIssuer(t.issuer),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	if claims.Username == "" {
		return nil, fmt.Errorf("%w: missing username claim", ErrTokenInvalid)
	}
	return claims, nil
}

package client

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoExpiry is returned by TokenExpiry for a token without an exp claim.
var ErrNoExpiry = errors.New("token has no expiry")

// TokenExpiry reads the exp claim without checking the signature. It is only
// used to avoid sending a token the server would refuse anyway.
func TokenExpiry(token string) (time.Time, error) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, fmt.Errorf("parse token: %w", err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrNoExpiry
	}
	return claims.ExpiresAt.Time, nil
}

// usable reports whether token is still valid at now with skew to spare.
func usable(token string, now time.Time, skew time.Duration) bool {
	exp, err := TokenExpiry(token)
	if err != nil {
		return false
	}
	return now.Before(exp.Add(-skew))
}

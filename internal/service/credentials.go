package service

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/bemfst/portal/internal/model"
)

var (
	// ErrInvalidCredentials never says which field was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotConfigured means the admin identity or the signing secret is
	// missing. Authentication is refused rather than falling back to defaults.
	ErrNotConfigured = errors.New("authentication not configured")
)

// Verifier checks submitted credentials against the single configured admin.
//
// Both the username and the password are compared on every call, and each
// comparison runs over fixed-length SHA-256 digests with
// subtle.ConstantTimeCompare, so the response time does not depend on which
// field is wrong or on where the inputs first differ.
type Verifier struct {
	username [sha256.Size]byte
	name     string

	// Exactly one of password or hash is set.
	password *[sha256.Size]byte
	hash     *argonHash
}

// NewVerifier builds a Verifier. passwordHash (argon2id, see HashPassword)
// takes precedence over the plaintext password.
func NewVerifier(username, password, passwordHash string) (*Verifier, error) {
	if username == "" {
		return nil, fmt.Errorf("%w: admin username is empty", ErrNotConfigured)
	}
	v := &Verifier{
		username: sha256.Sum256([]byte(username)),
		name:     username,
	}
	switch {
	case passwordHash != "":
		h, err := parseArgonHash(passwordHash)
		if err != nil {
			return nil, fmt.Errorf("%w: admin password hash: %v", ErrNotConfigured, err)
		}
		v.hash = h
	case password != "":
		sum := sha256.Sum256([]byte(password))
		v.password = &sum
	default:
		return nil, fmt.Errorf("%w: admin password is empty", ErrNotConfigured)
	}
	return v, nil
}

// UsesPlaintext reports whether the reference password is held in plaintext
// configuration instead of as a hash.
func (v *Verifier) UsesPlaintext() bool {
	return v != nil && v.password != nil
}

// Verify checks the supplied credentials. A nil Verifier denies everything.
func (v *Verifier) Verify(username, password string) (*model.Principal, error) {
	if v == nil {
		return nil, ErrNotConfigured
	}

	suppliedUser := sha256.Sum256([]byte(username))
	userOK := subtle.ConstantTimeCompare(suppliedUser[:], v.username[:])

	var passOK int
	if v.hash != nil {
		if v.hash.matches(password) {
			passOK = 1
		}
	} else {
		suppliedPass := sha256.Sum256([]byte(password))
		passOK = subtle.ConstantTimeCompare(suppliedPass[:], v.password[:])
	}

	if userOK&passOK != 1 {
		return nil, ErrInvalidCredentials
	}
	return &model.Principal{Username: v.name, Role: model.RoleAdmin}, nil
}

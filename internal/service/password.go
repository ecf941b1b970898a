package service

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ArgonParams controls the cost of the argon2id password KDF.
type ArgonParams struct {
	Memory      uint32 // KiB
	Time        uint32
	Parallelism uint8
	SaltLen     int
	KeyLen      uint32
}

// DefaultArgon follows the RFC 9106 second recommended option.
var DefaultArgon = ArgonParams{
	Memory:      64 * 1024,
	Time:        3,
	Parallelism: 1,
	SaltLen:     16,
	KeyLen:      32,
}

const argonPrefix = "argon2id$"

// ErrInvalidHash is returned when an encoded password hash cannot be parsed.
var ErrInvalidHash = errors.New("invalid password hash")

// HashPassword derives a salted argon2id hash of password. The encoded form is
// argon2id$v=19$m=<KiB>,t=<iterations>,p=<lanes>$<b64 salt>$<b64 key>.
func HashPassword(p ArgonParams, password string) (string, error) {
	salt := make([]byte, p.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Parallelism, p.KeyLen)
	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s", argonPrefix, argon2.Version,
		p.Memory, p.Time, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// VerifyPassword reports whether password matches the encoded hash.
func VerifyPassword(password, encoded string) (bool, error) {
	h, err := parseArgonHash(encoded)
	if err != nil {
		return false, err
	}
	return h.matches(password), nil
}

type argonHash struct {
	memory uint32
	time   uint32
	lanes  uint8
	salt   []byte
	key    []byte
}

func parseArgonHash(encoded string) (*argonHash, error) {
	if !strings.HasPrefix(encoded, argonPrefix) {
		return nil, ErrInvalidHash
	}
	parts := strings.Split(encoded[len(argonPrefix):], "$")
	if len(parts) != 4 {
		return nil, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[0], "v=%d", &version); err != nil || version != argon2.Version {
		return nil, ErrInvalidHash
	}
	parts = parts[1:]

	h := &argonHash{}
	if _, err := fmt.Sscanf(parts[0], "m=%d,t=%d,p=%d", &h.memory, &h.time, &h.lanes); err != nil {
		return nil, ErrInvalidHash
	}
	if h.time == 0 || h.lanes == 0 {
		return nil, ErrInvalidHash
	}

	var err error
	if h.salt, err = base64.RawStdEncoding.DecodeString(parts[1]); err != nil {
		return nil, ErrInvalidHash
	}
	if h.key, err = base64.RawStdEncoding.DecodeString(parts[2]); err != nil || len(h.key) == 0 {
		return nil, ErrInvalidHash
	}
	return h, nil
}

func (h *argonHash) matches(password string) bool {
	key := argon2.IDKey([]byte(password), h.salt, h.time, h.memory, h.lanes, uint32(len(h.key)))
	return subtle.ConstantTimeCompare(key, h.key) == 1
}

package service

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultRevocationCapacity bounds the number of revoked token ids held.
const DefaultRevocationCapacity = 1024

// Revocations is an in-memory denylist of token ids. Entries live for one
// token lifetime, after which the token would fail expiry checks anyway.
// When the list is full the oldest revocation is evicted first.
type Revocations struct {
	cache *expirable.LRU[string, time.Time]
	now   func() time.Time
}

// RevocationOption configures a Revocations list.
type RevocationOption func(*Revocations)

// WithRevocationClock sets the time source used to skip already-expired
// tokens. Pass the TokenIssuer's clock so both agree on token expiry.
func WithRevocationClock(now func() time.Time) RevocationOption {
	return func(r *Revocations) { r.now = now }
}

func NewRevocations(capacity int, ttl time.Duration, opts ...RevocationOption) *Revocations {
	if capacity <= 0 {
		capacity = DefaultRevocationCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	r := &Revocations{
		cache: expirable.NewLRU[string, time.Time](capacity, nil, ttl),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Revoke denies id until expiresAt. Already-expired tokens are ignored.
func (r *Revocations) Revoke(id string, expiresAt time.Time) {
	if r == nil || id == "" || !r.now().Before(expiresAt) {
		return
	}
	r.cache.Add(id, expiresAt)
}

func (r *Revocations) IsRevoked(id string) bool {
	if r == nil || id == "" {
		return false
	}
	_, ok := r.cache.Get(id)
	return ok
}

func (r *Revocations) Len() int {
	if r == nil {
		return 0
	}
	return r.cache.Len()
}

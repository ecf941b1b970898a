package ratelimit

import (
	"context"
	"fmt"
)

// Limiter applies policies to identifiers over a shared Store.
type Limiter struct {
	store Store
}

func NewLimiter(store Store) *Limiter {
	return &Limiter{store: store}
}

// Admit counts one request from identifier against p. The request is
// admitted while the window's count stays within p.Limit. Two concurrent
// requests at the boundary may both be admitted.
func (l *Limiter) Admit(ctx context.Context, identifier string, p Policy) (Decision, error) {
	if !p.Valid() {
		return Decision{}, fmt.Errorf("invalid rate limit policy %q", p.Name)
	}
	n, err := l.store.Incr(ctx, p.key(identifier), p.Window)
	if err != nil {
		return Decision{}, err
	}
	return Decision{Allowed: n <= p.Limit, Count: n, Limit: p.Limit}, nil
}

// Peek returns the current decision for identifier without counting a request.
func (l *Limiter) Peek(ctx context.Context, identifier string, p Policy) (Decision, error) {
	n, err := l.store.Count(ctx, p.key(identifier))
	if err != nil {
		return Decision{}, err
	}
	return Decision{Allowed: n < p.Limit, Count: n, Limit: p.Limit}, nil
}

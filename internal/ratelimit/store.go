package ratelimit

import (
	"context"
	"time"
)

// Store holds per-key request counters. A window starts at the first Incr
// for a key and the counter resets once the window has fully elapsed.
// Implementations must make Incr atomic per key.
type Store interface {
	// Incr adds one to key and returns the count within the current window.
	Incr(ctx context.Context, key string, window time.Duration) (int, error)
	// Count returns the count within the current window, zero if none.
	Count(ctx context.Context, key string) (int, error)
}

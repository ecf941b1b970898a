package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-chi/httprate"
)

const counterTimeout = 500 * time.Millisecond

// Counter adapts a Limiter to httprate.LimitCounter so the httprate
// middleware enforces fixed windows from the shared Store.
//
// httprate passes wall-clock aligned window boundaries; they are ignored and
// the Store's own windows apply. The previous-window count is always zero,
// which turns httprate's sliding estimate into a plain fixed window.
//
// Store errors fail open: the request is admitted and the error is logged.
type Counter struct {
	limiter *Limiter
	policy  Policy
	logger  *slog.Logger
}

var _ httprate.LimitCounter = (*Counter)(nil)

func NewCounter(l *Limiter, p Policy, logger *slog.Logger) *Counter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Counter{limiter: l, policy: p, logger: logger}
}

// Config is called by httprate with the limit it was built with.
func (c *Counter) Config(requestLimit int, windowLength time.Duration) {
	c.policy.Limit = requestLimit
	c.policy.Window = windowLength
}

func (c *Counter) Increment(key string, currentWindow time.Time) error {
	return c.IncrementBy(key, currentWindow, 1)
}

func (c *Counter) IncrementBy(key string, _ time.Time, amount int) error {
	ctx, cancel := context.WithTimeout(context.Background(), counterTimeout)
	defer cancel()
	for i := 0; i < amount; i++ {
		if _, err := c.limiter.Admit(ctx, key, c.policy); err != nil {
			c.logger.Warn("rate limit store unavailable, admitting request",
				"policy", c.policy.Name, "error", err)
			return nil
		}
	}
	return nil
}

func (c *Counter) Get(key string, _, _ time.Time) (int, int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), counterTimeout)
	defer cancel()
	d, err := c.limiter.Peek(ctx, key, c.policy)
	if err != nil {
		c.logger.Warn("rate limit store unavailable, admitting request",
			"policy", c.policy.Name, "error", err)
		return 0, 0, nil
	}
	return d.Count, 0, nil
}

package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const defaultRedisPrefix = "portal:ratelimit"

// RedisStore shares counters between portal instances.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(k string) string {
	return fmt.Sprintf("%s:%s", s.prefix, k)
}

// Incr creates the key with the window as its TTL only when it does not
// exist yet, then increments it, all inside one MULTI. Later hits in the
// window leave the TTL alone so the window stays anchored at the first hit.
func (s *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int, error) {
	k := s.key(key)
	var incr *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, k, 0, window)
		incr = pipe.Incr(ctx, k)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("redis incr %s: %w", k, err)
	}
	return int(incr.Val()), nil
}

func (s *RedisStore) Count(ctx context.Context, key string) (int, error) {
	n, err := s.client.Get(ctx, s.key(key)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get: %w", err)
	}
	return n, nil
}

// Ping checks connectivity, for readiness checks.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

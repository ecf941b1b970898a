package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func newTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, "test"), mr
}

func TestRedisStoreWindowAnchoredAtFirstHit(t *testing.T) {
	s, mr := newTestRedis(t)
	l := NewLimiter(s)
	p := Policy{Name: "login", Limit: 2, Window: time.Minute}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if d, err := l.Admit(ctx, "1.2.3.4", p); err != nil || !d.Allowed {
			t.Fatalf("request %d: %+v, %v", i+1, d, err)
		}
		mr.FastForward(20 * time.Second)
	}
	if d, _ := l.Admit(ctx, "1.2.3.4", p); d.Allowed {
		t.Fatal("3rd request admitted")
	}
	if got := mr.TTL("test:login:1.2.3.4"); got != 20*time.Second {
		t.Errorf("TTL = %v, want 20s (later hits must not extend the window)", got)
	}

	mr.FastForward(20 * time.Second)
	if d, _ := l.Admit(ctx, "1.2.3.4", p); !d.Allowed || d.Count != 1 {
		t.Errorf("after window: %+v", d)
	}
}

func TestRedisStoreCount(t *testing.T) {
	s, _ := newTestRedis(t)
	ctx := context.Background()

	if n, err := s.Count(ctx, "missing"); err != nil || n != 0 {
		t.Fatalf("Count(missing) = %d, %v", n, err)
	}
	s.Incr(ctx, "k", time.Minute)
	s.Incr(ctx, "k", time.Minute)
	if n, _ := s.Count(ctx, "k"); n != 2 {
		t.Errorf("Count = %d, want 2", n)
	}
	if err := s.Ping(ctx); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestRedisStoreUnavailable(t *testing.T) {
	s, mr := newTestRedis(t)
	mr.Close()
	if _, err := s.Incr(context.Background(), "k", time.Minute); err == nil {
		t.Fatal("expected error from closed redis")
	}
}

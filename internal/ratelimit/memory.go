package ratelimit

import (
	"context"
	"sync"
	"time"
)

const defaultSweepInterval = time.Minute

type memWindow struct {
	start  time.Time
	length time.Duration
	count  int
}

func (w *memWindow) expired(now time.Time) bool {
	return !now.Before(w.start.Add(w.length))
}

// MemoryStore is a process-local Store. Expired windows are swept lazily.
type MemoryStore struct {
	mu         sync.Mutex
	windows    map[string]*memWindow
	now        func() time.Time
	sweepEvery time.Duration
	lastSweep  time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock sets the time source, for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *MemoryStore) { m.now = now }
}

// WithSweepInterval sets how often expired windows are dropped.
func WithSweepInterval(d time.Duration) MemoryOption {
	return func(m *MemoryStore) { m.sweepEvery = d }
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	m := &MemoryStore{
		windows:    make(map[string]*memWindow),
		now:        time.Now,
		sweepEvery: defaultSweepInterval,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.lastSweep = m.now()
	return m
}

func (m *MemoryStore) Incr(_ context.Context, key string, window time.Duration) (int, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweep(now)
	w, ok := m.windows[key]
	if !ok || w.expired(now) {
		w = &memWindow{start: now, length: window}
		m.windows[key] = w
	}
	w.count++
	return w.count, nil
}

func (m *MemoryStore) Count(_ context.Context, key string) (int, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.windows[key]
	if !ok || w.expired(now) {
		return 0, nil
	}
	return w.count, nil
}

// Len returns the number of tracked keys, including expired ones not yet swept.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.windows)
}

// sweep must be called with mu held.
func (m *MemoryStore) sweep(now time.Time) {
	if now.Sub(m.lastSweep) < m.sweepEvery {
		return
	}
	for k, w := range m.windows {
		if w.expired(now) {
			delete(m.windows, k)
		}
	}
	m.lastSweep = now
}

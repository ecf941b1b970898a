// Package activity records administrative actions to the audit log without
// ever affecting the request that triggered them.
package activity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bemfst/portal/internal/metrics"
	"github.com/bemfst/portal/internal/model"
)

const (
	DefaultPageSize      = 30
	MaxPageSize          = 100
	DefaultRetentionDays = 180
	DefaultMaxInFlight   = 64
	DefaultWriteTimeout  = 5 * time.Second
)

// ErrInvalidRetention is returned by Purge for a non-positive day count.
var ErrInvalidRetention = errors.New("retention must be at least one day")

// Store persists activity log entries.
type Store interface {
	InsertActivity(ctx context.Context, e *model.ActivityLog) error
	ListActivities(ctx context.Context, offset, limit int) ([]model.ActivityLog, error)
	CountActivities(ctx context.Context) (int64, error)
	DeleteActivitiesBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Options tunes a Recorder. Zero values select the defaults.
type Options struct {
	MaxInFlight  int
	WriteTimeout time.Duration
	Logger       *slog.Logger
	Now          func() time.Time
}

// Recorder writes entries in the background. Record returns immediately;
// write failures end up in the operational log and metrics only.
type Recorder struct {
	store   Store
	logger  *slog.Logger
	timeout time.Duration
	now     func() time.Time

	slots chan struct{}

	mu      sync.Mutex
	closed  bool
	pending int
	idle    chan struct{} // closed when pending drops to zero
}

func NewRecorder(store Store, opts Options) *Recorder {
	if opts.MaxInFlight <= 0 {
		opts.MaxInFlight = DefaultMaxInFlight
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Recorder{
		store:   store,
		logger:  opts.Logger,
		timeout: opts.WriteTimeout,
		now:     opts.Now,
		slots:   make(chan struct{}, opts.MaxInFlight),
	}
}

// Record schedules entry for persistence and returns at once. The write does
// not inherit ctx cancellation, so it survives the end of the request. When
// MaxInFlight writes are already pending the entry is dropped.
func (r *Recorder) Record(ctx context.Context, entry model.ActivityLog) {
	if r == nil {
		return
	}
	if entry.Actor == "" {
		entry.Actor = model.DefaultActor
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		r.logger.Warn("activity recorder closed, entry dropped", "action", entry.Action)
		metrics.RecordActivityDropped()
		return
	}

	select {
	case r.slots <- struct{}{}:
	default:
		r.logger.Warn("activity recorder saturated, entry dropped", "action", entry.Action)
		metrics.RecordActivityDropped()
		return
	}

	r.pending++
	if r.pending == 1 {
		r.idle = make(chan struct{})
	}
	go func() {
		defer r.finish()
		defer func() { <-r.slots }()
		r.write(context.WithoutCancel(ctx), &entry)
	}()
}

func (r *Recorder) finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending--
	if r.pending == 0 {
		close(r.idle)
	}
}

func (r *Recorder) write(ctx context.Context, entry *model.ActivityLog) {
	defer func() {
		if rv := recover(); rv != nil {
			r.fail(entry, fmt.Errorf("panic: %v", rv))
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.store.InsertActivity(ctx, entry); err != nil {
		r.fail(entry, err)
		return
	}
	metrics.RecordActivity(entry.Action)
}

func (r *Recorder) fail(entry *model.ActivityLog, err error) {
	metrics.RecordActivityWriteFailure()
	r.logger.Error("failed to record activity",
		"action", entry.Action,
		"actor", entry.Actor,
		"error", err,
	)
}

// Flush waits until no write is pending or ctx is done. It may be called
// while other goroutines are still recording; entries scheduled before it
// returns are included in the wait.
func (r *Recorder) Flush(ctx context.Context) error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	if r.pending == 0 {
		r.mu.Unlock()
		return nil
	}
	idle := r.idle
	r.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting entries and waits for pending writes.
func (r *Recorder) Close(ctx context.Context) error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return r.Flush(ctx)
}

// Page is one page of the activity log, newest first.
type Page struct {
	Entries []model.ActivityLog
	Total   int64
	Page    int
	Limit   int
}

// Meta returns the pagination envelope for p.
func (p *Page) Meta() *model.PageMeta {
	return model.NewPageMeta(p.Total, p.Page, p.Limit)
}

// List returns page (1-based) of the log. page below 1 is treated as 1 and
// pageSize is clamped to [1, MaxPageSize], zero meaning DefaultPageSize.
func (r *Recorder) List(ctx context.Context, page, pageSize int) (*Page, error) {
	page, pageSize = normalizePage(page, pageSize)

	entries, err := r.store.ListActivities(ctx, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	total, err := r.store.CountActivities(ctx)
	if err != nil {
		return nil, fmt.Errorf("count activity: %w", err)
	}
	if entries == nil {
		entries = []model.ActivityLog{}
	}
	return &Page{Entries: entries, Total: total, Page: page, Limit: pageSize}, nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	switch {
	case pageSize == 0:
		pageSize = DefaultPageSize
	case pageSize < 1:
		pageSize = 1
	case pageSize > MaxPageSize:
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// Purge deletes entries older than olderThanDays days and returns how many
// were removed.
func (r *Recorder) Purge(ctx context.Context, olderThanDays int) (int64, error) {
	if olderThanDays < 1 {
		return 0, ErrInvalidRetention
	}
	cutoff := r.now().UTC().AddDate(0, 0, -olderThanDays)
	n, err := r.store.DeleteActivitiesBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge activity: %w", err)
	}
	r.logger.Info("activity log purged", "older_than_days", olderThanDays, "deleted", n)
	return n, nil
}

// Package client is a Go client for the portal admin API. It keeps the
// session between calls the way the admin dashboard does in the browser.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bemfst/portal/internal/model"
)

const (
	// DefaultExpirySkew is how long before exp a token stops being sent.
	DefaultExpirySkew = 10 * time.Second
	// DefaultWatchInterval is the period of WatchExpiry.
	DefaultWatchInterval = 60 * time.Second

	apiPrefix = "/api/v1"
)

// Client talks to a portal server on behalf of one admin session.
type Client struct {
	baseURL    string
	httpClient *http.Client
	sessions   SessionStore
	now        func() time.Time
	skew       time.Duration
	onExpire   func()
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithClock replaces time.Now for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithExpiryHook is called after WatchExpiry clears an expired session.
func WithExpiryHook(fn func()) Option {
	return func(c *Client) { c.onExpire = fn }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client for the server at baseURL. A nil store keeps the
// session in memory.
func New(baseURL string, sessions SessionStore, opts ...Option) *Client {
	if sessions == nil {
		sessions = NewMemoryStore()
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		sessions:   sessions,
		now:        time.Now,
		skew:       DefaultExpirySkew,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the stored session if its token is still usable. An
// expired or unreadable token, or a corrupt session file, is cleared and
// reported as ErrNotAuthenticated.
func (c *Client) Session() (*Session, error) {
	s, err := c.sessions.Load()
	if errors.Is(err, ErrCorruptSession) {
		c.clear("corrupt")
		return nil, ErrNotAuthenticated
	}
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, ErrNotAuthenticated
	}
	if !usable(s.Token, c.now(), c.skew) {
		c.clear("expired")
		return nil, ErrNotAuthenticated
	}
	return s, nil
}

// Login exchanges credentials for a token and stores the session.
func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	body, err := json.Marshal(map[string]string{"username": username, "password": password})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("/auth/login", nil), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var data struct {
		AccessToken string          `json:"access_token"`
		User        model.Principal `json:"user"`
	}
	if err := decode(resp, &data, nil); err != nil {
		return nil, err
	}
	if data.AccessToken == "" {
		return nil, errors.New("portal: login response has no token")
	}
	if data.User.Username == "" {
		data.User = model.Principal{Username: username, Role: model.RoleAdmin}
	}

	s := &Session{Token: data.AccessToken, User: data.User}
	if err := c.sessions.Save(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Do sends req with the session token. It refuses locally when the token is
// expired, and clears the session when the server answers 401.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	s, err := c.Session()
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.Token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		c.clear("rejected")
		return nil, fmt.Errorf("%w: server rejected the session", ErrNotAuthenticated)
	}
	return resp, nil
}

// Logout revokes the token on the server and always clears the local
// session. A session that is already unusable is just cleared.
func (c *Client) Logout(ctx context.Context) error {
	var err error
	if _, serr := c.Session(); serr == nil {
		err = c.call(ctx, http.MethodPost, "/auth/logout", nil, nil, nil)
	}
	if cerr := c.sessions.Clear(); cerr != nil && err == nil {
		err = cerr
	}
	if errors.Is(err, ErrNotAuthenticated) {
		return nil
	}
	return err
}

// Me is the identity and expiry the server sees for the session.
type Me struct {
	model.Principal
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func (c *Client) Me(ctx context.Context) (*Me, error) {
	var me Me
	if err := c.call(ctx, http.MethodGet, "/auth/me", nil, &me, nil); err != nil {
		return nil, err
	}
	return &me, nil
}

// ActivityPage is one page of the activity log.
type ActivityPage struct {
	Entries []model.ActivityLog
	Meta    model.PageMeta
}

// ListActivity fetches one page of the activity log. Zero values let the
// server pick its defaults.
func (c *Client) ListActivity(ctx context.Context, page, limit int) (*ActivityPage, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out ActivityPage
	if err := c.call(ctx, http.MethodGet, "/activity-logs", q, &out.Entries, &out.Meta); err != nil {
		return nil, err
	}
	return &out, nil
}

// PurgeActivity deletes entries older than days and returns how many were
// removed. days <= 0 uses the server's retention default.
func (c *Client) PurgeActivity(ctx context.Context, days int) (int64, error) {
	q := url.Values{}
	if days > 0 {
		q.Set("days", strconv.Itoa(days))
	}
	var out struct {
		Deleted int64 `json:"deleted"`
	}
	if err := c.call(ctx, http.MethodDelete, "/activity-logs/clear-old", q, &out, nil); err != nil {
		return 0, err
	}
	return out.Deleted, nil
}

// WatchExpiry checks the stored token every interval and clears it once it
// expires. The returned stop function must be called, or ctx cancelled, to
// release the ticker; it is safe to call more than once.
func (c *Client) WatchExpiry(ctx context.Context, interval time.Duration) (stop func()) {
	if interval <= 0 {
		interval = DefaultWatchInterval
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.checkExpiry()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
}

func (c *Client) checkExpiry() {
	s, err := c.sessions.Load()
	if err != nil || s == nil {
		return
	}
	if usable(s.Token, c.now(), c.skew) {
		return
	}
	c.clear("expired")
	if c.onExpire != nil {
		c.onExpire()
	}
}

func (c *Client) clear(reason string) {
	if err := c.sessions.Clear(); err != nil {
		c.logger.Warn("clear session", "reason", reason, "error", err)
		return
	}
	c.logger.Debug("session cleared", "reason", reason)
}

// call sends an authenticated JSON request and decodes data and meta from
// the success envelope.
func (c *Client) call(ctx context.Context, method, path string, q url.Values, data, meta any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.url(path, q), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decode(resp, data, meta)
}

func (c *Client) url(path string, q url.Values) string {
	u := c.baseURL + apiPrefix + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

// decode reads the envelope, turning non-2xx responses into *APIError.
func decode(resp *http.Response, data, meta any) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e model.ErrorResponse
		if json.Unmarshal(body, &e) == nil && e.Error.Message != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: e.Error.Message}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	var env struct {
		Data json.RawMessage `json:"data"`
		Meta json.RawMessage `json:"meta"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if data != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, data); err != nil {
			return fmt.Errorf("failed to decode data: %w", err)
		}
	}
	if meta != nil && len(env.Meta) > 0 {
		if err := json.Unmarshal(env.Meta, meta); err != nil {
			return fmt.Errorf("failed to decode meta: %w", err)
		}
	}
	return nil
}

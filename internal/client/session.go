package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bemfst/portal/internal/model"
)

// Storage keys of a persisted session.
const (
	KeyToken = "auth_token"
	KeyUser  = "auth_user"
)

// ErrCorruptSession is returned by FileStore.Load when the session file
// cannot be decoded. The file is removed before returning.
var ErrCorruptSession = errors.New("corrupt session file")

// Session is the token and identity kept between commands.
type Session struct {
	Token string          `json:"auth_token"`
	User  model.Principal `json:"auth_user"`
}

// SessionStore persists at most one session.
type SessionStore interface {
	// Load returns the stored session, or nil when there is none.
	Load() (*Session, error)
	Save(s *Session) error
	Clear() error
}

// MemoryStore keeps the session in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	session *Session
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) Load() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil, nil
	}
	s := *m.session
	return &s, nil
}

func (m *MemoryStore) Save(s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.session = &cp
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
	return nil
}

// FileStore keeps the session in a JSON file readable only by its owner.
// A file missing either key counts as no session. An undecodable file is
// deleted and reported as ErrCorruptSession.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Path() string { return f.path }

func (f *FileStore) Load() (*Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}

	s, err := decodeSession(data)
	if err != nil {
		if rerr := os.Remove(f.path); rerr != nil && !errors.Is(rerr, os.ErrNotExist) {
			return nil, fmt.Errorf("clear corrupt session: %w", rerr)
		}
		return nil, fmt.Errorf("%w: %v", ErrCorruptSession, err)
	}
	return s, nil
}

// decodeSession parses a session file. A nil session means one of the keys
// is missing or the token is empty.
func decodeSession(data []byte) (*Session, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	tokRaw, okTok := raw[KeyToken]
	userRaw, okUser := raw[KeyUser]
	if !okTok || !okUser {
		return nil, nil
	}

	var s Session
	if err := json.Unmarshal(tokRaw, &s.Token); err != nil {
		return nil, fmt.Errorf("decode %s: %w", KeyToken, err)
	}
	if err := json.Unmarshal(userRaw, &s.User); err != nil {
		return nil, fmt.Errorf("decode %s: %w", KeyUser, err)
	}
	if s.Token == "" {
		return nil, nil
	}
	return &s, nil
}

func (f *FileStore) Save(s *Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".session-*")
	if err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("write session: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("write session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return os.Rename(tmp.Name(), f.path)
}

func (f *FileStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

package storage

import (
	"sync"

	"github.com/google/uuid"
)

// Session scopes keys to one session inside a parent adapter. Keys are
// namespaced with a random session id, so several sessions can share a parent,
// and End wipes only this session's keys.
type Session struct {
	parent Adapter
	prefix string

	mu   sync.Mutex
	keys map[string]struct{}
}

var _ Adapter = (*Session)(nil)

// NewSession scopes a new session inside parent. A nil parent gets a fresh Memory.
func NewSession(parent Adapter) *Session {
	if parent == nil {
		parent = NewMemory()
	}
	return &Session{
		parent: parent,
		prefix: "session:" + uuid.New().String() + ":",
		keys:   make(map[string]struct{}),
	}
}

// ID returns the namespace this session writes under.
func (s *Session) ID() string {
	return s.prefix
}

func (s *Session) Get(key string) (string, error) {
	return s.parent.Get(s.prefix + key)
}

func (s *Session) Set(key, value string) error {
	if err := s.parent.Set(s.prefix+key, value); err != nil {
		return err
	}
	s.mu.Lock()
	s.keys[key] = struct{}{}
	s.mu.Unlock()
	return nil
}

func (s *Session) Remove(key string) error {
	if err := s.parent.Remove(s.prefix + key); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.keys, key)
	s.mu.Unlock()
	return nil
}

// Clear removes every key written through this session and leaves the parent's other keys alone.
func (s *Session) Clear() error {
	s.mu.Lock()
	keys := make([]string, 0, len(s.keys))
	for k := range s.keys {
		keys = append(keys, k)
	}
	s.mu.Unlock()

	for _, k := range keys {
		if err := s.Remove(k); err != nil {
			return err
		}
	}
	return nil
}

// End closes the session, discarding its keys.
func (s *Session) End() error {
	return s.Clear()
}

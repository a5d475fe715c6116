// Package storage holds the adapters that persist the refresh token.
//
// Every adapter exposes the same four capabilities. Adapters are safe for
// concurrent use.
package storage

import (
	"sync"

	autherrors "github.com/jrsteele09/go-auth-client/internal/errors"
)

// ErrNotFound is returned by Get when the key is absent.
var ErrNotFound = autherrors.ErrNotFound

// Adapter is a string key/value store.
type Adapter interface {
	// Get returns the value for key, or ErrNotFound.
	Get(key string) (string, error)
	// Set stores value under key, replacing any previous value.
	Set(key, value string) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(key string) error
	// Clear deletes every key the adapter owns.
	Clear() error
}

// Switchable is an Adapter that forwards to a replaceable target. Holders of a
// Switchable observe a Swap on their next call.
type Switchable struct {
	mu     sync.RWMutex
	target Adapter
}

var _ Adapter = (*Switchable)(nil)

func NewSwitchable(target Adapter) *Switchable {
	return &Switchable{target: target}
}

// Swap replaces the target and returns the previous one.
func (s *Switchable) Swap(target Adapter) Adapter {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.target
	s.target = target
	return prev
}

func (s *Switchable) current() Adapter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.target
}

func (s *Switchable) Get(key string) (string, error) { return s.current().Get(key) }

func (s *Switchable) Set(key, value string) error { return s.current().Set(key, value) }

func (s *Switchable) Remove(key string) error { return s.current().Remove(key) }

func (s *Switchable) Clear() error { return s.current().Clear() }

// Package credentials holds the access and refresh tokens of the current
// session. The access token lives in process memory only; the refresh token is
// delegated to a storage.Adapter so it can outlive the process when the adapter
// is persistent.
package credentials

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	autherrors "github.com/jrsteele09/go-auth-client/internal/errors"
	"github.com/jrsteele09/go-auth-client/storage"
	"github.com/jrsteele09/go-auth-client/token"
)

// RefreshTokenKey is the adapter key the refresh token is stored under.
const RefreshTokenKey = "refresh_token"

// Store owns the credential pair.
type Store struct {
	mu          sync.RWMutex
	accessToken string
	adapter     storage.Adapter
	logger      zerolog.Logger
}

type Option func(*Store)

// WithLogger sets the logger used for adapter errors that are not surfaced.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a Store over adapter. Pass a *storage.Switchable to be able to
// change the backing storage while the Store is in use.
func New(adapter storage.Adapter, opts ...Option) *Store {
	s := &Store{
		adapter: adapter,
		logger:  log.Logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AccessToken returns the in-memory access token, or "" when absent.
func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// SetAccessToken replaces the in-memory access token. "" clears it.
func (s *Store) SetAccessToken(raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = raw
}

// RefreshToken returns the stored refresh token, or "" when absent or when the
// adapter cannot be read.
func (s *Store) RefreshToken() string {
	v, err := s.adapter.Get(RefreshTokenKey)
	if err != nil {
		if !autherrors.Is(err, storage.ErrNotFound) {
			s.logger.Warn().Err(err).Msg("reading refresh token")
		}
		return ""
	}
	return v
}

// SetRefreshToken persists raw through the adapter. "" removes the key.
func (s *Store) SetRefreshToken(raw string) error {
	if raw == "" {
		return s.adapter.Remove(RefreshTokenKey)
	}
	return autherrors.Wrapf(s.adapter.Set(RefreshTokenKey, raw), "storing refresh token")
}

// ClearAll drops the access token and removes the refresh token. Calling it
// on an empty store is a no-op.
func (s *Store) ClearAll() error {
	s.SetAccessToken("")
	if err := s.adapter.Remove(RefreshTokenKey); err != nil {
		s.logger.Err(err).Msg("removing refresh token")
		return autherrors.Wrapf(err, "removing refresh token")
	}
	return nil
}

// Token returns the pair as an oauth2 token. The expiry is read from the
// access token's exp claim; it is zero when the claim is missing.
func (s *Store) Token() *oauth2.Token {
	access := s.AccessToken()
	return &oauth2.Token{
		AccessToken:  access,
		TokenType:    "Bearer",
		RefreshToken: s.RefreshToken(),
		Expiry:       token.Expiry(access),
	}
}

// TokenSource returns an oauth2.TokenSource reading the current pair. It does
// not renew; renewal is owned by the API client's transport.
func (s *Store) TokenSource() oauth2.TokenSource {
	return tokenSource{store: s}
}

type tokenSource struct {
	store *Store
}

func (ts tokenSource) Token() (*oauth2.Token, error) {
	t := ts.store.Token()
	if t.AccessToken == "" {
		return nil, autherrors.ErrInvalidToken
	}
	return t, nil
}

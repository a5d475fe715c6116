package refresh

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/jrsteele09/go-auth-client/internal/config"
	autherrors "github.com/jrsteele09/go-auth-client/internal/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Manager handles refresh token creation, validation, and rotation
type Manager struct {
	repo   Repo
	config config.ServerConfig
}

// NewManager creates a new refresh token manager
func NewManager(repo Repo, cfg config.ServerConfig) *Manager {
	return &Manager{
		repo:   repo,
		config: cfg,
	}
}

// Create generates a new refresh token for userID and stores it.
// A user may hold several refresh tokens (one per signed-in client).
func (m *Manager) Create(userID string) (string, error) {
	tokenBytes := make([]byte, m.config.GetRefreshTokenLength())
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	tokenStr := hex.EncodeToString(tokenBytes)
	if err := m.repo.Upsert(&StoredRefreshToken{
		Token:  tokenStr,
		UserID: userID,
		Iat:    NowTimeFunc(),
	}); err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return tokenStr, nil
}

// Validate returns the stored token if it exists, has not been rotated and has not expired.
// Presenting a rotated token revokes every token of its owner.
func (m *Manager) Validate(token string) (*StoredRefreshToken, error) {
	rt, err := m.repo.Get(token)
	if err != nil || rt == nil {
		return nil, autherrors.ErrInvalidRefreshToken
	}
	if rt.RotatedTo != "" {
		if err := m.repo.DeleteByUserID(rt.UserID); err != nil {
			return nil, fmt.Errorf("failed to revoke reused refresh token family: %w", err)
		}
		return nil, autherrors.ErrInvalidRefreshToken
	}
	if m.IsExpired(rt) {
		_ = m.repo.Delete(token)
		return nil, autherrors.ErrRefreshTokenExpired
	}
	return rt, nil
}

// Rotate validates token, issues a replacement for the same user and marks the old one rotated.
func (m *Manager) Rotate(token string) (*StoredRefreshToken, error) {
	rt, err := m.Validate(token)
	if err != nil {
		return nil, err
	}

	next, err := m.Create(rt.UserID)
	if err != nil {
		return nil, err
	}

	rt.RotatedTo = next
	if err := m.repo.Upsert(rt); err != nil {
		return nil, fmt.Errorf("failed to mark refresh token rotated: %w", err)
	}

	return m.repo.Get(next)
}

// Delete removes a refresh token from storage
func (m *Manager) Delete(token string) error {
	return m.repo.Delete(token)
}

// RevokeUser removes every refresh token issued to userID
func (m *Manager) RevokeUser(userID string) error {
	return m.repo.DeleteByUserID(userID)
}

// IsExpired checks if a refresh token has outlived the configured expiry
func (m *Manager) IsExpired(rt *StoredRefreshToken) bool {
	return NowTimeFunc().Sub(rt.Iat) > m.config.GetRefreshTokenExpiry()
}

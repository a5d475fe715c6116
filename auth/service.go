// Package auth implements the credential exchanges served by the mock
// authentication backend: password login and registration, refresh token
// rotation, logout, and password reset.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/jrsteele09/go-auth-client/internal/config"
	autherrors "github.com/jrsteele09/go-auth-client/internal/errors"
	"github.com/jrsteele09/go-auth-client/token"
	"github.com/jrsteele09/go-auth-client/token/jwt"
	"github.com/jrsteele09/go-auth-client/token/refresh"
	"github.com/jrsteele09/go-auth-client/users"
)

const (
	resetTokenLength = 32
	// ProviderPassword marks accounts that sign in with a password.
	ProviderPassword = "password"
	// ProviderGoogle marks accounts registered through Google sign-up.
	ProviderGoogle = "google"
)

// Repos holds all repository dependencies for the Service
type Repos struct {
	Users         users.Repo     // Registered accounts
	RefreshTokens refresh.Repo   // Issued refresh tokens
	ResetTokens   ResetTokenRepo // Outstanding password reset grants
}

// TokenPair is the result of a successful login, registration or refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	User         *users.User
}

// Service issues and revokes credentials.
type Service struct {
	repos   Repos
	config  config.ServerConfig
	refresh *refresh.Manager
	creator *jwt.Creator
	signer  token.Signer
	revoked token.RevokedTokenCache
	nowTime func() time.Time
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// WithRevokedTokenCache replaces the in-memory revocation cache
func WithRevokedTokenCache(cache token.RevokedTokenCache) ServiceOption {
	return func(s *Service) {
		s.revoked = cache
	}
}

// NewService creates a Service signing access tokens with the configured HMAC secret.
func NewService(repos Repos, cfg config.ServerConfig, issuer string, options ...ServiceOption) (*Service, error) {
	if repos.Users == nil {
		return nil, errors.New("[NewService] Users repo is required")
	}
	if repos.RefreshTokens == nil {
		return nil, errors.New("[NewService] RefreshTokens repo is required")
	}
	if repos.ResetTokens == nil {
		return nil, errors.New("[NewService] ResetTokens repo is required")
	}
	if cfg.GetJWTSecret() == "" {
		return nil, errors.New("[NewService] jwt secret is required")
	}

	s := &Service{
		repos:   repos,
		config:  cfg,
		refresh: refresh.NewManager(repos.RefreshTokens, cfg),
		creator: jwt.NewCreator(cfg, issuer),
		signer:  token.NewHMACSigner(cfg.GetJWTSecret()),
		revoked: token.NewInMemoryRevokedTokenCache(),
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Login checks email and password and issues a token pair.
func (s *Service) Login(email, password string) (*TokenPair, error) {
	user, err := s.repos.Users.GetByEmail(email)
	if err != nil || !user.CheckPassword(password) {
		return nil, autherrors.ErrInvalidCredentials
	}

	user.LastLogin = s.nowTime()
	if err := s.repos.Users.Upsert(user); err != nil {
		return nil, errors.Wrap(err, "[Login] failed to update user")
	}
	return s.issue(user)
}

// Register creates an account and signs it in. An empty password registers a
// Google account, which can never sign in with a password.
func (s *Service) Register(email, password, name string) (*TokenPair, error) {
	email = strings.TrimSpace(email)
	if email == "" || strings.TrimSpace(name) == "" {
		return nil, autherrors.Wrapf(autherrors.ErrMissingArgument, "email and name are required")
	}
	if _, err := s.repos.Users.GetByEmail(email); err == nil {
		return nil, autherrors.ErrUserExists
	}

	user := &users.User{
		Email:      email,
		Name:       strings.TrimSpace(name),
		Role:       users.RoleViewer,
		Provider:   ProviderGoogle,
		DateJoined: s.nowTime(),
		LastLogin:  s.nowTime(),
	}
	if password != "" {
		if err := users.ValidatePasswordStrength(password); err != nil {
			return nil, autherrors.Wrapf(autherrors.ErrInvalidRequest, "%s", err.Error())
		}
		hash, err := users.HashPassword(password)
		if err != nil {
			return nil, errors.Wrap(err, "[Register] failed to hash password")
		}
		user.PasswordHash = hash
		user.Provider = ProviderPassword
	}

	if err := s.repos.Users.Upsert(user); err != nil {
		return nil, errors.Wrap(err, "[Register] failed to store user")
	}
	return s.issue(user)
}

// SeedUser creates or replaces an account with a known password.
func (s *Service) SeedUser(email, name, password string, role users.RoleType) (*users.User, error) {
	hash, err := users.HashPassword(password)
	if err != nil {
		return nil, errors.Wrap(err, "[SeedUser] failed to hash password")
	}
	user := &users.User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         role,
		Provider:     ProviderPassword,
		DateJoined:   s.nowTime(),
	}
	if existing, err := s.repos.Users.GetByEmail(email); err == nil {
		user.ID = existing.ID
		user.DateJoined = existing.DateJoined
	}
	if err := s.repos.Users.Upsert(user); err != nil {
		return nil, errors.Wrap(err, "[SeedUser] failed to store user")
	}
	return user, nil
}

// Refresh rotates refreshToken and issues a new access token. The presented
// token stops working; presenting it again revokes every session of its owner.
func (s *Service) Refresh(refreshToken string) (*TokenPair, error) {
	next, err := s.refresh.Rotate(refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.repos.Users.GetByID(next.UserID)
	if err != nil {
		_ = s.refresh.Delete(next.Token)
		return nil, autherrors.ErrInvalidRefreshToken
	}

	accessToken, err := s.creator.CreateAccessToken(user, s.signer)
	if err != nil {
		return nil, errors.Wrap(err, "[Refresh] failed to create access token")
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: next.Token, User: user}, nil
}

// Logout deletes refreshToken and, when accessToken verifies, revokes it
// until it expires. Unknown tokens are ignored.
func (s *Service) Logout(refreshToken, accessToken string) error {
	if refreshToken != "" {
		if err := s.refresh.Delete(refreshToken); err != nil && !autherrors.Is(err, autherrors.ErrNotFound) {
			return errors.Wrap(err, "[Logout] failed to delete refresh token")
		}
	}
	if accessToken == "" {
		return nil
	}

	claims, err := token.Verify(accessToken, s.signer)
	if err != nil {
		return nil
	}
	jti, _ := claims["jti"].(string)
	exp, err := claims.GetExpirationTime()
	if jti != "" && err == nil && exp != nil {
		s.revoked.Add(jti, exp.Time)
	}
	return nil
}

// ForgotPassword creates a reset grant for email. It returns "" without an
// error when no such account exists.
func (s *Service) ForgotPassword(email string) (string, error) {
	user, err := s.repos.Users.GetByEmail(email)
	if err != nil {
		return "", nil
	}

	b := make([]byte, resetTokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, "[ForgotPassword] failed to generate reset token")
	}
	resetToken := &ResetToken{
		Token:     hex.EncodeToString(b),
		UserID:    user.ID,
		ExpiresAt: s.nowTime().Add(s.config.GetResetTokenExpiry()),
	}
	if err := s.repos.ResetTokens.Upsert(resetToken); err != nil {
		return "", errors.Wrap(err, "[ForgotPassword] failed to store reset token")
	}
	return resetToken.Token, nil
}

// ResetPassword consumes resetToken, sets the new password and ends every
// session of the account.
func (s *Service) ResetPassword(resetToken, newPassword string) error {
	grant, err := s.repos.ResetTokens.Get(resetToken)
	if err != nil {
		return autherrors.ErrInvalidResetToken
	}
	if grant.ExpiresAt.Before(s.nowTime()) {
		_ = s.repos.ResetTokens.Delete(resetToken)
		return autherrors.ErrInvalidResetToken
	}
	if err := users.ValidatePasswordStrength(newPassword); err != nil {
		return autherrors.Wrapf(autherrors.ErrInvalidRequest, "%s", err.Error())
	}

	user, err := s.repos.Users.GetByID(grant.UserID)
	if err != nil {
		return autherrors.ErrInvalidResetToken
	}
	hash, err := users.HashPassword(newPassword)
	if err != nil {
		return errors.Wrap(err, "[ResetPassword] failed to hash password")
	}
	user.PasswordHash = hash
	user.Provider = ProviderPassword
	if err := s.repos.Users.Upsert(user); err != nil {
		return errors.Wrap(err, "[ResetPassword] failed to store user")
	}

	_ = s.repos.ResetTokens.Delete(resetToken)
	if err := s.refresh.RevokeUser(user.ID); err != nil {
		return errors.Wrap(err, "[ResetPassword] failed to revoke refresh tokens")
	}
	return nil
}

// UserInfo returns the account an access token was issued to.
func (s *Service) UserInfo(accessToken string) (*users.User, error) {
	claims, err := token.Verify(accessToken, s.signer)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			return nil, autherrors.ErrTokenExpired
		}
		return nil, autherrors.ErrInvalidToken
	}
	if jti, _ := claims["jti"].(string); jti != "" && s.revoked.IsRevoked(jti) {
		return nil, autherrors.ErrInvalidToken
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, autherrors.ErrInvalidToken
	}
	return s.repos.Users.GetByID(sub)
}

// Cleanup drops expired reset grants and revocation entries.
func (s *Service) Cleanup() int {
	removed, _ := s.repos.ResetTokens.DeleteExpired(s.nowTime())
	return removed + s.revoked.Cleanup()
}

func (s *Service) issue(user *users.User) (*TokenPair, error) {
	accessToken, err := s.creator.CreateAccessToken(user, s.signer)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create access token")
	}
	refreshToken, err := s.refresh.Create(user.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create refresh token")
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken, User: user}, nil
}

package jwt

import (
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-auth-client/internal/config"
	"github.com/jrsteele09/go-auth-client/token"
	"github.com/jrsteele09/go-auth-client/users"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Creator handles access token creation for the mock backend
type Creator struct {
	config config.ServerConfig
	issuer string
}

// NewCreator creates a new JWT creator
func NewCreator(cfg config.ServerConfig, issuer string) *Creator {
	return &Creator{
		config: cfg,
		issuer: issuer,
	}
}

// CreateAccessToken creates a short-lived access token carrying the user's identity claims
func (c *Creator) CreateAccessToken(user *users.User, signer token.Signer) (string, error) {
	now := NowTimeFunc()
	claims := jwtlib.MapClaims{
		"iss":   c.issuer,   // The issuer of the token
		"sub":   user.ID,    // The user the token was issued to
		"email": user.Email, // Identity claims read by clients for display
		"name":  user.Name,
		"role":  string(user.Role),                               // Dashboard role
		"iat":   now.Unix(),                                      // Issued At: the time at which the token was issued
		"exp":   now.Add(c.config.GetAccessTokenExpiry()).Unix(), // Expiry: when the token will expire
		"jti":   uuid.New().String(),                             // Unique token ID for revocation
	}

	signedToken, err := signer.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT token: %w", err)
	}
	return signedToken, nil
}

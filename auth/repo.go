package auth

import "time"

// ResetToken is a single-use password reset grant.
type ResetToken struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}

// ResetTokenRepo stores outstanding password reset grants keyed by token.
type ResetTokenRepo interface {
	Upsert(resetToken *ResetToken) error
	Delete(token string) error
	Get(token string) (*ResetToken, error)
	// DeleteExpired removes grants that expired before now and returns how many were removed
	DeleteExpired(now time.Time) (int, error)
}

package models

import "time"

// User represents an account in the system
type User struct {
	ID             int64
	Email          string
	PasswordHash   string
	Name           string
	ProfilePicture string
	IsVerified     bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// OTP challenge purposes
const (
	PurposeSignup = "signup"
	PurposeReset  = "reset"
)

// OtpChallenge represents a pending one-time passcode for a (user, purpose)
// pair. A nil *OtpChallenge means no challenge exists, so code and expiry
// are always present together.
type OtpChallenge struct {
	UserID    int64
	Purpose   string
	Code      string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Consumed  bool
}

// IsExpired checks if the challenge has expired at the given instant
func (c *OtpChallenge) IsExpired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// ResetGrant represents a single-use token proving that a password-reset
// OTP was verified. Required to authorize the actual password change.
type ResetGrant struct {
	Token     string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
	Used      bool
}

// IsExpired checks if the grant has expired at the given instant
func (g *ResetGrant) IsExpired(now time.Time) bool {
	return now.After(g.ExpiresAt)
}

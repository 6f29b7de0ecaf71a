package service

import (
	"errors"
	"fmt"
)

var (
	ErrOtpNotFound        = errors.New("no pending verification code")
	ErrOtpExpired         = errors.New("verification code expired")
	ErrOtpMismatch        = errors.New("incorrect verification code")
	ErrAlreadyExists      = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrGrantInvalid       = errors.New("invalid or expired reset token")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrDeliveryFailed     = errors.New("failed to deliver email")
	ErrUserNotFound       = errors.New("user not found")
	ErrTaskNotFound       = errors.New("task not found")
)

// CooldownError reports that a resend was requested before the cooldown
// window elapsed, and how long the caller has to wait.
type CooldownError struct {
	SecondsRemaining int
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("please wait %d seconds before requesting another code", e.SecondsRemaining)
}

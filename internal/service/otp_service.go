package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"taskminder/internal/models"
	"taskminder/internal/security"
)

// OtpService generates, validates and invalidates one-time passcodes.
// At most one unconsumed challenge exists per (user, purpose): issuing a new
// one overwrites the prior, subject to the resend cooldown.
type OtpService struct {
	otps      OtpStore
	deliverer Deliverer
	ttl       time.Duration
	cooldown  time.Duration
	now       func() time.Time
}

// NewOtpService creates a new OTP engine with the given code lifetime and
// resend cooldown
func NewOtpService(otps OtpStore, deliverer Deliverer, ttl, cooldown time.Duration) *OtpService {
	return &OtpService{
		otps:      otps,
		deliverer: deliverer,
		ttl:       ttl,
		cooldown:  cooldown,
		now:       time.Now,
	}
}

// Issue generates a fresh 6-digit code for (user, purpose), stores it and
// delivers it to the user's registered address. A prior unconsumed challenge
// is overwritten. Inside the cooldown window the call fails with
// *CooldownError; if delivery fails, the stored state is rolled back so no
// undeliverable code dangles, and the call fails with ErrDeliveryFailed.
func (s *OtpService) Issue(ctx context.Context, user *models.User, purpose string) (*models.OtpChallenge, error) {
	now := s.now()

	prior, err := s.otps.Get(user.ID, purpose)
	if err != nil {
		return nil, err
	}

	code, err := security.GenerateOtpCode()
	if err != nil {
		return nil, err
	}

	ch := &models.OtpChallenge{
		UserID:    user.ID,
		Purpose:   purpose,
		Code:      code,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}

	// The cooldown check and the write are one compare-and-set against the
	// stored issued_at, so concurrent issues cannot both pass.
	written, err := s.otps.Replace(ch, now.Add(-s.cooldown))
	if err != nil {
		return nil, err
	}
	if !written {
		remaining := s.cooldown
		if prior != nil {
			remaining = prior.IssuedAt.Add(s.cooldown).Sub(now)
		}
		seconds := int(remaining.Round(time.Second) / time.Second)
		if seconds < 1 {
			seconds = 1
		}
		return nil, &CooldownError{SecondsRemaining: seconds}
	}

	if err := s.deliverer.SendOtpEmail(ctx, user.Email, user.Name, code, purpose, ch.ExpiresAt); err != nil {
		// Restore the prior state: an issued-and-lost code would lock the
		// user out until expiry
		if prior != nil {
			_ = s.otps.Put(prior)
		} else {
			_ = s.otps.Delete(user.ID, purpose)
		}
		return nil, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	return ch, nil
}

// Verify checks a candidate code against the stored challenge and consumes
// it on success. A consumed challenge never verifies again; an expired one
// is cleared as a side effect; a mismatch leaves the expiry untouched.
func (s *OtpService) Verify(userID int64, purpose, candidate string) error {
	ch, err := s.otps.Get(userID, purpose)
	if err != nil {
		return err
	}
	if ch == nil || ch.Consumed {
		return ErrOtpNotFound
	}
	if ch.IsExpired(s.now()) {
		_ = s.otps.Delete(userID, purpose)
		return ErrOtpExpired
	}
	if subtle.ConstantTimeCompare([]byte(ch.Code), []byte(candidate)) != 1 {
		return ErrOtpMismatch
	}

	consumed, err := s.otps.MarkConsumed(userID, purpose, candidate)
	if err != nil {
		return err
	}
	if !consumed {
		// Another verify got there first
		return ErrOtpNotFound
	}
	return nil
}

// Status reports whether an unconsumed, unexpired challenge exists and when
// it expires, without exposing the code
func (s *OtpService) Status(userID int64, purpose string) (bool, time.Time, error) {
	ch, err := s.otps.Get(userID, purpose)
	if err != nil {
		return false, time.Time{}, err
	}
	if ch == nil || ch.Consumed || ch.IsExpired(s.now()) {
		return false, time.Time{}, nil
	}
	return true, ch.ExpiresAt, nil
}

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"taskminder/internal/models"
)

func newTestOtpService(store *fakeOtpStore, deliverer *fakeDeliverer) *OtpService {
	return NewOtpService(store, deliverer, 10*time.Minute, 120*time.Second)
}

func testUser() *models.User {
	return &models.User{ID: 1, Email: "alice@example.com", Name: "Alice"}
}

func TestIssueDeliversCode(t *testing.T) {
	store := newFakeOtpStore()
	deliverer := &fakeDeliverer{}
	svc := newTestOtpService(store, deliverer)

	ch, err := svc.Issue(context.Background(), testUser(), models.PurposeSignup)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if len(ch.Code) != 6 {
		t.Errorf("Expected 6-digit code, got %q", ch.Code)
	}
	if deliverer.lastOtpCode() != ch.Code {
		t.Errorf("Delivered code %q does not match stored code %q", deliverer.lastOtpCode(), ch.Code)
	}
	if want := ch.IssuedAt.Add(10 * time.Minute); !ch.ExpiresAt.Equal(want) {
		t.Errorf("Expected expiry %v, got %v", want, ch.ExpiresAt)
	}
}

func TestIssueCooldown(t *testing.T) {
	store := newFakeOtpStore()
	deliverer := &fakeDeliverer{}
	svc := newTestOtpService(store, deliverer)
	user := testUser()

	if _, err := svc.Issue(context.Background(), user, models.PurposeSignup); err != nil {
		t.Fatalf("First issue failed: %v", err)
	}

	// Immediate re-issue is inside the cooldown window
	_, err := svc.Issue(context.Background(), user, models.PurposeSignup)
	var cooldown *CooldownError
	if !errors.As(err, &cooldown) {
		t.Fatalf("Expected CooldownError, got %v", err)
	}
	if cooldown.SecondsRemaining < 1 || cooldown.SecondsRemaining > 120 {
		t.Errorf("Unexpected secondsRemaining: %d", cooldown.SecondsRemaining)
	}
}

func TestIssueAfterCooldownOverwrites(t *testing.T) {
	store := newFakeOtpStore()
	deliverer := &fakeDeliverer{}
	svc := newTestOtpService(store, deliverer)
	user := testUser()

	base := time.Now()
	svc.now = func() time.Time { return base }
	first, err := svc.Issue(context.Background(), user, models.PurposeSignup)
	if err != nil {
		t.Fatalf("First issue failed: %v", err)
	}

	// Advance past the cooldown window
	svc.now = func() time.Time { return base.Add(121 * time.Second) }
	second, err := svc.Issue(context.Background(), user, models.PurposeSignup)
	if err != nil {
		t.Fatalf("Second issue failed: %v", err)
	}

	// The old code no longer verifies; only the latest challenge is live
	if err := svc.Verify(user.ID, models.PurposeSignup, first.Code); first.Code != second.Code && err == nil {
		t.Error("Expected stale code to be rejected after re-issue")
	}
	if err := svc.Verify(user.ID, models.PurposeSignup, second.Code); err != nil {
		t.Errorf("Latest code should verify, got %v", err)
	}
}

func TestIssueDeliveryFailureRollsBack(t *testing.T) {
	store := newFakeOtpStore()
	deliverer := &fakeDeliverer{failSends: true}
	svc := newTestOtpService(store, deliverer)
	user := testUser()

	_, err := svc.Issue(context.Background(), user, models.PurposeSignup)
	if !errors.Is(err, ErrDeliveryFailed) {
		t.Fatalf("Expected ErrDeliveryFailed, got %v", err)
	}

	// No challenge should dangle after the rollback
	ch, err := store.Get(user.ID, models.PurposeSignup)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ch != nil {
		t.Error("Expected no stored challenge after delivery failure")
	}
}

func TestIssueDeliveryFailureRestoresPrior(t *testing.T) {
	store := newFakeOtpStore()
	deliverer := &fakeDeliverer{}
	svc := newTestOtpService(store, deliverer)
	user := testUser()

	base := time.Now()
	svc.now = func() time.Time { return base }
	first, err := svc.Issue(context.Background(), user, models.PurposeSignup)
	if err != nil {
		t.Fatalf("First issue failed: %v", err)
	}

	// Second issue past the cooldown, but delivery fails
	deliverer.failSends = true
	svc.now = func() time.Time { return base.Add(121 * time.Second) }
	if _, err := svc.Issue(context.Background(), user, models.PurposeSignup); !errors.Is(err, ErrDeliveryFailed) {
		t.Fatalf("Expected ErrDeliveryFailed, got %v", err)
	}

	// The prior challenge is back in place and still verifies
	if err := svc.Verify(user.ID, models.PurposeSignup, first.Code); err != nil {
		t.Errorf("Prior code should still verify after rollback, got %v", err)
	}
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name      string
		candidate func(code string) string
		advance   time.Duration
		wantErr   error
	}{
		{
			name:      "correct code",
			candidate: func(code string) string { return code },
			wantErr:   nil,
		},
		{
			name:      "wrong code",
			candidate: func(code string) string { return "000000" },
			wantErr:   ErrOtpMismatch,
		},
		{
			name:      "expired code",
			candidate: func(code string) string { return code },
			advance:   11 * time.Minute,
			wantErr:   ErrOtpExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeOtpStore()
			deliverer := &fakeDeliverer{}
			svc := newTestOtpService(store, deliverer)
			user := testUser()

			base := time.Now()
			svc.now = func() time.Time { return base }
			ch, err := svc.Issue(context.Background(), user, models.PurposeSignup)
			if err != nil {
				t.Fatalf("Issue failed: %v", err)
			}

			svc.now = func() time.Time { return base.Add(tt.advance) }
			err = svc.Verify(user.ID, models.PurposeSignup, tt.candidate(ch.Code))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestVerifyNoChallenge(t *testing.T) {
	store := newFakeOtpStore()
	svc := newTestOtpService(store, &fakeDeliverer{})

	if err := svc.Verify(1, models.PurposeSignup, "123456"); !errors.Is(err, ErrOtpNotFound) {
		t.Errorf("Expected ErrOtpNotFound, got %v", err)
	}
}

func TestVerifySingleUse(t *testing.T) {
	store := newFakeOtpStore()
	deliverer := &fakeDeliverer{}
	svc := newTestOtpService(store, deliverer)
	user := testUser()

	ch, err := svc.Issue(context.Background(), user, models.PurposeSignup)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if err := svc.Verify(user.ID, models.PurposeSignup, ch.Code); err != nil {
		t.Fatalf("First verify failed: %v", err)
	}
	if err := svc.Verify(user.ID, models.PurposeSignup, ch.Code); !errors.Is(err, ErrOtpNotFound) {
		t.Errorf("Replay should fail with ErrOtpNotFound, got %v", err)
	}
}

func TestVerifyMismatchKeepsChallengeLive(t *testing.T) {
	store := newFakeOtpStore()
	deliverer := &fakeDeliverer{}
	svc := newTestOtpService(store, deliverer)
	user := testUser()

	ch, err := svc.Issue(context.Background(), user, models.PurposeSignup)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if err := svc.Verify(user.ID, models.PurposeSignup, "999999"); !errors.Is(err, ErrOtpMismatch) {
		t.Fatalf("Expected ErrOtpMismatch, got %v", err)
	}
	if err := svc.Verify(user.ID, models.PurposeSignup, ch.Code); err != nil {
		t.Errorf("Correct code should still verify after a mismatch, got %v", err)
	}
}

func TestPurposesAreIndependent(t *testing.T) {
	store := newFakeOtpStore()
	deliverer := &fakeDeliverer{}
	svc := newTestOtpService(store, deliverer)
	user := testUser()

	signup, err := svc.Issue(context.Background(), user, models.PurposeSignup)
	if err != nil {
		t.Fatalf("Signup issue failed: %v", err)
	}
	reset, err := svc.Issue(context.Background(), user, models.PurposeReset)
	if err != nil {
		t.Fatalf("Reset issue failed: %v", err)
	}

	// A code only verifies under its own purpose
	if signup.Code != reset.Code {
		if err := svc.Verify(user.ID, models.PurposeReset, signup.Code); !errors.Is(err, ErrOtpMismatch) {
			t.Errorf("Signup code should not verify for reset, got %v", err)
		}
	}
	if err := svc.Verify(user.ID, models.PurposeSignup, signup.Code); err != nil {
		t.Errorf("Signup verify failed: %v", err)
	}
	if err := svc.Verify(user.ID, models.PurposeReset, reset.Code); err != nil {
		t.Errorf("Reset verify failed: %v", err)
	}
}

func TestStatus(t *testing.T) {
	store := newFakeOtpStore()
	deliverer := &fakeDeliverer{}
	svc := newTestOtpService(store, deliverer)
	user := testUser()

	active, _, err := svc.Status(user.ID, models.PurposeSignup)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if active {
		t.Error("Expected no active challenge before issue")
	}

	ch, err := svc.Issue(context.Background(), user, models.PurposeSignup)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	active, expiresAt, err := svc.Status(user.ID, models.PurposeSignup)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if !active {
		t.Error("Expected active challenge after issue")
	}
	if !expiresAt.Equal(ch.ExpiresAt) {
		t.Errorf("Expected expiry %v, got %v", ch.ExpiresAt, expiresAt)
	}

	// Consumed challenges no longer report active
	if err := svc.Verify(user.ID, models.PurposeSignup, ch.Code); err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	active, _, err = svc.Status(user.ID, models.PurposeSignup)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if active {
		t.Error("Expected no active challenge after consumption")
	}
}

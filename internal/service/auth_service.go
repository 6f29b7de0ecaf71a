package service

import (
	"context"
	"fmt"
	"time"

	"taskminder/internal/models"
	"taskminder/internal/security"
	"taskminder/internal/validation"
)

// AuthService orchestrates the signup, login and password-reset flows by
// sequencing the OTP engine, the token issuer and the credential store.
// Every transition validates its preconditions before mutating anything.
type AuthService struct {
	users    UserStore
	grants   GrantStore
	otp      *OtpService
	tokens   *security.TokenIssuer
	grantTTL time.Duration
	now      func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(users UserStore, grants GrantStore, otp *OtpService, tokens *security.TokenIssuer, grantTTL time.Duration) *AuthService {
	return &AuthService{
		users:    users,
		grants:   grants,
		otp:      otp,
		tokens:   tokens,
		grantTTL: grantTTL,
		now:      time.Now,
	}
}

// Signup registers a new account and issues a signup verification code.
// An email already belonging to a verified user fails with ErrAlreadyExists;
// an unverified leftover account is refreshed and re-challenged.
func (s *AuthService) Signup(ctx context.Context, name, email, password string) (time.Time, error) {
	email = validation.NormalizeEmail(email)
	if err := validation.ValidateEmail(email); err != nil {
		return time.Time{}, err
	}
	if err := validation.ValidateName(name); err != nil {
		return time.Time{}, err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return time.Time{}, ErrWeakPassword
	}

	existing, err := s.users.GetUserByEmail(email)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil && existing.IsVerified {
		return time.Time{}, ErrAlreadyExists
	}

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return time.Time{}, err
	}

	var user *models.User
	if existing != nil {
		if err := s.users.UpdateSignupDetails(existing.ID, passwordHash, name); err != nil {
			return time.Time{}, err
		}
		existing.Name = name
		user = existing
	} else {
		user, err = s.users.CreateUser(email, passwordHash, name)
		if err != nil {
			return time.Time{}, err
		}
	}

	ch, err := s.otp.Issue(ctx, user, models.PurposeSignup)
	if err != nil {
		return time.Time{}, err
	}
	return ch.ExpiresAt, nil
}

// VerifySignupOtp consumes a signup code, marks the account verified and
// mints a session token
func (s *AuthService) VerifySignupOtp(email, code string) (string, *models.User, error) {
	user, err := s.lookup(email)
	if err != nil {
		return "", nil, err
	}
	if user == nil {
		return "", nil, ErrOtpNotFound
	}

	if err := s.otp.Verify(user.ID, models.PurposeSignup, code); err != nil {
		return "", nil, err
	}

	if err := s.users.MarkVerified(user.ID); err != nil {
		return "", nil, err
	}
	user.IsVerified = true

	token, err := s.tokens.Mint(user.ID)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// ResendOtp re-issues a code for the given purpose, subject to the cooldown
func (s *AuthService) ResendOtp(ctx context.Context, email, purpose string) (time.Time, error) {
	user, err := s.lookup(email)
	if err != nil {
		return time.Time{}, err
	}
	if user == nil {
		return time.Time{}, ErrOtpNotFound
	}
	if purpose == models.PurposeSignup && user.IsVerified {
		return time.Time{}, ErrAlreadyExists
	}

	ch, err := s.otp.Issue(ctx, user, purpose)
	if err != nil {
		return time.Time{}, err
	}
	return ch.ExpiresAt, nil
}

// Login authenticates a verified account. Wrong password and unverified
// account are deliberately indistinguishable to avoid user enumeration.
func (s *AuthService) Login(email, password string) (string, *models.User, error) {
	user, err := s.lookup(email)
	if err != nil {
		return "", nil, err
	}
	if user == nil {
		return "", nil, ErrInvalidCredentials
	}
	if !security.CheckPassword(password, user.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}
	if !user.IsVerified {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Mint(user.ID)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// ForgotPassword issues a password-reset code. An unknown email reports
// success without issuing anything, so the endpoint cannot be used to probe
// for accounts.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.lookup(email)
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}

	if _, err := s.otp.Issue(ctx, user, models.PurposeReset); err != nil {
		return err
	}
	return nil
}

// VerifyResetOtp consumes a reset code and issues a short-lived, single-use
// grant authorizing the actual password change. A new grant invalidates any
// prior one for the user.
func (s *AuthService) VerifyResetOtp(email, code string) (string, error) {
	user, err := s.lookup(email)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrOtpNotFound
	}

	if err := s.otp.Verify(user.ID, models.PurposeReset, code); err != nil {
		return "", err
	}

	if err := s.grants.DeleteForUser(user.ID); err != nil {
		return "", err
	}

	token := security.GenerateGrantToken()
	if err := s.grants.Create(token, user.ID, s.now().Add(s.grantTTL)); err != nil {
		return "", err
	}
	return token, nil
}

// ResetPassword changes the password for the account holding a valid,
// unconsumed grant matching the supplied email. The grant is consumed
// exactly once; reuse fails with ErrGrantInvalid.
func (s *AuthService) ResetPassword(email, grantToken, newPassword string) error {
	if err := validation.ValidatePassword(newPassword); err != nil {
		return ErrWeakPassword
	}

	user, err := s.lookup(email)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrGrantInvalid
	}

	grant, err := s.grants.Get(grantToken)
	if err != nil {
		return err
	}
	if grant == nil || grant.Used || grant.IsExpired(s.now()) || grant.UserID != user.ID {
		return ErrGrantInvalid
	}

	// Consume first: under a race between two reset attempts exactly one
	// proceeds
	used, err := s.grants.MarkUsed(grantToken)
	if err != nil {
		return err
	}
	if !used {
		return ErrGrantInvalid
	}

	passwordHash, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(user.ID, passwordHash)
}

// CheckOtpStatus reports whether a live challenge exists for (email, purpose)
// and when it expires, for client-side countdowns
func (s *AuthService) CheckOtpStatus(email, purpose string) (bool, time.Time, error) {
	user, err := s.lookup(email)
	if err != nil {
		return false, time.Time{}, err
	}
	if user == nil {
		return false, time.Time{}, nil
	}
	return s.otp.Status(user.ID, purpose)
}

// Authenticate resolves a bearer token to its user. A token whose subject no
// longer exists is rejected here, which is how deleted accounts orphan their
// outstanding tokens.
func (s *AuthService) Authenticate(token string) (*models.User, error) {
	userID, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, security.ErrInvalidToken
	}
	return user, nil
}

// GetProfile returns a user's account record
func (s *AuthService) GetProfile(userID int64) (*models.User, error) {
	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// UpdateProfile updates a user's name and profile picture reference
func (s *AuthService) UpdateProfile(userID int64, name, profilePicture string) (*models.User, error) {
	if err := validation.ValidateName(name); err != nil {
		return nil, err
	}
	if err := s.users.UpdateProfile(userID, name, profilePicture); err != nil {
		return nil, err
	}
	return s.GetProfile(userID)
}

// DeleteAccount removes a user. Their tasks, challenges and grants cascade
// at the storage layer; outstanding session tokens become orphaned and are
// rejected on the next Authenticate.
func (s *AuthService) DeleteAccount(userID int64) error {
	return s.users.DeleteUser(userID)
}

// CleanupExpiredGrants removes expired reset grants from the database
func (s *AuthService) CleanupExpiredGrants() error {
	if err := s.grants.DeleteExpired(); err != nil {
		return fmt.Errorf("failed to cleanup reset grants: %w", err)
	}
	return nil
}

func (s *AuthService) lookup(email string) (*models.User, error) {
	user, err := s.users.GetUserByEmail(validation.NormalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

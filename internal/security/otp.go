package security

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

// GenerateOtpCode returns a uniformly random 6-digit passcode.
// Leading zeros are allowed, so the code is always exactly 6 characters.
func GenerateOtpCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("failed to generate otp code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// GenerateGrantToken creates a new opaque token for a password-reset grant
func GenerateGrantToken() string {
	return uuid.New().String()
}

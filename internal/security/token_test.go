package security

import (
	"errors"
	"testing"
	"time"
)

func TestTokenMintAndVerify(t *testing.T) {
	issuer := NewTokenIssuer("super-secret", time.Hour)

	tok, err := issuer.Mint(42)
	if err != nil {
		t.Fatalf("Mint() error = %v", err)
	}
	if tok == "" {
		t.Fatal("Mint() returned empty token")
	}

	userID, err := issuer.Verify(tok)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if userID != 42 {
		t.Errorf("Verify() userID = %d, want 42", userID)
	}
}

func TestTokenVerifyExpired(t *testing.T) {
	issuer := NewTokenIssuer("super-secret", -1*time.Second)

	tok, err := issuer.Mint(7)
	if err != nil {
		t.Fatalf("Mint() error = %v", err)
	}

	_, err = issuer.Verify(tok)
	if !errors.Is(err, ErrTokenExpired) {
		t.Errorf("Verify() error = %v, want ErrTokenExpired", err)
	}
}

func TestTokenVerifyWrongSecret(t *testing.T) {
	issuer := NewTokenIssuer("right-secret", time.Hour)
	other := NewTokenIssuer("wrong-secret", time.Hour)

	tok, err := issuer.Mint(7)
	if err != nil {
		t.Fatalf("Mint() error = %v", err)
	}

	_, err = other.Verify(tok)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
	}
}

func TestTokenVerifyGarbage(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "not a jwt", token: "not-a-token"},
		{name: "truncated", token: "eyJhbGciOiJIUzI1NiJ9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := issuer.Verify(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Verify(%q) error = %v, want ErrInvalidToken", tt.token, err)
			}
		})
	}
}

package auth

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestCheckPasswordStrength(t *testing.T) {
	tests := []struct {
		name       string
		password   string
		shouldFail bool
	}{
		{"valid", "FleetSafe2024", false},
		{"too short", "Ab1", true},
		{"no uppercase", "fleetsafe2024", true},
		{"no lowercase", "FLEETSAFE2024", true},
		{"no digit", "FleetSafeNow", true},
		{"common password", "Password123", true},
		{"too long", "Aa1" + strings.Repeat("x", 130), true},
		{"72 bytes", "Aa1" + strings.Repeat("x", 69), false},
		{"over 72 bytes", "Aa1" + strings.Repeat("x", 80), true},
		{"multibyte over 72 bytes", "Aa1" + strings.Repeat("é", 35), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckPasswordStrength(tt.password)
			if tt.shouldFail && err == nil {
				t.Errorf("expected error, got nil")
			}
			if !tt.shouldFail && err != nil {
				t.Errorf("expected no error, got: %v", err)
			}
			if err != nil {
				var pse *PasswordStrengthError
				if !errors.As(err, &pse) || len(pse.Problems) == 0 {
					t.Errorf("expected PasswordStrengthError with problems, got %v", err)
				}
			}
		})
	}
}

func TestHashAndComparePassword(t *testing.T) {
	password := "FleetSafe2024"

	hash, err := HashPasswordWithCost(password, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPasswordWithCost failed: %v", err)
	}
	if hash == "" || hash == password {
		t.Fatalf("unexpected hash %q", hash)
	}

	if err := ComparePassword(hash, password); err != nil {
		t.Errorf("ComparePassword with correct password failed: %v", err)
	}
	if err := ComparePassword(hash, "WrongPassword1"); err == nil {
		t.Error("ComparePassword with wrong password should fail")
	}
}

func TestHashPassword_Empty(t *testing.T) {
	if _, err := HashPassword(""); err == nil {
		t.Error("expected error for empty password")
	}
}

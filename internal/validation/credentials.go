package validation

import "strings"

// Credentials holds sanitized login input. Email is lowercased.
type Credentials struct {
	Email    string
	Password string
}

// SanitizeCredentials normalizes both raw fields and validates them, email first.
// The first failure is returned as a *FieldError.
func SanitizeCredentials(rawEmail, rawPassword string) (Credentials, error) {
	email := strings.ToLower(Sanitize(rawEmail))
	password := Sanitize(rawPassword)

	if err := ValidateEmail(email); err != nil {
		return Credentials{}, err
	}
	if err := ValidatePassword(password); err != nil {
		return Credentials{}, err
	}

	return Credentials{Email: email, Password: password}, nil
}

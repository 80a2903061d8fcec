// Package validation normalizes and checks raw login input before it reaches
// account verification.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	MaxEmailLen    = 254
	MaxPasswordLen = 128
)

// Reason classifies a validation failure.
type Reason string

const (
	ReasonEmptyField    Reason = "empty_field"
	ReasonTooLong       Reason = "too_long"
	ReasonInvalidFormat Reason = "invalid_format"
)

// Field names used in FieldError
const (
	FieldEmail    = "email"
	FieldPassword = "password"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

const (
	emailRules    = "required,max=254,login_email"
	passwordRules = "required,max=128"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Registration only fails on an empty or duplicate tag name.
	if err := v.RegisterValidation("login_email", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// FieldError reports why a single input field was rejected.
type FieldError struct {
	Field  string
	Reason Reason
}

func (e *FieldError) Error() string {
	return e.Message()
}

// Message returns the user-facing text for the failure.
func (e *FieldError) Message() string {
	label := "Email"
	if e.Field == FieldPassword {
		label = "Password"
	}

	switch e.Reason {
	case ReasonEmptyField:
		return label + " is required."
	case ReasonTooLong:
		return label + " is too long."
	case ReasonInvalidFormat:
		return label + " format is not valid."
	default:
		return label + " is not valid."
	}
}

// Sanitize strips control characters, collapses whitespace runs to a single
// space and trims the result.
func Sanitize(text string) string {
	if text == "" {
		return ""
	}

	text = strings.Map(func(r rune) rune {
		if isControl(r) {
			return -1
		}
		return r
	}, text)

	return strings.Join(strings.Fields(text), " ")
}

func isControl(r rune) bool {
	return (r >= 0x00 && r <= 0x1f) || (r >= 0x7f && r <= 0x9f)
}

// ValidateEmail checks presence, length and format of an email address.
// It does not lowercase; case is normalized by the caller.
func ValidateEmail(email string) error {
	return check(FieldEmail, email, emailRules)
}

// ValidatePassword checks presence and length. Complexity is a registration
// concern and is not enforced at login.
func ValidatePassword(password string) error {
	return check(FieldPassword, password, passwordRules)
}

func check(field, value, rules string) error {
	err := validate.Var(value, rules)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		return &FieldError{Field: field, Reason: reasonForTag(ve[0].Tag())}
	}
	return fmt.Errorf("validate %s: %w", field, err)
}

func reasonForTag(tag string) Reason {
	switch tag {
	case "required":
		return ReasonEmptyField
	case "max":
		return ReasonTooLong
	default:
		return ReasonInvalidFormat
	}
}

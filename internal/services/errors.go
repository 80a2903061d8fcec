package services

import (
	"errors"
	"fmt"

	"github.com/BradenHooton/drivewatch/internal/validation"
)

// ErrVerificationFailure is returned when a collaborator failed for reasons
// other than a credential mismatch. The attempt is not counted.
var ErrVerificationFailure = errors.New("account verification failed")

const (
	msgInvalidCredentials = "Incorrect credentials or invalid user."
	msgRetry              = "An error occurred while signing in. Please try again."
)

// LockedOutError is returned while the screen is locked. No input was read.
type LockedOutError struct {
	RemainingSeconds int
}

func (e *LockedOutError) Error() string {
	return fmt.Sprintf("login locked for %d seconds", e.RemainingSeconds)
}

func (e *LockedOutError) Message() string {
	return fmt.Sprintf("Account locked for %d seconds due to multiple failed attempts.", e.RemainingSeconds)
}

// InvalidInputError wraps the first sanitization/validation failure.
type InvalidInputError struct {
	Field  string
	Reason validation.Reason
	cause  *validation.FieldError
}

func newInvalidInputError(fe *validation.FieldError) *InvalidInputError {
	return &InvalidInputError{Field: fe.Field, Reason: fe.Reason, cause: fe}
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *InvalidInputError) Message() string {
	if e.cause != nil {
		return e.cause.Message()
	}
	return (&validation.FieldError{Field: e.Field, Reason: e.Reason}).Message()
}

func (e *InvalidInputError) Unwrap() error {
	if e.cause == nil {
		return nil
	}
	return e.cause
}

// InvalidCredentialsError is returned when no partition matched.
// LockoutSeconds is set when this failure engaged the lock.
type InvalidCredentialsError struct {
	RemainingAttempts int
	LockoutSeconds    int
}

func (e *InvalidCredentialsError) Error() string {
	return fmt.Sprintf("invalid credentials, %d attempts remaining", e.RemainingAttempts)
}

func (e *InvalidCredentialsError) Message() string {
	if e.RemainingAttempts > 0 {
		return fmt.Sprintf("%s You have %d attempts left.", msgInvalidCredentials, e.RemainingAttempts)
	}
	if e.LockoutSeconds > 0 {
		return fmt.Sprintf("%s Account locked for %d seconds.", msgInvalidCredentials, e.LockoutSeconds)
	}
	return msgInvalidCredentials
}

// Warning is the escalated notice shown when only one or two attempts remain.
func (e *InvalidCredentialsError) Warning() (string, bool) {
	if e.RemainingAttempts == 1 || e.RemainingAttempts == 2 {
		return fmt.Sprintf("Incorrect credentials. You have %d attempts left before the account is locked.", e.RemainingAttempts), true
	}
	return "", false
}

// UserMessage maps any error returned by LoginController to the text shown to the user.
func UserMessage(err error) string {
	var locked *LockedOutError
	var input *InvalidInputError
	var creds *InvalidCredentialsError
	var field *validation.FieldError

	switch {
	case err == nil:
		return ""
	case errors.As(err, &locked):
		return locked.Message()
	case errors.As(err, &input):
		return input.Message()
	case errors.As(err, &field):
		return field.Message()
	case errors.As(err, &creds):
		return creds.Message()
	default:
		return msgRetry
	}
}

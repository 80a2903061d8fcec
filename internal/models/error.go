package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Login screen and session errors
	ErrScreenNotFound = errors.New("login screen not found")
	ErrTooManyScreens = errors.New("too many open login screens")
	ErrUnknownRole    = errors.New("unknown account role")
	ErrInvalidSession = errors.New("invalid session token")
)

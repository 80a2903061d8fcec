package models

import "time"

// LoginAttempt is the audit record of one definitive login outcome
type LoginAttempt struct {
	ID            string    `db:"id"`
	Email         string    `db:"email"`
	Role          *Role     `db:"role"`
	IPAddress     string    `db:"ip_address"`
	UserAgent     string    `db:"user_agent"`
	AttemptTime   time.Time `db:"attempt_time"`
	Success       bool      `db:"success"`
	FailureReason *string   `db:"failure_reason"`
	ExpiresAt     time.Time `db:"expires_at"`
}

// ClientInfo describes the client driving a login screen.
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

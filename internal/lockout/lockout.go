// Package lockout implements the failed-attempt lockout state machine owned by
// a single login screen.
package lockout

import (
	"math"
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	DefaultMaxAttempts = 5
	DefaultDuration    = 30 * time.Second
)

// Policy configures when a screen locks and for how long.
type Policy struct {
	MaxAttempts int
	Duration    time.Duration
}

// DefaultPolicy returns the 5 attempts / 30 seconds policy.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		Duration:    DefaultDuration,
	}
}

// Tracker counts failed attempts and decides whether login is locked.
//
// The lock is evaluated lazily: there is no timer. Once the lockout window
// has elapsed, the next IsLocked call resets the counter.
//
// A Tracker is not safe for concurrent use.
type Tracker struct {
	policy         Policy
	clock          clockwork.Clock
	failedAttempts int
	lastAttempt    time.Time // zero until the first failure
}

// NewTracker creates an unlocked tracker.
func NewTracker(policy Policy, clock clockwork.Clock) *Tracker {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Tracker{
		policy: policy,
		clock:  clock,
	}
}

// IsLocked reports whether attempts are currently suppressed and, if so, the
// whole seconds left (rounded up, never 0 while locked).
func (t *Tracker) IsLocked() (bool, int) {
	if t.failedAttempts < t.policy.MaxAttempts {
		return false, 0
	}

	elapsed := t.clock.Since(t.lastAttempt)
	if elapsed < t.policy.Duration {
		remaining := t.policy.Duration - elapsed
		return true, int(math.Ceil(remaining.Seconds()))
	}

	t.failedAttempts = 0
	return false, 0
}

// Now is the current time on the tracker's clock. Attempt records use it so
// they line up with the lockout window.
func (t *Tracker) Now() time.Time {
	return t.clock.Now()
}

// RecordFailure counts a definitive failed attempt.
func (t *Tracker) RecordFailure() {
	t.failedAttempts++
	t.lastAttempt = t.clock.Now()
}

// Reset clears the counter after a successful login.
func (t *Tracker) Reset() {
	t.failedAttempts = 0
	t.lastAttempt = time.Time{}
}

func (t *Tracker) FailedAttempts() int {
	return t.failedAttempts
}

// RemainingAttempts is the number of failures left before the lock engages.
func (t *Tracker) RemainingAttempts() int {
	if r := t.policy.MaxAttempts - t.failedAttempts; r > 0 {
		return r
	}
	return 0
}

// LastAttempt returns the time of the most recent failure, zero if none.
func (t *Tracker) LastAttempt() time.Time {
	return t.lastAttempt
}

func (t *Tracker) Policy() Policy {
	return t.policy
}

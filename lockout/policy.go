// Package lockout implements the brute-force lockout decision logic as a
// pure state machine over a user's failure counter and lock timestamp.
// It never touches storage; callers persist the transitions it prescribes.
package lockout

import "time"

// State is the lockout state of an account at a given instant.
type State int

const (
	// StateNormal means no recent failures are recorded.
	StateNormal State = iota
	// StateWarned means failures are recorded but below the lock threshold.
	StateWarned
	// StateLocked means the account is denied until the lock expires.
	StateLocked
)

func (s State) String() string {
	switch s {
	case StateWarned:
		return "warned"
	case StateLocked:
		return "locked"
	default:
		return "normal"
	}
}

// Policy maps a failed-attempt counter and lock timestamp to a decision.
type Policy struct {
	MaxAttempts  int
	LockDuration time.Duration
}

// Default returns the standard policy: lock for 30 minutes after 5 failures.
func Default() Policy {
	return Policy{
		MaxAttempts:  5,
		LockDuration: 30 * time.Minute,
	}
}

// Evaluate returns the account state at now. A lockedUntil in the past is
// Normal or Warned depending only on the counter; lock expiry is implicit
// and requires no explicit unlock action.
func (p Policy) Evaluate(failedAttempts int, lockedUntil time.Time, now time.Time) State {
	if !lockedUntil.IsZero() && lockedUntil.After(now) {
		return StateLocked
	}
	if failedAttempts > 0 {
		return StateWarned
	}
	return StateNormal
}

// ShouldLock reports whether a failure count that has just reached attempts
// crosses the threshold. The lock triggers when failures reach exactly
// MaxAttempts, not one attempt later.
func (p Policy) ShouldLock(attempts int) bool {
	return p.MaxAttempts > 0 && attempts >= p.MaxAttempts
}

// LockUntil returns the lock expiry for a lock applied at now.
func (p Policy) LockUntil(now time.Time) time.Time {
	return now.Add(p.LockDuration)
}

// Remaining returns how long a lock applied with lockedUntil still holds at
// now, and zero once it has expired.
func (p Policy) Remaining(lockedUntil time.Time, now time.Time) time.Duration {
	if lockedUntil.IsZero() || !lockedUntil.After(now) {
		return 0
	}
	return lockedUntil.Sub(now)
}

// RemainingMinutes returns Remaining rounded up to whole minutes, the unit
// surfaced to callers in lockout error messages.
func (p Policy) RemainingMinutes(lockedUntil time.Time, now time.Time) int {
	remaining := p.Remaining(lockedUntil, now)
	if remaining <= 0 {
		return 0
	}
	minutes := int(remaining / time.Minute)
	if remaining%time.Minute != 0 {
		minutes++
	}
	return minutes
}

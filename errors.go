package authcore

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidCredentials is returned for any unknown-email or wrong-password
	// combination. The two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountLocked is returned while a lockout window is active.
	ErrAccountLocked = errors.New("account locked")
	// ErrEmailNotVerified is returned when login requires a verified address.
	ErrEmailNotVerified = errors.New("email not verified")
	// ErrEmailExists is returned when registering an address that is taken.
	ErrEmailExists = errors.New("email already registered")
	// ErrUserNotFound is returned by lookups addressed to a missing account.
	ErrUserNotFound = errors.New("user not found")
	// ErrTokenInvalid is returned for verification tokens that are unknown,
	// expired, already consumed, or fail the secret check.
	ErrTokenInvalid = errors.New("invalid or expired token")
	// ErrSessionNotFound is returned when a session named by id does not
	// exist or belongs to someone else.
	ErrSessionNotFound = errors.New("session not found")
	// ErrUnauthorized is returned when a bearer token fails validation: bad
	// signature, expired, or its session has been revoked.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrWeakPassword is returned when a candidate password fails policy.
	ErrWeakPassword = errors.New("password does not meet policy")
	// ErrSamePassword is returned when a password change reuses the current
	// password.
	ErrSamePassword = errors.New("new password must differ from current password")
	// ErrNotReady is returned when the service is used before Build completed.
	ErrNotReady = errors.New("service not initialized")
)

// AccountLockedError carries the remaining lockout duration. It unwraps to
// ErrAccountLocked so callers can match with errors.Is.
type AccountLockedError struct {
	RetryAfter time.Duration
}

func (e *AccountLockedError) Error() string {
	minutes := int((e.RetryAfter + time.Minute - 1) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("account locked, retry in %d minute(s)", minutes)
}

func (e *AccountLockedError) Unwrap() error {
	return ErrAccountLocked
}

// WeakPasswordError lists the policy rules the candidate violated. It
// unwraps to ErrWeakPassword.
type WeakPasswordError struct {
	Violations []string
}

func (e *WeakPasswordError) Error() string {
	return "password does not meet policy: " + strings.Join(e.Violations, ", ")
}

func (e *WeakPasswordError) Unwrap() error {
	return ErrWeakPassword
}

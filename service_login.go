package authcore

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Authenticate verifies an email/password pair and opens a new device
// session. Unknown emails and wrong passwords both return
// ErrInvalidCredentials; locked accounts return an AccountLockedError
// without the password ever being checked.
func (s *Service) Authenticate(ctx context.Context, email, candidate string) (*LoginResult, error) {
	if s == nil || s.users == nil {
		return nil, ErrNotReady
	}

	email = normalizeEmail(email)
	now := s.now()

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// Burn a hash verification anyway so unknown emails cost the
			// same as wrong passwords.
			s.hasher.Verify(candidate, s.dummyHash)
			s.metrics.inc(&s.metrics.loginFailure)
			s.emitAudit(ctx, EventUserLoginFailed, "", "", false, ErrInvalidCredentials, map[string]string{"email": email})
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("user lookup: %w", err)
	}

	if user.Locked(now) {
		lockErr := &AccountLockedError{RetryAfter: user.LockedUntil.Sub(now)}
		s.metrics.inc(&s.metrics.loginFailure)
		s.emitAudit(ctx, EventUserLoginFailed, user.ID, "", false, lockErr, nil)
		return nil, lockErr
	}

	if !s.hasher.Verify(candidate, user.PasswordHash) {
		return nil, s.recordFailedLogin(ctx, user, now)
	}

	if s.config.Security.RequireVerifiedEmail && !user.EmailVerified {
		s.metrics.inc(&s.metrics.loginFailure)
		s.emitAudit(ctx, EventUserLoginFailed, user.ID, "", false, ErrEmailNotVerified, nil)
		return nil, ErrEmailNotVerified
	}

	// A non-zero LockedUntil here means the lock window already lapsed;
	// clear the stale state so the trail shows the account back to normal.
	wasLocked := !user.LockedUntil.IsZero()
	if user.FailedAttempts > 0 || wasLocked {
		if err := s.users.ClearLoginFailures(ctx, user.ID); err != nil {
			return nil, fmt.Errorf("clear login failures: %w", err)
		}
		if err := s.users.SetLockedUntil(ctx, user.ID, time.Time{}); err != nil {
			return nil, fmt.Errorf("clear lockout: %w", err)
		}
	}
	if wasLocked {
		s.emitAudit(ctx, EventAccountUnlocked, user.ID, "", true, nil, nil)
	}

	if s.hasher.NeedsRehash(user.PasswordHash) {
		if newHash, hashErr := s.hasher.Hash(candidate); hashErr == nil {
			if err := s.users.UpdatePassword(ctx, user.ID, newHash); err != nil {
				s.logger.Warn("password rehash persist failed", "user_id", user.ID, "error", err)
			}
		}
	}

	result, err := s.createSession(ctx, user.ID, now)
	if err != nil {
		return nil, err
	}

	s.metrics.inc(&s.metrics.loginSuccess)
	s.emitAudit(ctx, EventUserLogin, user.ID, result.SessionID, true, nil, nil)

	return result, nil
}

func (s *Service) recordFailedLogin(ctx context.Context, user *User, now time.Time) error {
	count, err := s.users.RecordLoginFailure(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("record login failure: %w", err)
	}

	s.metrics.inc(&s.metrics.loginFailure)
	s.emitAudit(ctx, EventUserLoginFailed, user.ID, "", false, ErrInvalidCredentials, nil)

	if s.lockoutPolicy.ShouldLock(count) {
		until := s.lockoutPolicy.LockUntil(now)
		if err := s.users.SetLockedUntil(ctx, user.ID, until); err != nil {
			return fmt.Errorf("set locked until: %w", err)
		}
		s.metrics.inc(&s.metrics.accountsLocked)
		s.emitAudit(ctx, EventAccountLocked, user.ID, "", true, nil, map[string]string{
			"failed_attempts": fmt.Sprintf("%d", count),
		})
	}

	// The attempt that trips the lock still reports invalid credentials;
	// only subsequent attempts see the locked state.
	return ErrInvalidCredentials
}

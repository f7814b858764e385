package authcore

import (
	"context"
	"errors"
	"fmt"
)

// ChangePassword replaces the password of a logged-in user after verifying
// the current one. Existing sessions survive unless
// Security.RevokeSessionsOnPasswordChange is set; unlike a reset, the caller
// already held a valid credential.
func (s *Service) ChangePassword(ctx context.Context, userID, current, candidate string) error {
	if s == nil || s.users == nil {
		return ErrNotReady
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("user lookup: %w", err)
	}

	if !s.hasher.Verify(current, user.PasswordHash) {
		s.emitAudit(ctx, EventPasswordChanged, user.ID, "", false, ErrInvalidCredentials, nil)
		return ErrInvalidCredentials
	}

	if violations := s.passwordPolicy.Check(candidate); len(violations) > 0 {
		return &WeakPasswordError{Violations: violations}
	}
	if s.hasher.Verify(candidate, user.PasswordHash) {
		return ErrSamePassword
	}

	hash, err := s.hasher.Hash(candidate)
	if err != nil {
		return fmt.Errorf("password hash: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if s.config.Security.RevokeSessionsOnPasswordChange {
		if _, err := s.LogoutAll(ctx, user.ID); err != nil {
			return fmt.Errorf("revoke sessions: %w", err)
		}
	}

	s.metrics.inc(&s.metrics.passwordChanges)
	s.emitAudit(ctx, EventPasswordChanged, user.ID, "", true, nil, nil)
	return nil
}

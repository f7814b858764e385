package authcore

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// UnlockAccount clears an active lockout and the failure counter. Intended
// for support tooling; normal lockouts expire on their own.
func (s *Service) UnlockAccount(ctx context.Context, userID string) error {
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

	if err := s.users.ClearLoginFailures(ctx, user.ID); err != nil {
		return fmt.Errorf("clear login failures: %w", err)
	}
	if err := s.users.SetLockedUntil(ctx, user.ID, time.Time{}); err != nil {
		return fmt.Errorf("clear lockout: %w", err)
	}

	s.emitAudit(ctx, EventAccountUnlocked, user.ID, "", true, nil, nil)
	return nil
}

// DeleteAccount removes the account, revokes its sessions, and destroys any
// outstanding verification tokens.
func (s *Service) DeleteAccount(ctx context.Context, userID string) error {
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

	if _, err := s.sessions.DeleteAllForUser(ctx, user.ID); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	if err := s.tokens.InvalidateAllForUser(ctx, user.ID); err != nil {
		return fmt.Errorf("invalidate tokens: %w", err)
	}
	if err := s.users.Delete(ctx, user.ID); err != nil {
		return fmt.Errorf("user delete: %w", err)
	}

	s.emitAudit(ctx, EventUserDeleted, user.ID, "", true, nil, map[string]string{"email": user.Email})
	return nil
}

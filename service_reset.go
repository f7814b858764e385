package authcore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mdreyer7/authcore/token"
)

// RequestPasswordReset issues a reset token for the account behind email.
// It returns nil whether or not the account exists, so the endpoint cannot
// be used to probe for registered addresses.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	if s == nil || s.users == nil {
		return ErrNotReady
	}

	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil
		}
		return fmt.Errorf("user lookup: %w", err)
	}

	plaintext, id, secretHash, err := token.Generate()
	if err != nil {
		s.logger.Error("reset token generation failed", "user_id", user.ID, "error", err)
		return nil
	}
	record := &token.Record{
		UserID:     user.ID,
		SecretHash: secretHash,
		ExpiresAt:  s.now().Add(s.config.PasswordReset.TTL).Unix(),
	}
	if err := s.tokens.Create(ctx, token.PurposeResetPassword, id, record, s.config.PasswordReset.TTL); err != nil {
		s.logger.Error("reset token store failed", "user_id", user.ID, "error", err)
		return nil
	}

	s.emitAudit(ctx, EventPasswordResetRequested, user.ID, "", true, nil, nil)

	if s.mailer == nil {
		s.logger.Warn("no mailer configured, reset token not delivered", "user_id", user.ID)
		return nil
	}
	if err := s.mailer.SendPasswordResetEmail(ctx, user.Email, plaintext); err != nil {
		s.logger.Error("reset email delivery failed", "user_id", user.ID, "error", err)
	}
	return nil
}

// ResetPassword consumes a reset token and installs a new password. Every
// session the user holds is revoked: whoever triggered the reset may not be
// the only one holding credentials.
func (s *Service) ResetPassword(ctx context.Context, plaintext, candidate string) error {
	if s == nil || s.users == nil {
		return ErrNotReady
	}

	// Policy runs before the token is consumed so a weak candidate does not
	// burn the single-use token.
	if violations := s.passwordPolicy.Check(candidate); len(violations) > 0 {
		return &WeakPasswordError{Violations: violations}
	}

	record, err := s.consumeToken(ctx, token.PurposeResetPassword, plaintext, s.config.PasswordReset.MaxAttempts)
	if err != nil {
		return err
	}

	user, err := s.users.FindByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrTokenInvalid
		}
		return fmt.Errorf("user lookup: %w", err)
	}

	hash, err := s.hasher.Hash(candidate)
	if err != nil {
		return fmt.Errorf("password hash: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	// A completed reset proves account control, so any active lockout ends.
	now := s.now()
	wasLocked := user.Locked(now)
	if user.FailedAttempts > 0 || !user.LockedUntil.IsZero() {
		if err := s.users.ClearLoginFailures(ctx, user.ID); err != nil {
			s.logger.Warn("clear login failures failed", "user_id", user.ID, "error", err)
		}
		if err := s.users.SetLockedUntil(ctx, user.ID, time.Time{}); err != nil {
			s.logger.Warn("clear lockout failed", "user_id", user.ID, "error", err)
		}
	}
	if wasLocked {
		s.emitAudit(ctx, EventAccountUnlocked, user.ID, "", true, nil, nil)
	}

	if _, err := s.LogoutAll(ctx, user.ID); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}

	s.metrics.inc(&s.metrics.passwordResets)
	s.emitAudit(ctx, EventPasswordReset, user.ID, "", true, nil, nil)
	return nil
}

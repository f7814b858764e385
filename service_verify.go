package authcore

import (
	"context"
	"errors"
	"fmt"

	"github.com/mdreyer7/authcore/token"
)

// VerifyEmail consumes a verification token and marks the account verified.
// The token is single-use: a second call with the same token fails.
func (s *Service) VerifyEmail(ctx context.Context, plaintext string) error {
	if s == nil || s.users == nil {
		return ErrNotReady
	}

	record, err := s.consumeToken(ctx, token.PurposeVerifyEmail, plaintext, s.config.EmailVerification.MaxAttempts)
	if err != nil {
		return err
	}

	if err := s.users.MarkEmailVerified(ctx, record.UserID); err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}

	s.metrics.inc(&s.metrics.emailsVerified)
	s.emitAudit(ctx, EventEmailVerified, record.UserID, "", true, nil, nil)
	return nil
}

// RequestEmailChange issues a confirmation token for a new address. The
// change takes effect only when ConfirmEmailChange consumes the token, which
// also proves control of the new mailbox.
func (s *Service) RequestEmailChange(ctx context.Context, userID, newEmail string) error {
	if s == nil || s.users == nil {
		return ErrNotReady
	}

	newEmail = normalizeEmail(newEmail)
	if newEmail == "" {
		return errors.New("email required")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("user lookup: %w", err)
	}
	if user.Email == newEmail {
		return nil
	}

	if _, err := s.users.FindByEmail(ctx, newEmail); err == nil {
		return ErrEmailExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return fmt.Errorf("user lookup: %w", err)
	}

	plaintext, id, secretHash, err := token.Generate()
	if err != nil {
		return fmt.Errorf("token generate: %w", err)
	}
	record := &token.Record{
		UserID:     user.ID,
		Payload:    newEmail,
		SecretHash: secretHash,
		ExpiresAt:  s.now().Add(s.config.EmailChange.TTL).Unix(),
	}
	if err := s.tokens.Create(ctx, token.PurposeChangeEmail, id, record, s.config.EmailChange.TTL); err != nil {
		return fmt.Errorf("token store: %w", err)
	}

	if s.mailer != nil {
		if err := s.mailer.SendEmailChangeConfirmation(ctx, newEmail, plaintext); err != nil {
			s.logger.Error("email change confirmation delivery failed", "user_id", user.ID, "error", err)
		}
	}
	return nil
}

// ConfirmEmailChange consumes an email change token and applies the pending
// address. The address is re-checked for collisions at consume time; a user
// who registered it in the meantime wins.
func (s *Service) ConfirmEmailChange(ctx context.Context, plaintext string) error {
	if s == nil || s.users == nil {
		return ErrNotReady
	}

	record, err := s.consumeToken(ctx, token.PurposeChangeEmail, plaintext, s.config.EmailChange.MaxAttempts)
	if err != nil {
		return err
	}

	newEmail := record.Payload
	if newEmail == "" {
		return ErrTokenInvalid
	}

	if _, err := s.users.FindByEmail(ctx, newEmail); err == nil {
		return ErrEmailExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return fmt.Errorf("user lookup: %w", err)
	}

	user, err := s.users.FindByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("user lookup: %w", err)
	}

	if err := s.users.UpdateEmail(ctx, user.ID, newEmail); err != nil {
		return fmt.Errorf("update email: %w", err)
	}
	// Consuming the token proved control of the new mailbox.
	if err := s.users.MarkEmailVerified(ctx, user.ID); err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}

	s.emitAudit(ctx, EventEmailChanged, user.ID, "", true, nil, map[string]string{
		"old_email": user.Email,
		"new_email": newEmail,
	})
	return nil
}

// consumeToken maps the store's failure modes onto the public ErrTokenInvalid
// so callers cannot distinguish unknown, expired, and consumed tokens.
func (s *Service) consumeToken(ctx context.Context, purpose token.Purpose, plaintext string, maxAttempts int) (*token.Record, error) {
	id, secretHash, err := token.Decode(plaintext)
	if err != nil {
		s.metrics.inc(&s.metrics.tokenConsumeFailed)
		return nil, ErrTokenInvalid
	}

	record, err := s.tokens.Consume(ctx, purpose, id, secretHash, maxAttempts)
	if err != nil {
		s.metrics.inc(&s.metrics.tokenConsumeFailed)
		switch {
		case errors.Is(err, token.ErrTokenNotFound),
			errors.Is(err, token.ErrSecretMismatch),
			errors.Is(err, token.ErrAttemptsExceeded):
			return nil, ErrTokenInvalid
		default:
			return nil, err
		}
	}

	s.metrics.inc(&s.metrics.tokensConsumed)
	return record, nil
}

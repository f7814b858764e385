package authcore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mdreyer7/authcore/token"
)

// Register creates an account. With Security.RequireVerifiedEmail set the
// account starts unverified and a verification email is dispatched;
// otherwise it is verified immediately and no token is issued.
func (s *Service) Register(ctx context.Context, email, candidate string) (*RegisterResult, error) {
	if s == nil || s.users == nil {
		return nil, ErrNotReady
	}

	email = normalizeEmail(email)
	if email == "" {
		return nil, errors.New("email required")
	}

	if violations := s.passwordPolicy.Check(candidate); len(violations) > 0 {
		return nil, &WeakPasswordError{Violations: violations}
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		// Rejected attempts still land in the trail.
		s.emitAudit(ctx, EventUserCreated, "", "", false, ErrEmailExists, map[string]string{"email": email})
		return nil, ErrEmailExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("user lookup: %w", err)
	}

	hash, err := s.hasher.Hash(candidate)
	if err != nil {
		return nil, fmt.Errorf("password hash: %w", err)
	}

	now := s.now()
	user := &User{
		ID:            uuid.NewString(),
		Email:         email,
		PasswordHash:  hash,
		EmailVerified: !s.config.Security.RequireVerifiedEmail,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("user create: %w", err)
	}

	s.metrics.inc(&s.metrics.registrations)
	s.emitAudit(ctx, EventUserCreated, user.ID, "", true, nil, map[string]string{"email": email})

	var sent bool
	if !user.EmailVerified {
		sent = s.sendVerification(ctx, user)
	}

	return &RegisterResult{UserID: user.ID, VerificationSent: sent}, nil
}

// RequestEmailVerification issues a fresh verification token for an
// unverified account, displacing any earlier one.
func (s *Service) RequestEmailVerification(ctx context.Context, email string) error {
	if s == nil || s.users == nil {
		return ErrNotReady
	}

	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// Same response as the success path; the caller learns nothing
			// about which addresses exist.
			return nil
		}
		return fmt.Errorf("user lookup: %w", err)
	}
	if user.EmailVerified {
		return nil
	}

	s.sendVerification(ctx, user)
	return nil
}

func (s *Service) sendVerification(ctx context.Context, user *User) bool {
	plaintext, id, secretHash, err := token.Generate()
	if err != nil {
		s.logger.Error("verification token generation failed", "user_id", user.ID, "error", err)
		return false
	}

	record := &token.Record{
		UserID:     user.ID,
		SecretHash: secretHash,
		ExpiresAt:  s.now().Add(s.config.EmailVerification.TTL).Unix(),
	}
	if err := s.tokens.Create(ctx, token.PurposeVerifyEmail, id, record, s.config.EmailVerification.TTL); err != nil {
		s.logger.Error("verification token store failed", "user_id", user.ID, "error", err)
		return false
	}

	if s.mailer == nil {
		s.logger.Warn("no mailer configured, verification token not delivered", "user_id", user.ID)
		return false
	}
	if err := s.mailer.SendVerificationEmail(ctx, user.Email, plaintext); err != nil {
		s.logger.Error("verification email delivery failed", "user_id", user.ID, "error", err)
		return false
	}
	return true
}

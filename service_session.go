package authcore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mdreyer7/authcore/session"
)

func (s *Service) createSession(ctx context.Context, userID string, now time.Time) (*LoginResult, error) {
	expiresAt := now.Add(s.config.Session.TTL)
	sess := &session.Session{
		ID:         uuid.NewString(),
		UserID:     userID,
		Device:     deviceFromContext(ctx),
		IP:         clientIPFromContext(ctx),
		UserAgent:  userAgentFromContext(ctx),
		CreatedAt:  now.Unix(),
		LastActive: now.Unix(),
		ExpiresAt:  expiresAt.Unix(),
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("session save: %w", err)
	}

	tokenStr, err := s.jwtManager.Issue(userID, sess.ID, now)
	if err != nil {
		return nil, fmt.Errorf("token issue: %w", err)
	}

	s.metrics.inc(&s.metrics.sessionsCreated)
	s.emitAudit(ctx, EventSessionCreated, userID, sess.ID, true, nil, nil)

	return &LoginResult{
		UserID:    userID,
		SessionID: sess.ID,
		Token:     tokenStr,
		ExpiresAt: now.Add(s.jwtManager.TokenTTL()),
	}, nil
}

// IssueSession opens a session for an already-authenticated user, bypassing
// the password check. Intended for flows where identity was just proven by
// other means, e.g. right after a password reset.
func (s *Service) IssueSession(ctx context.Context, userID string) (*LoginResult, error) {
	if s == nil || s.users == nil {
		return nil, ErrNotReady
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user lookup: %w", err)
	}

	return s.createSession(ctx, user.ID, s.now())
}

// ValidateSession checks a bearer token's signature and confirms its session
// is still live. Both checks must pass; a perfectly signed token whose
// session was revoked is rejected with ErrUnauthorized.
func (s *Service) ValidateSession(ctx context.Context, tokenStr string) (*SessionInfo, string, error) {
	if s == nil || s.sessions == nil {
		return nil, "", ErrNotReady
	}

	claims, err := s.jwtManager.Parse(tokenStr)
	if err != nil {
		s.metrics.inc(&s.metrics.validateFailure)
		return nil, "", ErrUnauthorized
	}

	sess, err := s.sessions.Get(ctx, claims.SID)
	if err != nil {
		s.metrics.inc(&s.metrics.validateFailure)
		if errors.Is(err, session.ErrSessionNotFound) {
			return nil, "", ErrUnauthorized
		}
		return nil, "", err
	}
	if sess.UserID != claims.UID {
		s.metrics.inc(&s.metrics.validateFailure)
		return nil, "", ErrUnauthorized
	}

	if s.config.Session.TouchOnRequest {
		if err := s.sessions.Touch(ctx, sess.ID, s.now()); err != nil {
			s.logger.Warn("session touch failed", "session_id", sess.ID, "error", err)
		}
	}

	s.metrics.inc(&s.metrics.validateSuccess)
	info := sessionInfo(sess)
	return &info, claims.UID, nil
}

// Sessions lists the user's live sessions.
func (s *Service) Sessions(ctx context.Context, userID string) ([]SessionInfo, error) {
	if s == nil || s.sessions == nil {
		return nil, ErrNotReady
	}

	list, err := s.sessions.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	infos := make([]SessionInfo, 0, len(list))
	for _, sess := range list {
		infos = append(infos, sessionInfo(sess))
	}
	return infos, nil
}

// Logout revokes the session named by a bearer token. Revoking an unknown or
// already-revoked session returns ErrSessionNotFound.
func (s *Service) Logout(ctx context.Context, tokenStr string) error {
	if s == nil || s.sessions == nil {
		return ErrNotReady
	}

	claims, err := s.jwtManager.Parse(tokenStr)
	if err != nil {
		return ErrSessionNotFound
	}

	if err := s.revokeSession(ctx, claims.UID, claims.SID, EventUserLogout); err != nil {
		return err
	}
	return nil
}

// RevokeSession revokes one of the user's sessions by id, e.g. from a
// "manage devices" screen. The session must belong to userID.
func (s *Service) RevokeSession(ctx context.Context, userID, sessionID string) error {
	if s == nil || s.sessions == nil {
		return ErrNotReady
	}

	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return ErrSessionNotFound
		}
		return err
	}
	if sess.UserID != userID {
		return ErrSessionNotFound
	}

	return s.revokeSession(ctx, userID, sessionID, EventSessionInvalidated)
}

func (s *Service) revokeSession(ctx context.Context, userID, sessionID, eventType string) error {
	existed, err := s.sessions.Delete(ctx, sessionID)
	if err != nil {
		return err
	}
	if !existed {
		return ErrSessionNotFound
	}

	s.metrics.inc(&s.metrics.sessionsRevoked)
	s.emitAudit(ctx, eventType, userID, sessionID, true, nil, nil)
	return nil
}

// LogoutAll revokes every session the user holds and reports how many were
// removed.
func (s *Service) LogoutAll(ctx context.Context, userID string) (int, error) {
	if s == nil || s.sessions == nil {
		return 0, ErrNotReady
	}

	removed, err := s.sessions.DeleteAllForUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	for i := 0; i < removed; i++ {
		s.metrics.inc(&s.metrics.sessionsRevoked)
	}
	s.emitAudit(ctx, EventAllSessionsInvalidated, userID, "", true, nil, map[string]string{
		"revoked": fmt.Sprintf("%d", removed),
	})
	return removed, nil
}

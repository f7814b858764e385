package authcore

import (
	"context"

	"github.com/mdreyer7/authcore/audit"
)

// Audit event types. These values are part of the stored trail format and
// must not be renamed.
const (
	EventUserLogin              = "USER_LOGIN"
	EventUserLoginFailed        = "USER_LOGIN_FAILED"
	EventUserLogout             = "USER_LOGOUT"
	EventUserCreated            = "USER_CREATED"
	EventUserUpdated            = "USER_UPDATED"
	EventUserDeleted            = "USER_DELETED"
	EventPasswordResetRequested = "PASSWORD_RESET_REQUESTED"
	EventPasswordReset          = "PASSWORD_RESET"
	EventPasswordChanged        = "PASSWORD_CHANGED"
	EventEmailVerified          = "EMAIL_VERIFIED"
	EventEmailChanged           = "EMAIL_CHANGED"
	EventAccountLocked          = "ACCOUNT_LOCKED"
	EventAccountUnlocked        = "ACCOUNT_UNLOCKED"
	EventSessionCreated         = "SESSION_CREATED"
	EventSessionInvalidated     = "SESSION_INVALIDATED"
	EventAllSessionsInvalidated = "ALL_SESSIONS_INVALIDATED"
)

func (s *Service) emitAudit(ctx context.Context, eventType, userID, sessionID string, success bool, failure error, details map[string]string) {
	event := audit.Event{
		Timestamp:    s.now(),
		EventType:    eventType,
		ActorUserID:  userID,
		TargetUserID: userID,
		SessionID:    sessionID,
		IP:           clientIPFromContext(ctx),
		UserAgent:    userAgentFromContext(ctx),
		Success:      success,
		Details:      details,
	}
	if failure != nil {
		event.Error = failure.Error()
	}
	s.auditor.Emit(ctx, event)
}

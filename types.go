package authcore

import (
	"context"
	"time"

	"github.com/mdreyer7/authcore/session"
)

// User is the account record exchanged with the UserStore. PasswordHash is a
// bcrypt digest; FailedAttempts and LockedUntil drive the lockout policy.
type User struct {
	ID             string
	Email          string
	PasswordHash   string
	EmailVerified  bool
	FailedAttempts int
	LockedUntil    time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Locked reports whether the account is inside an active lockout window.
func (u *User) Locked(now time.Time) bool {
	return u.LockedUntil.After(now)
}

// UserStore is the persistence interface the host application implements.
// Lookups by email must treat addresses case-insensitively; the service
// always passes normalized (lowercased, trimmed) emails. Lookups return
// ErrUserNotFound when no account matches.
//
// RecordLoginFailure must increment the stored counter atomically and return
// the post-increment value, so concurrent failed logins cannot undercount.
type UserStore interface {
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateEmail(ctx context.Context, id, email string) error
	MarkEmailVerified(ctx context.Context, id string) error
	RecordLoginFailure(ctx context.Context, id string) (int, error)
	ClearLoginFailures(ctx context.Context, id string) error
	SetLockedUntil(ctx context.Context, id string, until time.Time) error
	Delete(ctx context.Context, id string) error
}

// Mailer delivers the plaintext tokens produced by the verification flows.
// Implementations own templating and transport. Delivery failures are logged
// by the service and never change flow outcomes.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, email, token string) error
	SendPasswordResetEmail(ctx context.Context, email, token string) error
	SendEmailChangeConfirmation(ctx context.Context, newEmail, token string) error
}

// LoginResult is returned by Authenticate and IssueSession.
type LoginResult struct {
	UserID    string
	SessionID string
	Token     string
	ExpiresAt time.Time
}

// RegisterResult is returned by Register. VerificationSent reports whether a
// verification email was dispatched.
type RegisterResult struct {
	UserID           string
	VerificationSent bool
}

// SessionInfo is the caller-facing view of a device session.
type SessionInfo struct {
	ID         string
	Device     string
	IP         string
	UserAgent  string
	CreatedAt  time.Time
	LastActive time.Time
	ExpiresAt  time.Time
}

func sessionInfo(s *session.Session) SessionInfo {
	return SessionInfo{
		ID:         s.ID,
		Device:     s.Device,
		IP:         s.IP,
		UserAgent:  s.UserAgent,
		CreatedAt:  time.Unix(s.CreatedAt, 0),
		LastActive: time.Unix(s.LastActive, 0),
		ExpiresAt:  time.Unix(s.ExpiresAt, 0),
	}
}

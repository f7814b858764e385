package authcore

import (
	"log/slog"
	"strings"
	"time"

	"github.com/mdreyer7/authcore/audit"
	"github.com/mdreyer7/authcore/jwt"
	"github.com/mdreyer7/authcore/lockout"
	"github.com/mdreyer7/authcore/password"
	"github.com/mdreyer7/authcore/session"
	"github.com/mdreyer7/authcore/token"
)

// Service is the authentication core. Construct it with New().Build(); the
// zero value is not usable.
//
// All methods are safe for concurrent use provided the injected UserStore
// and Mailer are.
type Service struct {
	config Config

	users  UserStore
	mailer Mailer

	hasher         *password.Hasher
	passwordPolicy password.Policy
	dummyHash      string
	jwtManager     *jwt.Manager
	sessions       *session.Store
	tokens         *token.Store
	lockoutPolicy  lockout.Policy

	auditor  *audit.Dispatcher
	auditLog audit.Log
	metrics  *Metrics
	logger   *slog.Logger

	sweeper *sweeper

	now func() time.Time
}

// Metrics exposes the service counters.
func (s *Service) Metrics() *Metrics {
	return s.metrics
}

// MetricsSnapshot returns a point-in-time copy of the service counters.
// The metrics exporters read through this.
func (s *Service) MetricsSnapshot() MetricsSnapshot {
	return s.metrics.Snapshot()
}

// AuditDropped reports how many audit events were discarded under
// backpressure.
func (s *Service) AuditDropped() uint64 {
	return s.auditor.Dropped()
}

// AuditLog exposes the queryable audit trail, or nil when auditing is
// disabled.
func (s *Service) AuditLog() audit.Log {
	return s.auditLog
}

// Close stops background work and drains the audit pipeline. The service
// must not be used after Close.
func (s *Service) Close() {
	if s == nil {
		return
	}
	if s.sweeper != nil {
		s.sweeper.stop()
	}
	s.auditor.Close()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

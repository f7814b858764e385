package authcore

import "sync/atomic"

// Metrics holds in-process counters for the hot flows. All methods are safe
// for concurrent use; a nil *Metrics is a no-op.
type Metrics struct {
	loginSuccess       atomic.Uint64
	loginFailure       atomic.Uint64
	accountsLocked     atomic.Uint64
	registrations      atomic.Uint64
	emailsVerified     atomic.Uint64
	passwordResets     atomic.Uint64
	passwordChanges    atomic.Uint64
	sessionsCreated    atomic.Uint64
	sessionsRevoked    atomic.Uint64
	validateSuccess    atomic.Uint64
	validateFailure    atomic.Uint64
	tokensConsumed     atomic.Uint64
	tokenConsumeFailed atomic.Uint64
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	LoginSuccess       uint64
	LoginFailure       uint64
	AccountsLocked     uint64
	Registrations      uint64
	EmailsVerified     uint64
	PasswordResets     uint64
	PasswordChanges    uint64
	SessionsCreated    uint64
	SessionsRevoked    uint64
	ValidateSuccess    uint64
	ValidateFailure    uint64
	TokensConsumed     uint64
	TokenConsumeFailed uint64
}

func newMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) inc(counter *atomic.Uint64) {
	if m == nil {
		return
	}
	counter.Add(1)
}

// Snapshot returns a consistent-enough copy of the counters. Individual
// counters are read atomically; the set as a whole is not a transaction.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	return MetricsSnapshot{
		LoginSuccess:       m.loginSuccess.Load(),
		LoginFailure:       m.loginFailure.Load(),
		AccountsLocked:     m.accountsLocked.Load(),
		Registrations:      m.registrations.Load(),
		EmailsVerified:     m.emailsVerified.Load(),
		PasswordResets:     m.passwordResets.Load(),
		PasswordChanges:    m.passwordChanges.Load(),
		SessionsCreated:    m.sessionsCreated.Load(),
		SessionsRevoked:    m.sessionsRevoked.Load(),
		ValidateSuccess:    m.validateSuccess.Load(),
		ValidateFailure:    m.validateFailure.Load(),
		TokensConsumed:     m.tokensConsumed.Load(),
		TokenConsumeFailed: m.tokenConsumeFailed.Load(),
	}
}

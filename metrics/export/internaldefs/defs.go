package internaldefs

import (
	authcore "github.com/mdreyer7/authcore"
)

// CounterDef describes one exported counter: its wire name, help text, and
// how to read it out of a snapshot.
type CounterDef struct {
	Name  string
	Help  string
	Value func(authcore.MetricsSnapshot) uint64
}

// AuditDroppedName is the counter for audit events discarded under
// backpressure. It lives outside CounterDefs because it is read from the
// dispatcher, not the snapshot.
const AuditDroppedName = "authcore_audit_dropped_total"

// AuditDroppedHelp documents AuditDroppedName.
const AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."

// CounterDefs lists every snapshot counter in stable output order.
var CounterDefs = []CounterDef{
	{
		Name:  "authcore_login_success_total",
		Help:  "Successful logins.",
		Value: func(s authcore.MetricsSnapshot) uint64 { return s.LoginSuccess },
	},
	{
		Name:  "authcore_login_failure_total",
		Help:  "Failed login attempts.",
		Value: func(s authcore.MetricsSnapshot) uint64 { return s.LoginFailure },
	},
	{
		Name:  "authcore_accounts_locked_total",
		Help:  "Accounts locked by the failed-login policy.",
		Value: func(s authcore.MetricsSnapshot) uint64 { return s.AccountsLocked },
	},
	{
		Name:  "authcore_registrations_total",
		Help:  "Accounts registered.",
		Value: func(s authcore.MetricsSnapshot) uint64 { return s.Registrations },
	},
	{
		Name:  "authcore_emails_verified_total",
		Help:  "Email addresses verified.",
		Value: func(s authcore.MetricsSnapshot) uint64 { return s.EmailsVerified },
	},
	{
		Name:  "authcore_password_resets_total",
		Help:  "Completed password resets.",
		Value: func(s authcore.MetricsSnapshot) uint64 { return s.PasswordResets },
	},
	{
		Name:  "authcore_password_changes_total",
		Help:  "Completed self-service password changes.",
		Value: func(s authcore.MetricsSnapshot) uint64 { return s.PasswordChanges },
	},
	{
		Name:  "authcore_sessions_created_total",
		Help:  "Sessions created.",
		Value: func(s authcore.MetricsSnapshot) uint64 { return s.SessionsCreated },
	},
	{
		Name:  "authcore_sessions_revoked_total",
		Help:  "Sessions revoked.",
		Value: func(s authcore.MetricsSnapshot) uint64 { return s.SessionsRevoked },
	},
	{
		Name:  "authcore_validate_success_total",
		Help:  "Successful session validations.",
		Value: func(s authcore.MetricsSnapshot) uint64 { return s.ValidateSuccess },
	},
	{
		Name:  "authcore_validate_failure_total",
		Help:  "Rejected session validations.",
		Value: func(s authcore.MetricsSnapshot) uint64 { return s.ValidateFailure },
	},
	{
		Name:  "authcore_tokens_consumed_total",
		Help:  "Single-use tokens consumed successfully.",
		Value: func(s authcore.MetricsSnapshot) uint64 { return s.TokensConsumed },
	},
	{
		Name:  "authcore_token_consume_failed_total",
		Help:  "Single-use token consumption failures.",
		Value: func(s authcore.MetricsSnapshot) uint64 { return s.TokenConsumeFailed },
	},
}

package authcore

import (
	"errors"
	"time"

	"github.com/mdreyer7/authcore/password"
)

// Config defines the full tuning surface of the service.
//
// Config instances are intended to be configured during initialization and
// then treated as immutable.
type Config struct {
	JWT               JWTConfig
	Password          PasswordConfig
	Lockout           LockoutConfig
	EmailVerification TokenFlowConfig
	PasswordReset     TokenFlowConfig
	EmailChange       TokenFlowConfig
	Session           SessionConfig
	Audit             AuditConfig
	Security          SecurityConfig
}

// JWTConfig covers the session bearer token.
type JWTConfig struct {
	Secret   []byte
	TokenTTL time.Duration
	Issuer   string
	Leeway   time.Duration
}

// PasswordConfig covers hashing cost and strength policy.
type PasswordConfig struct {
	Cost   int
	Policy password.Policy
}

// LockoutConfig covers the failed-login lockout. MaxAttempts 0 disables
// lockout entirely.
type LockoutConfig struct {
	MaxAttempts  int
	LockDuration time.Duration
}

// TokenFlowConfig covers one single-use token flow.
type TokenFlowConfig struct {
	TTL         time.Duration
	MaxAttempts int
}

// SessionConfig covers session lifetime and storage.
type SessionConfig struct {
	TTL            time.Duration
	RedisPrefix    string
	TouchOnRequest bool
	SweepInterval  time.Duration
}

// AuditConfig covers the async audit pipeline.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
	MaxEntries int64
}

// SecurityConfig holds cross-cutting hardening switches.
//
// RequireVerifiedEmail gates login on a verified address.
// RevokeSessionsOnPasswordChange extends the reset-flow revocation to
// self-service password changes; it defaults to false because the changing
// user already holds a valid credential.
type SecurityConfig struct {
	ProductionMode                 bool
	RequireVerifiedEmail           bool
	RevokeSessionsOnPasswordChange bool
}

// DefaultConfig returns the configuration New starts from. Callers that need
// to tweak a few knobs should start here, set JWT.Secret, and pass the result
// to Builder.WithConfig.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			TokenTTL: 15 * time.Minute,
			Leeway:   30 * time.Second,
		},
		Password: PasswordConfig{
			Cost:   12,
			Policy: password.DefaultPolicy(),
		},
		Lockout: LockoutConfig{
			MaxAttempts:  5,
			LockDuration: 30 * time.Minute,
		},
		EmailVerification: TokenFlowConfig{
			TTL:         24 * time.Hour,
			MaxAttempts: 5,
		},
		PasswordReset: TokenFlowConfig{
			TTL:         time.Hour,
			MaxAttempts: 5,
		},
		EmailChange: TokenFlowConfig{
			TTL:         time.Hour,
			MaxAttempts: 5,
		},
		Session: SessionConfig{
			TTL:            7 * 24 * time.Hour,
			RedisPrefix:    "as",
			TouchOnRequest: true,
			SweepInterval:  0,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 1024,
			DropIfFull: true,
			MaxEntries: 100000,
		},
		Security: SecurityConfig{
			ProductionMode:                 false,
			RequireVerifiedEmail:           true,
			RevokeSessionsOnPasswordChange: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.Secret = cloneBytes(cfg.JWT.Secret)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Validate checks the configuration for internal consistency. ProductionMode
// additionally rejects settings that weaken the deployment.
func (c *Config) Validate() error {
	if len(c.JWT.Secret) < 32 {
		return errors.New("JWT Secret must be at least 32 bytes")
	}
	if c.JWT.TokenTTL <= 0 {
		return errors.New("JWT TokenTTL must be > 0")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be between 0 and 2m")
	}

	if c.Password.Cost < password.MinCost || c.Password.Cost > password.MaxCost {
		return errors.New("Password Cost out of bcrypt range")
	}
	if c.Password.Policy.MinLength < 1 {
		return errors.New("Password Policy MinLength must be >= 1")
	}

	if c.Lockout.MaxAttempts < 0 {
		return errors.New("Lockout MaxAttempts must be >= 0")
	}
	if c.Lockout.MaxAttempts > 0 && c.Lockout.LockDuration <= 0 {
		return errors.New("Lockout LockDuration must be > 0 when lockout is enabled")
	}

	for _, flow := range []struct {
		name string
		cfg  TokenFlowConfig
	}{
		{"EmailVerification", c.EmailVerification},
		{"PasswordReset", c.PasswordReset},
		{"EmailChange", c.EmailChange},
	} {
		if flow.cfg.TTL <= 0 {
			return errors.New(flow.name + " TTL must be > 0")
		}
		if flow.cfg.MaxAttempts <= 0 {
			return errors.New(flow.name + " MaxAttempts must be > 0")
		}
	}

	if c.Session.TTL <= 0 {
		return errors.New("Session TTL must be > 0")
	}
	if c.Session.TTL < c.JWT.TokenTTL {
		return errors.New("Session TTL must be >= JWT TokenTTL")
	}
	if c.Session.SweepInterval < 0 {
		return errors.New("Session SweepInterval must be >= 0")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	if c.Security.ProductionMode {
		if c.Password.Cost < 12 {
			return errors.New("production mode requires Password Cost >= 12")
		}
		if c.Lockout.MaxAttempts == 0 {
			return errors.New("production mode requires lockout to be enabled")
		}
		if c.PasswordReset.TTL > time.Hour {
			return errors.New("production mode requires PasswordReset TTL <= 1h")
		}
		if !c.Audit.Enabled {
			return errors.New("production mode requires audit to be enabled")
		}
	}

	return nil
}

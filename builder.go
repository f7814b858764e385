package authcore

import (
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mdreyer7/authcore/audit"
	"github.com/mdreyer7/authcore/jwt"
	"github.com/mdreyer7/authcore/lockout"
	"github.com/mdreyer7/authcore/password"
	"github.com/mdreyer7/authcore/session"
	"github.com/mdreyer7/authcore/token"
)

// Builder assembles a Service. Each With* call returns the builder for
// chaining; Build may be called once.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	users     UserStore
	mailer    Mailer
	auditSink audit.Sink
	auditLog  audit.Log
	logger    *slog.Logger

	built bool
}

// New returns a Builder preloaded with the default configuration.
func New() *Builder {
	return &Builder{config: defaultConfig()}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

func (b *Builder) WithUserStore(users UserStore) *Builder {
	b.users = users
	return b
}

func (b *Builder) WithMailer(mailer Mailer) *Builder {
	b.mailer = mailer
	return b
}

// WithAuditSink overrides the default Redis-backed audit trail with a custom
// sink. When set, AuditLog() returns nil unless WithAuditLog is also used.
func (b *Builder) WithAuditSink(sink audit.Sink) *Builder {
	b.auditSink = sink
	return b
}

// WithAuditLog overrides the audit trail backend while keeping the default
// LogSink delivery.
func (b *Builder) WithAuditLog(log audit.Log) *Builder {
	b.auditLog = log
	return b
}

func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// Build validates the configuration and wires the service together.
func (b *Builder) Build() (*Service, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.users == nil {
		return nil, errors.New("user store required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	hasher, err := password.NewHasher(password.Config{Cost: cfg.Password.Cost})
	if err != nil {
		return nil, err
	}

	// Digest compared against when the email is unknown, so both failure
	// modes cost one bcrypt verification.
	dummyHash, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, err
	}

	jwtManager, err := jwt.NewManager(jwt.Config{
		Secret:   cfg.JWT.Secret,
		TokenTTL: cfg.JWT.TokenTTL,
		Issuer:   cfg.JWT.Issuer,
		Leeway:   cfg.JWT.Leeway,
	})
	if err != nil {
		return nil, err
	}

	svc := &Service{
		config:         cfg,
		users:          b.users,
		mailer:         b.mailer,
		hasher:         hasher,
		passwordPolicy: cfg.Password.Policy,
		dummyHash:      dummyHash,
		jwtManager:     jwtManager,
		sessions:       session.NewStore(b.redis, cfg.Session.RedisPrefix),
		tokens:         token.NewStore(b.redis, ""),
		lockoutPolicy: lockout.Policy{
			MaxAttempts:  cfg.Lockout.MaxAttempts,
			LockDuration: cfg.Lockout.LockDuration,
		},
		metrics: newMetrics(),
		logger:  logger,
		now:     time.Now,
	}

	sink := b.auditSink
	if sink == nil && cfg.Audit.Enabled {
		auditLog := b.auditLog
		if auditLog == nil {
			auditLog = audit.NewRedisLog(b.redis, "aud", cfg.Audit.MaxEntries)
		}
		svc.auditLog = auditLog
		sink = audit.NewLogSink(auditLog, logger)
	} else if b.auditLog != nil {
		svc.auditLog = b.auditLog
	}

	svc.auditor = audit.NewDispatcher(audit.DispatcherConfig{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, sink)

	if cfg.Session.SweepInterval > 0 {
		svc.sweeper = startSweeper(svc.sessions, cfg.Session.SweepInterval, logger)
	}

	b.built = true

	return svc, nil
}

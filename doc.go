// Package authcore is an embeddable authentication and session management
// core: credential verification with bcrypt, account lockout, single-use
// verification tokens for email and password flows, multi-device sessions
// backed by Redis, and an asynchronous audit trail.
//
// Persistence of user accounts stays behind the UserStore interface so the
// host application keeps ownership of its user table. Sessions, tokens, and
// the audit trail live in Redis.
//
// Construction goes through the Builder:
//
//	cfg := authcore.DefaultConfig()
//	cfg.JWT.Secret = secret
//
//	svc, err := authcore.New().
//		WithConfig(cfg).
//		WithRedis(client).
//		WithUserStore(store).
//		WithMailer(mailer).
//		Build()
//
// All operations take a context.Context; request metadata for auditing is
// attached with WithClientIP, WithUserAgent, and WithDevice.
package authcore

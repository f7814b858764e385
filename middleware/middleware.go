package middleware

import (
	"context"
	"net/http"
	"strings"

	authcore "github.com/mdreyer7/authcore"
)

type identityContextKey struct{}

// Identity is the authenticated caller injected into the request context.
type Identity struct {
	UserID  string
	Session authcore.SessionInfo
}

// IdentityFromContext returns the identity set by RequireSession.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(*Identity)
	return id, ok
}

// RequireSession rejects requests without a live session. Request metadata
// (client IP, user agent) is attached to the context so downstream Service
// calls audit correctly.
func RequireSession(svc *authcore.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if svc == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := WithRequestMetadata(r.Context(), r)
			info, userID, err := svc.ValidateSession(ctx, token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx = context.WithValue(ctx, identityContextKey{}, &Identity{
				UserID:  userID,
				Session: *info,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithRequestMetadata copies the request's client IP and user agent into the
// context carriers the Service reads.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ctx = authcore.WithClientIP(ctx, clientIP(r))
	ctx = authcore.WithUserAgent(ctx, r.UserAgent())
	return ctx
}

func clientIP(r *http.Request) string {
	host := r.RemoteAddr
	if idx := strings.LastIndex(host, ":"); idx > 0 && !strings.HasSuffix(host, "]") {
		host = host[:idx]
	}
	return strings.Trim(host, "[]")
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}

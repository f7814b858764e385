package middleware_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	authcore "github.com/mdreyer7/authcore"
	"github.com/mdreyer7/authcore/middleware"
	"github.com/mdreyer7/authcore/password"
)

type mapUserStore struct {
	mu    sync.Mutex
	users map[string]*authcore.User
}

func newMapUserStore() *mapUserStore {
	return &mapUserStore{users: make(map[string]*authcore.User)}
}

func (s *mapUserStore) find(match func(*authcore.User) bool) (*authcore.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if match(u) {
			out := *u
			return &out, nil
		}
	}
	return nil, authcore.ErrUserNotFound
}

func (s *mapUserStore) FindByID(_ context.Context, id string) (*authcore.User, error) {
	return s.find(func(u *authcore.User) bool { return u.ID == id })
}

func (s *mapUserStore) FindByEmail(_ context.Context, email string) (*authcore.User, error) {
	return s.find(func(u *authcore.User) bool { return u.Email == email })
}

func (s *mapUserStore) Create(_ context.Context, user *authcore.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := *user
	s.users[user.ID] = &out
	return nil
}

func (s *mapUserStore) mutate(id string, fn func(*authcore.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return authcore.ErrUserNotFound
	}
	fn(u)
	return nil
}

func (s *mapUserStore) UpdatePassword(_ context.Context, id, hash string) error {
	return s.mutate(id, func(u *authcore.User) { u.PasswordHash = hash })
}

func (s *mapUserStore) UpdateEmail(_ context.Context, id, email string) error {
	return s.mutate(id, func(u *authcore.User) { u.Email = email })
}

func (s *mapUserStore) MarkEmailVerified(_ context.Context, id string) error {
	return s.mutate(id, func(u *authcore.User) { u.EmailVerified = true })
}

func (s *mapUserStore) RecordLoginFailure(_ context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return 0, authcore.ErrUserNotFound
	}
	u.FailedAttempts++
	return u.FailedAttempts, nil
}

func (s *mapUserStore) ClearLoginFailures(_ context.Context, id string) error {
	return s.mutate(id, func(u *authcore.User) { u.FailedAttempts = 0 })
}

func (s *mapUserStore) SetLockedUntil(_ context.Context, id string, until time.Time) error {
	return s.mutate(id, func(u *authcore.User) { u.LockedUntil = until })
}

func (s *mapUserStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.users, id)
	return nil
}

type captureMailer struct {
	mu    sync.Mutex
	token string
}

func (m *captureMailer) record(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *captureMailer) SendVerificationEmail(_ context.Context, _, token string) error {
	return m.record(token)
}

func (m *captureMailer) SendPasswordResetEmail(_ context.Context, _, token string) error {
	return m.record(token)
}

func (m *captureMailer) SendEmailChangeConfirmation(_ context.Context, _, token string) error {
	return m.record(token)
}

func (m *captureMailer) last() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

func newService(t *testing.T) *authcore.Service {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := authcore.DefaultConfig()
	cfg.JWT.Secret = []byte("0123456789abcdef0123456789abcdef")
	cfg.Password.Cost = password.MinCost

	svc, err := authcore.New().
		WithConfig(cfg).
		WithRedis(client).
		WithUserStore(newMapUserStore()).
		WithMailer(&captureMailer{}).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(svc.Close)

	return svc
}

func loginToken(t *testing.T, svc *authcore.Service) string {
	t.Helper()

	ctx := context.Background()

	result, err := svc.Register(ctx, "alice@example.test", "Str0ng!Pass")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	login, err := svc.IssueSession(ctx, result.UserID)
	if err != nil {
		t.Fatalf("IssueSession failed: %v", err)
	}
	return login.Token
}

func protectedHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := middleware.IdentityFromContext(r.Context())
		if !ok {
			t.Error("identity missing from context")
			http.Error(w, "no identity", http.StatusInternalServerError)
			return
		}
		_, _ = io.WriteString(w, id.UserID)
	})
}

func TestRequireSessionAllowsValidToken(t *testing.T) {
	svc := newService(t)
	token := loginToken(t, svc)

	srv := httptest.NewServer(middleware.RequireSession(svc)(protectedHandler(t)))
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if len(body) == 0 {
		t.Fatal("expected user ID in response body")
	}
}

func TestRequireSessionRejectsMissingOrBadTokens(t *testing.T) {
	svc := newService(t)

	srv := httptest.NewServer(middleware.RequireSession(svc)(protectedHandler(t)))
	defer srv.Close()

	cases := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"wrong scheme", "Basic abc123"},
		{"empty bearer", "Bearer "},
		{"garbage token", "Bearer not-a-jwt"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}

			resp, err := srv.Client().Do(req)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			resp.Body.Close()

			if resp.StatusCode != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", resp.StatusCode)
			}
		})
	}
}

func TestRequireSessionRejectsRevokedSession(t *testing.T) {
	svc := newService(t)
	token := loginToken(t, svc)

	if err := svc.Logout(context.Background(), token); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	srv := httptest.NewServer(middleware.RequireSession(svc)(protectedHandler(t)))
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

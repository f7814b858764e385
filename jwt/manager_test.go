package jwt

import (
	"strings"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestManager(t *testing.T, ttl time.Duration) *Manager {
	t.Helper()

	m, err := NewManager(Config{Secret: testSecret, TokenTTL: ttl, Issuer: "authcore-test"})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return m
}

func TestIssueAndParse(t *testing.T) {
	m := newTestManager(t, time.Hour)

	token, err := m.Issue("u1", "s1", time.Now())
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	claims, err := m.Parse(token)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if claims.UID != "u1" || claims.SID != "s1" {
		t.Fatalf("unexpected claims: uid=%q sid=%q", claims.UID, claims.SID)
	}
}

func TestParseRejectsExpired(t *testing.T) {
	m := newTestManager(t, time.Minute)

	token, err := m.Issue("u1", "s1", time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := m.Parse(token); err == nil {
		t.Fatal("expected expired token to fail")
	}
}

func TestParseRejectsTampering(t *testing.T) {
	m := newTestManager(t, time.Hour)

	token, err := m.Issue("u1", "s1", time.Now())
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %q", token)
	}
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))
	if _, err := m.Parse(tampered); err == nil {
		t.Fatal("expected tampered signature to fail")
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	m := newTestManager(t, time.Hour)
	other := newTestManager(t, time.Hour)
	other.config.Secret = []byte("ffffffffffffffffffffffffffffffff")

	token, err := other.Issue("u1", "s1", time.Now())
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := m.Parse(token); err == nil {
		t.Fatal("expected foreign-secret token to fail")
	}
}

func TestParseRejectsNoneAlgorithm(t *testing.T) {
	m := newTestManager(t, time.Hour)

	unsigned := jwtlib.NewWithClaims(jwtlib.SigningMethodNone, Claims{
		UID: "u1",
		SID: "s1",
		RegisteredClaims: jwtlib.RegisteredClaims{
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	token, err := unsigned.SignedString(jwtlib.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("signing unsigned token failed: %v", err)
	}
	if _, err := m.Parse(token); err == nil {
		t.Fatal("expected alg=none token to fail")
	}
}

func TestParseRejectsMissingClaims(t *testing.T) {
	m := newTestManager(t, time.Hour)

	bare := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.RegisteredClaims{
		ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Hour)),
		Issuer:    "authcore-test",
	})
	token, err := bare.SignedString(testSecret)
	if err != nil {
		t.Fatalf("signing failed: %v", err)
	}
	if _, err := m.Parse(token); err == nil {
		t.Fatal("expected token without uid/sid to fail")
	}
}

func TestNewManagerValidation(t *testing.T) {
	if _, err := NewManager(Config{Secret: []byte("short"), TokenTTL: time.Hour}); err == nil {
		t.Fatal("expected short secret to be rejected")
	}
	if _, err := NewManager(Config{Secret: testSecret, TokenTTL: 0}); err == nil {
		t.Fatal("expected zero TTL to be rejected")
	}
	if _, err := NewManager(Config{Secret: testSecret, TokenTTL: time.Hour, Leeway: 5 * time.Minute}); err == nil {
		t.Fatal("expected oversized leeway to be rejected")
	}
}

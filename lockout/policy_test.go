package lockout

import (
	"testing"
	"time"
)

func TestEvaluateStates(t *testing.T) {
	p := Default()
	now := time.Now()

	if got := p.Evaluate(0, time.Time{}, now); got != StateNormal {
		t.Fatalf("expected StateNormal, got %v", got)
	}
	if got := p.Evaluate(3, time.Time{}, now); got != StateWarned {
		t.Fatalf("expected StateWarned, got %v", got)
	}
	if got := p.Evaluate(5, now.Add(10*time.Minute), now); got != StateLocked {
		t.Fatalf("expected StateLocked, got %v", got)
	}
}

func TestLockExpiryIsImplicit(t *testing.T) {
	p := Default()
	now := time.Now()

	// Expired lock with a stale counter behaves as Warned, never Locked.
	if got := p.Evaluate(5, now.Add(-time.Minute), now); got != StateWarned {
		t.Fatalf("expected StateWarned after lock expiry, got %v", got)
	}
	if got := p.Evaluate(0, now.Add(-time.Minute), now); got != StateNormal {
		t.Fatalf("expected StateNormal after lock expiry with clean counter, got %v", got)
	}
}

func TestShouldLockThreshold(t *testing.T) {
	p := Policy{MaxAttempts: 5, LockDuration: 30 * time.Minute}

	for attempts := 1; attempts < 5; attempts++ {
		if p.ShouldLock(attempts) {
			t.Fatalf("attempts=%d should not lock", attempts)
		}
	}
	if !p.ShouldLock(5) {
		t.Fatal("attempts=5 must lock")
	}
	if !p.ShouldLock(6) {
		t.Fatal("attempts past the threshold must stay locked")
	}
}

func TestShouldLockDisabled(t *testing.T) {
	p := Policy{MaxAttempts: 0}
	if p.ShouldLock(100) {
		t.Fatal("zero MaxAttempts disables locking")
	}
}

func TestRemainingMinutesRoundsUp(t *testing.T) {
	p := Default()
	now := time.Now()

	cases := []struct {
		until time.Time
		want  int
	}{
		{now.Add(30 * time.Minute), 30},
		{now.Add(29*time.Minute + time.Second), 30},
		{now.Add(90 * time.Second), 2},
		{now.Add(time.Second), 1},
		{now.Add(-time.Second), 0},
		{time.Time{}, 0},
	}
	for _, tc := range cases {
		if got := p.RemainingMinutes(tc.until, now); got != tc.want {
			t.Fatalf("RemainingMinutes(%v) = %d, want %d", tc.until.Sub(now), got, tc.want)
		}
	}
}

func TestLockUntil(t *testing.T) {
	p := Policy{MaxAttempts: 5, LockDuration: 30 * time.Minute}
	now := time.Now()
	if got := p.LockUntil(now); !got.Equal(now.Add(30 * time.Minute)) {
		t.Fatalf("LockUntil = %v, want now+30m", got)
	}
}

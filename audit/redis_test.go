package audit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisLog(t *testing.T) *RedisLog {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLog(client, "aud", 1000)
}

func TestRedisLogAppendAndByUser(t *testing.T) {
	log := newTestRedisLog(t)
	ctx := context.Background()

	events := []Event{
		{Timestamp: time.Now(), EventType: "USER_CREATED", TargetUserID: "u1", Success: true},
		{Timestamp: time.Now(), EventType: "USER_LOGIN", TargetUserID: "u1", IP: "10.0.0.1", Success: true},
		{Timestamp: time.Now(), EventType: "USER_LOGIN", TargetUserID: "u2", IP: "10.0.0.1", Success: true},
	}
	for _, event := range events {
		if err := log.Append(ctx, event); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	byUser, err := log.ByUser(ctx, "u1", 10, 0)
	if err != nil {
		t.Fatalf("ByUser failed: %v", err)
	}
	if len(byUser) != 2 {
		t.Fatalf("len = %d, want 2", len(byUser))
	}
	if byUser[0].EventType != "USER_LOGIN" || byUser[1].EventType != "USER_CREATED" {
		t.Fatalf("expected newest-first, got %v then %v", byUser[0].EventType, byUser[1].EventType)
	}

	byIP, err := log.ByIP(ctx, "10.0.0.1", 10, 0)
	if err != nil {
		t.Fatalf("ByIP failed: %v", err)
	}
	if len(byIP) != 2 {
		t.Fatalf("len = %d, want 2", len(byIP))
	}
}

func TestRedisLogQueryFilter(t *testing.T) {
	log := newTestRedisLog(t)
	ctx := context.Background()

	_ = log.Append(ctx, Event{Timestamp: time.Now(), EventType: "USER_LOGIN", TargetUserID: "u1", Success: true})
	_ = log.Append(ctx, Event{Timestamp: time.Now(), EventType: "USER_LOGIN_FAILED", TargetUserID: "u1", Success: false})
	_ = log.Append(ctx, Event{Timestamp: time.Now(), EventType: "ACCOUNT_LOCKED", TargetUserID: "u1", Success: true})

	results, err := log.Query(ctx, Filter{EventTypes: []string{"USER_LOGIN_FAILED", "ACCOUNT_LOCKED"}}, 10, 0)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len = %d, want 2", len(results))
	}
	if results[0].EventType != "ACCOUNT_LOCKED" {
		t.Fatalf("expected newest match first, got %v", results[0].EventType)
	}
}

func TestRedisLogPagination(t *testing.T) {
	log := newTestRedisLog(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_ = log.Append(ctx, Event{Timestamp: time.Now(), EventType: "USER_LOGIN", TargetUserID: "u1", Success: true})
	}

	page1, err := log.ByUser(ctx, "u1", 2, 0)
	if err != nil {
		t.Fatalf("ByUser failed: %v", err)
	}
	page2, err := log.ByUser(ctx, "u1", 2, 2)
	if err != nil {
		t.Fatalf("ByUser failed: %v", err)
	}
	page3, err := log.ByUser(ctx, "u1", 2, 4)
	if err != nil {
		t.Fatalf("ByUser failed: %v", err)
	}

	if len(page1) != 2 || len(page2) != 2 || len(page3) != 1 {
		t.Fatalf("page sizes = %d,%d,%d, want 2,2,1", len(page1), len(page2), len(page3))
	}
}

func TestRedisLogCapsHistory(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	log := NewRedisLog(client, "aud", 3)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if err := log.Append(ctx, Event{Timestamp: time.Now(), EventType: "USER_LOGIN", Success: true}); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	length := client.LLen(ctx, "aud:log").Val()
	if length != 3 {
		t.Fatalf("list length = %d, want 3", length)
	}
}

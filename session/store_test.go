package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) redis.UniversalClient {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func newTestSession(id, userID string, lifetime time.Duration) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		UserID:     userID,
		Device:     "laptop",
		IP:         "203.0.113.9",
		UserAgent:  "test-agent",
		CreatedAt:  now.Unix(),
		LastActive: now.Unix(),
		ExpiresAt:  now.Add(lifetime).Unix(),
	}
}

func TestStoreSaveAndGet(t *testing.T) {
	store := NewStore(newTestRedis(t), "as")
	ctx := context.Background()

	sess := newTestSession("s1", "u1", time.Hour)
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.UserID != "u1" || got.Device != "laptop" || got.ExpiresAt != sess.ExpiresAt {
		t.Fatalf("unexpected session: %+v", got)
	}
}

func TestStoreGetMissing(t *testing.T) {
	store := NewStore(newTestRedis(t), "as")

	if _, err := store.Get(context.Background(), "nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestStoreGetExpiredRecord(t *testing.T) {
	client := newTestRedis(t)
	store := NewStore(client, "as")
	ctx := context.Background()

	// A record whose stored expiry has passed but whose key still exists.
	sess := newTestSession("s1", "u1", time.Hour)
	sess.ExpiresAt = time.Now().Add(-time.Minute).Unix()
	data, err := Encode(sess)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if err := client.Set(ctx, "as:s1", data, 0).Err(); err != nil {
		t.Fatalf("seeding redis failed: %v", err)
	}

	if _, err := store.Get(ctx, "s1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if exists := client.Exists(ctx, "as:s1").Val(); exists != 0 {
		t.Fatal("expected expired record to be removed")
	}
}

func TestStoreTouchUpdatesLastActive(t *testing.T) {
	store := NewStore(newTestRedis(t), "as")
	ctx := context.Background()

	sess := newTestSession("s1", "u1", time.Hour)
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	later := time.Now().Add(10 * time.Minute)
	if err := store.Touch(ctx, "s1", later); err != nil {
		t.Fatalf("Touch failed: %v", err)
	}

	got, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.LastActive != later.Unix() {
		t.Fatalf("LastActive = %d, want %d", got.LastActive, later.Unix())
	}
	if got.ExpiresAt != sess.ExpiresAt || got.UserID != "u1" {
		t.Fatalf("touch corrupted record: %+v", got)
	}
}

func TestStoreTouchMissingIsNoOp(t *testing.T) {
	store := NewStore(newTestRedis(t), "as")

	if err := store.Touch(context.Background(), "nope", time.Now()); err != nil {
		t.Fatalf("Touch on missing session should be a no-op, got %v", err)
	}
}

func TestStoreDelete(t *testing.T) {
	client := newTestRedis(t)
	store := NewStore(client, "as")
	ctx := context.Background()

	sess := newTestSession("s1", "u1", time.Hour)
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	existed, err := store.Delete(ctx, "s1")
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if !existed {
		t.Fatal("expected Delete to report the session existed")
	}

	existed, err = store.Delete(ctx, "s1")
	if err != nil {
		t.Fatalf("second Delete failed: %v", err)
	}
	if existed {
		t.Fatal("expected second Delete to report not found")
	}

	members := client.SMembers(ctx, "asu:u1").Val()
	if len(members) != 0 {
		t.Fatalf("expected empty user index, got %v", members)
	}
}

func TestStoreDeleteAllForUser(t *testing.T) {
	client := newTestRedis(t)
	store := NewStore(client, "as")
	ctx := context.Background()

	for _, id := range []string{"s1", "s2", "s3"} {
		if err := store.Save(ctx, newTestSession(id, "u1", time.Hour)); err != nil {
			t.Fatalf("Save %s failed: %v", id, err)
		}
	}
	if err := store.Save(ctx, newTestSession("other", "u2", time.Hour)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	removed, err := store.DeleteAllForUser(ctx, "u1")
	if err != nil {
		t.Fatalf("DeleteAllForUser failed: %v", err)
	}
	if removed != 3 {
		t.Fatalf("removed = %d, want 3", removed)
	}

	for _, id := range []string{"s1", "s2", "s3"} {
		if _, err := store.Get(ctx, id); !errors.Is(err, ErrSessionNotFound) {
			t.Fatalf("expected %s to be gone, got %v", id, err)
		}
	}
	if _, err := store.Get(ctx, "other"); err != nil {
		t.Fatalf("unrelated user's session should survive, got %v", err)
	}
}

func TestStoreListByUserPrunesStale(t *testing.T) {
	client := newTestRedis(t)
	store := NewStore(client, "as")
	ctx := context.Background()

	if err := store.Save(ctx, newTestSession("s1", "u1", time.Hour)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	// Orphan index entry with no backing record.
	if err := client.SAdd(ctx, "asu:u1", "ghost").Err(); err != nil {
		t.Fatalf("seeding redis failed: %v", err)
	}

	sessions, err := store.ListByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != "s1" {
		t.Fatalf("unexpected sessions: %+v", sessions)
	}

	members := client.SMembers(ctx, "asu:u1").Val()
	if len(members) != 1 || members[0] != "s1" {
		t.Fatalf("expected ghost entry pruned, index = %v", members)
	}
}

func TestStoreCount(t *testing.T) {
	store := NewStore(newTestRedis(t), "as")
	ctx := context.Background()

	if err := store.Save(ctx, newTestSession("s1", "u1", time.Hour)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Save(ctx, newTestSession("s2", "u1", time.Hour)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	count, err := store.Count(ctx, "u1")
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}
}

func TestStoreSweepRemovesExpired(t *testing.T) {
	client := newTestRedis(t)
	store := NewStore(client, "as")
	ctx := context.Background()

	if err := store.Save(ctx, newTestSession("live", "u1", time.Hour)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	dead := newTestSession("dead", "u1", time.Hour)
	dead.ExpiresAt = time.Now().Add(-time.Minute).Unix()
	data, err := Encode(dead)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if err := client.Set(ctx, "as:dead", data, 0).Err(); err != nil {
		t.Fatalf("seeding redis failed: %v", err)
	}
	if err := client.SAdd(ctx, "asu:u1", "dead").Err(); err != nil {
		t.Fatalf("seeding redis failed: %v", err)
	}

	removed, err := store.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}

	if _, err := store.Get(ctx, "live"); err != nil {
		t.Fatalf("live session should survive sweep, got %v", err)
	}
	if exists := client.Exists(ctx, "as:dead").Val(); exists != 0 {
		t.Fatal("expected expired session to be removed")
	}
}

package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound is returned when the requested session does not exist or
// has expired.
var ErrSessionNotFound = errors.New("session not found")

// ErrRedisUnavailable wraps transport-level Redis failures.
var ErrRedisUnavailable = errors.New("redis unavailable")

const deleteSessionScript = `
local existed = redis.call("EXISTS", KEYS[1])
redis.call("SREM", KEYS[2], ARGV[1])
if existed == 1 then
  redis.call("DEL", KEYS[1])
end
return existed
`

var deleteSessionLua = redis.NewScript(deleteSessionScript)

// touchSessionScript splices a new LastActive timestamp into the encoded blob
// without rewriting the whole record from the client. The 16 trailing bytes
// are LastActive then ExpiresAt, both big-endian int64; see encoder.go.
const touchSessionScript = `
local function to_be64(n)
  local bytes = {}
  for i = 8, 1, -1 do
    bytes[i] = string.char(n % 256)
    n = math.floor(n / 256)
  end
  return table.concat(bytes)
end

local data = redis.call("GET", KEYS[1])
if not data then
  return 0
end
if #data < 17 then
  return -1
end

local ttl = redis.call("PTTL", KEYS[1])
if ttl <= 0 then
  return 0
end

local prefix = string.sub(data, 1, #data - 16)
local suffix = string.sub(data, #data - 7)
local updated = prefix .. to_be64(tonumber(ARGV[1])) .. suffix

redis.call("SET", KEYS[1], updated, "PX", ttl)
return 1
`

var touchSessionLua = redis.NewScript(touchSessionScript)

// Store is a Redis-backed session store. Session blobs live under the session
// key with a TTL matching their expiry; session IDs are additionally tracked
// in a per-user index set used by ListByUser and DeleteAllForUser.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore creates a session Store backed by the given Redis client. prefix
// namespaces all keys written by this store.
func NewStore(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "as"
	}
	return &Store{redis: client, prefix: prefix}
}

func (s *Store) key(sessionID string) string {
	return s.prefix + ":" + sessionID
}

func (s *Store) userKey(userID string) string {
	return s.prefix + "u:" + userID
}

// Save persists a session with a TTL derived from its ExpiresAt. The user
// index set carries the same TTL refresh so abandoned indexes eventually
// disappear on their own.
func (s *Store) Save(ctx context.Context, sess *Session) error {
	data, err := Encode(sess)
	if err != nil {
		return err
	}

	ttl := time.Until(time.Unix(sess.ExpiresAt, 0))
	if ttl <= 0 {
		return errors.New("session already expired")
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(sess.ID), data, ttl)
		pipe.SAdd(ctx, s.userKey(sess.UserID), sess.ID)
		pipe.Expire(ctx, s.userKey(sess.UserID), ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// Get retrieves a live session by ID. Sessions past their recorded expiry are
// cleaned up and reported as not found even if the Redis TTL has not fired
// yet.
func (s *Store) Get(ctx context.Context, sessionID string) (*Session, error) {
	data, err := s.redis.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	sess, err := Decode(data)
	if err != nil {
		return nil, err
	}
	sess.ID = sessionID

	if sess.Expired(time.Now().Unix()) {
		if _, err := s.Delete(ctx, sessionID); err != nil {
			return nil, err
		}
		return nil, ErrSessionNotFound
	}

	return sess, nil
}

// Touch updates the session's LastActive timestamp in place, preserving the
// remaining TTL. Touching a missing or expired session is a no-op.
func (s *Store) Touch(ctx context.Context, sessionID string, now time.Time) error {
	result, err := touchSessionLua.Run(
		ctx,
		s.redis,
		[]string{s.key(sessionID)},
		now.Unix(),
	).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if result < 0 {
		return errors.New("corrupt session record")
	}
	return nil
}

// Delete removes a session and its index entry atomically. It reports whether
// the session existed.
func (s *Store) Delete(ctx context.Context, sessionID string) (bool, error) {
	data, err := s.redis.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	sess, err := Decode(data)
	if err != nil {
		return false, err
	}

	existed, err := deleteSessionLua.Run(
		ctx,
		s.redis,
		[]string{s.key(sessionID), s.userKey(sess.UserID)},
		sessionID,
	).Int64()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return existed == 1, nil
}

// DeleteAllForUser removes every session tracked for a user. A session
// created concurrently with this call may survive; it will expire on its own
// or be caught by a subsequent call.
func (s *Store) DeleteAllForUser(ctx context.Context, userID string) (int, error) {
	userKey := s.userKey(userID)

	sessionIDs, err := s.redis.SMembers(ctx, userKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	keys := make([]string, 0, len(sessionIDs)+1)
	for _, id := range sessionIDs {
		keys = append(keys, s.key(id))
	}
	keys = append(keys, userKey)

	if err := s.redis.Del(ctx, keys...).Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return len(sessionIDs), nil
}

// ListByUser returns the user's live sessions. Index entries whose session
// blob has already expired are pruned as a side effect.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]*Session, error) {
	userKey := s.userKey(userID)

	sessionIDs, err := s.redis.SMembers(ctx, userKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []*Session{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(sessionIDs) == 0 {
		return []*Session{}, nil
	}

	pipe := s.redis.Pipeline()
	cmds := make([]*redis.StringCmd, len(sessionIDs))
	for i, id := range sessionIDs {
		cmds[i] = pipe.Get(ctx, s.key(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	nowUnix := time.Now().Unix()
	sessions := make([]*Session, 0, len(sessionIDs))
	var stale []interface{}

	for i, cmd := range cmds {
		data, cmdErr := cmd.Bytes()
		if cmdErr != nil {
			if errors.Is(cmdErr, redis.Nil) {
				stale = append(stale, sessionIDs[i])
				continue
			}
			return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, cmdErr)
		}

		sess, decErr := Decode(data)
		if decErr != nil {
			return nil, decErr
		}
		sess.ID = sessionIDs[i]
		if sess.Expired(nowUnix) {
			stale = append(stale, sessionIDs[i])
			continue
		}

		sessions = append(sessions, sess)
	}

	if len(stale) > 0 {
		if err := s.redis.SRem(ctx, userKey, stale...).Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return sessions, nil
}

// Count returns the number of tracked session IDs for a user. The count may
// briefly include sessions whose blobs have expired but whose index entries
// have not yet been pruned.
func (s *Store) Count(ctx context.Context, userID string) (int, error) {
	count, err := s.redis.SCard(ctx, s.userKey(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return int(count), nil
}

// Sweep scans session keys and removes records past their recorded expiry.
// Redis TTLs handle this on their own; Sweep exists to tighten the window
// when clocks drift or TTLs were set loosely. Returns the number of removed
// sessions.
func (s *Store) Sweep(ctx context.Context) (int, error) {
	pattern := s.prefix + ":*"
	nowUnix := time.Now().Unix()

	var (
		cursor  uint64
		removed int
	)
	for {
		keys, next, err := s.redis.Scan(ctx, cursor, pattern, 500).Result()
		if err != nil {
			return removed, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}

		for _, key := range keys {
			data, getErr := s.redis.Get(ctx, key).Bytes()
			if getErr != nil {
				if errors.Is(getErr, redis.Nil) {
					continue
				}
				return removed, fmt.Errorf("%w: %v", ErrRedisUnavailable, getErr)
			}

			sess, decErr := Decode(data)
			if decErr != nil {
				continue
			}
			if !sess.Expired(nowUnix) {
				continue
			}

			sessionID := key[len(s.prefix)+1:]
			if _, err := deleteSessionLua.Run(
				ctx,
				s.redis,
				[]string{key, s.userKey(sess.UserID)},
				sessionID,
			).Result(); err != nil {
				return removed, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
			}
			removed++
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return removed, nil
}

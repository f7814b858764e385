package token

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrTokenNotFound is returned when no live record exists for the id.
	ErrTokenNotFound = errors.New("token not found")
	// ErrSecretMismatch is returned when the presented secret does not match
	// the stored hash.
	ErrSecretMismatch = errors.New("token secret mismatch")
	// ErrAttemptsExceeded is returned when a record burned through its
	// mismatch budget and was destroyed.
	ErrAttemptsExceeded = errors.New("token attempts exceeded")
	// ErrRedisUnavailable wraps transport-level Redis failures.
	ErrRedisUnavailable = errors.New("token redis unavailable")
)

// Store is a Redis-backed single-use token store. Records are namespaced by
// purpose; each user holds at most one outstanding token per purpose, with
// newer tokens displacing older ones.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore creates a token Store backed by the given Redis client.
func NewStore(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "atk"
	}
	return &Store{redis: client, prefix: prefix}
}

func (s *Store) key(purpose Purpose, id string) string {
	return s.prefix + ":" + string(purpose) + ":" + id
}

func (s *Store) userKey(purpose Purpose, userID string) string {
	return s.prefix + "u:" + string(purpose) + ":" + userID
}

// Create persists a token record, displacing any outstanding token the user
// already holds for this purpose. The previous token becomes unusable the
// moment Create returns.
func (s *Store) Create(ctx context.Context, purpose Purpose, id string, record *Record, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.New("token ttl must be positive")
	}

	encoded, err := encodeRecord(record)
	if err != nil {
		return err
	}

	userKey := s.userKey(purpose, record.UserID)

	previousID, err := s.redis.Get(ctx, userKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if previousID != "" {
			pipe.Del(ctx, s.key(purpose, previousID))
		}
		pipe.Set(ctx, s.key(purpose, id), encoded, ttl)
		pipe.Set(ctx, userKey, id, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// Consume atomically redeems a token. On a hash match the record is deleted
// and returned; at most one concurrent caller succeeds. A mismatch increments
// the attempt counter and destroys the record once maxAttempts is reached.
func (s *Store) Consume(ctx context.Context, purpose Purpose, id string, providedHash [32]byte, maxAttempts int) (*Record, error) {
	const maxRetries = 4
	key := s.key(purpose, id)

	for i := 0; i < maxRetries; i++ {
		var matched *Record

		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				return err
			}

			record, err := decodeRecord(data)
			if err != nil {
				return err
			}

			userKey := s.userKey(purpose, record.UserID)

			destroy := func() error {
				_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Del(ctx, key)
					pipe.Del(ctx, userKey)
					return nil
				})
				return err
			}

			if time.Now().Unix() > record.ExpiresAt {
				if err := destroy(); err != nil {
					return err
				}
				return ErrTokenNotFound
			}

			if subtle.ConstantTimeCompare(record.SecretHash[:], providedHash[:]) != 1 {
				record.Attempts++
				if maxAttempts > 0 && int(record.Attempts) >= maxAttempts {
					if err := destroy(); err != nil {
						return err
					}
					return ErrAttemptsExceeded
				}

				ttl := time.Until(time.Unix(record.ExpiresAt, 0))
				if ttl <= 0 {
					if err := destroy(); err != nil {
						return err
					}
					return ErrTokenNotFound
				}

				updated, err := encodeRecord(record)
				if err != nil {
					return err
				}
				_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Set(ctx, key, updated, ttl)
					return nil
				})
				if err != nil {
					return err
				}
				return ErrSecretMismatch
			}

			if err := destroy(); err != nil {
				return err
			}

			matched = record
			return nil
		}, key)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			switch {
			case errors.Is(err, redis.Nil):
				return nil, ErrTokenNotFound
			case errors.Is(err, ErrTokenNotFound),
				errors.Is(err, ErrSecretMismatch),
				errors.Is(err, ErrAttemptsExceeded):
				return nil, err
			default:
				return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
			}
		}

		return matched, nil
	}

	return nil, ErrTokenNotFound
}

// InvalidateForUser destroys the user's outstanding token for a purpose, if
// any.
func (s *Store) InvalidateForUser(ctx context.Context, purpose Purpose, userID string) error {
	userKey := s.userKey(purpose, userID)

	id, err := s.redis.Get(ctx, userKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	if err := s.redis.Del(ctx, s.key(purpose, id), userKey).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// InvalidateAllForUser destroys the user's outstanding tokens across every
// purpose. Used when an account is deleted or force-secured.
func (s *Store) InvalidateAllForUser(ctx context.Context, userID string) error {
	for _, purpose := range []Purpose{PurposeVerifyEmail, PurposeResetPassword, PurposeChangeEmail} {
		if err := s.InvalidateForUser(ctx, purpose, userID); err != nil {
			return err
		}
	}
	return nil
}

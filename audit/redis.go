package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps transport-level Redis failures.
var ErrRedisUnavailable = errors.New("audit redis unavailable")

const defaultMaxEntries = 100000

// RedisLog persists events as JSON in capped Redis lists. Besides the main
// trail it maintains per-user and per-IP lists so the common lookups stay
// O(limit) instead of scanning the full history.
type RedisLog struct {
	redis      redis.UniversalClient
	prefix     string
	maxEntries int64
}

func NewRedisLog(client redis.UniversalClient, prefix string, maxEntries int64) *RedisLog {
	if prefix == "" {
		prefix = "aud"
	}
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	return &RedisLog{redis: client, prefix: prefix, maxEntries: maxEntries}
}

func (l *RedisLog) mainKey() string {
	return l.prefix + ":log"
}

func (l *RedisLog) userKey(userID string) string {
	return l.prefix + ":u:" + userID
}

func (l *RedisLog) ipKey(ip string) string {
	return l.prefix + ":ip:" + ip
}

func (l *RedisLog) Append(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	_, err = l.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, l.mainKey(), data)
		pipe.LTrim(ctx, l.mainKey(), 0, l.maxEntries-1)
		if event.TargetUserID != "" {
			pipe.LPush(ctx, l.userKey(event.TargetUserID), data)
			pipe.LTrim(ctx, l.userKey(event.TargetUserID), 0, l.maxEntries-1)
		}
		if event.IP != "" {
			pipe.LPush(ctx, l.ipKey(event.IP), data)
			pipe.LTrim(ctx, l.ipKey(event.IP), 0, l.maxEntries-1)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (l *RedisLog) ByUser(ctx context.Context, userID string, limit, offset int) ([]Event, error) {
	return l.readList(ctx, l.userKey(userID), limit, offset)
}

func (l *RedisLog) ByIP(ctx context.Context, ip string, limit, offset int) ([]Event, error) {
	return l.readList(ctx, l.ipKey(ip), limit, offset)
}

// Query walks the main trail newest-first, applying the filter client-side.
// Broad unfiltered queries are cheap; narrow filters over a deep history cost
// proportionally to how far back the matches sit.
func (l *RedisLog) Query(ctx context.Context, filter Filter, limit, offset int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	const pageSize = 256

	results := make([]Event, 0, limit)
	skipped := 0
	for start := int64(0); ; start += pageSize {
		raw, err := l.redis.LRange(ctx, l.mainKey(), start, start+pageSize-1).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		if len(raw) == 0 {
			break
		}

		for _, item := range raw {
			var event Event
			if err := json.Unmarshal([]byte(item), &event); err != nil {
				continue
			}
			if !filter.matches(event) {
				continue
			}
			if skipped < offset {
				skipped++
				continue
			}
			results = append(results, event)
			if len(results) == limit {
				return results, nil
			}
		}
	}

	return results, nil
}

func (l *RedisLog) readList(ctx context.Context, key string, limit, offset int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	raw, err := l.redis.LRange(ctx, key, int64(offset), int64(offset+limit-1)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []Event{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	events := make([]Event, 0, len(raw))
	for _, item := range raw {
		var event Event
		if err := json.Unmarshal([]byte(item), &event); err != nil {
			continue
		}
		events = append(events, event)
	}
	return events, nil
}

package audit

import (
	"context"
	"sync"
	"time"
)

// Filter narrows a Query. Zero fields match everything; EventTypes matches
// any of the listed types.
type Filter struct {
	EventTypes []string
	UserID     string
	IP         string
	From       time.Time
	To         time.Time
	Success    *bool
}

func (f Filter) matches(event Event) bool {
	if len(f.EventTypes) > 0 {
		found := false
		for _, t := range f.EventTypes {
			if event.EventType == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.UserID != "" && event.ActorUserID != f.UserID && event.TargetUserID != f.UserID {
		return false
	}
	if f.IP != "" && event.IP != f.IP {
		return false
	}
	if !f.From.IsZero() && event.Timestamp.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && event.Timestamp.After(f.To) {
		return false
	}
	if f.Success != nil && event.Success != *f.Success {
		return false
	}
	return true
}

// Log is a queryable audit trail. Results come back newest-first.
type Log interface {
	Append(ctx context.Context, event Event) error
	ByUser(ctx context.Context, userID string, limit, offset int) ([]Event, error)
	ByIP(ctx context.Context, ip string, limit, offset int) ([]Event, error)
	Query(ctx context.Context, filter Filter, limit, offset int) ([]Event, error)
}

// MemoryLog is an in-process Log with a bounded history. Oldest entries are
// evicted once the cap is reached. Intended for tests and single-node
// deployments.
type MemoryLog struct {
	mu      sync.RWMutex
	events  []Event
	maxSize int
}

func NewMemoryLog(maxSize int) *MemoryLog {
	if maxSize <= 0 {
		maxSize = 10000
	}
	return &MemoryLog{maxSize: maxSize}
}

func (l *MemoryLog) Append(_ context.Context, event Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.events = append(l.events, event)
	if len(l.events) > l.maxSize {
		l.events = l.events[len(l.events)-l.maxSize:]
	}
	return nil
}

func (l *MemoryLog) ByUser(ctx context.Context, userID string, limit, offset int) ([]Event, error) {
	return l.Query(ctx, Filter{UserID: userID}, limit, offset)
}

func (l *MemoryLog) ByIP(ctx context.Context, ip string, limit, offset int) ([]Event, error) {
	return l.Query(ctx, Filter{IP: ip}, limit, offset)
}

func (l *MemoryLog) Query(_ context.Context, filter Filter, limit, offset int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	results := make([]Event, 0, limit)
	skipped := 0
	for i := len(l.events) - 1; i >= 0; i-- {
		if !filter.matches(l.events[i]) {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		results = append(results, l.events[i])
		if len(results) == limit {
			break
		}
	}

	return results, nil
}

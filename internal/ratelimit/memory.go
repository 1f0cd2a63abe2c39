// Package ratelimit provides fixed-window counters backing the API's
// per-client rate limiting. MemoryStore serves a single process; RedisStore
// shares counters across instances.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"gomeasure/internal/core"
	"gomeasure/internal/types"
)

var (
	_ core.RateLimitStore = (*MemoryStore)(nil)
	_ core.RateLimitStore = (*RedisStore)(nil)
)

type window struct {
	count   int
	resetAt time.Time
}

// MemoryStore keeps one fixed window per key in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*window
	clock   types.Clock
}

// NewMemoryStore creates an empty MemoryStore. A nil clock uses real time.
func NewMemoryStore(clock types.Clock) *MemoryStore {
	if clock == nil {
		clock = types.RealClock{}
	}
	return &MemoryStore{
		windows: make(map[string]*window),
		clock:   clock,
	}
}

// IncrementAndCheck counts one request against key in the current window.
func (m *MemoryStore) IncrementAndCheck(_ context.Context, key string, limit int, win time.Duration) (core.RateLimitResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	w, ok := m.windows[key]
	if !ok || !now.Before(w.resetAt) {
		if len(m.windows) > 0 && !ok {
			m.pruneLocked(now)
		}
		w = &window{resetAt: windowStart(now, win).Add(win)}
		m.windows[key] = w
	}
	w.count++

	return result(w.count, limit, w.resetAt), nil
}

// pruneLocked drops windows that have already reset.
func (m *MemoryStore) pruneLocked(now time.Time) {
	for k, w := range m.windows {
		if !now.Before(w.resetAt) {
			delete(m.windows, k)
		}
	}
}

// windowStart aligns now to the window grid so every instance agrees on
// window boundaries.
func windowStart(now time.Time, win time.Duration) time.Time {
	return now.Truncate(win)
}

func result(count, limit int, resetAt time.Time) core.RateLimitResult {
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return core.RateLimitResult{
		Allowed:   count <= limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
}

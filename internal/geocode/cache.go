package geocode

import (
	"container/list"
	"sync"
	"time"

	"gomeasure/internal/types"
)

// Cache defaults.
const (
	DefaultCacheTTL        = 5 * time.Minute
	DefaultCacheMaxEntries = 500
)

// cacheEntry is one stored result list, linked into the insertion-order list.
type cacheEntry struct {
	key      string
	storedAt time.Time
	value    []types.AddressCandidate
}

// Cache is a bounded, time-expiring store of shaped results keyed by the
// normalized query. It is safe for concurrent use.
//
// Entries older than the TTL are misses and are dropped on read. When a put
// would push the key count past the maximum, the oldest-inserted quarter of
// the entries is swept first. Insertion order approximates LRU without
// per-read bookkeeping.
type Cache struct {
	mu         sync.Mutex
	ttl        time.Duration
	maxEntries int
	order      *list.List // front = oldest insert
	entries    map[string]*list.Element
	now        func() time.Time
}

// CacheOption is a functional option for configuring a Cache.
type CacheOption func(*Cache)

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) {
		c.now = now
	}
}

// NewCache creates a Cache. Non-positive ttl or maxEntries fall back to the
// package defaults.
func NewCache(ttl time.Duration, maxEntries int, opts ...CacheOption) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultCacheMaxEntries
	}
	c := &Cache{
		ttl:        ttl,
		maxEntries: maxEntries,
		order:      list.New(),
		entries:    make(map[string]*list.Element),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the stored list for key. An entry older than the TTL is
// removed and reported as a miss. The returned slice is a copy.
func (c *Cache) Get(key string) ([]types.AddressCandidate, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	e := el.Value.(*cacheEntry)
	if c.now().Sub(e.storedAt) >= c.ttl {
		c.order.Remove(el)
		delete(c.entries, key)
		return nil, false
	}
	return cloneCandidates(e.value), true
}

// Put stores value under key, refreshing its timestamp and moving it to the
// newest insertion position. Empty lists are stored like any other value.
func (c *Cache) Put(key string, value []types.AddressCandidate) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if el, ok := c.entries[key]; ok {
		e := el.Value.(*cacheEntry)
		e.storedAt = now
		e.value = cloneCandidates(value)
		c.order.MoveToBack(el)
		return
	}

	if len(c.entries) >= c.maxEntries {
		c.sweepLocked()
	}
	c.entries[key] = c.order.PushBack(&cacheEntry{
		key:      key,
		storedAt: now,
		value:    cloneCandidates(value),
	})
}

// Len returns the number of stored keys, including expired ones not yet read.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// sweepLocked drops the oldest quarter of the entries (at least one).
// Caller must hold c.mu.
func (c *Cache) sweepLocked() {
	n := len(c.entries) / 4
	if n < 1 {
		n = 1
	}
	for i := 0; i < n; i++ {
		front := c.order.Front()
		if front == nil {
			return
		}
		c.order.Remove(front)
		delete(c.entries, front.Value.(*cacheEntry).key)
	}
}

func cloneCandidates(in []types.AddressCandidate) []types.AddressCandidate {
	out := make([]types.AddressCandidate, len(in))
	copy(out, in)
	return out
}

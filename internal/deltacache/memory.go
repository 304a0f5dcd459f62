package deltacache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryCache is a process-local delta cache for embedded use and tests.
// A single lock guards the map: capacity eviction needs a cross-key scan
// anyway, and the critical sections are tiny ID-list copies.
type MemoryCache struct {
	mu           sync.Mutex
	entries      map[string]entry
	ttl          time.Duration
	maxDeltaSize int
	capacity     int
	now          func() time.Time
}

// NewMemoryCache creates an in-memory delta cache. capacity <= 0 means
// unbounded.
func NewMemoryCache(ttl time.Duration, maxDeltaSize, capacity int) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxDeltaSize <= 0 {
		maxDeltaSize = DefaultMaxDeltaSize
	}
	return &MemoryCache{
		entries:      make(map[string]entry),
		ttl:          ttl,
		maxDeltaSize: maxDeltaSize,
		capacity:     capacity,
		now:          time.Now,
	}
}

// Diff computes the delta for the user against the stored entry, treating
// expired entries as absent.
func (c *MemoryCache) Diff(_ context.Context, userID string, current []uuid.UUID) (Delta, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[userID]
	if !ok || c.now().Sub(e.StoredAt) > c.ttl {
		return computeDelta(nil, current, c.maxDeltaSize), nil
	}
	return computeDelta(e.TurnIDs, current, c.maxDeltaSize), nil
}

// Store overwrites the user's entry. At capacity, the entry with the
// oldest StoredAt is evicted first (approximate LRU by store order).
func (c *MemoryCache) Store(_ context.Context, userID string, current []uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capacity > 0 {
		if _, exists := c.entries[userID]; !exists && len(c.entries) >= c.capacity {
			c.evictOldestLocked()
		}
	}
	c.entries[userID] = entry{
		TurnIDs:  append([]uuid.UUID(nil), current...),
		StoredAt: c.now(),
	}
	return nil
}

// Sweep removes entries older than the TTL and returns the eviction
// count. Wired to the periodic cleanup task.
func (c *MemoryCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	evicted := 0
	for userID, e := range c.entries {
		if now.Sub(e.StoredAt) > c.ttl {
			delete(c.entries, userID)
			evicted++
		}
	}
	return evicted
}

// Len returns the number of live entries.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *MemoryCache) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	first := true
	for userID, e := range c.entries {
		if first || e.StoredAt.Before(oldestAt) {
			oldestKey = userID
			oldestAt = e.StoredAt
			first = false
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

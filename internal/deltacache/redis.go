package deltacache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "deltacache:"

// entry is the JSON document stored per user key.
type entry struct {
	TurnIDs  []uuid.UUID `json:"turn_ids"`
	StoredAt time.Time   `json:"stored_at"`
}

// RedisCache is the Redis-backed delta cache. Redis's single-threaded
// command execution gives the per-key atomicity the contract requires,
// and key TTLs replace an eviction sweep.
type RedisCache struct {
	client       redis.Cmdable
	ttl          time.Duration
	maxDeltaSize int
}

// NewRedisCache creates a Redis-backed delta cache. Zero ttl or
// maxDeltaSize fall back to the package defaults.
func NewRedisCache(client redis.Cmdable, ttl time.Duration, maxDeltaSize int) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxDeltaSize <= 0 {
		maxDeltaSize = DefaultMaxDeltaSize
	}
	return &RedisCache{client: client, ttl: ttl, maxDeltaSize: maxDeltaSize}
}

// Diff loads the user's previous assembly and diffs the current window
// against it. A missing, expired, or unreadable entry is treated as
// empty; corruption never propagates as an error.
func (c *RedisCache) Diff(ctx context.Context, userID string, current []uuid.UUID) (Delta, error) {
	raw, err := c.client.Get(ctx, keyPrefix+userID).Result()
	if err == redis.Nil {
		return computeDelta(nil, current, c.maxDeltaSize), nil
	}
	if err != nil {
		return Delta{}, fmt.Errorf("reading delta entry for %s: %w", userID, err)
	}

	var e entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		slog.Warn("delta cache entry unreadable, treating as empty",
			"user_id", userID, "error", err)
		return computeDelta(nil, current, c.maxDeltaSize), nil
	}

	return computeDelta(e.TurnIDs, current, c.maxDeltaSize), nil
}

// Store overwrites the user's entry with the full current ID list and
// refreshes the TTL.
func (c *RedisCache) Store(ctx context.Context, userID string, current []uuid.UUID) error {
	data, err := json.Marshal(entry{TurnIDs: current, StoredAt: time.Now()})
	if err != nil {
		return fmt.Errorf("marshaling delta entry: %w", err)
	}
	if err := c.client.Set(ctx, keyPrefix+userID, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("storing delta entry for %s: %w", userID, err)
	}
	return nil
}

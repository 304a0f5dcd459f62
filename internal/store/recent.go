package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fathom-chat/contextd/internal/turn"
)

// RecentStore keeps each user's hot conversation window in a Redis list,
// trimmed to a bounded length with a rolling TTL. It implements
// AssetStore for deployments that never need the durable backend.
type RecentStore struct {
	client   redis.Cmdable
	maxTurns int
	ttl      time.Duration
}

// NewRecentStore creates a Redis-backed recent-turn store.
func NewRecentStore(client redis.Cmdable, maxTurns int, ttl time.Duration) *RecentStore {
	if maxTurns <= 0 {
		maxTurns = 200
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RecentStore{client: client, maxTurns: maxTurns, ttl: ttl}
}

func turnsKey(userID string) string {
	return "turns:" + userID
}

// Append pushes a turn onto the user's list, trims to the bound, and
// refreshes the TTL in one pipeline.
func (s *RecentStore) Append(ctx context.Context, t turn.Turn) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshaling turn: %w", err)
	}

	key := turnsKey(t.UserID)
	pipe := s.client.Pipeline()
	pipe.RPush(ctx, key, string(data))
	pipe.LTrim(ctx, key, int64(-s.maxTurns), -1)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("pipeline exec for %s: %w", key, err)
	}
	return nil
}

// Fetch returns up to maxMessages turns newer than sinceMinutes, newest
// first. Malformed entries are skipped.
func (s *RecentStore) Fetch(ctx context.Context, userID string, sinceMinutes, maxMessages int) ([]turn.Turn, error) {
	key := turnsKey(userID)
	vals, err := s.client.LRange(ctx, key, int64(-maxMessages), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange %s: %w", key, err)
	}

	cutoff := time.Now().Add(-time.Duration(sinceMinutes) * time.Minute)
	turns := make([]turn.Turn, 0, len(vals))
	// The list is oldest first; walk backwards to build newest-first.
	for i := len(vals) - 1; i >= 0; i-- {
		var t turn.Turn
		if err := json.Unmarshal([]byte(vals[i]), &t); err != nil {
			continue
		}
		if sinceMinutes > 0 && t.Timestamp.Before(cutoff) {
			continue
		}
		turns = append(turns, t)
	}
	return turns, nil
}

// Clear deletes the user's recent window.
func (s *RecentStore) Clear(ctx context.Context, userID string) error {
	return s.client.Del(ctx, turnsKey(userID)).Err()
}

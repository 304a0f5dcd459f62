package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fathom-chat/contextd/internal/turn"
)

func setupRecentStore(t *testing.T, maxTurns int, ttl time.Duration) (*RecentStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRecentStore(client, maxTurns, ttl), mr
}

func recentTurn(userID, content string, age time.Duration) turn.Turn {
	return turn.Turn{
		ID:        uuid.New(),
		UserID:    userID,
		Role:      turn.RoleUser,
		Content:   content,
		Timestamp: time.Now().Add(-age),
	}
}

func TestRecentStore_AppendAndFetchNewestFirst(t *testing.T) {
	store, _ := setupRecentStore(t, 50, time.Hour)
	ctx := context.Background()
	user := "fan@example.com"

	require.NoError(t, store.Append(ctx, recentTurn(user, "first", 2*time.Hour)))
	require.NoError(t, store.Append(ctx, recentTurn(user, "second", time.Hour)))
	require.NoError(t, store.Append(ctx, recentTurn(user, "third", 10*time.Minute)))

	turns, err := store.Fetch(ctx, user, 0, 10)
	require.NoError(t, err)
	require.Len(t, turns, 3)
	assert.Equal(t, "third", turns[0].Content)
	assert.Equal(t, "second", turns[1].Content)
	assert.Equal(t, "first", turns[2].Content)
}

func TestRecentStore_TrimsToBound(t *testing.T) {
	store, _ := setupRecentStore(t, 3, time.Hour)
	ctx := context.Background()
	user := "fan@example.com"

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append(ctx, recentTurn(user, fmt.Sprintf("m%d", i), time.Duration(5-i)*time.Minute)))
	}

	turns, err := store.Fetch(ctx, user, 0, 10)
	require.NoError(t, err)
	require.Len(t, turns, 3)
	assert.Equal(t, "m4", turns[0].Content)
	assert.Equal(t, "m2", turns[2].Content)
}

func TestRecentStore_SinceFilter(t *testing.T) {
	store, _ := setupRecentStore(t, 50, time.Hour)
	ctx := context.Background()
	user := "fan@example.com"

	require.NoError(t, store.Append(ctx, recentTurn(user, "stale", 3*time.Hour)))
	require.NoError(t, store.Append(ctx, recentTurn(user, "fresh", 5*time.Minute)))

	turns, err := store.Fetch(ctx, user, 60, 10)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "fresh", turns[0].Content)
}

func TestRecentStore_TTLExpiry(t *testing.T) {
	store, mr := setupRecentStore(t, 50, time.Minute)
	ctx := context.Background()
	user := "fan@example.com"

	require.NoError(t, store.Append(ctx, recentTurn(user, "hi", 0)))
	mr.FastForward(2 * time.Minute)

	turns, err := store.Fetch(ctx, user, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestRecentStore_MalformedEntriesSkipped(t *testing.T) {
	store, mr := setupRecentStore(t, 50, time.Hour)
	ctx := context.Background()
	user := "fan@example.com"

	require.NoError(t, store.Append(ctx, recentTurn(user, "ok", 0)))
	_, err := mr.RPush(turnsKey(user), "{broken")
	require.NoError(t, err)

	turns, err := store.Fetch(ctx, user, 0, 10)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "ok", turns[0].Content)
}

func TestRecentStore_Clear(t *testing.T) {
	store, _ := setupRecentStore(t, 50, time.Hour)
	ctx := context.Background()
	user := "fan@example.com"

	require.NoError(t, store.Append(ctx, recentTurn(user, "hi", 0)))
	require.NoError(t, store.Clear(ctx, user))

	turns, err := store.Fetch(ctx, user, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

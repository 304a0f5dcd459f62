package prioritize

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fathom-chat/contextd/internal/turn"
)

func scoredAt(score float64, age time.Duration, now time.Time) turn.ScoredTurn {
	return turn.ScoredTurn{
		Turn: turn.Turn{
			ID:        uuid.New(),
			Role:      turn.RoleUser,
			Timestamp: now.Add(-age),
		},
		Score:    score,
		AgeHours: age.Hours(),
	}
}

func TestSelect_RecencyFloorIgnoresScore(t *testing.T) {
	now := time.Now()
	low := scoredAt(1, 0, now) // most recent, terrible score
	high := scoredAt(90, 2*time.Hour, now)

	out := Select([]turn.ScoredTurn{high, low}, Options{
		MaxCount:        10,
		MinScore:        50,
		PreserveRecentN: 1,
	})

	require.Len(t, out, 2)
	assert.Equal(t, high.ID, out[0].ID)
	assert.Equal(t, low.ID, out[1].ID)
}

func TestSelect_ScenarioThreeTurns(t *testing.T) {
	// Most recent ~40+, 6h-old ~24, 30h-old ~2; MinScore 20 and a
	// floor of 1 keeps the first two and drops the stale turn.
	now := time.Now()
	fresh := scoredAt(45, 0, now)
	sixH := scoredAt(24, 6*time.Hour, now)
	stale := scoredAt(2, 30*time.Hour, now)

	out := Select([]turn.ScoredTurn{fresh, sixH, stale}, Options{
		MaxCount:        10,
		MinScore:        20,
		PreserveRecentN: 1,
	})

	require.Len(t, out, 2)
	assert.Equal(t, sixH.ID, out[0].ID)
	assert.Equal(t, fresh.ID, out[1].ID)
}

func TestSelect_OutputIsChronological(t *testing.T) {
	now := time.Now()
	turns := []turn.ScoredTurn{
		scoredAt(80, 5*time.Hour, now),
		scoredAt(95, 1*time.Hour, now),
		scoredAt(60, 3*time.Hour, now),
		scoredAt(70, 30*time.Minute, now),
	}

	out := Select(turns, Options{MaxCount: 10, MinScore: 0, PreserveRecentN: 2})

	require.Len(t, out, 4)
	for i := 1; i < len(out); i++ {
		assert.False(t, out[i].Timestamp.Before(out[i-1].Timestamp),
			"output must be sorted oldest to newest")
	}
}

func TestSelect_MaxCountPrefersHigherScores(t *testing.T) {
	now := time.Now()
	keepHigh := scoredAt(90, 4*time.Hour, now)
	dropLow := scoredAt(30, 3*time.Hour, now)
	recent := scoredAt(5, 0, now)

	out := Select([]turn.ScoredTurn{keepHigh, dropLow, recent}, Options{
		MaxCount:        2,
		MinScore:        20,
		PreserveRecentN: 1,
	})

	require.Len(t, out, 2)
	assert.Equal(t, keepHigh.ID, out[0].ID)
	assert.Equal(t, recent.ID, out[1].ID)
}

func TestSelect_TieBrokenByMoreRecentTimestamp(t *testing.T) {
	now := time.Now()
	older := scoredAt(50, 5*time.Hour, now)
	newer := scoredAt(50, 2*time.Hour, now)
	recent := scoredAt(40, 0, now)

	out := Select([]turn.ScoredTurn{older, newer, recent}, Options{
		MaxCount:        2,
		MinScore:        20,
		PreserveRecentN: 1,
	})

	require.Len(t, out, 2)
	assert.Equal(t, newer.ID, out[0].ID)
	assert.Equal(t, recent.ID, out[1].ID)
}

func TestSelect_FewerThanFloorReturnsAll(t *testing.T) {
	now := time.Now()
	only := scoredAt(0, time.Hour, now)

	out := Select([]turn.ScoredTurn{only}, Options{
		MaxCount:        10,
		MinScore:        99,
		PreserveRecentN: 5,
	})

	require.Len(t, out, 1)
	assert.Equal(t, only.ID, out[0].ID)
}

func TestSelect_Empty(t *testing.T) {
	assert.Nil(t, Select(nil, Options{PreserveRecentN: 3}))
}

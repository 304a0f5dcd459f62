// Package deltacache remembers which turns were last assembled for each
// user so consecutive requests only re-send what changed. The cache holds
// bounded ID lists, never payloads; losing an entry only costs a full
// re-send, so corruption and misses degrade silently to the full strategy.
package deltacache

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fathom-chat/contextd/internal/turn"
)

// DefaultTTL bounds how long a prior assembly is considered current.
const DefaultTTL = 30 * time.Minute

// DefaultMaxDeltaSize caps how many new turns one delta may carry.
const DefaultMaxDeltaSize = 10

// continuityTurns is how many trailing turns of the previous assembly are
// replayed so the model keeps conversational continuity across deltas.
const continuityTurns = 2

// Delta is the result of diffing the current window against the stored
// previous assembly.
type Delta struct {
	IDs      []uuid.UUID
	Strategy turn.Strategy
}

// Cache is the per-user delta cache. Implementations must make Diff and
// Store atomic with respect to concurrent calls for the same user key.
type Cache interface {
	// Diff computes the minimal delta for the user given the current
	// chronological turn-ID window.
	Diff(ctx context.Context, userID string, current []uuid.UUID) (Delta, error)
	// Store overwrites the user's entry with the full current ID list.
	Store(ctx context.Context, userID string, current []uuid.UUID) error
}

// computeDelta is the pure diff shared by every backend: a function of
// (stored IDs, current IDs) only.
func computeDelta(prev, current []uuid.UUID, maxDeltaSize int) Delta {
	if maxDeltaSize <= 0 {
		maxDeltaSize = DefaultMaxDeltaSize
	}

	if len(prev) == 0 {
		if len(current) > maxDeltaSize {
			// A cold cache with a large window: cap the copy to the
			// most recent turns rather than shipping everything.
			return Delta{
				IDs:      append([]uuid.UUID(nil), current[len(current)-maxDeltaSize:]...),
				Strategy: turn.StrategyMinimal,
			}
		}
		return Delta{
			IDs:      append([]uuid.UUID(nil), current...),
			Strategy: turn.StrategyFull,
		}
	}

	known := make(map[uuid.UUID]struct{}, len(prev))
	for _, id := range prev {
		known[id] = struct{}{}
	}

	var fresh []uuid.UUID
	for _, id := range current {
		if _, ok := known[id]; !ok {
			fresh = append(fresh, id)
		}
	}

	if len(fresh) == 0 {
		// Nothing new: return just enough tail for continuity.
		tail := current
		if len(tail) > continuityTurns {
			tail = tail[len(tail)-continuityTurns:]
		}
		return Delta{
			IDs:      append([]uuid.UUID(nil), tail...),
			Strategy: turn.StrategyNoChanges,
		}
	}

	if len(fresh) > maxDeltaSize {
		fresh = fresh[len(fresh)-maxDeltaSize:]
	}

	boundary := prev
	if len(boundary) > continuityTurns {
		boundary = boundary[len(boundary)-continuityTurns:]
	}

	seen := make(map[uuid.UUID]struct{}, len(boundary)+len(fresh))
	ids := make([]uuid.UUID, 0, len(boundary)+len(fresh))
	for _, id := range boundary {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, id := range fresh {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	return Delta{IDs: ids, Strategy: turn.StrategyIncremental}
}

// Package prioritize selects a bounded working set of scored turns. The
// importance score controls only which turns are included; the returned
// set is always re-sorted chronologically, because the completion caller
// requires oldest-to-newest ordering.
package prioritize

import (
	"sort"

	"github.com/fathom-chat/contextd/internal/turn"
)

// Options bounds the selection.
type Options struct {
	// MaxCount is the hard cap on returned turns. Zero or negative
	// means no cap.
	MaxCount int
	// MinScore is the inclusion threshold for turns outside the
	// recency floor.
	MinScore float64
	// PreserveRecentN is the continuity floor: the N most recent turns
	// are always kept regardless of score.
	PreserveRecentN int
}

// Select returns the turns to include in the assembled context.
//
// The PreserveRecentN most recent turns are always retained. From the
// remainder, turns scoring at or above MinScore are taken in descending
// score order (ties broken by the more recent timestamp) until MaxCount
// is reached. The result is re-sorted by timestamp ascending.
func Select(scored []turn.ScoredTurn, opts Options) []turn.ScoredTurn {
	if len(scored) == 0 {
		return nil
	}

	byTime := make([]turn.ScoredTurn, len(scored))
	copy(byTime, scored)
	turn.SortScoredChronological(byTime)

	n := opts.PreserveRecentN
	if n < 0 {
		n = 0
	}
	if n >= len(byTime) {
		// Fewer turns than the floor: everything is kept.
		return byTime
	}

	floor := byTime[len(byTime)-n:]
	remainder := byTime[:len(byTime)-n]

	candidates := make([]turn.ScoredTurn, 0, len(remainder))
	for _, st := range remainder {
		if st.Score >= opts.MinScore {
			candidates = append(candidates, st)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Timestamp.After(candidates[j].Timestamp)
	})

	selected := make([]turn.ScoredTurn, 0, len(floor)+len(candidates))
	selected = append(selected, floor...)
	selected = append(selected, candidates...)
	if opts.MaxCount > 0 && len(selected) > opts.MaxCount {
		selected = selected[:opts.MaxCount]
	}

	turn.SortScoredChronological(selected)
	return selected
}

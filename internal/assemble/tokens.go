package assemble

import "github.com/fathom-chat/contextd/internal/turn"

// TokenEstimator approximates the token cost of a turn. The estimator is
// an injection point: the default heuristic is deliberately cheap, and a
// deployment that needs tokenizer-exact counts swaps in its own.
type TokenEstimator interface {
	EstimateTurn(t turn.ScoredTurn) int
}

// HeuristicEstimator is the proportional model: characters divided by a
// fixed ratio plus a flat cost per image. Duplicate-marked attachments
// cost only their reference marker.
type HeuristicEstimator struct {
	CharsPerToken      int
	PerImageCost       int
	DuplicateImageCost int
}

// DefaultEstimator returns the standard heuristic.
func DefaultEstimator() HeuristicEstimator {
	return HeuristicEstimator{
		CharsPerToken:      4,
		PerImageCost:       170,
		DuplicateImageCost: 8,
	}
}

func (e HeuristicEstimator) EstimateTurn(t turn.ScoredTurn) int {
	cost := len(t.Content) / e.CharsPerToken
	for _, ref := range t.Attachments {
		if ref.IsDuplicate {
			cost += e.DuplicateImageCost
		} else {
			cost += e.PerImageCost
		}
	}
	return cost
}

func totalTokens(turns []turn.ScoredTurn, est TokenEstimator) int {
	total := 0
	for _, t := range turns {
		total += est.EstimateTurn(t)
	}
	return total
}

// Package score computes per-turn importance scores used to decide which
// historical turns enter the assembled context. A score is a pure function
// of (turn, current time, neighborhood) and is recomputed on every assembly
// because it decays with time.
package score

import (
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/fathom-chat/contextd/internal/turn"
)

const (
	recencyHalfLifeHours = 12.0
	richnessSaturation   = 300.0
	longTextThreshold    = 200
	neighborhoodWindow   = 5
	duplicateOverlap     = 0.8
	duplicatePenalty     = 0.7

	attachmentBonus = 15.0
	userRoleBonus   = 5.0
	longTextBonus   = 5.0
)

// Scorer computes importance scores from data-driven keyword tables.
type Scorer struct {
	weights Weights
	lexicon Lexicon
}

// NewScorer returns a scorer with the default weights and lexicon.
func NewScorer() *Scorer {
	return &Scorer{weights: DefaultWeights(), lexicon: DefaultLexicon()}
}

// NewScorerWith returns a scorer with custom weights and lexicon.
func NewScorerWith(w Weights, lex Lexicon) *Scorer {
	return &Scorer{weights: w, lexicon: lex}
}

// Score computes the importance of a single turn in [0,100]. The
// neighborhood is the surrounding window used for relevance overlap and
// near-duplicate detection; passing nil scores the turn in isolation.
func (s *Scorer) Score(t turn.Turn, now time.Time, neighborhood []turn.Turn) float64 {
	ageHours := now.Sub(t.Timestamp).Hours()
	if ageHours < 0 {
		ageHours = 0
	}

	text := strings.ToLower(t.Content)
	words := s.keywords(text)

	score := s.weights.Recency * math.Exp(-ageHours/recencyHalfLifeHours)
	score += s.weights.Richness * s.richness(t, text)
	score += s.weights.Emotional * s.emotional(t.Content, text)
	score += s.weights.Engagement * s.engagement(t, text)
	score += s.weights.Relevance * s.relevance(words, t.ID.String(), neighborhood)

	if t.HasAttachments() {
		score += attachmentBonus
	}
	if t.Role == turn.RoleUser {
		score += userRoleBonus
	}
	if len(t.Content) > longTextThreshold {
		score += longTextBonus
	}

	if s.nearDuplicate(words, t.ID.String(), neighborhood) {
		score *= duplicatePenalty
	}

	return clamp(score, 0, 100)
}

// ScoreAll scores every turn against the full window as its neighborhood.
func (s *Scorer) ScoreAll(turns []turn.Turn, now time.Time) []turn.ScoredTurn {
	scored := make([]turn.ScoredTurn, len(turns))
	for i, t := range turns {
		ageHours := now.Sub(t.Timestamp).Hours()
		if ageHours < 0 {
			ageHours = 0
		}
		scored[i] = turn.ScoredTurn{
			Turn:     t,
			Score:    s.Score(t, now, turns),
			AgeHours: ageHours,
		}
	}
	return scored
}

// richness rewards longer, denser, more substantial messages. Normalized
// to [0,1] before weighting. Empty content yields zero, leaving the score
// dominated by recency.
func (s *Scorer) richness(t turn.Turn, text string) float64 {
	if text == "" && !t.HasAttachments() {
		return 0
	}

	length := math.Min(float64(len(text))/richnessSaturation, 1.0) * 0.5

	var question float64
	if strings.Contains(text, "?") {
		question = 0.2
	}

	techHits := countHits(text, s.lexicon.TechnicalTerms)
	tech := math.Min(float64(techHits)/3.0, 1.0) * 0.2

	var attach float64
	if t.HasAttachments() {
		attach = 0.1
	}

	return clamp(length+question+tech+attach, 0, 1)
}

// emotional measures affect through keyword buckets and punctuation
// intensity. The raw (non-lowercased) content is needed for the caps-run
// signal.
func (s *Scorer) emotional(raw, text string) float64 {
	if text == "" {
		return 0
	}

	v := 0.3 * math.Min(float64(countHits(text, s.lexicon.EmotionHigh)), 2)
	v += 0.15 * math.Min(float64(countHits(text, s.lexicon.EmotionMedium)), 2)
	v += 0.1 * math.Min(float64(countHits(text, s.lexicon.Positive)), 2)
	v += 0.1 * math.Min(float64(countHits(text, s.lexicon.Negative)), 2)

	exclaims := strings.Count(text, "!")
	v += 0.05 * math.Min(float64(exclaims), 3)

	if hasCapsRun(raw) {
		v += 0.1
	}

	return clamp(v, 0, 1)
}

// engagement rewards turns that invite or continue a dialogue.
func (s *Scorer) engagement(t turn.Turn, text string) float64 {
	if text == "" {
		return 0
	}

	questions := strings.Count(text, "?")
	v := 0.3 * math.Min(float64(questions), 2)

	v += 0.2 * math.Min(float64(countHits(text, s.lexicon.Connectives)), 2)

	if t.Role == turn.RoleUser {
		v += 0.2
	}

	return clamp(v, 0, 1)
}

// relevance is the keyword overlap between the turn and the most recent
// turns of its neighborhood.
func (s *Scorer) relevance(words map[string]struct{}, selfID string, neighborhood []turn.Turn) float64 {
	if len(words) == 0 || len(neighborhood) == 0 {
		return 0
	}

	recent := neighborhood
	if len(recent) > neighborhoodWindow {
		recent = recent[len(recent)-neighborhoodWindow:]
	}

	context := make(map[string]struct{})
	for _, n := range recent {
		if n.ID.String() == selfID {
			continue
		}
		for w := range s.keywords(strings.ToLower(n.Content)) {
			context[w] = struct{}{}
		}
	}

	return jaccard(words, context)
}

// nearDuplicate reports whether the turn's keyword set overlaps another
// neighborhood turn at or above the duplicate threshold.
func (s *Scorer) nearDuplicate(words map[string]struct{}, selfID string, neighborhood []turn.Turn) bool {
	if len(words) == 0 {
		return false
	}
	for _, n := range neighborhood {
		if n.ID.String() == selfID {
			continue
		}
		other := s.keywords(strings.ToLower(n.Content))
		if jaccard(words, other) >= duplicateOverlap {
			return true
		}
	}
	return false
}

// keywords extracts the lowercase content words of a text, dropping
// stopwords and short tokens.
func (s *Scorer) keywords(text string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, f := range strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	}) {
		if len(f) <= 3 {
			continue
		}
		if _, stop := s.lexicon.Stopwords[f]; stop {
			continue
		}
		words[f] = struct{}{}
	}
	return words
}

func countHits(text string, terms []string) int {
	hits := 0
	for _, term := range terms {
		if strings.Contains(text, term) {
			hits++
		}
	}
	return hits
}

// hasCapsRun reports a run of four or more consecutive uppercase letters.
func hasCapsRun(raw string) bool {
	run := 0
	for _, r := range raw {
		if unicode.IsUpper(r) {
			run++
			if run >= 4 {
				return true
			}
		} else if unicode.IsLetter(r) {
			run = 0
		}
	}
	return false
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for w := range a {
		if _, ok := b[w]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

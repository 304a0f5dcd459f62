package score

// Lexicon holds the keyword tables the scorer consults. Keeping these as
// data rather than branches keeps the sub-scores pure functions of
// (text, tables) and lets deployments tune vocabularies per audience.
type Lexicon struct {
	EmotionHigh    []string
	EmotionMedium  []string
	Positive       []string
	Negative       []string
	TechnicalTerms []string
	Connectives    []string
	Stopwords      map[string]struct{}
}

// Weights maps each scoring factor to its share of the final score.
// The shares sum to 100.
type Weights struct {
	Recency    float64
	Richness   float64
	Emotional  float64
	Engagement float64
	Relevance  float64
}

// DefaultWeights returns the standard factor split.
func DefaultWeights() Weights {
	return Weights{
		Recency:    40,
		Richness:   25,
		Emotional:  20,
		Engagement: 10,
		Relevance:  5,
	}
}

// DefaultLexicon returns the built-in English keyword tables.
func DefaultLexicon() Lexicon {
	return Lexicon{
		EmotionHigh: []string{
			"love", "hate", "amazing", "terrible", "incredible", "awful",
			"thrilled", "devastated", "furious", "ecstatic", "heartbroken",
			"obsessed", "can't believe", "blown away",
		},
		EmotionMedium: []string{
			"happy", "sad", "angry", "excited", "worried", "upset",
			"annoyed", "nervous", "glad", "frustrated", "disappointed",
			"surprised", "proud",
		},
		Positive: []string{
			"good", "great", "nice", "cool", "awesome", "perfect",
			"thanks", "thank you", "helpful", "works",
		},
		Negative: []string{
			"bad", "wrong", "problem", "issue", "broken", "fails",
			"error", "confusing", "stuck",
		},
		TechnicalTerms: []string{
			"api", "server", "database", "function", "deploy", "config",
			"token", "bug", "code", "release", "stream", "playlist",
			"mix", "master", "bpm", "studio", "tour", "setlist",
		},
		Connectives: []string{
			"also", "and then", "what about", "how about", "but",
			"because", "speaking of", "by the way", "follow up",
			"going back to",
		},
		Stopwords: stopwordSet(),
	}
}

func stopwordSet() map[string]struct{} {
	words := []string{
		"the", "and", "for", "that", "this", "with", "you", "your",
		"have", "has", "was", "were", "are", "not", "but", "can",
		"will", "just", "about", "what", "when", "where", "how",
		"from", "they", "them", "their", "would", "could", "should",
		"there", "here", "been", "more", "some", "like", "into",
	}
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

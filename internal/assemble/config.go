package assemble

import "encoding/json"

// Config holds the per-assembly knobs. Every field has a documented
// default and can be overridden per call via partial JSON merged over
// the defaults.
type Config struct {
	// MaxMessages bounds how many turns are fetched from the store.
	MaxMessages int `json:"max_messages"`
	// SinceMinutes bounds how far back the fetch window reaches.
	SinceMinutes int `json:"since_minutes"`
	// PreserveRecentN is the continuity floor handed to the prioritizer.
	PreserveRecentN int `json:"preserve_recent_n"`
	// MinImportanceScore is the inclusion threshold outside the floor.
	MinImportanceScore float64 `json:"min_importance_score"`
	// MaxDeltaSize caps how many new turns one incremental delta carries.
	MaxDeltaSize int `json:"max_delta_size"`
	// TokenBudget is the fallback budget when the caller supplies none.
	TokenBudget int `json:"token_budget"`
}

// DefaultConfig returns the standard assembly settings.
func DefaultConfig() Config {
	return Config{
		MaxMessages:        50,
		SinceMinutes:       24 * 60,
		PreserveRecentN:    5,
		MinImportanceScore: 20,
		MaxDeltaSize:       10,
		TokenBudget:        4096,
	}
}

// ParseConfig merges partial JSON over the defaults. Returns defaults on
// nil, empty, or invalid input.
func ParseConfig(data []byte) Config {
	cfg := DefaultConfig()
	if len(data) == 0 {
		return cfg
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return cfg
	}
	if len(raw) == 0 {
		return cfg
	}

	// Unmarshal over defaults so only provided fields are overwritten.
	_ = json.Unmarshal(data, &cfg)
	return cfg
}

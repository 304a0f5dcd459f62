package events

import "time"

// Stream name.
const StreamEvents = "CONTEXTD_EVENTS"

// Subject constants.
const (
	SubjectAssembled      = "contextd.events.assembled"
	SubjectHistoryCleared = "contextd.events.history_cleared"
)

// AssembledEvent is published after each context assembly so downstream
// consumers can track window composition over time.
type AssembledEvent struct {
	UserID         string    `json:"user_id"`
	Strategy       string    `json:"strategy"`
	TurnCount      int       `json:"turn_count"`
	TokensEstimate int       `json:"tokens_estimate"`
	Truncated      bool      `json:"truncated"`
	Timestamp      time.Time `json:"timestamp"`
}

// HistoryClearedEvent is published when a user's stored turns are deleted.
type HistoryClearedEvent struct {
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

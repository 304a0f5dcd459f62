// Package turn defines the conversation-turn data model shared by the
// context-assembly pipeline: raw turns fetched from the asset store, scored
// turns produced by the importance scorer, and the final assembled context
// handed to the completion caller.
package turn

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Strategy describes how an assembled context relates to the previous one
// sent for the same user.
type Strategy string

const (
	StrategyFull        Strategy = "full"
	StrategyIncremental Strategy = "incremental"
	StrategyMinimal     Strategy = "minimal"
	StrategyNoChanges   Strategy = "no-changes"
)

// ImageRef references image bytes attached to a turn. Two refs with equal
// Hash are duplicates regardless of where the bytes came from.
type ImageRef struct {
	Hash         string `json:"hash"`
	Data         []byte `json:"data,omitempty"`
	URL          string `json:"url,omitempty"`
	MIMEType     string `json:"mime_type,omitempty"`
	OriginalSize int    `json:"original_size"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
	IsDuplicate  bool   `json:"is_duplicate,omitempty"`
}

// Turn is one conversational message. Turns are immutable once persisted;
// timestamps strictly increase per user stream (ties broken by insertion
// order, which stable sorting preserves).
type Turn struct {
	ID             uuid.UUID  `json:"id"`
	UserID         string     `json:"user_id"`
	ConversationID string     `json:"conversation_id,omitempty"`
	Role           Role       `json:"role"`
	Content        string     `json:"content"`
	Attachments    []ImageRef `json:"attachments,omitempty"`
	Timestamp      time.Time  `json:"timestamp"`
}

// HasAttachments reports whether the turn carries at least one image.
func (t Turn) HasAttachments() bool {
	return len(t.Attachments) > 0
}

// ScoredTurn pairs a turn with its importance score and derived flags.
// The score decides inclusion only, never output ordering.
type ScoredTurn struct {
	Turn
	Score    float64 `json:"score"`
	AgeHours float64 `json:"age_hours"`
}

// AssembledContext is the final output of the assembly pipeline: a bounded,
// chronologically ordered set of turns plus bookkeeping for monitoring.
type AssembledContext struct {
	Turns               []ScoredTurn `json:"turns"`
	TotalTokensEstimate int          `json:"total_tokens_estimate"`
	Strategy            Strategy     `json:"strategy"`
	Truncated           bool         `json:"truncated"`
	Warning             string       `json:"warning,omitempty"`

	// WindowTurnIDs is the full chronological ID list of the window the
	// context was assembled from. The delta cache records it when the
	// context is committed as sent.
	WindowTurnIDs []uuid.UUID `json:"-"`
}

// IDs returns the turn IDs in slice order.
func IDs(turns []Turn) []uuid.UUID {
	ids := make([]uuid.UUID, len(turns))
	for i, t := range turns {
		ids[i] = t.ID
	}
	return ids
}

// SortChronological orders turns oldest to newest, preserving insertion
// order for equal timestamps.
func SortChronological(turns []Turn) {
	sort.SliceStable(turns, func(i, j int) bool {
		return turns[i].Timestamp.Before(turns[j].Timestamp)
	})
}

// SortScoredChronological orders scored turns oldest to newest.
func SortScoredChronological(turns []ScoredTurn) {
	sort.SliceStable(turns, func(i, j int) bool {
		return turns[i].Timestamp.Before(turns[j].Timestamp)
	})
}

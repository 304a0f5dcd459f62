// Package store provides access to durable conversation turns. The
// assembly pipeline depends only on the AssetStore interface; the
// Postgres and Redis implementations here are the reference backends.
package store

import (
	"context"

	"github.com/fathom-chat/contextd/internal/turn"
)

// AssetStore fetches raw turns for a user. Implementations return turns
// in descending-timestamp order (newest first); callers re-sort as
// needed. Fetch is the only network suspension point in the assembly
// pipeline and must respect context cancellation.
type AssetStore interface {
	Fetch(ctx context.Context, userID string, sinceMinutes, maxMessages int) ([]turn.Turn, error)
}

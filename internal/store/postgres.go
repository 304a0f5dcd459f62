package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fathom-chat/contextd/internal/turn"
)

// PostgresStore implements AssetStore over the turns table. Attachments
// are stored as a JSONB column; originals always live here, derived
// thumbnails never do.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed asset store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Fetch returns up to maxMessages turns for the user newer than
// sinceMinutes, newest first.
func (s *PostgresStore) Fetch(ctx context.Context, userID string, sinceMinutes, maxMessages int) ([]turn.Turn, error) {
	since := time.Now().Add(-time.Duration(sinceMinutes) * time.Minute)

	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, conversation_id, role, content, attachments, created_at
		 FROM turns
		 WHERE user_id = $1 AND created_at >= $2
		 ORDER BY created_at DESC
		 LIMIT $3`,
		userID, since, maxMessages,
	)
	if err != nil {
		return nil, fmt.Errorf("fetching turns: %w", err)
	}
	defer rows.Close()

	var turns []turn.Turn
	for rows.Next() {
		var t turn.Turn
		var attachments []byte
		if err := rows.Scan(&t.ID, &t.UserID, &t.ConversationID, &t.Role, &t.Content, &attachments, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		if len(attachments) > 0 {
			if err := json.Unmarshal(attachments, &t.Attachments); err != nil {
				return nil, fmt.Errorf("decoding attachments for %s: %w", t.ID, err)
			}
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// Append persists a new turn.
func (s *PostgresStore) Append(ctx context.Context, t turn.Turn) error {
	attachments, err := json.Marshal(t.Attachments)
	if err != nil {
		return fmt.Errorf("encoding attachments: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO turns (id, user_id, conversation_id, role, content, attachments, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		t.ID, t.UserID, t.ConversationID, t.Role, t.Content, attachments, t.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("inserting turn: %w", err)
	}
	return nil
}

// DeleteByUser removes all turns for a user.
func (s *PostgresStore) DeleteByUser(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM turns WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("deleting turns for %s: %w", userID, err)
	}
	return nil
}

package store

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/fathom-chat/contextd/internal/api"
	"github.com/fathom-chat/contextd/internal/events"
	"github.com/fathom-chat/contextd/internal/imaging"
	"github.com/fathom-chat/contextd/internal/turn"
)

// AppendTurnRequest is the ingestion surface. Attachment data arrives
// base64-encoded in the JSON body; hashes are computed server side.
type AppendTurnRequest struct {
	UserID         string          `json:"user_id" validate:"required,min=1"`
	ConversationID string          `json:"conversation_id"`
	Role           string          `json:"role" validate:"required,oneof=user assistant"`
	Content        string          `json:"content"`
	Attachments    []turn.ImageRef `json:"attachments,omitempty"`
	Timestamp      time.Time       `json:"timestamp,omitempty"`
}

// Handler handles turn ingestion and history deletion. durable may be
// nil for Redis-only deployments.
type Handler struct {
	recent    *RecentStore
	durable   *PostgresStore
	publisher *events.Publisher
	validate  *validator.Validate
}

// NewHandler creates a turns handler.
func NewHandler(recent *RecentStore, durable *PostgresStore, publisher *events.Publisher) *Handler {
	return &Handler{
		recent:    recent,
		durable:   durable,
		publisher: publisher,
		validate:  validator.New(),
	}
}

// Append ingests one turn into the recent window and, when configured,
// the durable store.
func (h *Handler) Append(w http.ResponseWriter, r *http.Request) {
	var req AppendTurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	t := turn.Turn{
		ID:             uuid.New(),
		UserID:         req.UserID,
		ConversationID: req.ConversationID,
		Role:           turn.Role(req.Role),
		Content:        req.Content,
		Attachments:    req.Attachments,
		Timestamp:      req.Timestamp,
	}
	if t.Timestamp.IsZero() {
		t.Timestamp = time.Now().UTC()
	}
	for i := range t.Attachments {
		imaging.EnsureHash(&t.Attachments[i])
		if t.Attachments[i].OriginalSize == 0 {
			t.Attachments[i].OriginalSize = len(t.Attachments[i].Data)
		}
	}

	if err := h.recent.Append(r.Context(), t); err != nil {
		slog.Error("appending turn to recent window", "user_id", t.UserID, "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}
	if h.durable != nil {
		if err := h.durable.Append(r.Context(), t); err != nil {
			slog.Error("appending turn to durable store", "user_id", t.UserID, "error", err)
			api.HandleError(w, api.ErrInternalServer)
			return
		}
	}

	api.JSON(w, http.StatusCreated, map[string]string{"id": t.ID.String()})
}

// Clear deletes all stored turns for a user from every backend.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		api.HandleError(w, api.ErrBadRequest)
		return
	}

	if err := h.recent.Clear(r.Context(), userID); err != nil {
		slog.Error("clearing recent window", "user_id", userID, "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}
	if h.durable != nil {
		if err := h.durable.DeleteByUser(r.Context(), userID); err != nil {
			slog.Error("clearing durable store", "user_id", userID, "error", err)
			api.HandleError(w, api.ErrInternalServer)
			return
		}
	}

	if err := h.publisher.PublishHistoryCleared(r.Context(), events.HistoryClearedEvent{
		UserID:    userID,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		slog.Warn("publishing history cleared event", "user_id", userID, "error", err)
	}

	api.JSONMessage(w, http.StatusOK, "history cleared")
}

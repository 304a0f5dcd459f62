package assemble

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/fathom-chat/contextd/internal/api"
	"github.com/fathom-chat/contextd/internal/budget"
	"github.com/fathom-chat/contextd/internal/events"
)

// AssembleRequest is the HTTP surface of the assembler. A zero
// TokenBudget lets the planner derive one from the window profile.
type AssembleRequest struct {
	UserID      string          `json:"user_id" validate:"required,min=1"`
	Message     string          `json:"message"`
	TokenBudget int             `json:"token_budget,omitempty" validate:"omitempty,gt=0"`
	Overrides   json.RawMessage `json:"overrides,omitempty"`
	DryRun      bool            `json:"dry_run,omitempty"`
}

// Handler exposes context assembly over HTTP.
type Handler struct {
	assembler *Assembler
	planner   budget.Planner
	publisher *events.Publisher
	validate  *validator.Validate
}

// NewHandler creates an assemble handler. publisher may be nil when no
// event bus is configured.
func NewHandler(assembler *Assembler, planner budget.Planner, publisher *events.Publisher) *Handler {
	return &Handler{
		assembler: assembler,
		planner:   planner,
		publisher: publisher,
		validate:  validator.New(),
	}
}

// Assemble builds a context for the user and, unless dry_run is set,
// commits it as sent so the next request diffs against it.
func (h *Handler) Assemble(w http.ResponseWriter, r *http.Request) {
	var req AssembleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	assembler := h.assembler
	if len(req.Overrides) > 0 {
		assembler = assembler.WithConfig(ParseConfig(req.Overrides))
	}

	tokenBudget := req.TokenBudget
	window, err := assembler.FetchWindow(r.Context(), req.UserID)
	if err != nil {
		if errors.Is(err, ErrAborted) {
			// Client went away; nothing useful to write.
			return
		}
		slog.Error("fetching turn window", "user_id", req.UserID, "error", err)
		api.HandleError(w, api.ErrServiceUnavailable)
		return
	}
	if tokenBudget <= 0 {
		tokenBudget = h.planner.Plan(budget.ProfileOf(window))
	}

	actx, err := assembler.AssembleWindow(r.Context(), req.UserID, req.Message, window, tokenBudget)
	if err != nil {
		if errors.Is(err, ErrAborted) {
			return
		}
		slog.Error("assembling context", "user_id", req.UserID, "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	if !req.DryRun {
		assembler.Commit(r.Context(), req.UserID, actx)
		if err := h.publisher.PublishAssembled(r.Context(), events.AssembledEvent{
			UserID:         req.UserID,
			Strategy:       string(actx.Strategy),
			TurnCount:      len(actx.Turns),
			TokensEstimate: actx.TotalTokensEstimate,
			Truncated:      actx.Truncated,
			Timestamp:      time.Now().UTC(),
		}); err != nil {
			slog.Warn("publishing assembled event", "user_id", req.UserID, "error", err)
		}
	}

	api.JSON(w, http.StatusOK, actx)
}

// Package assemble orchestrates the context-assembly pipeline: fetch,
// image dedup, importance scoring, delta diffing, prioritized selection,
// and token-budget fitting. The output is the ordered, budgeted context
// handed to the completion caller.
package assemble

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/fathom-chat/contextd/internal/deltacache"
	"github.com/fathom-chat/contextd/internal/imaging"
	"github.com/fathom-chat/contextd/internal/metrics"
	"github.com/fathom-chat/contextd/internal/prioritize"
	"github.com/fathom-chat/contextd/internal/score"
	"github.com/fathom-chat/contextd/internal/store"
	"github.com/fathom-chat/contextd/internal/turn"
)

// floorWarning is surfaced on AssembledContext.Warning when even the
// recency floor exceeds the budget.
const floorWarning = "recency floor exceeds token budget; best-effort context returned"

// Assembler wires the pipeline components together. All components are
// injected so tests can substitute doubles; one Assembler serves all
// concurrent requests.
type Assembler struct {
	assets    store.AssetStore
	cache     deltacache.Cache
	scorer    *score.Scorer
	images    *imaging.Processor
	estimator TokenEstimator
	cfg       Config
	now       func() time.Time
}

// New creates an Assembler. A nil estimator falls back to the chars/4
// heuristic.
func New(assets store.AssetStore, cache deltacache.Cache, scorer *score.Scorer, images *imaging.Processor, estimator TokenEstimator, cfg Config) *Assembler {
	if estimator == nil {
		estimator = DefaultEstimator()
	}
	return &Assembler{
		assets:    assets,
		cache:     cache,
		scorer:    scorer,
		images:    images,
		estimator: estimator,
		cfg:       cfg,
		now:       time.Now,
	}
}

// WithConfig returns a shallow copy of the Assembler using cfg, sharing
// the underlying components and caches. Used for per-call overrides.
func (a *Assembler) WithConfig(cfg Config) *Assembler {
	clone := *a
	clone.cfg = cfg
	return &clone
}

// FetchWindow fetches the user's raw turn window from the asset store.
func (a *Assembler) FetchWindow(ctx context.Context, userID string) ([]turn.Turn, error) {
	window, err := a.assets.Fetch(ctx, userID, a.cfg.SinceMinutes, a.cfg.MaxMessages)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrAborted, ctx.Err())
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return window, nil
}

// Assemble fetches the user's window from the asset store and assembles
// a context for it. messageText is the incoming user message, used for
// the image resolution decision. budget <= 0 falls back to the
// configured default.
//
// The delta cache is read but not written: call Commit once the context
// has actually been sent downstream, so repeated assemblies of the same
// window stay deterministic.
func (a *Assembler) Assemble(ctx context.Context, userID, messageText string, budget int) (*turn.AssembledContext, error) {
	window, err := a.FetchWindow(ctx, userID)
	if err != nil {
		return nil, err
	}
	return a.AssembleWindow(ctx, userID, messageText, window, budget)
}

// AssembleWindow assembles a context from an already-fetched window.
func (a *Assembler) AssembleWindow(ctx context.Context, userID, messageText string, window []turn.Turn, budget int) (*turn.AssembledContext, error) {
	if ctx.Err() != nil {
		return nil, fmt.Errorf("%w: %v", ErrAborted, ctx.Err())
	}
	start := a.now()

	if budget <= 0 {
		budget = a.cfg.TokenBudget
	}

	turns := make([]turn.Turn, len(window))
	copy(turns, window)
	turns = imaging.Deduplicate(turns)

	scored := a.scorer.ScoreAll(turns, a.now())
	windowIDs := idsOfScored(scored)

	delta, err := a.cache.Diff(ctx, userID, windowIDs)
	if err != nil {
		// Cache trouble only costs a full re-send.
		slog.Warn("delta cache diff failed, falling back to full context",
			"user_id", userID, "error", err)
		delta = deltacache.Delta{IDs: windowIDs, Strategy: turn.StrategyFull}
	}

	inDelta := make(map[uuid.UUID]struct{}, len(delta.IDs))
	for _, id := range delta.IDs {
		inDelta[id] = struct{}{}
	}
	candidates := make([]turn.ScoredTurn, 0, len(delta.IDs))
	for _, st := range scored {
		if _, ok := inDelta[st.ID]; ok {
			candidates = append(candidates, st)
		}
	}

	selected := prioritize.Select(candidates, prioritize.Options{
		MaxCount:        a.cfg.MaxMessages,
		MinScore:        a.cfg.MinImportanceScore,
		PreserveRecentN: a.cfg.PreserveRecentN,
	})

	kept, total, truncated := a.fitBudget(selected, budget)

	if a.images != nil {
		a.attachImages(kept, messageText)
	}

	actx := &turn.AssembledContext{
		Turns:               kept,
		TotalTokensEstimate: total,
		Strategy:            delta.Strategy,
		Truncated:           truncated,
		WindowTurnIDs:       windowIDs,
	}
	if truncated {
		actx.Warning = floorWarning
		metrics.AssemblyTruncationsTotal.Inc()
	}

	metrics.AssembliesTotal.WithLabelValues(string(delta.Strategy)).Inc()
	metrics.AssemblyDuration.Observe(a.now().Sub(start).Seconds())
	metrics.AssemblyTokensEstimate.Observe(float64(total))

	return actx, nil
}

// Commit records that the assembled window was sent downstream, making
// the next assembly for this user incremental.
func (a *Assembler) Commit(ctx context.Context, userID string, actx *turn.AssembledContext) {
	if err := a.cache.Store(ctx, userID, actx.WindowTurnIDs); err != nil {
		slog.Warn("storing delta cache entry", "user_id", userID, "error", err)
	}
}

// fitBudget drops the oldest non-floor turns until the estimate fits the
// budget. If the floor alone is still over, the best-effort floor set is
// returned with truncated=true.
func (a *Assembler) fitBudget(selected []turn.ScoredTurn, budget int) ([]turn.ScoredTurn, int, bool) {
	total := totalTokens(selected, a.estimator)
	if total <= budget {
		return selected, total, false
	}

	floor := a.cfg.PreserveRecentN
	if floor > len(selected) {
		floor = len(selected)
	}
	droppable := len(selected) - floor

	drop := 0
	for total > budget && drop < droppable {
		total -= a.estimator.EstimateTurn(selected[drop])
		drop++
	}
	kept := selected[drop:]
	return kept, total, total > budget
}

// attachImages folds the compression decision into the final turns,
// replacing attachment bytes with the thumbnail or full-resolution
// payload the resolution decision picked.
func (a *Assembler) attachImages(kept []turn.ScoredTurn, messageText string) {
	for i := range kept {
		if len(kept[i].Attachments) == 0 {
			continue
		}
		processed := a.images.Process(kept[i].Attachments, messageText)
		refs := make([]turn.ImageRef, len(kept[i].Attachments))
		copy(refs, kept[i].Attachments)
		for j := range refs {
			if j >= len(processed) {
				break
			}
			p := processed[j]
			refs[j].Hash = p.Hash
			refs[j].Data = p.Data
			if p.MIMEType != "" {
				refs[j].MIMEType = p.MIMEType
			}
			if p.Width > 0 {
				refs[j].Width = p.Width
			}
			if p.Height > 0 {
				refs[j].Height = p.Height
			}
			refs[j].IsDuplicate = p.IsDuplicateReference
		}
		kept[i].Attachments = refs
	}
}

func idsOfScored(scored []turn.ScoredTurn) []uuid.UUID {
	ids := make([]uuid.UUID, len(scored))
	for i, st := range scored {
		ids[i] = st.ID
	}
	return ids
}

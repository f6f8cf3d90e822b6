// Package score grades a player's evidence against an event's ground truth
// and updates the outlet's standing.
package score

import (
	"context"
	"fmt"
	"time"

	"github.com/ppiankov/infodemic/internal/evidence"
	"github.com/ppiankov/infodemic/internal/generate"
	"github.com/ppiankov/infodemic/internal/llm"
	"github.com/ppiankov/infodemic/internal/model"
	"github.com/ppiankov/infodemic/internal/store"
	"go.uber.org/zap"
)

// Outcome is the result of one scoring round
type Outcome struct {
	Article  model.Article
	Media    model.Media // Outlet after the update
	Before   model.Media // Outlet before the update
	Attempts int
}

// Engine runs scoring rounds
type Engine struct {
	store      *store.Store
	evidence   *evidence.Aggregator
	provider   llm.Provider
	retrier    generate.Retrier
	reputation model.ReputationConfig
	logger     *zap.Logger
	now        func() time.Time
}

// New creates a scoring engine. Generation settings bound the retry loop.
func New(s *store.Store, agg *evidence.Aggregator, provider llm.Provider, gen model.GenerationConfig, rep model.ReputationConfig, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		store:    s,
		evidence: agg,
		provider: provider,
		retrier: generate.Retrier{
			MaxAttempts: gen.MaxAttempts,
			Delay:       gen.RetryDelay,
			Logger:      logger,
		},
		reputation: rep,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Score grades the approved evidence of an event and records the article
// for the outlet. A zero mediaID uses the configured default outlet.
// Scoring an event twice fails with store.ErrAlreadyScored.
func (e *Engine) Score(ctx context.Context, eventID, mediaID int64) (*Outcome, error) {
	if mediaID == 0 {
		mediaID = e.reputation.DefaultMediaID
	}

	ev, err := e.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("load event %d: %w", eventID, err)
	}
	if ev.Status == model.StatusScored {
		return nil, store.ErrAlreadyScored
	}
	media, err := e.store.GetMedia(ctx, mediaID)
	if err != nil {
		return nil, fmt.Errorf("load outlet %d: %w", mediaID, err)
	}

	sc, err := e.scoringContext(ctx, ev, media)
	if err != nil {
		return nil, err
	}
	prompt := llm.BuildScoringPrompt(sc)

	job := generate.Job{Operation: "score", EventTypeID: ev.EventTypeID, EventID: eventID}
	var verdict *generate.Verdict
	var attempts int
	err = e.retrier.Do(ctx, job, func(ctx context.Context, attempt int) error {
		attempts = attempt
		resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
			System: llm.ScoringSystemPrompt,
			Prompt: prompt,
		})
		if err != nil {
			return generate.Classify(e.provider.Name(), err)
		}
		v, err := generate.DecodeVerdict(resp.Text)
		if err != nil {
			return err
		}
		verdict = v
		return nil
	})
	if err != nil {
		return nil, err
	}

	article := model.Article{
		MediaID:       mediaID,
		EventID:       eventID,
		Title:         verdict.Title,
		Content:       verdict.Content,
		VeracityScore: verdict.VeracityScore,
		Verdict:       verdict.Verdict,
		CreatedAt:     e.now(),
	}
	updated := ApplyReputation(media, verdict.VeracityScore, e.reputation)
	if err := e.store.RecordScore(ctx, &article, updated); err != nil {
		return nil, fmt.Errorf("record score: %w", err)
	}

	e.logger.Info("event scored",
		zap.Int64("event_id", eventID),
		zap.Int64("media_id", mediaID),
		zap.Float64("veracity", verdict.VeracityScore),
		zap.Float64("credibility", updated.Credibility),
		zap.Int64("readers", updated.Readers),
		zap.Int("attempts", attempts))

	return &Outcome{Article: article, Media: updated, Before: media, Attempts: attempts}, nil
}

// scoringContext gathers the ground truth, statements, authors and the
// approved evidence grouped by fact panel
func (e *Engine) scoringContext(ctx context.Context, ev model.Event, media model.Media) (llm.ScoringContext, error) {
	statements, err := e.store.ListStatements(ctx, ev.ID)
	if err != nil {
		return llm.ScoringContext{}, err
	}
	participants, err := e.store.ListParticipants(ctx, ev.ID)
	if err != nil {
		return llm.ScoringContext{}, err
	}
	if _, err := e.evidence.Panels(ctx, ev.ID); err != nil {
		return llm.ScoringContext{}, fmt.Errorf("load fact panels: %w", err)
	}
	groups, err := e.evidence.Grouped(ctx, ev.ID)
	if err != nil {
		return llm.ScoringContext{}, fmt.Errorf("group evidence: %w", err)
	}

	panels := make([]llm.PanelEvidence, len(groups))
	for i, g := range groups {
		panels[i] = llm.PanelEvidence{
			FactKey: g.Panel.FactKey,
			Label:   g.Panel.Label,
			Phrases: g.Phrases(),
		}
	}

	return llm.ScoringContext{
		Event:        ev,
		Statements:   statements,
		Participants: participants,
		Panels:       panels,
		MediaName:    media.Name,
	}, nil
}

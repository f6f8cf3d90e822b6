// Package pipeline runs the event generation cycle: actor selection,
// request building, generation, validation and persistence.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ppiankov/infodemic/internal/generate"
	"github.com/ppiankov/infodemic/internal/llm"
	"github.com/ppiankov/infodemic/internal/model"
	"github.com/ppiankov/infodemic/internal/selector"
	"go.uber.org/zap"
)

// Pipeline orchestrates the complete generation cycle
type Pipeline struct {
	store     Store
	selector  *selector.Selector
	provider  llm.Provider
	persister *Persister
	retrier   generate.Retrier
	logger    *zap.Logger
	now       func() time.Time
}

// New creates a pipeline
func New(s Store, sel *selector.Selector, provider llm.Provider, cfg model.GenerationConfig, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		store:     s,
		selector:  sel,
		provider:  provider,
		persister: NewPersister(s, logger),
		retrier: generate.Retrier{
			MaxAttempts: cfg.MaxAttempts,
			Delay:       cfg.RetryDelay,
			Logger:      logger,
		},
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Result is a persisted event and how it was produced
type Result struct {
	CycleID    string
	Event      model.Event
	Statements []model.Statement
	Dropped    []*UnresolvedSourceError
	Selection  selector.Selection
	Attempts   int
}

// Generate produces and stores one event of the given type. A zero
// eventTypeID picks the least recently used type. Transport failures and
// malformed replies re-run the whole cycle from selection; once attempts
// run out a *generate.GenerationFailedError is returned and nothing is stored.
func (p *Pipeline) Generate(ctx context.Context, eventTypeID int64) (*Result, error) {
	if eventTypeID == 0 {
		picked, err := p.store.PickEventType(ctx)
		if err != nil {
			return nil, fmt.Errorf("pick event type: %w", err)
		}
		eventTypeID = picked
	}
	eventType, err := p.store.GetEventType(ctx, eventTypeID)
	if err != nil {
		return nil, fmt.Errorf("load event type %d: %w", eventTypeID, err)
	}

	job := generate.Job{Operation: "event", EventTypeID: eventTypeID, CycleID: uuid.NewString()}
	p.logger.Info("event requested",
		zap.String("cycle_id", job.CycleID),
		zap.Int64("event_type_id", eventTypeID),
		zap.String("event_type", eventType.Name))

	var result *Result
	err = p.retrier.Do(ctx, job, func(ctx context.Context, attempt int) error {
		r, err := p.attempt(ctx, eventType)
		if err != nil {
			return err
		}
		r.CycleID = job.CycleID
		r.Attempts = attempt
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// attempt runs one full cycle: select, build, send, decode, persist
func (p *Pipeline) attempt(ctx context.Context, eventType model.EventType) (*Result, error) {
	now := p.now()

	sel, err := p.selector.Select(ctx, eventType.ID, now)
	if err != nil {
		return nil, fmt.Errorf("select actors: %w", err)
	}

	resp, err := p.provider.Complete(ctx, llm.CompletionRequest{
		System: llm.EventSystemPrompt,
		Prompt: llm.BuildEventPrompt(eventType, sel.Organizations, sel.Characters),
	})
	if err != nil {
		return nil, generate.Classify(p.provider.Name(), err)
	}

	prov, err := generate.DecodeEvent(resp.Text)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("event generated",
		zap.Int64("event_type_id", eventType.ID),
		zap.String("title", prov.Title),
		zap.Int("facts", len(prov.CoreTruth)),
		zap.Int("statements", len(prov.Statements)))

	persisted, err := p.persister.Persist(ctx, eventType.ID, sel, prov, p.now())
	if err != nil {
		return nil, err
	}

	return &Result{
		Event:      persisted.Event,
		Statements: persisted.Statements,
		Dropped:    persisted.Dropped,
		Selection:  sel,
	}, nil
}

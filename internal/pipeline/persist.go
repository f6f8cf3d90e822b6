package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ppiankov/infodemic/internal/generate"
	"github.com/ppiankov/infodemic/internal/model"
	"github.com/ppiankov/infodemic/internal/selector"
	"github.com/ppiankov/infodemic/internal/store"
	"go.uber.org/zap"
)

// UnresolvedSourceError is a statement whose source tag names no known actor
type UnresolvedSourceError struct {
	Tag     string
	Content string
	Err     error
}

func (e *UnresolvedSourceError) Error() string {
	return fmt.Sprintf("unresolved source %q: %v", e.Tag, e.Err)
}

func (e *UnresolvedSourceError) Unwrap() error { return e.Err }

// Store is the persistence the pipeline writes through
type Store interface {
	GetEventType(ctx context.Context, id int64) (model.EventType, error)
	PickEventType(ctx context.Context) (int64, error)
	FindActor(ctx context.Context, source model.Attribution) (model.Actor, error)
	PersistEvent(ctx context.Context, ev *model.Event, statements []model.Statement, now time.Time) error
}

// Persisted is a stored event with the statements that made it in
type Persisted struct {
	Event      model.Event
	Statements []model.Statement
	Dropped    []*UnresolvedSourceError
}

// Persister commits validated events
type Persister struct {
	store  Store
	logger *zap.Logger
}

// NewPersister creates a persister
func NewPersister(s Store, logger *zap.Logger) *Persister {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Persister{store: s, logger: logger}
}

// Resolve maps each provisional statement onto its author. Statements with a
// malformed or unknown source tag are dropped and reported, not fatal.
func (p *Persister) Resolve(ctx context.Context, sel selector.Selection, prov *generate.ProvisionalEvent) ([]model.Statement, []*UnresolvedSourceError, error) {
	var statements []model.Statement
	var dropped []*UnresolvedSourceError

	for _, ps := range prov.Statements {
		source, err := model.ParseAttribution(ps.Source)
		if err != nil {
			dropped = append(dropped, &UnresolvedSourceError{Tag: ps.Source, Content: ps.Content, Err: err})
			continue
		}
		if _, ok := sel.Find(source); !ok {
			if _, err := p.store.FindActor(ctx, source); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					dropped = append(dropped, &UnresolvedSourceError{Tag: ps.Source, Content: ps.Content, Err: err})
					continue
				}
				return nil, nil, fmt.Errorf("resolve %s: %w", source, err)
			}
		}
		statements = append(statements, model.Statement{
			Source:      source,
			Content:     ps.Content,
			Truthful:    ps.Truthful,
			Distortions: ps.Distortions,
		})
	}
	return statements, dropped, nil
}

// Persist stores the event and its resolvable statements in one transaction,
// touching every author's cooldown and marking the event active. A reply in
// which no statement resolves is reported as a malformed generation.
func (p *Persister) Persist(ctx context.Context, eventTypeID int64, sel selector.Selection, prov *generate.ProvisionalEvent, now time.Time) (*Persisted, error) {
	statements, dropped, err := p.Resolve(ctx, sel, prov)
	if err != nil {
		return nil, err
	}
	for _, d := range dropped {
		p.logger.Warn("statement dropped",
			zap.Int64("event_type_id", eventTypeID),
			zap.String("source", d.Tag),
			zap.Error(d.Err))
	}
	if len(statements) == 0 {
		return nil, &generate.MalformedGenerationError{
			Stage:  "content",
			Reason: fmt.Sprintf("none of %d statements has a resolvable source", len(prov.Statements)),
		}
	}

	ev := model.Event{
		EventTypeID:      eventTypeID,
		Title:            prov.Title,
		Description:      prov.Description,
		Location:         prov.Location,
		CoreTruth:        prov.CoreTruth,
		GeneratedContent: prov.GeneratedContent,
		Status:           model.StatusGenerated,
	}
	if err := p.store.PersistEvent(ctx, &ev, statements, now); err != nil {
		return nil, fmt.Errorf("persist event: %w", err)
	}

	p.logger.Info("event persisted",
		zap.Int64("event_id", ev.ID),
		zap.Int64("event_type_id", eventTypeID),
		zap.Int("statements", len(statements)),
		zap.Int("dropped", len(dropped)))

	return &Persisted{Event: ev, Statements: statements, Dropped: dropped}, nil
}

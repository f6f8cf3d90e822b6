// Package game ties generation, evidence collection and scoring into a
// single player session with one active event.
package game

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/ppiankov/infodemic/internal/evidence"
	"github.com/ppiankov/infodemic/internal/model"
	"github.com/ppiankov/infodemic/internal/pipeline"
	"github.com/ppiankov/infodemic/internal/score"
	"github.com/ppiankov/infodemic/internal/store"
	"go.uber.org/zap"
)

// ErrNoActiveEvent is returned when no event has been generated yet
var ErrNoActiveEvent = errors.New("no active event")

// RoundResult is delivered when an asynchronous round finishes
type RoundResult struct {
	Result *pipeline.Result
	Err    error
}

// SubmitResult is delivered when an asynchronous scoring finishes
type SubmitResult struct {
	Outcome *score.Outcome
	Err     error
}

// Session serializes one player's interaction with the active event
type Session struct {
	ID string

	mu       sync.Mutex
	store    *store.Store
	pipeline *pipeline.Pipeline
	evidence *evidence.Aggregator
	scorer   *score.Engine
	mediaID  int64
	logger   *zap.Logger
}

// NewSession creates a session playing for the given outlet
func NewSession(s *store.Store, p *pipeline.Pipeline, agg *evidence.Aggregator, engine *score.Engine, mediaID int64, logger *zap.Logger) *Session {
	id := uuid.NewString()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		ID:       id,
		store:    s,
		pipeline: p,
		evidence: agg,
		scorer:   engine,
		mediaID:  mediaID,
		logger:   logger.With(zap.String("session_id", id)),
	}
}

// NewRound generates a new event and makes it active. A zero eventTypeID
// picks the least recently used type.
func (s *Session) NewRound(ctx context.Context, eventTypeID int64) (*pipeline.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.pipeline.Generate(ctx, eventTypeID)
	if err != nil {
		s.logger.Warn("round failed", zap.Int64("event_type_id", eventTypeID), zap.Error(err))
		return nil, err
	}
	s.logger.Info("round started",
		zap.Int64("event_id", res.Event.ID),
		zap.String("title", res.Event.Title))
	return res, nil
}

// StartRound runs NewRound in the background. The channel receives exactly
// one result and is then closed.
func (s *Session) StartRound(ctx context.Context, eventTypeID int64) <-chan RoundResult {
	ch := make(chan RoundResult, 1)
	go func() {
		defer close(ch)
		res, err := s.NewRound(ctx, eventTypeID)
		ch <- RoundResult{Result: res, Err: err}
	}()
	return ch
}

func (s *Session) activeID(ctx context.Context) (int64, error) {
	id, err := s.store.ActiveEventID(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return 0, ErrNoActiveEvent
	}
	return id, err
}

// ActiveEvent returns the event under investigation
func (s *Session) ActiveEvent(ctx context.Context) (model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.activeID(ctx)
	if err != nil {
		return model.Event{}, err
	}
	return s.store.GetEvent(ctx, id)
}

// Statements returns the statements of the active event
func (s *Session) Statements(ctx context.Context) ([]model.Statement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.activeID(ctx)
	if err != nil {
		return nil, err
	}
	return s.store.ListStatements(ctx, id)
}

// Select records a phrase from a statement of the active event
func (s *Session) Select(ctx context.Context, statementID int64, phrase string) (model.EvidenceSelection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.activeID(ctx)
	if err != nil {
		return model.EvidenceSelection{}, err
	}
	return s.evidence.Select(ctx, id, statementID, phrase)
}

// Deselect removes a phrase selection from the active event
func (s *Session) Deselect(ctx context.Context, statementID int64, phrase string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.activeID(ctx)
	if err != nil {
		return false, err
	}
	return s.evidence.Deselect(ctx, id, statementID, phrase)
}

// Panels returns the fact panels of the active event
func (s *Session) Panels(ctx context.Context) ([]model.FactPanel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.activeID(ctx)
	if err != nil {
		return nil, err
	}
	return s.evidence.Panels(ctx, id)
}

// AssignToPanel places a selection into a panel
func (s *Session) AssignToPanel(ctx context.Context, selectionID, panelID int64) (model.EvidenceSelection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.evidence.AssignToPanel(ctx, selectionID, panelID)
}

// Unassign moves a selection back to the unsorted pool
func (s *Session) Unassign(ctx context.Context, selectionID int64) (model.EvidenceSelection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.evidence.Unassign(ctx, selectionID)
}

// Selections returns the selections of the active event in creation order
func (s *Session) Selections(ctx context.Context) ([]model.EvidenceSelection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.activeID(ctx)
	if err != nil {
		return nil, err
	}
	return s.evidence.AllSelections(ctx, id)
}

// Submit scores the active event for the session's outlet
func (s *Session) Submit(ctx context.Context) (*score.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.activeID(ctx)
	if err != nil {
		return nil, err
	}
	out, err := s.scorer.Score(ctx, id, s.mediaID)
	if err != nil {
		return nil, fmt.Errorf("score event %d: %w", id, err)
	}
	return out, nil
}

// StartSubmit runs Submit in the background. The channel receives exactly
// one result and is then closed.
func (s *Session) StartSubmit(ctx context.Context) <-chan SubmitResult {
	ch := make(chan SubmitResult, 1)
	go func() {
		defer close(ch)
		out, err := s.Submit(ctx)
		ch <- SubmitResult{Outcome: out, Err: err}
	}()
	return ch
}

// Outlet returns the session's outlet and its articles, newest first
func (s *Session) Outlet(ctx context.Context) (model.Media, []model.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	media, err := s.store.GetMedia(ctx, s.mediaID)
	if err != nil {
		return model.Media{}, nil, err
	}
	articles, err := s.store.ListArticles(ctx, s.mediaID)
	if err != nil {
		return model.Media{}, nil, err
	}
	return media, articles, nil
}

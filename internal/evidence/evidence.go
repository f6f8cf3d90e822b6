// Package evidence manages the phrases a player collects from an event's
// statements and sorts into fact panels.
package evidence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/infodemic/internal/model"
	"github.com/ppiankov/infodemic/internal/store"
	"go.uber.org/zap"
)

// DefaultPanelCapacity is the maximum number of selections per panel
const DefaultPanelCapacity = 10

var (
	// ErrEmptyPhrase is returned when the selected phrase is blank
	ErrEmptyPhrase = errors.New("phrase is empty")
	// ErrPhraseNotInStatement is returned when the phrase does not occur in the statement
	ErrPhraseNotInStatement = errors.New("phrase does not occur in statement")
	// ErrForeignStatement is returned when a statement belongs to another event
	ErrForeignStatement = errors.New("statement belongs to another event")
	// ErrForeignPanel is returned when a panel belongs to another event
	ErrForeignPanel = errors.New("panel belongs to another event")
)

// PanelFullError is returned when a panel already holds its capacity
type PanelFullError struct {
	PanelID  int64
	Capacity int
}

func (e *PanelFullError) Error() string {
	return fmt.Sprintf("panel %d is full (capacity %d)", e.PanelID, e.Capacity)
}

func (e *PanelFullError) Unwrap() error { return store.ErrPanelFull }

// Group is a panel with the approved selections sorted into it
type Group struct {
	Panel      model.FactPanel
	Selections []model.EvidenceSelection
}

// Phrases returns the selected phrases of the group in order
func (g Group) Phrases() []string {
	out := make([]string, len(g.Selections))
	for i, s := range g.Selections {
		out[i] = s.Phrase
	}
	return out
}

// Aggregator records evidence selections for events
type Aggregator struct {
	store    *store.Store
	capacity int
	logger   *zap.Logger
	now      func() time.Time
}

// New creates an aggregator. A capacity below one uses DefaultPanelCapacity.
func New(s *store.Store, capacity int, logger *zap.Logger) *Aggregator {
	if capacity < 1 {
		capacity = DefaultPanelCapacity
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		store:    s,
		capacity: capacity,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Capacity returns the panel capacity
func (a *Aggregator) Capacity() int { return a.capacity }

// openEvent loads an event that still accepts evidence and moves it under
// investigation on first touch
func (a *Aggregator) openEvent(ctx context.Context, eventID int64) (model.Event, error) {
	ev, err := a.acceptingEvent(ctx, eventID)
	if err != nil {
		return model.Event{}, err
	}
	if err := a.startInvestigation(ctx, &ev); err != nil {
		return model.Event{}, err
	}
	return ev, nil
}

// acceptingEvent loads an event and fails once it has been scored
func (a *Aggregator) acceptingEvent(ctx context.Context, eventID int64) (model.Event, error) {
	ev, err := a.store.GetEvent(ctx, eventID)
	if err != nil {
		return model.Event{}, fmt.Errorf("load event %d: %w", eventID, err)
	}
	if ev.Status == model.StatusScored {
		return model.Event{}, store.ErrAlreadyScored
	}
	return ev, nil
}

func (a *Aggregator) startInvestigation(ctx context.Context, ev *model.Event) error {
	if ev.Status != model.StatusPersisted {
		return nil
	}
	if err := a.store.SetEventStatus(ctx, ev.ID, model.StatusInvestigating); err != nil {
		return fmt.Errorf("start investigation of event %d: %w", ev.ID, err)
	}
	ev.Status = model.StatusInvestigating
	a.logger.Debug("investigation started", zap.Int64("event_id", ev.ID))
	return nil
}

// statementOf returns a statement after checking it belongs to the event
func (a *Aggregator) statementOf(ctx context.Context, eventID, statementID int64) (model.Statement, error) {
	st, err := a.store.GetStatement(ctx, statementID)
	if err != nil {
		return model.Statement{}, fmt.Errorf("load statement %d: %w", statementID, err)
	}
	if st.EventID != eventID {
		return model.Statement{}, fmt.Errorf("statement %d: %w", statementID, ErrForeignStatement)
	}
	return st, nil
}

// Select records a phrase from a statement of the event. Selecting the same
// phrase again returns the existing selection unchanged.
func (a *Aggregator) Select(ctx context.Context, eventID, statementID int64, phrase string) (model.EvidenceSelection, error) {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return model.EvidenceSelection{}, ErrEmptyPhrase
	}
	ev, err := a.acceptingEvent(ctx, eventID)
	if err != nil {
		return model.EvidenceSelection{}, err
	}
	st, err := a.statementOf(ctx, eventID, statementID)
	if err != nil {
		return model.EvidenceSelection{}, err
	}
	if !strings.Contains(st.Content, phrase) {
		return model.EvidenceSelection{}, ErrPhraseNotInStatement
	}
	if err := a.startInvestigation(ctx, &ev); err != nil {
		return model.EvidenceSelection{}, err
	}

	sel, created, err := a.store.InsertSelection(ctx, eventID, statementID, phrase, a.now())
	if err != nil {
		return model.EvidenceSelection{}, err
	}
	if created {
		a.logger.Debug("phrase selected",
			zap.Int64("event_id", eventID),
			zap.Int64("statement_id", statementID),
			zap.Int64("selection_id", sel.ID))
	}
	return sel, nil
}

// Deselect removes a phrase selection. Removing an absent selection is a
// no-op and reports false.
func (a *Aggregator) Deselect(ctx context.Context, eventID, statementID int64, phrase string) (bool, error) {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return false, nil
	}
	ev, err := a.acceptingEvent(ctx, eventID)
	if err != nil {
		return false, err
	}
	if _, err := a.statementOf(ctx, eventID, statementID); err != nil {
		return false, err
	}
	if err := a.startInvestigation(ctx, &ev); err != nil {
		return false, err
	}
	return a.store.DeleteSelection(ctx, eventID, statementID, phrase)
}

// Panels returns the fact panels of an event, creating them from the core
// truth keys on first access.
func (a *Aggregator) Panels(ctx context.Context, eventID int64) ([]model.FactPanel, error) {
	ev, err := a.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("load event %d: %w", eventID, err)
	}
	if ev.Status == model.StatusPersisted {
		if _, err := a.openEvent(ctx, eventID); err != nil {
			return nil, err
		}
	}
	return a.store.EnsureFactPanels(ctx, eventID, ev.CoreTruth)
}

// AssignToPanel places a selection into a panel of the same event and
// approves it. A full panel yields *PanelFullError and nothing changes.
func (a *Aggregator) AssignToPanel(ctx context.Context, selectionID, panelID int64) (model.EvidenceSelection, error) {
	sel, err := a.store.GetSelection(ctx, selectionID)
	if err != nil {
		return model.EvidenceSelection{}, fmt.Errorf("load selection %d: %w", selectionID, err)
	}
	panel, err := a.store.GetFactPanel(ctx, panelID)
	if err != nil {
		return model.EvidenceSelection{}, fmt.Errorf("load panel %d: %w", panelID, err)
	}
	if panel.EventID != sel.EventID {
		return model.EvidenceSelection{}, fmt.Errorf("panel %d: %w", panelID, ErrForeignPanel)
	}
	if _, err := a.openEvent(ctx, sel.EventID); err != nil {
		return model.EvidenceSelection{}, err
	}

	assigned, err := a.store.AssignSelection(ctx, selectionID, panelID, a.capacity)
	if errors.Is(err, store.ErrPanelFull) {
		a.logger.Info("panel full",
			zap.Int64("event_id", sel.EventID),
			zap.Int64("panel_id", panelID),
			zap.Int("capacity", a.capacity))
		return model.EvidenceSelection{}, &PanelFullError{PanelID: panelID, Capacity: a.capacity}
	}
	if err != nil {
		return model.EvidenceSelection{}, err
	}
	return assigned, nil
}

// Unassign moves a selection back to the unsorted pool
func (a *Aggregator) Unassign(ctx context.Context, selectionID int64) (model.EvidenceSelection, error) {
	sel, err := a.store.GetSelection(ctx, selectionID)
	if err != nil {
		return model.EvidenceSelection{}, fmt.Errorf("load selection %d: %w", selectionID, err)
	}
	if _, err := a.openEvent(ctx, sel.EventID); err != nil {
		return model.EvidenceSelection{}, err
	}
	return a.store.UnassignSelection(ctx, selectionID)
}

// AllSelections returns every selection of an event in creation order
func (a *Aggregator) AllSelections(ctx context.Context, eventID int64) ([]model.EvidenceSelection, error) {
	return a.store.ListSelections(ctx, eventID)
}

// Grouped returns the approved selections of an event grouped by panel, in
// panel order. Panels without evidence are included with no selections.
func (a *Aggregator) Grouped(ctx context.Context, eventID int64) ([]Group, error) {
	panels, err := a.store.ListFactPanels(ctx, eventID)
	if err != nil {
		return nil, err
	}
	selections, err := a.store.ListSelections(ctx, eventID)
	if err != nil {
		return nil, err
	}

	groups := make([]Group, len(panels))
	index := make(map[int64]int, len(panels))
	for i, p := range panels {
		groups[i] = Group{Panel: p}
		index[p.ID] = i
	}
	for _, sel := range selections {
		if !sel.Approved || sel.PanelID == nil {
			continue
		}
		if i, ok := index[*sel.PanelID]; ok {
			groups[i].Selections = append(groups[i].Selections, sel)
		}
	}
	return groups, nil
}

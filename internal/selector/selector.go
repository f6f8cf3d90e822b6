// Package selector picks the actors that take part in a new event.
package selector

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ppiankov/infodemic/internal/model"
	"go.uber.org/zap"
)

// Catalog is the read side of the store the selector needs
type Catalog interface {
	RelevantOrganizations(ctx context.Context, eventTypeID int64) ([]model.Actor, error)
	RelevantCharacters(ctx context.Context, eventTypeID int64) ([]model.Actor, error)
	CharacterBiases(ctx context.Context, characterID int64) ([]string, error)
}

// Limits bounds a selection
type Limits struct {
	MaxOrganizations     int
	MaxCharacters        int
	OrganizationCooldown time.Duration
	CharacterCooldown    time.Duration
}

// LimitsFromConfig reads limits from the generation config
func LimitsFromConfig(cfg model.GenerationConfig) Limits {
	return Limits{
		MaxOrganizations:     cfg.MaxOrganizations,
		MaxCharacters:        cfg.MaxCharacters,
		OrganizationCooldown: cfg.OrganizationCooldown,
		CharacterCooldown:    cfg.CharacterCooldown,
	}
}

// Selection is the set of actors chosen for one event
type Selection struct {
	EventTypeID   int64
	Organizations []model.Actor
	Characters    []model.Actor
	Relaxed       bool // true when an actor still cooling down had to be used
}

// Actors returns organizations followed by characters
func (s Selection) Actors() []model.Actor {
	out := make([]model.Actor, 0, len(s.Organizations)+len(s.Characters))
	out = append(out, s.Organizations...)
	return append(out, s.Characters...)
}

// Find returns the selected actor an attribution points at
func (s Selection) Find(source model.Attribution) (model.Actor, bool) {
	for _, a := range s.Actors() {
		if a.Kind == source.Kind() && a.ID == source.ID() {
			return a, true
		}
	}
	return model.Actor{}, false
}

// Selector chooses relevant actors for event types
type Selector struct {
	catalog Catalog
	limits  Limits
	logger  *zap.Logger
}

// New creates a selector
func New(catalog Catalog, limits Limits, logger *zap.Logger) *Selector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Selector{catalog: catalog, limits: limits, logger: logger}
}

// Select returns up to the configured number of organizations and characters
// relevant to the event type. It only reads.
func (s *Selector) Select(ctx context.Context, eventTypeID int64, now time.Time) (Selection, error) {
	orgs, err := s.catalog.RelevantOrganizations(ctx, eventTypeID)
	if err != nil {
		return Selection{}, fmt.Errorf("load organizations: %w", err)
	}
	chars, err := s.catalog.RelevantCharacters(ctx, eventTypeID)
	if err != nil {
		return Selection{}, fmt.Errorf("load characters: %w", err)
	}

	pickedOrgs, relaxedOrgs := pick(orgs, s.limits.MaxOrganizations, s.limits.OrganizationCooldown, now)
	pickedChars, relaxedChars := pick(chars, s.limits.MaxCharacters, s.limits.CharacterCooldown, now)

	for i := range pickedChars {
		biases, err := s.catalog.CharacterBiases(ctx, pickedChars[i].ID)
		if err != nil {
			return Selection{}, fmt.Errorf("load biases of character %d: %w", pickedChars[i].ID, err)
		}
		pickedChars[i].Biases = biases
	}

	sel := Selection{
		EventTypeID:   eventTypeID,
		Organizations: pickedOrgs,
		Characters:    pickedChars,
		Relaxed:       relaxedOrgs || relaxedChars,
	}
	if sel.Relaxed {
		s.logger.Info("cooldown relaxed to fill selection",
			zap.Int64("event_type_id", eventTypeID),
			zap.Int("organizations", len(pickedOrgs)),
			zap.Int("characters", len(pickedChars)))
	}
	return sel, nil
}

// pick takes up to limit candidates. Candidates past their cooldown come
// first in id order; when they are too few the rest is filled with actors
// still cooling down, least recently used first. Candidates must be sorted by id.
func pick(candidates []model.Actor, limit int, cooldown time.Duration, now time.Time) ([]model.Actor, bool) {
	if limit <= 0 || len(candidates) == 0 {
		return nil, false
	}

	var ready, cooling []model.Actor
	for _, a := range candidates {
		if a.CooledDown(now, cooldown) {
			ready = append(ready, a)
		} else {
			cooling = append(cooling, a)
		}
	}

	if len(ready) >= limit {
		return ready[:limit:limit], false
	}

	sort.SliceStable(cooling, func(i, j int) bool {
		ti, tj := cooling[i].LastUsedAt, cooling[j].LastUsedAt
		if !ti.Equal(*tj) {
			return ti.Before(*tj)
		}
		return cooling[i].ID < cooling[j].ID
	})

	need := limit - len(ready)
	if need > len(cooling) {
		need = len(cooling)
	}
	picked := append(ready, cooling[:need]...)
	return picked, need > 0
}

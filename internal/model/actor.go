package model

import (
	"math"
	"time"
)

// Credibility bounds shared by actors and outlets
const (
	MinCredibility = 1.0
	MaxCredibility = 10.0
)

// ClampCredibility keeps a credibility value inside [MinCredibility, MaxCredibility].
// NaN collapses to the lower bound.
func ClampCredibility(v float64) float64 {
	if math.IsNaN(v) {
		return MinCredibility
	}
	return math.Max(MinCredibility, math.Min(MaxCredibility, v))
}

// Tag is a free-form topic label such as "#environment"
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Bias is a named disposition that shapes how an actor distorts facts
type Bias struct {
	ID   int64    `json:"id"`
	Name string   `json:"name"`
	Tags []string `json:"tags,omitempty"` // Topics this bias implies
}

// ActorKind distinguishes the two actor variants
type ActorKind string

const (
	KindCharacter    ActorKind = "Character"
	KindOrganization ActorKind = "Organization"
)

// Actor is a character or an organization able to author statements
type Actor struct {
	Kind         ActorKind  `json:"kind"`
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Role         string     `json:"role,omitempty"`        // Profession (characters) or organization type
	Description  string     `json:"description,omitempty"` // Free text, mostly for organizations
	Affiliation  string     `json:"affiliation,omitempty"` // Organization name for characters
	SocialHandle string     `json:"social_handle,omitempty"`
	Credibility  float64    `json:"credibility"` // Always within [1,10]
	Tier         int        `json:"tier"`        // 1 (low), 2 (mid), 3 (high)
	Biases       []string   `json:"biases,omitempty"`
	LastUsedAt   *time.Time `json:"last_used_at,omitempty"` // Cooldown anchor, nil if never used
}

// Source returns the attribution pointing at this actor
func (a Actor) Source() Attribution {
	if a.Kind == KindOrganization {
		return OrganizationSource(a.ID)
	}
	return CharacterSource(a.ID)
}

// CooledDown reports whether the actor may be reused at now given a cooldown window
func (a Actor) CooledDown(now time.Time, window time.Duration) bool {
	if a.LastUsedAt == nil {
		return true
	}
	return a.LastUsedAt.Before(now.Add(-window))
}

// EventType is a category of event the pipeline can generate
type EventType struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Tags        []string   `json:"tags,omitempty"`
	LastUsedAt  *time.Time `json:"last_used_at,omitempty"`
}

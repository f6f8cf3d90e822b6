package model

import (
	"regexp"
	"strings"
	"time"
	"unicode"
)

// FactPanel groups evidence for one ground-truth fact key of an event
type FactPanel struct {
	ID       int64  `json:"id"`
	EventID  int64  `json:"event_id"`
	FactKey  string `json:"fact_key"`
	Label    string `json:"label"`    // Display name derived from the key
	Position int    `json:"position"` // Order of the key in the core truth
}

// EvidenceSelection is a phrase the player picked from a statement
type EvidenceSelection struct {
	ID          int64     `json:"id"`
	EventID     int64     `json:"event_id"`
	StatementID int64     `json:"statement_id"`
	Phrase      string    `json:"phrase"`
	PanelID     *int64    `json:"panel_id,omitempty"` // nil while unsorted
	Approved    bool      `json:"approved"`           // true once placed into a panel
	CreatedAt   time.Time `json:"created_at"`
}

var camelBoundary = regexp.MustCompile(`([a-z0-9])([A-Z])`)

// FactLabel turns a fact key such as "damageAmount" or "damage_amount"
// into a display label ("Damage Amount")
func FactLabel(key string) string {
	spaced := camelBoundary.ReplaceAllString(strings.TrimSpace(key), "$1 $2")
	words := strings.FieldsFunc(spaced, func(r rune) bool {
		return r == '_' || r == '-' || unicode.IsSpace(r)
	})
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

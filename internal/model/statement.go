package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Attribution names the single actor behind a statement.
// The zero value attributes nothing and is rejected by the store.
type Attribution struct {
	kind ActorKind
	id   int64
}

// CharacterSource attributes a statement to a character
func CharacterSource(id int64) Attribution {
	return Attribution{kind: KindCharacter, id: id}
}

// OrganizationSource attributes a statement to an organization
func OrganizationSource(id int64) Attribution {
	return Attribution{kind: KindOrganization, id: id}
}

// Kind returns the actor variant
func (a Attribution) Kind() ActorKind { return a.kind }

// ID returns the actor id
func (a Attribution) ID() int64 { return a.id }

// IsZero reports whether the attribution is unset
func (a Attribution) IsZero() bool { return a.kind == "" || a.id <= 0 }

// String renders the machine-parseable source tag, e.g. "Character:12"
func (a Attribution) String() string {
	if a.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s:%d", a.kind, a.id)
}

// MarshalText implements encoding.TextMarshaler
func (a Attribution) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (a *Attribution) UnmarshalText(text []byte) error {
	parsed, err := ParseAttribution(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAttribution parses a "Character:<id>" or "Organization:<id>" source tag.
// Surrounding whitespace and square brackets around the id are tolerated.
func ParseAttribution(tag string) (Attribution, error) {
	parts := strings.Split(strings.TrimSpace(tag), ":")
	if len(parts) != 2 {
		return Attribution{}, fmt.Errorf("invalid source tag %q: expected Type:Id", tag)
	}

	rawID := strings.Trim(strings.TrimSpace(parts[1]), "[]")
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		return Attribution{}, fmt.Errorf("invalid id in source tag %q", tag)
	}

	kind := strings.TrimSpace(parts[0])
	switch {
	case strings.EqualFold(kind, string(KindCharacter)):
		return CharacterSource(id), nil
	case strings.EqualFold(kind, string(KindOrganization)):
		return OrganizationSource(id), nil
	default:
		return Attribution{}, fmt.Errorf("unknown source type %q in tag %q", kind, tag)
	}
}

// Statement is one authored, possibly distorted claim about an event
type Statement struct {
	ID          int64       `json:"id"`
	EventID     int64       `json:"event_id"`
	Source      Attribution `json:"source"`
	Content     string      `json:"content"`
	Truthful    bool        `json:"truthful"`
	Distortions []string    `json:"distortions,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

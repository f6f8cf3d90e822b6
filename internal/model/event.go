package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// EventStatus tracks an event through its lifecycle
type EventStatus string

const (
	StatusRequested     EventStatus = "requested"     // Cycle started, nothing generated yet
	StatusGenerated     EventStatus = "generated"     // Provisional event decoded and validated
	StatusPersisted     EventStatus = "persisted"     // Event and statements stored
	StatusInvestigating EventStatus = "investigating" // Player is collecting evidence
	StatusScored        EventStatus = "scored"        // Terminal
)

// Event is the ground truth of one generated news event
type Event struct {
	ID               int64           `json:"id"`
	EventTypeID      int64           `json:"event_type_id"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	Location         string          `json:"location,omitempty"`
	CoreTruth        FactMap         `json:"core_truth"`
	GeneratedContent json.RawMessage `json:"generated_content,omitempty"` // Raw statements array as received
	Status           EventStatus     `json:"status"`
	CreatedAt        time.Time       `json:"created_at"`
}

// Fact is a single ground-truth key/value pair
type Fact struct {
	Key   string
	Value string
}

// FactMap is an ordered fact-key to fact-value mapping.
// It encodes as a JSON object and keeps key order, so encoding a decoded
// map reproduces the same bytes.
type FactMap []Fact

// Keys returns the fact keys in order
func (m FactMap) Keys() []string {
	keys := make([]string, len(m))
	for i, f := range m {
		keys[i] = f.Key
	}
	return keys
}

// Get returns the value for a key
func (m FactMap) Get(key string) (string, bool) {
	for _, f := range m {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// MarshalJSON encodes the map as an object in key order
func (m FactMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a flat JSON object. Numbers and booleans are kept
// as their literal text; nested values and nulls are rejected.
func (m *FactMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("fact map: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("fact map: expected object, got %v", tok)
	}

	var facts FactMap
	index := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("fact map: %w", err)
		}
		key, _ := tok.(string)

		tok, err = dec.Token()
		if err != nil {
			return fmt.Errorf("fact map: %w", err)
		}

		var value string
		switch v := tok.(type) {
		case string:
			value = v
		case json.Number:
			value = v.String()
		case bool:
			value = strconv.FormatBool(v)
		case nil:
			return fmt.Errorf("fact map: null value for key %q", key)
		default:
			return fmt.Errorf("fact map: nested value for key %q", key)
		}

		if i, seen := index[key]; seen {
			facts[i].Value = value
			continue
		}
		index[key] = len(facts)
		facts = append(facts, Fact{Key: key, Value: value})
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("fact map: %w", err)
	}

	*m = facts
	return nil
}

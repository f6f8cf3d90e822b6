// Package catalog loads the seed catalog of actors, biases, topic tags,
// event types and outlets that the store is populated from.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/infodemic/internal/model"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultCatalog []byte

// Catalog is the complete seed data set
type Catalog struct {
	Tags          []string       `yaml:"tags"`
	Biases        []Bias         `yaml:"biases"`
	Organizations []Organization `yaml:"organizations"`
	Characters    []Character    `yaml:"characters"`
	EventTypes    []EventType    `yaml:"event_types"`
	Outlets       []Outlet       `yaml:"outlets"`
}

// Bias is a named disposition and the topics it implies
type Bias struct {
	Name string   `yaml:"name"`
	Tags []string `yaml:"tags"`
}

// Organization is a seed organization
type Organization struct {
	ID          int64    `yaml:"id"`
	Name        string   `yaml:"name"`
	Type        string   `yaml:"type"`
	Description string   `yaml:"description"`
	Credibility float64  `yaml:"credibility"`
	Tier        int      `yaml:"tier"`
	Tags        []string `yaml:"tags"`
}

// Character is a seed character
type Character struct {
	ID           int64    `yaml:"id"`
	Name         string   `yaml:"name"`
	Profession   string   `yaml:"profession"`
	Affiliation  string   `yaml:"affiliation,omitempty"` // Organization name, empty when independent
	SocialHandle string   `yaml:"social_handle,omitempty"`
	Credibility  float64  `yaml:"credibility"`
	Tier         int      `yaml:"tier"`
	Biases       []string `yaml:"biases"`
	Tags         []string `yaml:"tags,omitempty"`
}

// EventType is a seed event category
type EventType struct {
	ID          int64    `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Tags        []string `yaml:"tags"`
}

// Outlet is a seed media outlet
type Outlet struct {
	ID          int64   `yaml:"id"`
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Readers     int64   `yaml:"readers"`
	Credibility float64 `yaml:"credibility"`
}

// Default returns the catalog shipped with the binary
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads and validates a catalog file
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates catalog YAML
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks cross references and normalizes numeric ranges.
// Credibility is clamped rather than rejected.
func (c *Catalog) Validate() error {
	tags := make(map[string]bool, len(c.Tags))
	for _, t := range c.Tags {
		t = strings.TrimSpace(t)
		if t == "" {
			return fmt.Errorf("catalog: empty tag")
		}
		tags[t] = true
	}
	checkTags := func(owner string, list []string) error {
		for _, t := range list {
			if !tags[t] {
				return fmt.Errorf("catalog: %s references unknown tag %q", owner, t)
			}
		}
		return nil
	}

	biases := make(map[string]bool, len(c.Biases))
	for _, b := range c.Biases {
		if b.Name == "" {
			return fmt.Errorf("catalog: bias without name")
		}
		if biases[b.Name] {
			return fmt.Errorf("catalog: duplicate bias %q", b.Name)
		}
		biases[b.Name] = true
		if err := checkTags("bias "+b.Name, b.Tags); err != nil {
			return err
		}
	}

	orgNames := make(map[string]bool, len(c.Organizations))
	orgIDs := make(map[int64]bool, len(c.Organizations))
	for i := range c.Organizations {
		o := &c.Organizations[i]
		if o.ID <= 0 || o.Name == "" {
			return fmt.Errorf("catalog: organization %d needs a positive id and a name", i)
		}
		if orgIDs[o.ID] {
			return fmt.Errorf("catalog: duplicate organization id %d", o.ID)
		}
		orgIDs[o.ID] = true
		orgNames[o.Name] = true
		o.Credibility = model.ClampCredibility(o.Credibility)
		if err := checkTags("organization "+o.Name, o.Tags); err != nil {
			return err
		}
	}

	charIDs := make(map[int64]bool, len(c.Characters))
	for i := range c.Characters {
		ch := &c.Characters[i]
		if ch.ID <= 0 || ch.Name == "" {
			return fmt.Errorf("catalog: character %d needs a positive id and a name", i)
		}
		if charIDs[ch.ID] {
			return fmt.Errorf("catalog: duplicate character id %d", ch.ID)
		}
		charIDs[ch.ID] = true
		ch.Credibility = model.ClampCredibility(ch.Credibility)
		if ch.Affiliation != "" && !orgNames[ch.Affiliation] {
			return fmt.Errorf("catalog: character %s affiliated with unknown organization %q", ch.Name, ch.Affiliation)
		}
		for _, b := range ch.Biases {
			if !biases[b] {
				return fmt.Errorf("catalog: character %s references unknown bias %q", ch.Name, b)
			}
		}
		if err := checkTags("character "+ch.Name, ch.Tags); err != nil {
			return err
		}
	}

	typeIDs := make(map[int64]bool, len(c.EventTypes))
	for _, et := range c.EventTypes {
		if et.ID <= 0 || et.Name == "" {
			return fmt.Errorf("catalog: event type needs a positive id and a name")
		}
		if typeIDs[et.ID] {
			return fmt.Errorf("catalog: duplicate event type id %d", et.ID)
		}
		typeIDs[et.ID] = true
		if err := checkTags("event type "+et.Name, et.Tags); err != nil {
			return err
		}
	}

	for i := range c.Outlets {
		o := &c.Outlets[i]
		if o.ID <= 0 || o.Name == "" {
			return fmt.Errorf("catalog: outlet %d needs a positive id and a name", i)
		}
		if o.Readers < 0 {
			o.Readers = 0
		}
		o.Credibility = model.ClampCredibility(o.Credibility)
	}

	return nil
}

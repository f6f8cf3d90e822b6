package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault_Valid(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Default catalog invalid: %v", err)
	}

	if len(c.EventTypes) == 0 || len(c.Characters) == 0 || len(c.Organizations) == 0 {
		t.Fatalf("Expected populated catalog, got %d types, %d characters, %d organizations",
			len(c.EventTypes), len(c.Characters), len(c.Organizations))
	}

	found := false
	for _, et := range c.EventTypes {
		if et.Name == "Renewable Energy Innovation" {
			found = true
		}
	}
	if !found {
		t.Error("Expected Renewable Energy Innovation event type in default catalog")
	}

	if len(c.Outlets) == 0 || c.Outlets[0].ID != 1 {
		t.Error("Expected default outlet with id 1")
	}
}

func TestParse_ClampsCredibility(t *testing.T) {
	data := []byte(`
tags: ["#energy"]
biases:
  - name: Loud
    tags: ["#energy"]
organizations:
  - id: 1
    name: Org
    credibility: 14
characters:
  - id: 1
    name: Someone
    credibility: -2
    biases: [Loud]
outlets:
  - id: 1
    name: Lens
    readers: -5
    credibility: 0
`)
	c, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if c.Organizations[0].Credibility != 10 {
		t.Errorf("Expected organization credibility clamped to 10, got %v", c.Organizations[0].Credibility)
	}
	if c.Characters[0].Credibility != 1 {
		t.Errorf("Expected character credibility clamped to 1, got %v", c.Characters[0].Credibility)
	}
	if c.Outlets[0].Readers != 0 || c.Outlets[0].Credibility != 1 {
		t.Errorf("Unexpected outlet normalization: %+v", c.Outlets[0])
	}
}

func TestParse_RejectsBrokenReferences(t *testing.T) {
	tests := map[string]string{
		"unknown tag": `
tags: ["#a"]
event_types:
  - id: 1
    name: T
    tags: ["#b"]
`,
		"unknown bias": `
characters:
  - id: 1
    name: C
    biases: [Nope]
`,
		"unknown affiliation": `
characters:
  - id: 1
    name: C
    affiliation: Ghost Org
`,
		"duplicate organization": `
organizations:
  - id: 1
    name: A
  - id: 1
    name: B
`,
		"missing id": `
event_types:
  - name: T
`,
	}

	for name, data := range tests {
		if _, err := Parse([]byte(data)); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, defaultCatalog, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

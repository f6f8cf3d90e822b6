package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ppiankov/infodemic/internal/model"
)

// EventSystemPrompt frames the event generation request
const EventSystemPrompt = "You generate fictional news events for a media-literacy game. You reply with a single JSON object and nothing else."

// ScoringSystemPrompt frames the article and verdict request
const ScoringSystemPrompt = "You are a newsroom editor grading a reporter's fact-checking. You reply with a single JSON object and nothing else."

// BuildEventPrompt renders the generation request for an event type and the
// actors selected for it. Actors are referenced only by id in source tags.
func BuildEventPrompt(eventType model.EventType, organizations, characters []model.Actor) string {
	var b strings.Builder

	b.WriteString("Generate a news event in STRICT JSON format using ONLY the entities listed below.\n\n")
	fmt.Fprintf(&b, "Event Type: %s (%s)\n", eventType.Name, eventType.Description)
	if len(eventType.Tags) > 0 {
		fmt.Fprintf(&b, "Topics: %s\n", strings.Join(eventType.Tags, ", "))
	}

	b.WriteString("\nAvailable Organizations:\n")
	if len(organizations) == 0 {
		b.WriteString("(none)\n")
	}
	for _, o := range organizations {
		fmt.Fprintf(&b, "- %s: %s (Type: %s, Credibility: %.1f", o.Source(), o.Name, orDefault(o.Role, "Unknown"), o.Credibility)
		if o.Description != "" {
			fmt.Fprintf(&b, ", %s", o.Description)
		}
		b.WriteString(")\n")
	}

	b.WriteString("\nAvailable Characters:\n")
	if len(characters) == 0 {
		b.WriteString("(none)\n")
	}
	for _, c := range characters {
		fmt.Fprintf(&b, "- %s: %s (%s, Affiliation: %s, Credibility: %.1f, Biases: %s",
			c.Source(), c.Name, orDefault(c.Role, "Unknown"), orDefault(c.Affiliation, "Independent"),
			c.Credibility, orDefault(strings.Join(c.Biases, ", "), "none"))
		if c.SocialHandle != "" {
			fmt.Fprintf(&b, ", Handle: %s", c.SocialHandle)
		}
		b.WriteString(")\n")
	}

	fmt.Fprintf(&b, `
Requirements:
1. Use ONLY the organizations and characters listed above. DO NOT INVENT NEW ENTITIES.
2. Invent 3-5 key facts that fit the "%s" category (derive the fact keys from the event type's name and description, e.g. capacity, cost, casualties, responsible party). Use realistic numeric values with units, or ratings. Put them in "coreTruth" as string values.
3. Write one statement for each listed entity. Every statement:
   - is 2-3 sentences long and reads like a real social media post or press release,
   - references at least one coreTruth fact, truthfully or distorted according to the author's biases and credibility,
   - leaves subtle clues so that the full coreTruth can be reconstructed by cross-referencing all statements.
4. Set "isTruthful" to true only when the statement reports every fact it mentions correctly. Untruthful statements list each distortion by name in "distortions" (e.g. "exaggerated capacity", "omitted cost").
5. In the "source" field use EXACTLY the tag shown before each entity: "Character:<id>" or "Organization:<id>". Never use names in the source field.
6. Output ONLY one JSON object with this shape:
{
  "title": "Event title",
  "description": "One or two sentence summary of what happened",
  "location": "City, Country",
  "coreTruth": {
    "factKey1": "value",
    "factKey2": "value",
    "factKey3": "value"
  },
  "generatedContent": [
    {
      "source": "Organization:1",
      "content": "Statement text",
      "isTruthful": false,
      "distortions": ["changed factKey1"]
    }
  ]
}
`, eventType.Name)

	return b.String()
}

// PanelEvidence is the player's approved phrases for one fact key
type PanelEvidence struct {
	FactKey string
	Label   string
	Phrases []string
}

// ScoringContext is everything the scoring request is built from
type ScoringContext struct {
	Event        model.Event
	Statements   []model.Statement
	Participants []model.Actor
	Panels       []PanelEvidence
	MediaName    string
}

// BuildScoringPrompt renders the request comparing the player's evidence to the ground truth
func BuildScoringPrompt(sc ScoringContext) string {
	var b strings.Builder

	b.WriteString("A reporter investigated a news event and filed evidence phrases sorted by fact. ")
	b.WriteString("Compare the evidence to the ground truth, write the resulting article, and grade its veracity.\n\n")

	fmt.Fprintf(&b, "Event: %s\n", sc.Event.Title)
	if sc.Event.Description != "" {
		fmt.Fprintf(&b, "Summary: %s\n", sc.Event.Description)
	}
	if sc.Event.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", sc.Event.Location)
	}
	if sc.MediaName != "" {
		fmt.Fprintf(&b, "Outlet: %s\n", sc.MediaName)
	}

	coreTruth, err := json.MarshalIndent(sc.Event.CoreTruth, "", "  ")
	if err != nil {
		coreTruth = []byte("{}")
	}
	fmt.Fprintf(&b, "\nGround truth:\n%s\n", coreTruth)

	b.WriteString("\nParticipants:\n")
	for _, a := range sc.Participants {
		switch a.Kind {
		case model.KindOrganization:
			fmt.Fprintf(&b, "- %s: %s (Type: %s, Credibility: %.1f)\n", a.Source(), a.Name, orDefault(a.Role, "Unknown"), a.Credibility)
		default:
			fmt.Fprintf(&b, "- %s: %s (%s, Biases: %s)\n", a.Source(), a.Name, orDefault(a.Role, "Unknown"), orDefault(strings.Join(a.Biases, ", "), "none"))
		}
	}

	b.WriteString("\nOriginal statements:\n")
	for _, st := range sc.Statements {
		fmt.Fprintf(&b, "[%s] %s\n", st.Source, st.Content)
	}

	b.WriteString("\nReporter's evidence by fact:\n")
	for _, p := range sc.Panels {
		if len(p.Phrases) == 0 {
			fmt.Fprintf(&b, "- %s (%s): no evidence\n", p.Label, p.FactKey)
			continue
		}
		quoted := make([]string, len(p.Phrases))
		for i, phrase := range p.Phrases {
			quoted[i] = fmt.Sprintf("%q", phrase)
		}
		fmt.Fprintf(&b, "- %s (%s): %s\n", p.Label, p.FactKey, strings.Join(quoted, ", "))
	}

	b.WriteString(`
Instructions:
1. For each ground truth fact, check whether the reporter's evidence for that fact matches the true value, distorts it, or contradicts other evidence.
2. A fact that none of the original statements mention must not lower the score.
3. Write a short news article in the third person that uses the reporter's phrases naturally in place of the true values. Do not add facts beyond the ones provided.
4. Grade the veracity of the reporter's evidence from 1 (very unreliable) to 10 (completely faithful to the ground truth).
5. Explain the grade in one or two plain sentences in "verdict".
6. Output ONLY one JSON object with this shape:
{
  "title": "Article headline",
  "content": "Full article text",
  "veracityScore": 7.5,
  "verdict": "Short explanation"
}
`)

	return b.String()
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

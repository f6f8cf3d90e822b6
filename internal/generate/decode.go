package generate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ppiankov/infodemic/internal/model"
)

// ProvisionalEvent is a validated event reply that has not been persisted yet
type ProvisionalEvent struct {
	Title            string
	Description      string
	Location         string
	CoreTruth        model.FactMap
	GeneratedContent json.RawMessage
	Statements       []ProvisionalStatement
}

// ProvisionalStatement is one generated statement with its unresolved source tag
type ProvisionalStatement struct {
	Source      string
	Content     string
	Truthful    bool
	Distortions []string
}

// Verdict is a decoded scoring reply
type Verdict struct {
	Title         string
	Content       string
	VeracityScore float64 // Clamped to [1,10]
	Verdict       string
}

// ExtractJSON returns the outermost JSON object in text, tolerating prose
// or code fences around it.
func ExtractJSON(text string) ([]byte, error) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return nil, malformed("no JSON object in reply", nil)
	}
	return []byte(text[start : end+1]), nil
}

type eventReply struct {
	Title            json.RawMessage `json:"title"`
	Description      json.RawMessage `json:"description"`
	Location         json.RawMessage `json:"location"`
	CoreTruth        json.RawMessage `json:"coreTruth"`
	GeneratedContent json.RawMessage `json:"generatedContent"`
}

type statementReply struct {
	Source      string          `json:"source"`
	Content     string          `json:"content"`
	IsTruthful  json.RawMessage `json:"isTruthful"`
	Distortions json.RawMessage `json:"distortions"`
}

func present(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

func decodeString(raw json.RawMessage, key string) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", malformed(fmt.Sprintf("%s is not a string", key), err)
	}
	return s, nil
}

// DecodeEvent parses the generated content of an event request. The
// title, description, coreTruth and generatedContent keys must be present
// and non-null; location is optional.
func DecodeEvent(text string) (*ProvisionalEvent, error) {
	raw, err := ExtractJSON(text)
	if err != nil {
		return nil, err
	}

	var reply eventReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return nil, malformed("reply is not a JSON object", err)
	}

	for _, field := range []struct {
		key string
		raw json.RawMessage
	}{
		{"title", reply.Title},
		{"description", reply.Description},
		{"coreTruth", reply.CoreTruth},
		{"generatedContent", reply.GeneratedContent},
	} {
		if !present(field.raw) {
			return nil, malformed(fmt.Sprintf("missing %s", field.key), nil)
		}
	}

	ev := &ProvisionalEvent{}
	if ev.Title, err = decodeString(reply.Title, "title"); err != nil {
		return nil, err
	}
	if ev.Description, err = decodeString(reply.Description, "description"); err != nil {
		return nil, err
	}
	if present(reply.Location) {
		if ev.Location, err = decodeString(reply.Location, "location"); err != nil {
			return nil, err
		}
	}
	ev.Title = PlainText(ev.Title)
	ev.Description = PlainText(ev.Description)
	ev.Location = PlainText(ev.Location)
	if ev.Title == "" {
		return nil, malformed("empty title", nil)
	}

	if err := json.Unmarshal(reply.CoreTruth, &ev.CoreTruth); err != nil {
		return nil, malformed("coreTruth is not a flat object", err)
	}
	if len(ev.CoreTruth) == 0 {
		return nil, malformed("coreTruth has no facts", nil)
	}

	var items []statementReply
	if err := json.Unmarshal(reply.GeneratedContent, &items); err != nil {
		return nil, malformed("generatedContent is not an array of statements", err)
	}
	if len(items) == 0 {
		return nil, malformed("generatedContent is empty", nil)
	}
	ev.GeneratedContent = json.RawMessage(bytes.TrimSpace(reply.GeneratedContent))

	for i, item := range items {
		st := ProvisionalStatement{
			Source:  strings.TrimSpace(item.Source),
			Content: PlainText(item.Content),
		}
		if st.Content == "" {
			return nil, malformed(fmt.Sprintf("statement %d has no content", i), nil)
		}
		if st.Truthful, err = decodeFlag(item.IsTruthful); err != nil {
			return nil, malformed(fmt.Sprintf("statement %d isTruthful", i), err)
		}
		if st.Distortions, err = decodeDistortions(item.Distortions); err != nil {
			return nil, malformed(fmt.Sprintf("statement %d distortions", i), err)
		}
		ev.Statements = append(ev.Statements, st)
	}

	return ev, nil
}

// decodeFlag accepts a JSON bool or the strings "true"/"false". Absent means false.
func decodeFlag(raw json.RawMessage) (bool, error) {
	if !present(raw) {
		return false, nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return false, fmt.Errorf("expected bool, got %s", raw)
	}
	return strconv.ParseBool(strings.TrimSpace(s))
}

// decodeDistortions accepts an array of strings or a single string
func decodeDistortions(raw json.RawMessage) ([]string, error) {
	if !present(raw) {
		return nil, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return cleanList(list), nil
	}
	var single string
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, fmt.Errorf("expected list of strings, got %s", raw)
	}
	return cleanList([]string{single}), nil
}

func cleanList(values []string) []string {
	var out []string
	for _, v := range values {
		if v = PlainText(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

type verdictReply struct {
	Title         json.RawMessage `json:"title"`
	Content       json.RawMessage `json:"content"`
	VeracityScore json.RawMessage `json:"veracityScore"`
	Verdict       json.RawMessage `json:"verdict"`
}

// DecodeVerdict parses a scoring reply. The score may be a number or a
// numeric string and is clamped to [1,10].
func DecodeVerdict(text string) (*Verdict, error) {
	raw, err := ExtractJSON(text)
	if err != nil {
		return nil, err
	}

	var reply verdictReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return nil, malformed("reply is not a JSON object", err)
	}

	for _, field := range []struct {
		key string
		raw json.RawMessage
	}{
		{"title", reply.Title},
		{"content", reply.Content},
		{"veracityScore", reply.VeracityScore},
		{"verdict", reply.Verdict},
	} {
		if !present(field.raw) {
			return nil, malformed(fmt.Sprintf("missing %s", field.key), nil)
		}
	}

	v := &Verdict{}
	if v.Title, err = decodeString(reply.Title, "title"); err != nil {
		return nil, err
	}
	if v.Content, err = decodeString(reply.Content, "content"); err != nil {
		return nil, err
	}
	if v.Verdict, err = decodeString(reply.Verdict, "verdict"); err != nil {
		return nil, err
	}
	v.Title = PlainText(v.Title)
	v.Content = PlainText(v.Content)
	v.Verdict = PlainText(v.Verdict)

	score, err := decodeScore(reply.VeracityScore)
	if err != nil {
		return nil, malformed("veracityScore is not numeric", err)
	}
	v.VeracityScore = ClampVeracity(score)
	return v, nil
}

func decodeScore(raw json.RawMessage) (float64, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("expected number, got %s", raw)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non-finite score %q", s)
	}
	return f, nil
}

// ClampVeracity keeps a veracity score inside [1,10]
func ClampVeracity(score float64) float64 {
	return model.ClampCredibility(score)
}

package game

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ppiankov/infodemic/internal/catalog"
	"github.com/ppiankov/infodemic/internal/evidence"
	"github.com/ppiankov/infodemic/internal/llm"
	"github.com/ppiankov/infodemic/internal/model"
	"github.com/ppiankov/infodemic/internal/pipeline"
	"github.com/ppiankov/infodemic/internal/score"
	"github.com/ppiankov/infodemic/internal/selector"
	"github.com/ppiankov/infodemic/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const eventReply = `{
  "title": "Helios unveils floating solar array",
  "description": "A 40MW floating array went live on Lake Marren.",
  "location": "Lake Marren",
  "coreTruth": {"capacity": "40MW", "site": "Lake Marren"},
  "generatedContent": [
    {"source": "Organization:2", "content": "Our 40MW array on Lake Marren is now live.", "isTruthful": true, "distortions": []},
    {"source": "Character:3", "content": "Helios built a 20MW toy with public money.", "isTruthful": false, "distortions": ["understatement"]}
  ]
}`

const verdictReply = `{"title": "Lake array goes live", "content": "A 40MW array went live.", "veracityScore": 9, "verdict": "Accurate."}`

// gameProvider answers event requests and scoring requests
type gameProvider struct {
	mu    sync.Mutex
	calls map[string]int
	fail  bool
}

func (p *gameProvider) Name() string                         { return "game" }
func (p *gameProvider) IsAvailable(ctx context.Context) bool { return true }

func (p *gameProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.calls == nil {
		p.calls = make(map[string]int)
	}
	p.calls[req.System]++
	if p.fail {
		return nil, errors.New("service unavailable")
	}
	if req.System == llm.ScoringSystemPrompt {
		return &llm.CompletionResponse{Text: verdictReply}, nil
	}
	return &llm.CompletionResponse{Text: eventReply}, nil
}

func newSession(t *testing.T, provider llm.Provider) *Session {
	t.Helper()
	ctx := context.Background()
	s, err := store.Open(filepath.Join(t.TempDir(), "infodemic.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	cat, err := catalog.Default()
	require.NoError(t, err)
	require.NoError(t, s.SeedCatalog(ctx, cat))

	cfg := model.DefaultConfig()
	cfg.Generation.RetryDelay = 0

	sel := selector.New(s, selector.LimitsFromConfig(cfg.Generation), nil)
	p := pipeline.New(s, sel, provider, cfg.Generation, nil)
	agg := evidence.New(s, cfg.Evidence.PanelCapacity, nil)
	engine := score.New(s, agg, provider, cfg.Generation, cfg.Reputation, nil)
	return NewSession(s, p, agg, engine, cfg.Reputation.DefaultMediaID, nil)
}

func TestSession_FullRound(t *testing.T) {
	ctx := context.Background()
	provider := &gameProvider{}
	session := newSession(t, provider)
	assert.NotEmpty(t, session.ID)

	round := <-session.StartRound(ctx, 1)
	require.NoError(t, round.Err)
	require.NotNil(t, round.Result)

	active, err := session.ActiveEvent(ctx)
	require.NoError(t, err)
	assert.Equal(t, round.Result.Event.ID, active.ID)

	statements, err := session.Statements(ctx)
	require.NoError(t, err)
	require.Len(t, statements, 2)

	sel, err := session.Select(ctx, statements[0].ID, "40MW")
	require.NoError(t, err)
	panels, err := session.Panels(ctx)
	require.NoError(t, err)
	require.Len(t, panels, 2)
	_, err = session.AssignToPanel(ctx, sel.ID, panels[0].ID)
	require.NoError(t, err)

	selections, err := session.Selections(ctx)
	require.NoError(t, err)
	require.Len(t, selections, 1)
	assert.True(t, selections[0].Approved)

	submitted := <-session.StartSubmit(ctx)
	require.NoError(t, submitted.Err)
	assert.Equal(t, 9.0, submitted.Outcome.Article.VeracityScore)

	media, articles, err := session.Outlet(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 5.4, media.Credibility, 1e-9)
	assert.Equal(t, int64(1900), media.Readers)
	require.Len(t, articles, 1)

	_, err = session.Submit(ctx)
	assert.ErrorIs(t, err, store.ErrAlreadyScored)
}

func TestSession_NoActiveEvent(t *testing.T) {
	ctx := context.Background()
	session := newSession(t, &gameProvider{})

	_, err := session.ActiveEvent(ctx)
	assert.ErrorIs(t, err, ErrNoActiveEvent)
	_, err = session.Select(ctx, 1, "anything")
	assert.ErrorIs(t, err, ErrNoActiveEvent)
	_, err = session.Submit(ctx)
	assert.ErrorIs(t, err, ErrNoActiveEvent)
}

func TestSession_FailedRound(t *testing.T) {
	ctx := context.Background()
	provider := &gameProvider{fail: true}
	session := newSession(t, provider)

	round := <-session.StartRound(ctx, 1)
	require.Error(t, round.Err)
	assert.Nil(t, round.Result)
	assert.Equal(t, 3, provider.calls[llm.EventSystemPrompt])

	_, err := session.ActiveEvent(ctx)
	assert.ErrorIs(t, err, ErrNoActiveEvent)
}

func TestSession_ChannelsClose(t *testing.T) {
	ctx := context.Background()
	session := newSession(t, &gameProvider{})

	ch := session.StartRound(ctx, 1)
	<-ch
	_, open := <-ch
	assert.False(t, open)

	sub := session.StartSubmit(ctx)
	<-sub
	_, open = <-sub
	assert.False(t, open)
}

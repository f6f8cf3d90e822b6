package selector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ppiankov/infodemic/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func ago(d time.Duration) *time.Time {
	t := now.Add(-d)
	return &t
}

func actors(kind model.ActorKind, lastUsed ...*time.Time) []model.Actor {
	out := make([]model.Actor, len(lastUsed))
	for i, t := range lastUsed {
		out[i] = model.Actor{Kind: kind, ID: int64(i + 1), Name: "actor", LastUsedAt: t}
	}
	return out
}

func ids(list []model.Actor) []int64 {
	out := make([]int64, len(list))
	for i, a := range list {
		out[i] = a.ID
	}
	return out
}

type fakeCatalog struct {
	orgs   []model.Actor
	chars  []model.Actor
	biases map[int64][]string
	err    error
}

func (f *fakeCatalog) RelevantOrganizations(ctx context.Context, eventTypeID int64) ([]model.Actor, error) {
	return append([]model.Actor(nil), f.orgs...), f.err
}

func (f *fakeCatalog) RelevantCharacters(ctx context.Context, eventTypeID int64) ([]model.Actor, error) {
	return append([]model.Actor(nil), f.chars...), nil
}

func (f *fakeCatalog) CharacterBiases(ctx context.Context, characterID int64) ([]string, error) {
	return f.biases[characterID], nil
}

const week = 7 * 24 * time.Hour

func TestPick_AllCooledDown(t *testing.T) {
	candidates := actors(model.KindOrganization, nil, ago(8*24*time.Hour), nil, nil, nil)

	got, relaxed := pick(candidates, 3, week, now)
	assert.Equal(t, []int64{1, 2, 3}, ids(got))
	assert.False(t, relaxed)
}

func TestPick_SkipsCoolingActors(t *testing.T) {
	candidates := actors(model.KindOrganization, ago(time.Hour), nil, ago(2*24*time.Hour), nil, nil)

	got, relaxed := pick(candidates, 3, week, now)
	assert.Equal(t, []int64{2, 4, 5}, ids(got))
	assert.False(t, relaxed)
}

func TestPick_RelaxesCooldownNotSize(t *testing.T) {
	// 1 and 3 are cooling; 3 was used longer ago so it is reused first
	candidates := actors(model.KindCharacter, ago(time.Hour), nil, ago(48*time.Hour), nil)

	got, relaxed := pick(candidates, 3, 72*time.Hour, now)
	assert.Equal(t, []int64{2, 4, 3}, ids(got))
	assert.True(t, relaxed)
}

func TestPick_RelaxTiesById(t *testing.T) {
	same := ago(time.Hour)
	candidates := actors(model.KindCharacter, same, same, same)

	got, relaxed := pick(candidates, 2, 72*time.Hour, now)
	assert.Equal(t, []int64{1, 2}, ids(got))
	assert.True(t, relaxed)
}

func TestPick_SmallPool(t *testing.T) {
	candidates := actors(model.KindOrganization, nil, ago(time.Hour))

	got, relaxed := pick(candidates, 3, week, now)
	assert.Equal(t, []int64{1, 2}, ids(got))
	assert.True(t, relaxed)

	got, _ = pick(nil, 3, week, now)
	assert.Empty(t, got)

	got, _ = pick(candidates, 0, week, now)
	assert.Empty(t, got)
}

func TestPick_CooldownBoundary(t *testing.T) {
	candidates := actors(model.KindOrganization, ago(week), ago(week+time.Second))

	got, relaxed := pick(candidates, 1, week, now)
	assert.Equal(t, []int64{2}, ids(got), "an actor used exactly one window ago is still cooling")
	assert.False(t, relaxed)
}

func TestPick_Deterministic(t *testing.T) {
	candidates := actors(model.KindCharacter, ago(time.Hour), ago(2*time.Hour), nil, ago(3*time.Hour), nil, nil, nil)

	first, _ := pick(candidates, 6, 72*time.Hour, now)
	for i := 0; i < 10; i++ {
		again, _ := pick(candidates, 6, 72*time.Hour, now)
		require.Equal(t, ids(first), ids(again))
	}
	assert.Len(t, first, 6)
}

func TestSelector_Select(t *testing.T) {
	cat := &fakeCatalog{
		orgs:   actors(model.KindOrganization, nil, nil, nil, nil),
		chars:  actors(model.KindCharacter, nil, ago(time.Hour), nil),
		biases: map[int64][]string{1: {"Pro-Corporate"}, 3: {"Populist", "Pro-Government"}},
	}
	s := New(cat, LimitsFromConfig(model.DefaultConfig().Generation), nil)

	sel, err := s.Select(context.Background(), 1, now)
	require.NoError(t, err)

	assert.Equal(t, int64(1), sel.EventTypeID)
	assert.Equal(t, []int64{1, 2, 3}, ids(sel.Organizations))
	assert.Equal(t, []int64{1, 3, 2}, ids(sel.Characters))
	assert.True(t, sel.Relaxed)
	assert.Equal(t, []string{"Pro-Corporate"}, sel.Characters[0].Biases)
	assert.Equal(t, []string{"Populist", "Pro-Government"}, sel.Characters[1].Biases)
	assert.Len(t, sel.Actors(), 6)

	found, ok := sel.Find(model.CharacterSource(3))
	assert.True(t, ok)
	assert.Equal(t, model.KindCharacter, found.Kind)
	_, ok = sel.Find(model.OrganizationSource(4))
	assert.False(t, ok, "organization 4 exceeded the limit")
}

func TestSelector_SelectError(t *testing.T) {
	s := New(&fakeCatalog{err: errors.New("db closed")}, Limits{MaxOrganizations: 3}, nil)

	_, err := s.Select(context.Background(), 1, now)
	assert.ErrorContains(t, err, "db closed")
}

package score

import (
	"fmt"
	"testing"

	"github.com/ppiankov/infodemic/internal/model"
	"github.com/stretchr/testify/assert"
)

var defaultReputation = model.DefaultConfig().Reputation

func TestApplyReputation_Example(t *testing.T) {
	media := model.Media{ID: 1, Credibility: 6.0, Readers: 1000}

	got := ApplyReputation(media, 8, defaultReputation)

	assert.InDelta(t, 6.3, got.Credibility, 1e-9)
	assert.Equal(t, int64(1800), got.Readers)
	assert.Equal(t, 6.0, media.Credibility, "input must not be modified")
}

func TestApplyReputation_ConfigurableFactor(t *testing.T) {
	cfg := defaultReputation
	cfg.Factor = 0.3

	got := ApplyReputation(model.Media{Credibility: 6.0}, 8, cfg)
	assert.InDelta(t, 6.9, got.Credibility, 1e-9)

	got = ApplyReputation(model.Media{Credibility: 6.0}, 2, cfg)
	assert.InDelta(t, 5.1, got.Credibility, 1e-9)
	assert.Equal(t, int64(200), got.Readers)
}

func TestApplyReputation_Bounds(t *testing.T) {
	cfg := defaultReputation
	cfg.Factor = 5

	for _, credibility := range []float64{1, 10} {
		for _, veracity := range []float64{-4, 1, 10, 42} {
			t.Run(fmt.Sprintf("cred=%v/score=%v", credibility, veracity), func(t *testing.T) {
				got := ApplyReputation(model.Media{Credibility: credibility}, veracity, cfg)
				if got.Credibility < 1 || got.Credibility > 10 {
					t.Errorf("Expected credibility within [1,10], got %v", got.Credibility)
				}
				if got.Readers < 0 {
					t.Errorf("Expected non-negative readers, got %d", got.Readers)
				}
			})
		}
	}
}

func TestApplyReputation_ReadersRounding(t *testing.T) {
	tests := []struct {
		veracity float64
		want     int64
	}{
		{1, 100},
		{5, 500},
		{7.25, 725},
		{7.2549, 725},
		{10, 1000},
	}
	for _, tt := range tests {
		got := ApplyReputation(model.Media{Credibility: 5}, tt.veracity, defaultReputation)
		if got.Readers != tt.want {
			t.Errorf("Expected %d readers for score %v, got %d", tt.want, tt.veracity, got.Readers)
		}
	}
}

func TestRating(t *testing.T) {
	tests := map[float64]string{
		9.5: "reliable",
		8:   "reliable",
		6:   "mixed",
		3.5: "misleading",
		1:   "fabricated",
	}
	for score, want := range tests {
		if got := Rating(score); got != want {
			t.Errorf("Expected rating %q for %v, got %q", want, score, got)
		}
	}
}

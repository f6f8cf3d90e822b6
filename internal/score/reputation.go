package score

import (
	"math"

	"github.com/ppiankov/infodemic/internal/generate"
	"github.com/ppiankov/infodemic/internal/model"
)

// ApplyReputation returns the outlet after an article with the given
// veracity: credibility moves by (veracity - baseline) * factor within
// [1,10], readers grow by round(veracity / 10 * readersScale).
func ApplyReputation(media model.Media, veracity float64, cfg model.ReputationConfig) model.Media {
	veracity = generate.ClampVeracity(veracity)

	media.Credibility = model.ClampCredibility(media.Credibility + (veracity-cfg.Baseline)*cfg.Factor)
	media.Readers += int64(math.Round(veracity / 10 * cfg.ReadersScale))
	if media.Readers < 0 {
		media.Readers = 0
	}
	return media
}

// Rating buckets a veracity score for display
func Rating(veracity float64) string {
	switch {
	case veracity >= 8:
		return "reliable"
	case veracity >= 5:
		return "mixed"
	case veracity >= 3:
		return "misleading"
	default:
		return "fabricated"
	}
}

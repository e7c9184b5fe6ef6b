package village

import (
	"math"
	"time"

	"github.com/napolitain/village-sim/internal/models"
)

// Construction is the derived construction status of a building
type Construction struct {
	Phase     models.Phase
	Progress  int     // whole percent, 100 only once complete
	Fraction  float64 // elapsed / duration in [0,1]
	Elapsed   time.Duration
	Remaining time.Duration
}

// Complete reports whether construction has finished
func (c Construction) Complete() bool {
	return c.Phase == models.PhaseComplete
}

// ConstructionAt derives the construction status at now. Elapsed time is
// clamped to [0, duration]; a zero duration is complete immediately.
func ConstructionAt(start time.Time, durationSeconds int, weights models.PhaseWeights, now time.Time) Construction {
	total := time.Duration(durationSeconds) * time.Second
	elapsed := now.Sub(start)
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed >= total {
		return Construction{
			Phase:    models.PhaseComplete,
			Progress: 100,
			Fraction: 1,
			Elapsed:  total,
		}
	}

	fraction := float64(elapsed) / float64(total)
	progress := int(math.Floor(fraction * 100))
	if progress > 99 {
		progress = 99
	}

	return Construction{
		Phase:     phaseFor(fraction, weights.Normalized()),
		Progress:  progress,
		Fraction:  fraction,
		Elapsed:   elapsed,
		Remaining: total - elapsed,
	}
}

func phaseFor(fraction float64, w models.PhaseWeights) models.Phase {
	switch {
	case fraction < w.Foundation:
		return models.PhaseFoundation
	case fraction < w.Foundation+w.Structure:
		return models.PhaseStructure
	default:
		return models.PhaseFinishing
	}
}

// IsComplete reports whether the building has finished construction at now
func IsComplete(b *models.Building, now time.Time) bool {
	return !now.Before(b.CompletedAt())
}

package sim

import (
	"math/rand"

	"simexerciser/internal/exercise"
)

// Drift random-walks the world-state pressure values while the exercise is
// live, giving solo drills a scenario that moves without a facilitator on
// the sliders. Values stay inside [0,10]; the epi trend flips occasionally.
type Drift struct {
	rng   *rand.Rand
	ticks int
}

// driftPeriod is how many ticks pass between drift steps.
const driftPeriod = 15

// NewDrift seeds the walk. Same seed, same walk.
func NewDrift(seed int64) *Drift {
	return &Drift{rng: rand.New(rand.NewSource(seed))}
}

// Step maybe nudges the world state, returning whether anything changed.
func (d *Drift) Step(s *exercise.State) bool {
	if s.Status() != exercise.StatusLive || s.Paused() {
		return false
	}
	d.ticks++
	if d.ticks%driftPeriod != 0 {
		return false
	}

	w := s.World()
	nudge := func(v int) *int {
		n := exercise.ClampPressure(v + d.rng.Intn(3) - 1)
		return &n
	}
	patch := exercise.WorldStatePatch{
		CommsPressure: nudge(w.CommsPressure),
		LabBacklog:    nudge(w.LabBacklog),
		PublicAnxiety: nudge(w.PublicAnxiety),
	}
	if d.rng.Float64() < 0.1 {
		trends := []exercise.EpiTrend{exercise.TrendStable, exercise.TrendWorsening, exercise.TrendImproving}
		t := trends[d.rng.Intn(len(trends))]
		patch.EpiTrend = &t
	}
	return s.UpdateWorldState(patch)
}

package sim

import (
	"testing"

	"simexerciser/internal/exercise"
)

func TestDriftOnlyWhileLive(t *testing.T) {
	s := exercise.NewState(nil)
	d := NewDrift(7)
	for i := 0; i < 100; i++ {
		if d.Step(s) {
			t.Fatalf("drift must not move a draft exercise")
		}
	}

	s.Start()
	s.Pause()
	for i := 0; i < 100; i++ {
		if d.Step(s) {
			t.Fatalf("drift must not move a paused exercise")
		}
	}
}

func TestDriftStaysInRange(t *testing.T) {
	s := exercise.NewState(nil)
	s.Start()
	d := NewDrift(42)
	for i := 0; i < 2000; i++ {
		d.Step(s)
		w := s.World()
		for _, v := range []int{w.CommsPressure, w.LabBacklog, w.PublicAnxiety} {
			if v < 0 || v > 10 {
				t.Fatalf("pressure escaped range: %+v", w)
			}
		}
		switch w.EpiTrend {
		case exercise.TrendStable, exercise.TrendWorsening, exercise.TrendImproving:
		default:
			t.Fatalf("unknown trend: %q", w.EpiTrend)
		}
	}
}

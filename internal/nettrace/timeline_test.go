package nettrace

import (
	"testing"
	"time"
)

func TestCollectorEnterAccumulatesPhases(t *testing.T) {
	base := time.Unix(0, 0)
	c := NewCollector(base)
	c.Enter(PhaseDNS, base.Add(5*time.Millisecond))
	c.Enter(PhaseConnect, base.Add(20*time.Millisecond))
	tl := c.Finish(base.Add(25 * time.Millisecond))

	if len(tl.Phases) != 2 {
		t.Fatalf("expected 2 phases, got %d", len(tl.Phases))
	}
	if tl.Phases[0].Duration != 5*time.Millisecond {
		t.Fatalf("phase 0 duration = %v", tl.Phases[0].Duration)
	}
	if tl.Phases[1].Duration != 15*time.Millisecond {
		t.Fatalf("phase 1 duration = %v", tl.Phases[1].Duration)
	}
	if tl.Duration != 25*time.Millisecond {
		t.Fatalf("total duration = %v", tl.Duration)
	}
}

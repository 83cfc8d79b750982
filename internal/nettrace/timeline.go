// Package nettrace records the per-send timing breakdown (dial, TLS
// handshake, write, read) that the connection substrate and request
// engine emit when a caller opts into tracing. It never affects control
// flow; it is a pure observation collected alongside the wall-clock
// deadline from the request engine's timeout policy.
package nettrace

import "time"

// PhaseKind identifies one leg of a send's I/O timeline.
type PhaseKind string

const (
	PhaseDNS       PhaseKind = "dns"
	PhaseConnect   PhaseKind = "connect"
	PhaseProxy     PhaseKind = "proxy"
	PhaseTLS       PhaseKind = "tls"
	PhaseWriteReq  PhaseKind = "write_request"
	PhaseTTFB      PhaseKind = "ttfb"
	PhaseReadBody  PhaseKind = "read_body"
	PhaseTotal     PhaseKind = "total"
)

// Phase is a single named duration within a Timeline.
type Phase struct {
	Kind     PhaseKind
	Duration time.Duration
}

// Timeline is the ordered set of phases collected during one send.
type Timeline struct {
	Started   time.Time
	Completed time.Time
	Duration  time.Duration
	Phases    []Phase
}

// Clone returns a deep copy so a Report stays immutable after collection.
func (t *Timeline) Clone() *Timeline {
	if t == nil {
		return nil
	}
	clone := *t
	if t.Phases != nil {
		clone.Phases = make([]Phase, len(t.Phases))
		copy(clone.Phases, t.Phases)
	}
	return &clone
}

// Collector accumulates phases as the connection substrate and request
// engine progress through one send. It is single-owner, matching the
// engine's no-shared-state-across-handles model.
type Collector struct {
	started time.Time
	phases  []Phase
	mark    time.Time
}

// NewCollector starts a collector at the current instant.
func NewCollector(now time.Time) *Collector {
	return &Collector{started: now, mark: now}
}

// Enter records the duration since the previous Enter call (or since
// NewCollector, for the first one) under
// kind. A nil Collector is a no-op, so callers that did not opt into
// tracing can call Enter unconditionally.
func (c *Collector) Enter(kind PhaseKind, now time.Time) {
	if c == nil {
		return
	}
	c.phases = append(c.phases, Phase{Kind: kind, Duration: now.Sub(c.mark)})
	c.mark = now
}

// Finish closes the collector and returns the resulting timeline, or nil
// if the collector itself is nil (tracing was never enabled).
func (c *Collector) Finish(now time.Time) *Timeline {
	if c == nil {
		return nil
	}
	return &Timeline{
		Started:   c.started,
		Completed: now,
		Duration:  now.Sub(c.started),
		Phases:    append([]Phase(nil), c.phases...),
	}
}

package sim

import (
	"github.com/paulmach/orb"

	"github.com/inference-sim/coverage-sim/sim/trace"
)

// Snapshot is a deep copy of the scene after a tick, safe to hand to
// renderers, exporters and stores.
type Snapshot struct {
	// Tick is the index of the last completed tick, -1 before the first.
	Tick   int
	Bounds Bounds
	Agents []Agent
	Points []PointOfInterest
	Areas  []AreaOfInterest

	Deaths       []int
	Diagnostics  []trace.Diagnostic
	CoverageCost float64
}

// Snapshot copies the current scene.
func (s *Simulator) Snapshot() Snapshot {
	snap := Snapshot{
		Tick:         s.Tick - 1,
		Bounds:       s.Config.Bounds,
		Agents:       make([]Agent, len(s.Agents)),
		Points:       make([]PointOfInterest, len(s.Points)),
		Areas:        make([]AreaOfInterest, len(s.Areas)),
		Deaths:       append([]int(nil), s.lastDeaths...),
		Diagnostics:  append([]trace.Diagnostic(nil), s.lastDiagnostics...),
		CoverageCost: s.lastCost,
	}
	for i, a := range s.Agents {
		snap.Agents[i] = *a
		snap.Agents[i].Cell = a.Cell.clone()
	}
	for i, p := range s.Points {
		snap.Points[i] = *p
	}
	for i, a := range s.Areas {
		snap.Areas[i] = *a
		snap.Areas[i].Polygon = append(orb.Ring(nil), a.Polygon...)
	}
	return snap
}

// Alive returns the number of live agents in the snapshot.
func (snap Snapshot) Alive() int {
	n := 0
	for _, a := range snap.Agents {
		if a.Alive {
			n++
		}
	}
	return n
}

// Sources returns the weighted sources of the snapshot.
func (snap Snapshot) Sources() []Source {
	out := make([]Source, 0, len(snap.Points)+len(snap.Areas))
	for i := range snap.Points {
		out = append(out, snap.Points[i].Source())
	}
	for i := range snap.Areas {
		out = append(out, snap.Areas[i].Source())
	}
	return out
}

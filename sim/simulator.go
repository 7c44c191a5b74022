// sim/simulator.go
package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/sirupsen/logrus"

	"github.com/inference-sim/coverage-sim/sim/trace"
	"github.com/inference-sim/coverage-sim/sim/voronoi"
)

// DefaultMinAlive is the floor attrition never pushes the live count below.
const DefaultMinAlive = 3

// DefaultMaxStep is the per-tick travel limit of an agent.
const DefaultMaxStep = 1.0

// State is the driver's lifecycle state.
type State string

const (
	StateRunning    State = "running"
	StateTerminated State = "terminated"
)

// Config holds the fixed parameters of a run.
type Config struct {
	Bounds Bounds
	// Ticks is the number of ticks after which the driver terminates.
	Ticks int
	// MaxStep is the furthest an agent moves in one tick.
	MaxStep float64
	// MinAlive is the attrition floor.
	MinAlive int
}

// Validate checks the run parameters.
func (c Config) Validate() error {
	if !c.Bounds.Valid() {
		return fmt.Errorf("bounds must be positive and finite, got %gx%g", c.Bounds.Width, c.Bounds.Height)
	}
	if c.Ticks < 0 {
		return fmt.Errorf("ticks must be non-negative, got %d", c.Ticks)
	}
	if math.IsNaN(c.MaxStep) || math.IsInf(c.MaxStep, 0) || c.MaxStep <= 0 {
		return fmt.Errorf("max step must be positive and finite, got %g", c.MaxStep)
	}
	if c.MinAlive < 0 {
		return fmt.Errorf("min alive must be non-negative, got %d", c.MinAlive)
	}
	return nil
}

// Observer consumes the entity snapshot after each completed tick. Observers
// run strictly between ticks and only ever see copies.
type Observer interface {
	ObserveTick(snap Snapshot) error
}

// Simulator is the step driver. It owns the entities and is the only thing
// that mutates agents and moving points, always one whole tick at a time.
type Simulator struct {
	Config Config
	Agents []*Agent
	Points []*PointOfInterest
	Areas  []*AreaOfInterest

	// Tick counts completed ticks.
	Tick  int
	State State

	RNG     *PartitionedRNG
	Trace   *trace.SimulationTrace
	Metrics *Metrics

	observers []Observer
	// last tick's outcome, exposed through Snapshot
	lastDeaths      []int
	lastDiagnostics []trace.Diagnostic
	lastCost        float64
}

// NewSimulator validates the run configuration and entities and returns a
// driver ready to tick. Agents keep their slice order for attrition draws.
func NewSimulator(cfg Config, agents []*Agent, points []*PointOfInterest, areas []*AreaOfInterest, key SimulationKey) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	seen := make(map[int]bool, len(agents))
	for _, a := range agents {
		if seen[a.ID] {
			return nil, fmt.Errorf("agent %d: %w", a.ID, ErrDuplicateAgentID)
		}
		seen[a.ID] = true
		if !cfg.Bounds.Contains(a.Position) {
			return nil, fmt.Errorf("agent %d at %v: %w", a.ID, a.Position, ErrOutOfBounds)
		}
	}
	for _, p := range points {
		if !cfg.Bounds.Contains(p.Position) {
			return nil, fmt.Errorf("point at %v: %w", p.Position, ErrOutOfBounds)
		}
	}

	s := &Simulator{
		Config:  cfg,
		Agents:  agents,
		Points:  points,
		Areas:   areas,
		State:   StateRunning,
		RNG:     NewPartitionedRNG(key),
		Trace:   trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelNone}),
		Metrics: NewMetrics(),
	}
	s.Metrics.InitialCoverageCost = CoverageCost(agents, s.Sources())
	s.lastCost = s.Metrics.InitialCoverageCost
	s.Metrics.FinalCoverageCost = s.lastCost
	s.Metrics.FinalAlive = s.AliveCount()
	if cfg.Ticks == 0 {
		s.State = StateTerminated
	}
	return s, nil
}

// AddObserver registers an observer called by Run after every tick.
func (s *Simulator) AddObserver(o Observer) {
	s.observers = append(s.observers, o)
}

// Sources returns the weighted-source view of every point and area.
func (s *Simulator) Sources() []Source {
	return Sources(s.Points, s.Areas)
}

// AliveCount returns the number of live agents.
func (s *Simulator) AliveCount() int {
	n := 0
	for _, a := range s.Agents {
		if a.Alive {
			n++
		}
	}
	return n
}

// Step executes one tick: point motion, attrition, partition rebuild, target
// assignment, agent motion. It is a no-op once the driver has terminated.
func (s *Simulator) Step() {
	if s.State == StateTerminated {
		return
	}
	s.lastDiagnostics = nil

	// (1) point-of-interest motion
	motionRNG := s.RNG.ForSubsystem(SubsystemMotion)
	for _, p := range s.Points {
		p.Advance(s.Config.Bounds, motionRNG)
	}

	// (2) attrition
	died := applyAttrition(s.Agents, s.Config.MinAlive, s.RNG.ForSubsystem(SubsystemAttrition))
	for _, id := range died {
		logrus.Infof("[tick %05d] agent %d failed", s.Tick, id)
	}
	s.lastDeaths = died
	s.Metrics.Deaths += len(died)

	// (3) partition rebuild
	sites := make([]voronoi.Site, 0, len(s.Agents))
	byID := make(map[int]*Agent, len(s.Agents))
	for _, a := range s.Agents {
		if a.Alive {
			sites = append(sites, voronoi.Site{ID: a.ID, Pos: a.Position})
			byID[a.ID] = a
		}
	}
	part := voronoi.Build(sites, s.Config.Bounds)

	if part.Empty() && len(part.Degenerate) == 0 {
		s.recordDiagnostic(trace.Diagnostic{
			Tick:    s.Tick,
			Kind:    trace.DiagnosticNoAliveAgents,
			AgentID: -1,
			Detail:  "no partition available",
		})
		s.finishTick(0)
		return
	}

	cells := make(map[int]orb.Ring, len(part.Cells)+len(part.Degenerate))
	for id, ring := range part.Cells {
		cells[id] = ring
	}
	for _, id := range part.Degenerate {
		a := byID[id]
		if a.Cell != nil {
			cells[id] = a.Cell.Polygon
			s.recordDiagnostic(trace.Diagnostic{
				Tick:    s.Tick,
				Kind:    trace.DiagnosticCellFallback,
				AgentID: id,
				Detail:  fmt.Sprintf("degenerate site %v, keeping previous cell", a.Position),
			})
			continue
		}
		a.Cell = nil
		s.recordDiagnostic(trace.Diagnostic{
			Tick:    s.Tick,
			Kind:    trace.DiagnosticCellMissing,
			AgentID: id,
			Detail:  fmt.Sprintf("degenerate site %v with no previous cell, holding position", a.Position),
		})
	}

	// (4) target assignment, each agent's CellState replaced wholesale
	states := AssignTargets(cells, s.Sources())
	for id, st := range states {
		byID[id].Cell = st
	}

	// (5) agent motion
	for _, a := range s.Agents {
		if target, ok := a.Target(); ok {
			a.Position = MoveToward(a.Position, target, s.Config.MaxStep)
		}
	}

	s.finishTick(len(cells))
}

func (s *Simulator) recordDiagnostic(d trace.Diagnostic) {
	logrus.Warnf("[tick %05d] %s agent=%d: %s", d.Tick, d.Kind, d.AgentID, d.Detail)
	s.lastDiagnostics = append(s.lastDiagnostics, d)
	s.Trace.RecordDiagnostic(d)
	s.Metrics.Recovered[d.Kind]++
}

func (s *Simulator) finishTick(cells int) {
	cost := CoverageCost(s.Agents, s.Sources())
	alive := s.AliveCount()
	s.lastCost = cost
	s.Trace.RecordTick(trace.TickRecord{
		Tick:               s.Tick,
		Alive:              alive,
		Deaths:             s.lastDeaths,
		Cells:              cells,
		CoverageCost:       cost,
		MeanTargetDistance: s.meanTargetDistance(),
	})
	logrus.Debugf("[tick %05d] alive=%d cells=%d cost=%.3f", s.Tick, alive, cells, cost)

	s.Tick++
	s.Metrics.TicksRun = s.Tick
	s.Metrics.FinalAlive = alive
	s.Metrics.FinalCoverageCost = cost
	if s.Tick >= s.Config.Ticks {
		s.State = StateTerminated
	}
}

func (s *Simulator) meanTargetDistance() float64 {
	total, n := 0.0, 0
	for _, a := range s.Agents {
		if target, ok := a.Target(); ok {
			total += math.Hypot(target[0]-a.Position[0], target[1]-a.Position[1])
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return total / float64(n)
}

// Run ticks until the configured tick count is reached, notifying observers
// after each tick. ctx is checked only between ticks; a cancelled run stops
// cleanly and returns ctx's error. An observer error aborts the run.
func (s *Simulator) Run(ctx context.Context) error {
	for s.State == StateRunning {
		if err := ctx.Err(); err != nil {
			logrus.Infof("[tick %05d] run stopped: %v", s.Tick, err)
			return err
		}
		s.Step()
		if len(s.observers) == 0 {
			continue
		}
		snap := s.Snapshot()
		for _, o := range s.observers {
			if err := o.ObserveTick(snap); err != nil {
				return fmt.Errorf("observer after tick %d: %w", snap.Tick, err)
			}
		}
	}
	logrus.Infof("[tick %05d] run complete, %d agents alive", s.Tick, s.AliveCount())
	return nil
}

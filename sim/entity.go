// sim/entity.go
package sim

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"

	"github.com/inference-sim/coverage-sim/sim/voronoi"
)

// Bounds is the rectangular domain every entity lives in.
type Bounds = voronoi.Bounds

// MaxWeight is the upper end of the priority scale for points and areas.
const MaxWeight = 10.0

// Construction errors. Any of these rejects the scenario.
var (
	ErrNonPositiveWeight  = errors.New("weight must be positive")
	ErrWeightOutOfRange   = fmt.Errorf("weight must not exceed %g", MaxWeight)
	ErrOutOfBounds        = errors.New("position outside domain")
	ErrInvalidArea        = errors.New("area polygon must be simple with non-zero area")
	ErrInvalidProbability = errors.New("probability must be in [0, 1]")
	ErrInvalidMotion      = errors.New("speed and jitter must be finite and non-negative")
	ErrDuplicateAgentID   = errors.New("duplicate agent id")
)

// CellState is one tick's output for an agent: its cell, where it is headed
// and why. A fresh CellState is assigned to the agent wholesale each tick and
// never mutated afterwards.
type CellState struct {
	Polygon orb.Ring
	// Target is the weighted centroid of Contributors, or Center when no
	// source falls inside the cell.
	Target orb.Point
	// Center is the unweighted centroid of Polygon (diagnostic only).
	Center orb.Point
	// Contributors are the representative positions of the sources inside
	// the cell, in source order.
	Contributors []orb.Point
}

func (c *CellState) clone() *CellState {
	if c == nil {
		return nil
	}
	out := *c
	out.Polygon = append(orb.Ring(nil), c.Polygon...)
	out.Contributors = append([]orb.Point(nil), c.Contributors...)
	return &out
}

// Agent is a quadcopter. Alive only ever goes from true to false; a dead
// agent has no cell and takes no further part in partitioning or motion.
type Agent struct {
	ID          int
	Position    orb.Point
	Alive       bool
	FailureProb float64
	// Cell is nil until the first partition and after death.
	Cell *CellState
}

// NewAgent creates a live agent after validating its initial state.
func NewAgent(id int, pos orb.Point, failureProb float64, bounds Bounds) (*Agent, error) {
	if !bounds.Contains(pos) {
		return nil, fmt.Errorf("agent %d at %v: %w", id, pos, ErrOutOfBounds)
	}
	if math.IsNaN(failureProb) || failureProb < 0 || failureProb > 1 {
		return nil, fmt.Errorf("agent %d failure probability %g: %w", id, failureProb, ErrInvalidProbability)
	}
	return &Agent{ID: id, Position: pos, Alive: true, FailureProb: failureProb}, nil
}

// Target returns the agent's current target, if it has one.
func (a *Agent) Target() (orb.Point, bool) {
	if !a.Alive || a.Cell == nil {
		return orb.Point{}, false
	}
	return a.Cell.Target, true
}

func (a *Agent) kill() {
	a.Alive = false
	a.Cell = nil
}

// PointOfInterest is a weighted point source, optionally moving along a
// heading and reflecting off the domain walls.
type PointOfInterest struct {
	Position orb.Point
	Weight   float64
	Moving   bool
	// Speed is the distance covered per tick.
	Speed float64
	// Heading is in radians, counter-clockwise from +x.
	Heading float64
	// Jitter is the standard deviation, in radians, of the random heading
	// perturbation applied each tick before moving.
	Jitter float64
}

// NewPointOfInterest validates and returns a point source.
func NewPointOfInterest(pos orb.Point, weight float64, bounds Bounds) (*PointOfInterest, error) {
	if err := validateWeight(weight); err != nil {
		return nil, fmt.Errorf("point at %v: %w", pos, err)
	}
	if !bounds.Contains(pos) {
		return nil, fmt.Errorf("point at %v: %w", pos, ErrOutOfBounds)
	}
	return &PointOfInterest{Position: pos, Weight: weight}, nil
}

// WithMotion makes the point a moving source.
func (p *PointOfInterest) WithMotion(speed, heading, jitter float64) (*PointOfInterest, error) {
	for _, v := range []float64{speed, jitter} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return nil, fmt.Errorf("point at %v: %w", p.Position, ErrInvalidMotion)
		}
	}
	if math.IsNaN(heading) || math.IsInf(heading, 0) {
		return nil, fmt.Errorf("point at %v heading %g: %w", p.Position, heading, ErrInvalidMotion)
	}
	p.Moving = true
	p.Speed = speed
	p.Heading = heading
	p.Jitter = jitter
	return p, nil
}

// Source returns the point's weighted-source view.
func (p *PointOfInterest) Source() Source {
	return Source{Kind: SourcePoint, Position: p.Position, Weight: p.Weight}
}

// AreaOfInterest is a weighted polygonal source that contributes through its
// centroid. It is immutable after construction.
type AreaOfInterest struct {
	Polygon  orb.Ring
	Weight   float64
	centroid orb.Point
}

// NewAreaOfInterest validates the polygon and caches its centroid.
func NewAreaOfInterest(polygon orb.Ring, weight float64, bounds Bounds) (*AreaOfInterest, error) {
	if err := validateWeight(weight); err != nil {
		return nil, fmt.Errorf("area: %w", err)
	}
	if !voronoi.IsSimple(polygon) || voronoi.Area(polygon) == 0 {
		return nil, ErrInvalidArea
	}
	for _, p := range polygon {
		if !bounds.Contains(p) {
			return nil, fmt.Errorf("area vertex %v: %w", p, ErrOutOfBounds)
		}
	}
	ring := voronoi.Close(append(orb.Ring(nil), polygon...))
	return &AreaOfInterest{
		Polygon:  ring,
		Weight:   weight,
		centroid: voronoi.Centroid(ring),
	}, nil
}

// Centroid returns the area's representative point.
func (a *AreaOfInterest) Centroid() orb.Point {
	return a.centroid
}

// Source returns the area's weighted-source view.
func (a *AreaOfInterest) Source() Source {
	return Source{Kind: SourceArea, Position: a.centroid, Weight: a.Weight}
}

func validateWeight(w float64) error {
	if math.IsNaN(w) || w <= 0 {
		return fmt.Errorf("%g: %w", w, ErrNonPositiveWeight)
	}
	if w > MaxWeight {
		return fmt.Errorf("%g: %w", w, ErrWeightOutOfRange)
	}
	return nil
}

// SourceKind tags the origin of a Source.
type SourceKind int

const (
	SourcePoint SourceKind = iota
	SourceArea
)

func (k SourceKind) String() string {
	switch k {
	case SourcePoint:
		return "point"
	case SourceArea:
		return "area"
	default:
		return fmt.Sprintf("SourceKind(%d)", int(k))
	}
}

// Source is anything that pulls agents: a representative position and a
// weight.
type Source struct {
	Kind     SourceKind
	Position orb.Point
	Weight   float64
}

// Sources collects the weighted-source view of all points then all areas.
func Sources(points []*PointOfInterest, areas []*AreaOfInterest) []Source {
	out := make([]Source, 0, len(points)+len(areas))
	for _, p := range points {
		out = append(out, p.Source())
	}
	for _, a := range areas {
		out = append(out, a.Source())
	}
	return out
}

// Package scenario loads, validates and generates coverage scenarios.
//
// A scenario is a YAML document describing the domain, the run parameters
// and every initial entity. Build turns a validated scenario into a
// sim.Simulator; every construction error rejects the whole scenario.
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/paulmach/orb"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/inference-sim/coverage-sim/sim"
)

// CurrentVersion is written by Generate and assumed when version is empty.
const CurrentVersion = "1"

// DefaultTicks is used when the scenario leaves ticks unset.
const DefaultTicks = 200

// Scenario is the top-level scenario configuration.
// Loaded from YAML via Load(path).
type Scenario struct {
	Version  string      `yaml:"version"`
	Seed     int64       `yaml:"seed"`
	Ticks    *int        `yaml:"ticks,omitempty"` // nil = DefaultTicks
	MaxStep  float64     `yaml:"max_step,omitempty"`
	MinAlive *int        `yaml:"min_alive,omitempty"` // nil = sim.DefaultMinAlive
	Bounds   sim.Bounds  `yaml:"bounds"`
	Agents   []AgentSpec `yaml:"agents"`
	Points   []PointSpec `yaml:"points,omitempty"`
	Areas    []AreaSpec  `yaml:"areas,omitempty"`
}

// AgentSpec is one quadcopter's initial state.
type AgentSpec struct {
	ID          int     `yaml:"id"`
	X           float64 `yaml:"x"`
	Y           float64 `yaml:"y"`
	FailureProb float64 `yaml:"failure_prob,omitempty"`
}

// PointSpec is one point of interest.
type PointSpec struct {
	X       float64 `yaml:"x"`
	Y       float64 `yaml:"y"`
	Weight  float64 `yaml:"weight"`
	Moving  bool    `yaml:"moving,omitempty"`
	Speed   float64 `yaml:"speed,omitempty"`
	Heading float64 `yaml:"heading,omitempty"` // radians
	Jitter  float64 `yaml:"jitter,omitempty"`  // radians std-dev per tick
}

// AreaSpec is one area of interest. Polygon lists vertices as [x, y] pairs;
// closing the ring is optional.
type AreaSpec struct {
	Weight  float64      `yaml:"weight"`
	Polygon [][2]float64 `yaml:"polygon"`
}

var validVersions = map[string]bool{"": true, "1": true}

// Load reads and parses a YAML scenario file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML scenario and fills in defaults.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&sc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parsing scenario: empty document")
		}
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	sc.ApplyDefaults()
	return &sc, nil
}

// ApplyDefaults fills unset run parameters.
func (s *Scenario) ApplyDefaults() {
	if s.Version == "" {
		s.Version = CurrentVersion
	}
	if s.Ticks == nil {
		n := DefaultTicks
		s.Ticks = &n
	}
	if s.MaxStep == 0 {
		s.MaxStep = sim.DefaultMaxStep
	}
	if s.MinAlive == nil {
		n := sim.DefaultMinAlive
		s.MinAlive = &n
	}
}

// Config returns the run parameters as a sim.Config.
func (s *Scenario) Config() sim.Config {
	cfg := sim.Config{
		Bounds:   s.Bounds,
		Ticks:    DefaultTicks,
		MaxStep:  s.MaxStep,
		MinAlive: sim.DefaultMinAlive,
	}
	if s.Ticks != nil {
		cfg.Ticks = *s.Ticks
	}
	if s.MinAlive != nil {
		cfg.MinAlive = *s.MinAlive
	}
	return cfg
}

// Validate checks that every field is valid and every entity can be
// constructed. It does not modify the scenario.
func (s *Scenario) Validate() error {
	if !validVersions[s.Version] {
		return fmt.Errorf("unknown version %q; valid: 1", s.Version)
	}
	if err := s.Config().Validate(); err != nil {
		return err
	}
	if len(s.Agents) == 0 {
		return fmt.Errorf("at least one agent required")
	}
	_, _, _, err := s.entities()
	return err
}

// Build validates the scenario and constructs a simulator seeded with its
// seed.
func (s *Scenario) Build() (*sim.Simulator, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	agents, points, areas, err := s.entities()
	if err != nil {
		return nil, err
	}
	if n := len(agents); s.MinAlive != nil && n < *s.MinAlive {
		logrus.Warnf("scenario has %d agents, below the attrition floor %d; no agent will fail", n, *s.MinAlive)
	}
	return sim.NewSimulator(s.Config(), agents, points, areas, sim.NewSimulationKey(s.Seed))
}

func (s *Scenario) entities() ([]*sim.Agent, []*sim.PointOfInterest, []*sim.AreaOfInterest, error) {
	b := s.Bounds
	agents := make([]*sim.Agent, 0, len(s.Agents))
	seen := make(map[int]bool, len(s.Agents))
	for i, as := range s.Agents {
		if seen[as.ID] {
			return nil, nil, nil, fmt.Errorf("agents[%d]: id %d: %w", i, as.ID, sim.ErrDuplicateAgentID)
		}
		seen[as.ID] = true
		a, err := sim.NewAgent(as.ID, orb.Point{as.X, as.Y}, as.FailureProb, b)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("agents[%d]: %w", i, err)
		}
		agents = append(agents, a)
	}

	points := make([]*sim.PointOfInterest, 0, len(s.Points))
	for i, ps := range s.Points {
		p, err := sim.NewPointOfInterest(orb.Point{ps.X, ps.Y}, ps.Weight, b)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("points[%d]: %w", i, err)
		}
		if ps.Moving {
			if p, err = p.WithMotion(ps.Speed, ps.Heading, ps.Jitter); err != nil {
				return nil, nil, nil, fmt.Errorf("points[%d]: %w", i, err)
			}
		} else if ps.Speed != 0 || ps.Jitter != 0 {
			logrus.Warnf("points[%d]: speed/jitter set on a static point are ignored", i)
		}
		points = append(points, p)
	}

	areas := make([]*sim.AreaOfInterest, 0, len(s.Areas))
	for i, as := range s.Areas {
		ring := make(orb.Ring, len(as.Polygon))
		for j, v := range as.Polygon {
			if math.IsNaN(v[0]) || math.IsNaN(v[1]) {
				return nil, nil, nil, fmt.Errorf("areas[%d].polygon[%d]: %w", i, j, sim.ErrInvalidArea)
			}
			ring[j] = orb.Point{v[0], v[1]}
		}
		a, err := sim.NewAreaOfInterest(ring, as.Weight, b)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("areas[%d]: %w", i, err)
		}
		areas = append(areas, a)
	}
	return agents, points, areas, nil
}

// Marshal encodes the scenario as YAML.
func (s *Scenario) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("encoding scenario: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding scenario: %w", err)
	}
	return buf.Bytes(), nil
}

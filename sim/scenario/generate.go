package scenario

import (
	"fmt"
	"math"
	"os"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/inference-sim/coverage-sim/sim"
)

// GenerateConfig controls random scenario generation.
type GenerateConfig struct {
	Seed        int64
	Bounds      sim.Bounds
	Ticks       int
	Agents      int
	Points      int
	Areas       int
	MovingRatio float64 // fraction of points that move
	FailureProb float64 // per-agent per-tick failure probability
}

// DefaultGenerateConfig returns a small but non-trivial scene.
func DefaultGenerateConfig() GenerateConfig {
	return GenerateConfig{
		Seed:        1,
		Bounds:      sim.Bounds{Width: 100, Height: 100},
		Ticks:       DefaultTicks,
		Agents:      8,
		Points:      12,
		Areas:       2,
		MovingRatio: 0.25,
		FailureProb: 0.002,
	}
}

const (
	noiseOctaves     = 3
	noiseFrequency   = 2.0 // cycles across the domain
	noisePersistence = 0.5
	minWeight        = 0.5
	maxPointSpeed    = 2.0
	pointJitter      = 0.05
)

// Generate builds a random scenario. Positions are uniform over the domain;
// source weights follow a smooth noise field so that high-priority sources
// cluster. The same config always yields the same scenario.
func Generate(cfg GenerateConfig) (*Scenario, error) {
	if !cfg.Bounds.Valid() {
		return nil, fmt.Errorf("bounds must be positive and finite, got %gx%g", cfg.Bounds.Width, cfg.Bounds.Height)
	}
	if cfg.Agents < 1 {
		return nil, fmt.Errorf("at least one agent required, got %d", cfg.Agents)
	}
	if cfg.Points < 0 || cfg.Areas < 0 {
		return nil, fmt.Errorf("source counts must be non-negative, got %d points and %d areas", cfg.Points, cfg.Areas)
	}
	if cfg.MovingRatio < 0 || cfg.MovingRatio > 1 {
		return nil, fmt.Errorf("moving ratio must be in [0, 1], got %g", cfg.MovingRatio)
	}
	if cfg.FailureProb < 0 || cfg.FailureProb > 1 {
		return nil, fmt.Errorf("failure probability must be in [0, 1], got %g", cfg.FailureProb)
	}

	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(cfg.Seed)).ForSubsystem(sim.SubsystemScenario)
	noise := opensimplex.NewNormalized(cfg.Seed)
	b := cfg.Bounds
	weightAt := func(x, y float64) float64 {
		n := octaveNoise(noise, x/b.Width, y/b.Height, noiseOctaves, noiseFrequency, noisePersistence)
		w := minWeight + n*(sim.MaxWeight-minWeight)
		return math.Round(math.Min(math.Max(w, minWeight), sim.MaxWeight)*100) / 100
	}

	minAlive := sim.DefaultMinAlive
	ticks := cfg.Ticks
	if ticks <= 0 {
		ticks = DefaultTicks
	}
	sc := &Scenario{
		Version:  CurrentVersion,
		Seed:     cfg.Seed,
		Ticks:    &ticks,
		MaxStep:  sim.DefaultMaxStep,
		MinAlive: &minAlive,
		Bounds:   b,
	}

	for i := 0; i < cfg.Agents; i++ {
		sc.Agents = append(sc.Agents, AgentSpec{
			ID:          i,
			X:           rng.Float64() * b.Width,
			Y:           rng.Float64() * b.Height,
			FailureProb: cfg.FailureProb,
		})
	}

	moving := int(math.Round(cfg.MovingRatio * float64(cfg.Points)))
	for i := 0; i < cfg.Points; i++ {
		x, y := rng.Float64()*b.Width, rng.Float64()*b.Height
		ps := PointSpec{X: x, Y: y, Weight: weightAt(x, y)}
		if i < moving {
			ps.Moving = true
			ps.Speed = rng.Float64() * maxPointSpeed
			ps.Heading = rng.Float64() * 2 * math.Pi
			ps.Jitter = pointJitter
		}
		sc.Points = append(sc.Points, ps)
	}

	for i := 0; i < cfg.Areas; i++ {
		w := b.Width * (0.05 + 0.15*rng.Float64())
		h := b.Height * (0.05 + 0.15*rng.Float64())
		x0 := rng.Float64() * (b.Width - w)
		y0 := rng.Float64() * (b.Height - h)
		sc.Areas = append(sc.Areas, AreaSpec{
			Weight: weightAt(x0+w/2, y0+h/2),
			Polygon: [][2]float64{
				{x0, y0}, {x0 + w, y0}, {x0 + w, y0 + h}, {x0, y0 + h},
			},
		})
	}

	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("generated scenario invalid: %w", err)
	}
	return sc, nil
}

// Save writes the scenario as YAML to path.
func (s *Scenario) Save(path string) error {
	data, err := s.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing scenario: %w", err)
	}
	return nil
}

// octaveNoise layers several noise frequencies into a fractal value in [0, 1].
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

package telemetry

import (
	"context"
	"testing"

	"github.com/paulmach/orb"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/coverage-sim/sim"
	"github.com/inference-sim/coverage-sim/sim/trace"
)

var bounds = sim.Bounds{Width: 100, Height: 100}

func newSimulator(t *testing.T, ticks int, prob float64, pts ...orb.Point) *sim.Simulator {
	t.Helper()
	agents := make([]*sim.Agent, len(pts))
	for i, p := range pts {
		a, err := sim.NewAgent(i, p, prob, bounds)
		require.NoError(t, err)
		agents[i] = a
	}
	poi, err := sim.NewPointOfInterest(orb.Point{50, 50}, 5, bounds)
	require.NoError(t, err)
	cfg := sim.Config{Bounds: bounds, Ticks: ticks, MaxStep: 1, MinAlive: sim.DefaultMinAlive}
	s, err := sim.NewSimulator(cfg, agents, []*sim.PointOfInterest{poi}, nil, 5)
	require.NoError(t, err)
	return s
}

func TestCollector_TracksRun(t *testing.T) {
	// GIVEN five agents that always fail, observed by a collector
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	s := newSimulator(t, 4, 1.0,
		orb.Point{10, 10}, orb.Point{90, 10}, orb.Point{90, 90}, orb.Point{10, 90}, orb.Point{30, 70})
	s.AddObserver(c)

	// WHEN the run completes
	require.NoError(t, s.Run(context.Background()))

	// THEN the counters match the run's metrics
	assert.Equal(t, 4.0, testutil.ToFloat64(c.ticks))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.deaths))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.alive))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.contributors))
	assert.InDelta(t, s.Metrics.FinalCoverageCost, testutil.ToFloat64(c.coverageCost), 1e-9)
}

func TestCollector_CountsRecoveredConditions(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	s := newSimulator(t, 3, 0)
	s.AddObserver(c)

	require.NoError(t, s.Run(context.Background()))

	got := testutil.ToFloat64(c.recovered.WithLabelValues(string(trace.DiagnosticNoAliveAgents)))
	assert.Equal(t, 3.0, got)
	assert.Equal(t, 0.0, testutil.ToFloat64(c.coverageCost), "infinite cost is not exported")
}

func TestNewCollector_RegistersInstruments(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	s := newSimulator(t, 1, 0, orb.Point{20, 20})
	require.NoError(t, c.ObserveTick(s.Snapshot()))

	n, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 5, n, "recovered vec has no series until a condition occurs")
}

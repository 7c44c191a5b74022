package sim

import (
	"bytes"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/coverage-sim/sim/trace"
)

func TestMetricsPrint_Report(t *testing.T) {
	// GIVEN metrics of a finished run
	m := NewMetrics()
	m.TicksRun = 200
	m.Deaths = 2
	m.FinalAlive = 3
	m.InitialCoverageCost = 1234.5
	m.FinalCoverageCost = 67.25

	// WHEN printed
	var buf bytes.Buffer
	m.Print(&buf)

	// THEN every field appears once
	out := buf.String()
	assert.Contains(t, out, "=== Coverage Metrics ===")
	assert.Contains(t, out, "Ticks Run            : 200")
	assert.Contains(t, out, "Agent Failures       : 2")
	assert.Contains(t, out, "Agents Alive         : 3")
	assert.Contains(t, out, "Initial Coverage Cost: 1234.500")
	assert.Contains(t, out, "Final Coverage Cost  : 67.250")
	assert.NotContains(t, out, "Recovered")
}

func TestMetricsPrint_RecoveredSortedByKind(t *testing.T) {
	m := NewMetrics()
	m.Recovered[trace.DiagnosticNoAliveAgents] = 4
	m.Recovered[trace.DiagnosticCellFallback] = 1

	var buf bytes.Buffer
	m.Print(&buf)

	out := buf.String()
	fallback := strings.Index(out, "cell_fallback")
	none := strings.Index(out, "no_alive_agents")
	assert.Greater(t, fallback, 0)
	assert.Greater(t, none, fallback)
}

func TestMetrics_TrackRun(t *testing.T) {
	// GIVEN five certain failures with the default floor
	agents := newAgents(t, 1.0,
		orb.Point{10, 10}, orb.Point{90, 10}, orb.Point{90, 90}, orb.Point{10, 90}, orb.Point{50, 50})
	s, err := NewSimulator(testConfig(4), agents, nil, nil, 1)
	require.NoError(t, err)

	// WHEN it runs all ticks
	for s.State == StateRunning {
		s.Step()
	}

	// THEN the metrics reflect the run
	assert.Equal(t, 4, s.Metrics.TicksRun)
	assert.Equal(t, 2, s.Metrics.Deaths)
	assert.Equal(t, 3, s.Metrics.FinalAlive)
	assert.Zero(t, s.Metrics.FinalCoverageCost)
}

package cmd

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/coverage-sim/sim"
	"github.com/inference-sim/coverage-sim/sim/scenario"
)

// makeTestScenario returns a small scenario whose attrition depends on the
// seed: six agents that each fail with probability 0.3 per tick.
func makeTestScenario(t *testing.T, seed int64) *scenario.Scenario {
	t.Helper()
	sc, err := scenario.Parse([]byte(`
ticks: 30
bounds: {width: 60, height: 40}
agents:
  - {id: 0, x: 5, y: 5, failure_prob: 0.3}
  - {id: 1, x: 55, y: 5, failure_prob: 0.3}
  - {id: 2, x: 55, y: 35, failure_prob: 0.3}
  - {id: 3, x: 5, y: 35, failure_prob: 0.3}
  - {id: 4, x: 30, y: 20, failure_prob: 0.3}
  - {id: 5, x: 20, y: 10, failure_prob: 0.3}
points:
  - {x: 40, y: 25, weight: 3, moving: true, speed: 1, heading: 1, jitter: 0.2}
`))
	require.NoError(t, err)
	sc.Seed = seed
	return sc
}

// setFlag sets a run flag as if passed on the command line and restores it
// after the test.
func setFlag(t *testing.T, name, value string) {
	t.Helper()
	f := runCmd.Flags().Lookup(name)
	require.NotNil(t, f)
	def := f.DefValue
	require.NoError(t, runCmd.Flags().Set(name, value))
	t.Cleanup(func() {
		_ = runCmd.Flags().Set(name, def)
		f.Changed = false
	})
}

func deathsOf(t *testing.T, sc *scenario.Scenario) []int {
	t.Helper()
	s, err := sc.Build()
	require.NoError(t, err)
	var died []int
	for s.State == sim.StateRunning {
		s.Step()
		died = append(died, s.Snapshot().Deaths...)
	}
	return died
}

func TestSeedOverride_AppliedOnlyWhenChanged(t *testing.T) {
	// GIVEN a scenario with seed 42 and no --seed flag
	sc := makeTestScenario(t, 42)

	// WHEN overrides are applied
	applyOverrides(runCmd, sc)

	// THEN the scenario seed is kept even though the flag default differs
	assert.Equal(t, int64(42), sc.Seed)
	require.NotNil(t, sc.Ticks)
	assert.Equal(t, 30, *sc.Ticks)
}

func TestSeedOverride_CLIWins(t *testing.T) {
	// GIVEN an explicit --seed and --min-alive
	setFlag(t, "seed", "100")
	setFlag(t, "min-alive", "1")
	sc := makeTestScenario(t, 42)

	// WHEN overrides are applied
	applyOverrides(runCmd, sc)

	// THEN both replace the file values
	assert.Equal(t, int64(100), sc.Seed)
	require.NotNil(t, sc.MinAlive)
	assert.Equal(t, 1, *sc.MinAlive)
}

func TestSeedOverride_SameSeed_IdenticalRuns(t *testing.T) {
	a := deathsOf(t, makeTestScenario(t, 123))
	b := deathsOf(t, makeTestScenario(t, 123))

	assert.Equal(t, a, b)
}

func TestSeedOverride_DifferentSeeds_DifferentRuns(t *testing.T) {
	// GIVEN the same scenario under several seeds
	first := deathsOf(t, makeTestScenario(t, 1))

	// THEN at least one seed produces a different failure sequence
	anyDifferent := false
	for seed := int64(2); seed <= 10; seed++ {
		if !assert.ObjectsAreEqual(first, deathsOf(t, makeTestScenario(t, seed))) {
			anyDifferent = true
			break
		}
	}
	assert.True(t, anyDifferent, "different seeds produced identical failures; seed is not reaching attrition")
}

func TestRunScenario_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := runScenario(ctx, makeTestScenario(t, 1), runOptions{}, io.Discard)

	assert.ErrorIs(t, err, context.Canceled)
}

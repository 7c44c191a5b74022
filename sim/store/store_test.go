package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/coverage-sim/sim"
	"github.com/inference-sim/coverage-sim/sim/trace"
)

var bounds = sim.Bounds{Width: 100, Height: 100}

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newSimulator(t *testing.T, ticks int, pts ...orb.Point) *sim.Simulator {
	t.Helper()
	agents := make([]*sim.Agent, len(pts))
	for i, p := range pts {
		a, err := sim.NewAgent(i, p, 0, bounds)
		require.NoError(t, err)
		agents[i] = a
	}
	poi, err := sim.NewPointOfInterest(orb.Point{50, 50}, 5, bounds)
	require.NoError(t, err)
	cfg := sim.Config{Bounds: bounds, Ticks: ticks, MaxStep: 1, MinAlive: sim.DefaultMinAlive}
	s, err := sim.NewSimulator(cfg, agents, []*sim.PointOfInterest{poi}, nil, sim.NewSimulationKey(3))
	require.NoError(t, err)
	return s
}

func TestOpen_IsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	assert.NoError(t, db.Close())
}

func TestRecorder_StoresEveryTick(t *testing.T) {
	// GIVEN a four-agent run recorded to a fresh database
	db := openTestDB(t)
	s := newSimulator(t, 5, orb.Point{10, 10}, orb.Point{90, 10}, orb.Point{90, 90}, orb.Point{10, 90})
	rec, err := db.StartRun(s)
	require.NoError(t, err)
	s.AddObserver(rec)

	// WHEN the run completes
	require.NoError(t, s.Run(context.Background()))
	require.NoError(t, rec.Finish(s.Metrics))

	// THEN one stats row per tick and one agent row per agent per tick exist
	stats, err := db.TickStats(rec.RunID())
	require.NoError(t, err)
	require.Len(t, stats, 5)
	for i, st := range stats {
		assert.Equal(t, i, st.Tick)
		assert.Equal(t, 4, st.Alive)
		assert.True(t, st.CoverageCost.Valid)
	}
	assert.Less(t, stats[4].CoverageCost.Float64, stats[0].CoverageCost.Float64)

	// the centre source sits on every cell's corner and goes to the lowest id
	track, err := db.AgentTrack(rec.RunID(), 0)
	require.NoError(t, err)
	require.Len(t, track, 5)
	last := track[4]
	assert.True(t, last.Alive)
	assert.True(t, last.TargetX.Valid)
	assert.Equal(t, 1, last.Contributors)
	assert.InDelta(t, s.Agents[0].Position[0], last.X, 1e-12)

	// AND the run row carries the final metrics
	run, err := db.GetRun(rec.RunID())
	require.NoError(t, err)
	assert.Equal(t, int64(3), run.Seed)
	assert.Equal(t, 4, run.Agents)
	assert.Equal(t, 1, run.Sources)
	assert.Equal(t, int64(5), run.TicksRun.Int64)
	assert.Equal(t, int64(4), run.FinalAlive.Int64)
}

func TestRecorder_CellIsGeoJSONPolygon(t *testing.T) {
	db := openTestDB(t)
	s := newSimulator(t, 1, orb.Point{25, 50}, orb.Point{75, 50})
	rec, err := db.StartRun(s)
	require.NoError(t, err)
	s.AddObserver(rec)
	require.NoError(t, s.Run(context.Background()))

	track, err := db.AgentTrack(rec.RunID(), 0)
	require.NoError(t, err)
	require.Len(t, track, 1)
	require.True(t, track[0].CellGeoJSON.Valid)

	g, err := geojson.UnmarshalGeometry([]byte(track[0].CellGeoJSON.String))
	require.NoError(t, err)
	poly, ok := g.Geometry().(orb.Polygon)
	require.True(t, ok, "got %T", g.Geometry())
	require.Len(t, poly, 1)
	top := poly.Bound().Max
	assert.InDelta(t, 50.0, top[0], 1e-9)
	assert.InDelta(t, 100.0, top[1], 1e-9)
}

func TestRecorder_StoresDiagnostics(t *testing.T) {
	// GIVEN two agents on the same spot
	db := openTestDB(t)
	s := newSimulator(t, 1, orb.Point{20, 20}, orb.Point{20, 20}, orb.Point{80, 80})
	rec, err := db.StartRun(s)
	require.NoError(t, err)
	s.AddObserver(rec)

	// WHEN the first tick runs
	require.NoError(t, s.Run(context.Background()))

	// THEN the degenerate agent's missing cell is recorded
	diags, err := db.Diagnostics(rec.RunID())
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, string(trace.DiagnosticCellMissing), diags[0].Kind)
	assert.Equal(t, 1, diags[0].AgentID)
	assert.Equal(t, 0, diags[0].Tick)

	track, err := db.AgentTrack(rec.RunID(), 1)
	require.NoError(t, err)
	require.Len(t, track, 1)
	assert.False(t, track[0].CellGeoJSON.Valid)
}

func TestRuns_ListsEachRunOnce(t *testing.T) {
	db := openTestDB(t)
	a, err := db.StartRun(newSimulator(t, 1, orb.Point{1, 1}))
	require.NoError(t, err)
	b, err := db.StartRun(newSimulator(t, 1, orb.Point{2, 2}))
	require.NoError(t, err)

	runs, err := db.Runs()
	require.NoError(t, err)

	require.Len(t, runs, 2)
	ids := []string{runs[0].ID, runs[1].ID}
	assert.ElementsMatch(t, []string{a.RunID(), b.RunID()}, ids)
	assert.False(t, runs[0].TicksRun.Valid, "unfinished run has no summary")
}

func TestRecorder_NoAliveAgentsStoresNullCost(t *testing.T) {
	db := openTestDB(t)
	s := newSimulator(t, 2)
	rec, err := db.StartRun(s)
	require.NoError(t, err)
	s.AddObserver(rec)
	require.NoError(t, s.Run(context.Background()))
	require.NoError(t, rec.Finish(s.Metrics))

	stats, err := db.TickStats(rec.RunID())
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.False(t, stats[0].CoverageCost.Valid)
	assert.Equal(t, 0, stats[0].Alive)
}

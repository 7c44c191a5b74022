package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/sirupsen/logrus"

	"github.com/inference-sim/coverage-sim/sim"
)

// Recorder persists every tick of one run. It implements sim.Observer.
type Recorder struct {
	db    *DB
	runID string
}

// StartRun creates a run row for the simulator's current scene and returns a
// Recorder bound to it.
func (db *DB) StartRun(s *sim.Simulator) (*Recorder, error) {
	id := uuid.NewString()
	_, err := db.conn.Exec(
		`INSERT INTO runs (id, seed, width, height, agents, sources, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, int64(s.RNG.Key()), s.Config.Bounds.Width, s.Config.Bounds.Height,
		len(s.Agents), len(s.Sources()), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	logrus.Infof("recording run %s", id)
	return &Recorder{db: db, runID: id}, nil
}

// RunID returns the id of the run being recorded.
func (r *Recorder) RunID() string {
	return r.runID
}

// ObserveTick writes the snapshot's tick in one transaction.
func (r *Recorder) ObserveTick(snap sim.Snapshot) error {
	tx, err := r.db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		"INSERT INTO tick_stats (run_id, tick, alive, deaths, coverage_cost) VALUES (?, ?, ?, ?, ?)",
		r.runID, snap.Tick, snap.Alive(), len(snap.Deaths), storableCost(snap.CoverageCost),
	); err != nil {
		return fmt.Errorf("insert tick %d: %w", snap.Tick, err)
	}

	stmt, err := tx.Preparex(`INSERT INTO agent_ticks
		(run_id, tick, agent_id, alive, x, y, target_x, target_y, contributors, cell_geojson)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, a := range snap.Agents {
		alive := 0
		if a.Alive {
			alive = 1
		}
		var targetX, targetY, cell any
		contributors := 0
		if a.Alive && a.Cell != nil {
			targetX, targetY = a.Cell.Target[0], a.Cell.Target[1]
			contributors = len(a.Cell.Contributors)
			if cell, err = cellGeoJSON(a.Cell.Polygon); err != nil {
				return fmt.Errorf("encode cell of agent %d: %w", a.ID, err)
			}
		}
		if _, err := stmt.Exec(
			r.runID, snap.Tick, a.ID, alive, a.Position[0], a.Position[1],
			targetX, targetY, contributors, cell,
		); err != nil {
			return fmt.Errorf("insert agent %d tick %d: %w", a.ID, snap.Tick, err)
		}
	}

	for _, d := range snap.Diagnostics {
		if _, err := tx.Exec(
			"INSERT INTO diagnostics (run_id, tick, kind, agent_id, detail) VALUES (?, ?, ?, ?, ?)",
			r.runID, d.Tick, string(d.Kind), d.AgentID, d.Detail,
		); err != nil {
			return fmt.Errorf("insert diagnostic: %w", err)
		}
	}

	return tx.Commit()
}

// Finish stores the run's end-of-run metrics.
func (r *Recorder) Finish(m *sim.Metrics) error {
	_, err := r.db.conn.Exec(
		`UPDATE runs SET ticks_run = ?, deaths = ?, final_alive = ?, initial_cost = ?, final_cost = ?
		WHERE id = ?`,
		m.TicksRun, m.Deaths, m.FinalAlive,
		storableCost(m.InitialCoverageCost), storableCost(m.FinalCoverageCost), r.runID,
	)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", r.runID, err)
	}
	return nil
}

func cellGeoJSON(ring orb.Ring) (string, error) {
	data, err := geojson.NewGeometry(orb.Polygon{ring}).MarshalJSON()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// storableCost maps the +Inf cost of a scene without live agents to NULL.
func storableCost(c float64) any {
	if c > maxStorableCost {
		return nil
	}
	return c
}

const maxStorableCost = 1e308

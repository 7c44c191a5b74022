// Package store provides SQLite-based persistence of simulation runs.
//
// A run row is created when recording starts; every completed tick appends a
// tick_stats row, one agent_ticks row per agent and any diagnostics. Cells are
// stored as GeoJSON polygon text so external tools can read them directly.
//
// The read helpers (GetRun, Runs, TickStats, AgentTrack, Diagnostics) back
// the runs command and any consumer analysing recorded runs.
package store

import (
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite connection for run storage.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		width REAL NOT NULL,
		height REAL NOT NULL,
		agents INTEGER NOT NULL,
		sources INTEGER NOT NULL,
		started_at TEXT NOT NULL,
		ticks_run INTEGER,
		deaths INTEGER,
		final_alive INTEGER,
		initial_cost REAL,
		final_cost REAL
	);

	CREATE TABLE IF NOT EXISTS tick_stats (
		run_id TEXT NOT NULL REFERENCES runs(id),
		tick INTEGER NOT NULL,
		alive INTEGER NOT NULL,
		deaths INTEGER NOT NULL,
		coverage_cost REAL,
		PRIMARY KEY (run_id, tick)
	);

	CREATE TABLE IF NOT EXISTS agent_ticks (
		run_id TEXT NOT NULL REFERENCES runs(id),
		tick INTEGER NOT NULL,
		agent_id INTEGER NOT NULL,
		alive INTEGER NOT NULL,
		x REAL NOT NULL,
		y REAL NOT NULL,
		target_x REAL,
		target_y REAL,
		contributors INTEGER NOT NULL,
		cell_geojson TEXT,
		PRIMARY KEY (run_id, tick, agent_id)
	);

	CREATE TABLE IF NOT EXISTS diagnostics (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		tick INTEGER NOT NULL,
		kind TEXT NOT NULL,
		agent_id INTEGER NOT NULL,
		detail TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_agent_ticks_agent ON agent_ticks(run_id, agent_id, tick);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Run is one stored simulation run. Summary columns stay NULL until the run
// is finished.
type Run struct {
	ID          string          `db:"id"`
	Seed        int64           `db:"seed"`
	Width       float64         `db:"width"`
	Height      float64         `db:"height"`
	Agents      int             `db:"agents"`
	Sources     int             `db:"sources"`
	StartedAt   string          `db:"started_at"`
	TicksRun    sql.NullInt64   `db:"ticks_run"`
	Deaths      sql.NullInt64   `db:"deaths"`
	FinalAlive  sql.NullInt64   `db:"final_alive"`
	InitialCost sql.NullFloat64 `db:"initial_cost"`
	FinalCost   sql.NullFloat64 `db:"final_cost"`
}

// TickStat is the per-tick aggregate row.
type TickStat struct {
	RunID        string          `db:"run_id"`
	Tick         int             `db:"tick"`
	Alive        int             `db:"alive"`
	Deaths       int             `db:"deaths"`
	CoverageCost sql.NullFloat64 `db:"coverage_cost"` // NULL without live agents
}

// AgentTick is one agent's stored state after a tick.
type AgentTick struct {
	RunID        string          `db:"run_id"`
	Tick         int             `db:"tick"`
	AgentID      int             `db:"agent_id"`
	Alive        bool            `db:"alive"`
	X            float64         `db:"x"`
	Y            float64         `db:"y"`
	TargetX      sql.NullFloat64 `db:"target_x"`
	TargetY      sql.NullFloat64 `db:"target_y"`
	Contributors int             `db:"contributors"`
	CellGeoJSON  sql.NullString  `db:"cell_geojson"`
}

// StoredDiagnostic is a recovered per-tick condition.
type StoredDiagnostic struct {
	Tick    int    `db:"tick"`
	Kind    string `db:"kind"`
	AgentID int    `db:"agent_id"`
	Detail  string `db:"detail"`
}

// GetRun returns a run by id.
func (db *DB) GetRun(id string) (Run, error) {
	var r Run
	err := db.conn.Get(&r, "SELECT * FROM runs WHERE id = ?", id)
	return r, err
}

// Runs lists all runs, oldest first.
func (db *DB) Runs() ([]Run, error) {
	var runs []Run
	err := db.conn.Select(&runs, "SELECT * FROM runs ORDER BY started_at, id")
	return runs, err
}

// TickStats returns the per-tick aggregates of a run in tick order.
func (db *DB) TickStats(runID string) ([]TickStat, error) {
	var stats []TickStat
	err := db.conn.Select(&stats,
		"SELECT run_id, tick, alive, deaths, coverage_cost FROM tick_stats WHERE run_id = ? ORDER BY tick",
		runID,
	)
	return stats, err
}

// AgentTrack returns one agent's stored states in tick order.
func (db *DB) AgentTrack(runID string, agentID int) ([]AgentTick, error) {
	var track []AgentTick
	err := db.conn.Select(&track,
		`SELECT run_id, tick, agent_id, alive, x, y, target_x, target_y, contributors, cell_geojson
		FROM agent_ticks WHERE run_id = ? AND agent_id = ? ORDER BY tick`,
		runID, agentID,
	)
	return track, err
}

// Diagnostics returns the recovered conditions of a run in insertion order.
func (db *DB) Diagnostics(runID string) ([]StoredDiagnostic, error) {
	var diags []StoredDiagnostic
	err := db.conn.Select(&diags,
		"SELECT tick, kind, agent_id, detail FROM diagnostics WHERE run_id = ? ORDER BY id",
		runID,
	)
	return diags, err
}

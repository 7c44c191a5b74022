// Package trace provides per-tick recording for coverage runs.
// This package has no dependencies on sim/; it stores pure data types.
package trace

// DiagnosticKind names a per-tick condition that was recovered from.
type DiagnosticKind string

const (
	// DiagnosticNoAliveAgents: no partition could be built; the tick only
	// moved points and advanced the counter.
	DiagnosticNoAliveAgents DiagnosticKind = "no_alive_agents"
	// DiagnosticCellFallback: the agent's site was degenerate and it kept
	// its previous tick's cell.
	DiagnosticCellFallback DiagnosticKind = "cell_fallback"
	// DiagnosticCellMissing: the agent's site was degenerate and it had no
	// previous cell, so it holds position this tick.
	DiagnosticCellMissing DiagnosticKind = "cell_missing"
)

// Diagnostic captures one recovered condition.
type Diagnostic struct {
	Tick    int
	Kind    DiagnosticKind
	AgentID int // -1 when not agent-specific
	Detail  string
}

// TickRecord captures the outcome of one tick.
type TickRecord struct {
	Tick         int
	Alive        int
	Deaths       []int   // agent IDs that died this tick
	Cells        int     // number of cells in the partition used for targeting
	CoverageCost float64 // weighted Lloyd objective after agents moved
	// MeanTargetDistance is the mean distance from live agents to their
	// targets after agents moved.
	MeanTargetDistance float64
}

// Tracks run-wide coverage statistics for the end-of-run report.

package sim

import (
	"fmt"
	"io"
	"sort"

	"github.com/inference-sim/coverage-sim/sim/trace"
)

// Metrics aggregates statistics about the run for final reporting.
type Metrics struct {
	TicksRun   int // Number of completed ticks
	Deaths     int // Agents failed over the run
	FinalAlive int // Live agents after the last tick

	InitialCoverageCost float64 // Weighted Lloyd objective before the first tick
	FinalCoverageCost   float64 // Weighted Lloyd objective after the last tick

	Recovered map[trace.DiagnosticKind]int // recovered per-tick conditions by kind
}

// NewMetrics returns zeroed metrics.
func NewMetrics() *Metrics {
	return &Metrics{Recovered: make(map[trace.DiagnosticKind]int)}
}

// Print writes the aggregated metrics at the end of the run.
func (m *Metrics) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Coverage Metrics ===")
	fmt.Fprintf(w, "Ticks Run            : %d\n", m.TicksRun)
	fmt.Fprintf(w, "Agent Failures       : %d\n", m.Deaths)
	fmt.Fprintf(w, "Agents Alive         : %d\n", m.FinalAlive)
	fmt.Fprintf(w, "Initial Coverage Cost: %.3f\n", m.InitialCoverageCost)
	fmt.Fprintf(w, "Final Coverage Cost  : %.3f\n", m.FinalCoverageCost)
	if len(m.Recovered) == 0 {
		return
	}
	kinds := make([]string, 0, len(m.Recovered))
	for k := range m.Recovered {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Fprintf(w, "Recovered %-11s: %d\n", k, m.Recovered[trace.DiagnosticKind(k)])
	}
}

package trace

import "math"

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalTicks        int
	TotalDeaths       int
	FinalAlive        int
	InitialCost       float64
	FinalCost         float64
	MinCost           float64
	Diagnostics       int
	DiagnosticsByKind map[DiagnosticKind]int
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		DiagnosticsByKind: make(map[DiagnosticKind]int),
	}
	if st == nil {
		return summary
	}

	summary.Diagnostics = len(st.Diagnostics)
	for _, d := range st.Diagnostics {
		summary.DiagnosticsByKind[d.Kind]++
	}

	if len(st.Ticks) > 0 {
		summary.TotalTicks = len(st.Ticks)
		summary.InitialCost = st.Ticks[0].CoverageCost
		summary.MinCost = math.Inf(1)
		for _, r := range st.Ticks {
			summary.TotalDeaths += len(r.Deaths)
			summary.MinCost = math.Min(summary.MinCost, r.CoverageCost)
		}
		last := st.Ticks[len(st.Ticks)-1]
		summary.FinalAlive = last.Alive
		summary.FinalCost = last.CoverageCost
	}

	return summary
}

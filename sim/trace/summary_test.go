package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize_NilTrace_ZeroValues(t *testing.T) {
	s := Summarize(nil)

	assert.Equal(t, 0, s.TotalTicks)
	assert.NotNil(t, s.DiagnosticsByKind)
}

func TestSummarize_AggregatesTicksAndDiagnostics(t *testing.T) {
	// GIVEN a trace with three ticks and mixed diagnostics
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelTicks})
	st.RecordTick(TickRecord{Tick: 0, Alive: 5, Deaths: []int{1, 3}, CoverageCost: 90})
	st.RecordTick(TickRecord{Tick: 1, Alive: 3, CoverageCost: 40})
	st.RecordTick(TickRecord{Tick: 2, Alive: 3, CoverageCost: 55})
	st.RecordDiagnostic(Diagnostic{Tick: 1, Kind: DiagnosticCellFallback, AgentID: 2})
	st.RecordDiagnostic(Diagnostic{Tick: 2, Kind: DiagnosticCellFallback, AgentID: 2})
	st.RecordDiagnostic(Diagnostic{Tick: 2, Kind: DiagnosticCellMissing, AgentID: 4})

	// WHEN summarized
	s := Summarize(st)

	// THEN counts and costs reflect the records
	assert.Equal(t, 3, s.TotalTicks)
	assert.Equal(t, 2, s.TotalDeaths)
	assert.Equal(t, 3, s.FinalAlive)
	assert.Equal(t, 90.0, s.InitialCost)
	assert.Equal(t, 55.0, s.FinalCost)
	assert.Equal(t, 40.0, s.MinCost)
	assert.Equal(t, 3, s.Diagnostics)
	assert.Equal(t, 2, s.DiagnosticsByKind[DiagnosticCellFallback])
	assert.Equal(t, 1, s.DiagnosticsByKind[DiagnosticCellMissing])
}

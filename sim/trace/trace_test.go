package trace

import (
	"testing"
)

func TestSimulationTrace_RecordTick_AppendsRecordAtTickLevel(t *testing.T) {
	// GIVEN a trace configured for ticks
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelTicks})

	// WHEN a tick record is recorded
	st.RecordTick(TickRecord{Tick: 0, Alive: 4, Deaths: []int{2}, CoverageCost: 12.5})

	// THEN the trace contains one tick record with correct data
	if len(st.Ticks) != 1 {
		t.Fatalf("expected 1 tick, got %d", len(st.Ticks))
	}
	if st.Ticks[0].Alive != 4 || len(st.Ticks[0].Deaths) != 1 {
		t.Errorf("unexpected record %+v", st.Ticks[0])
	}
}

func TestSimulationTrace_RecordTick_IgnoredAtNoneLevel(t *testing.T) {
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelNone})

	st.RecordTick(TickRecord{Tick: 0})

	if len(st.Ticks) != 0 {
		t.Errorf("expected no tick records at level none, got %d", len(st.Ticks))
	}
}

func TestSimulationTrace_RecordDiagnostic_KeptAtEveryLevel(t *testing.T) {
	for _, level := range []TraceLevel{TraceLevelNone, TraceLevelTicks, ""} {
		st := NewSimulationTrace(TraceConfig{Level: level})

		st.RecordDiagnostic(Diagnostic{Tick: 3, Kind: DiagnosticCellFallback, AgentID: 1})
		st.RecordDiagnostic(Diagnostic{Tick: 4, Kind: DiagnosticNoAliveAgents, AgentID: -1})

		if len(st.Diagnostics) != 2 {
			t.Fatalf("level %q: expected 2 diagnostics, got %d", level, len(st.Diagnostics))
		}
		if st.Diagnostics[0].Tick != 3 || st.Diagnostics[1].Tick != 4 {
			t.Errorf("level %q: diagnostic order not preserved", level)
		}
	}
}

func TestIsValidTraceLevel_ValidLevels(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"none", true},
		{"ticks", true},
		{"", true},
		{"decisions", false},
		{"TICKS", false},
	}
	for _, tt := range tests {
		if got := IsValidTraceLevel(tt.level); got != tt.valid {
			t.Errorf("IsValidTraceLevel(%q) = %v, want %v", tt.level, got, tt.valid)
		}
	}
}

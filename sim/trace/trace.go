package trace

// TraceLevel controls the verbosity of tick tracing.
type TraceLevel string

const (
	// TraceLevelNone records diagnostics only.
	TraceLevelNone TraceLevel = "none"
	// TraceLevelTicks additionally records one TickRecord per tick.
	TraceLevelTicks TraceLevel = "ticks"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:  true,
	TraceLevelTicks: true,
	"":              true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// SimulationTrace collects tick and diagnostic records during a run.
type SimulationTrace struct {
	Config      TraceConfig
	Ticks       []TickRecord
	Diagnostics []Diagnostic
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config:      config,
		Ticks:       make([]TickRecord, 0),
		Diagnostics: make([]Diagnostic, 0),
	}
}

// RecordTick appends a tick record when the level asks for it.
func (st *SimulationTrace) RecordTick(record TickRecord) {
	if st.Config.Level != TraceLevelTicks {
		return
	}
	st.Ticks = append(st.Ticks, record)
}

// RecordDiagnostic appends a diagnostic. Diagnostics are kept at every level.
func (st *SimulationTrace) RecordDiagnostic(d Diagnostic) {
	st.Diagnostics = append(st.Diagnostics, d)
}

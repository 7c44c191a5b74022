// Package testutil provides shared test infrastructure for the coverage
// simulator. It holds the golden dataset types and assertion helpers used
// across the sim/ test packages.
package testutil

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// GoldenDataset represents the structure of testdata/goldendataset.json.
type GoldenDataset struct {
	Tests []GoldenTestCase `json:"tests"`
}

// GoldenTestCase is one scenario with its expected outcome. Every case is
// small enough that the expected values follow from the update rules by hand.
type GoldenTestCase struct {
	Name     string        `json:"name"`
	Scenario string        `json:"scenario"` // scenario YAML
	Metrics  GoldenMetrics `json:"metrics"`
	// FinalPositions lists the expected agent positions after the last tick.
	FinalPositions []GoldenPosition `json:"final_positions"`
}

// GoldenMetrics represents the expected end-of-run metrics.
type GoldenMetrics struct {
	// Exact match metrics (integers)
	TicksRun   int `json:"ticks_run"`
	Deaths     int `json:"deaths"`
	FinalAlive int `json:"final_alive"`

	// Floating-point metrics, compared with relative tolerance
	InitialCoverageCost float64 `json:"initial_coverage_cost"`
	FinalCoverageCost   float64 `json:"final_coverage_cost"`
}

// GoldenPosition is an agent's expected position.
type GoldenPosition struct {
	ID int     `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// LoadGoldenDataset loads the golden dataset from the testdata directory.
// The path is resolved relative to this source file: sim/internal/testutil/ → testdata/.
func LoadGoldenDataset(t *testing.T) *GoldenDataset {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	// Navigate from sim/internal/testutil/ to repo root testdata/
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata", "goldendataset.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read golden dataset: %v", err)
	}

	var dataset GoldenDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		t.Fatalf("Failed to parse golden dataset: %v", err)
	}

	return &dataset
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
// Values below absTol in magnitude are compared absolutely, so an expected
// zero is matched by rounding noise.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	const absTol = 1e-9
	diff := math.Abs(want - got)
	if diff <= absTol {
		return
	}
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

package export

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/inference-sim/coverage-sim/sim"
)

// Grid samples the priority intensity at the centre of Cols x Rows equal
// cells covering the domain. Values[r][c] is row r from the bottom.
type Grid struct {
	Cols, Rows int
	CellWidth  float64
	CellHeight float64
	Values     [][]float64
}

// PriorityGrid evaluates sim.PriorityIntensity over a grid of the snapshot's
// domain. A non-positive sigma selects sim.DefaultSigma.
func PriorityGrid(snap sim.Snapshot, cols, rows int, sigma float64) (Grid, error) {
	if cols < 1 || rows < 1 {
		return Grid{}, fmt.Errorf("grid resolution must be positive, got %dx%d", cols, rows)
	}
	if sigma <= 0 {
		sigma = sim.DefaultSigma(snap.Bounds)
	}
	sources := snap.Sources()
	g := Grid{
		Cols:       cols,
		Rows:       rows,
		CellWidth:  snap.Bounds.Width / float64(cols),
		CellHeight: snap.Bounds.Height / float64(rows),
		Values:     make([][]float64, rows),
	}
	for r := 0; r < rows; r++ {
		g.Values[r] = make([]float64, cols)
		for c := 0; c < cols; c++ {
			g.Values[r][c] = sim.PriorityIntensity(sources, g.center(c, r), sigma)
		}
	}
	return g, nil
}

// ParseGridSize parses a "<cols>x<rows>" resolution such as "40x30".
func ParseGridSize(s string) (cols, rows int, err error) {
	c, r, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("grid size %q: want <cols>x<rows>", s)
	}
	if cols, err = strconv.Atoi(c); err != nil {
		return 0, 0, fmt.Errorf("grid size %q: bad cols: %w", s, err)
	}
	if rows, err = strconv.Atoi(r); err != nil {
		return 0, 0, fmt.Errorf("grid size %q: bad rows: %w", s, err)
	}
	if cols < 1 || rows < 1 {
		return 0, 0, fmt.Errorf("grid size %q: cols and rows must be positive", s)
	}
	return cols, rows, nil
}

func (g Grid) center(c, r int) orb.Point {
	return orb.Point{(float64(c) + 0.5) * g.CellWidth, (float64(r) + 0.5) * g.CellHeight}
}

// Max returns the largest sampled intensity.
func (g Grid) Max() float64 {
	m := 0.0
	for _, row := range g.Values {
		for _, v := range row {
			if v > m {
				m = v
			}
		}
	}
	return m
}

// FeatureCollection renders each grid cell as a square polygon carrying its
// intensity.
func (g Grid) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for r, row := range g.Values {
		for c, v := range row {
			x0, y0 := float64(c)*g.CellWidth, float64(r)*g.CellHeight
			x1, y1 := x0+g.CellWidth, y0+g.CellHeight
			f := geojson.NewFeature(orb.Polygon{{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}, {x0, y0}}})
			f.Properties["kind"] = "priority"
			f.Properties["intensity"] = v
			fc.Append(f)
		}
	}
	return fc
}

// WritePriorityGrid samples the snapshot's priority grid and writes it to path.
func WritePriorityGrid(path string, snap sim.Snapshot, cols, rows int) error {
	g, err := PriorityGrid(snap, cols, rows, 0)
	if err != nil {
		return err
	}
	rawJSON, err := g.FeatureCollection().MarshalJSON()
	if err != nil {
		return fmt.Errorf("encoding priority grid of tick %d: %w", snap.Tick, err)
	}
	if err := os.WriteFile(path, rawJSON, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Package export renders simulation snapshots as GeoJSON.
//
// Every entity becomes one feature tagged with a "kind" property: agent,
// target, cell, point or area. Files open directly in QGIS or any web map
// with planar coordinates.
package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/inference-sim/coverage-sim/sim"
)

// Feature kinds.
const (
	KindAgent  = "agent"
	KindTarget = "target"
	KindCell   = "cell"
	KindPoint  = "point"
	KindArea   = "area"
	KindBounds = "bounds"
)

// FeatureCollection converts a snapshot into a feature collection.
func FeatureCollection(snap sim.Snapshot) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	b := geojson.NewFeature(orb.Polygon{snap.Bounds.Ring()})
	b.Properties["kind"] = KindBounds
	b.Properties["tick"] = snap.Tick
	b.Properties["alive"] = snap.Alive()
	fc.Append(b)

	for _, a := range snap.Agents {
		f := geojson.NewFeature(a.Position)
		f.Properties["kind"] = KindAgent
		f.Properties["id"] = a.ID
		f.Properties["alive"] = a.Alive
		fc.Append(f)

		if !a.Alive || a.Cell == nil {
			continue
		}
		cell := geojson.NewFeature(orb.Polygon{a.Cell.Polygon})
		cell.Properties["kind"] = KindCell
		cell.Properties["id"] = a.ID
		cell.Properties["contributors"] = len(a.Cell.Contributors)
		fc.Append(cell)

		target := geojson.NewFeature(a.Cell.Target)
		target.Properties["kind"] = KindTarget
		target.Properties["id"] = a.ID
		fc.Append(target)
	}

	for _, p := range snap.Points {
		f := geojson.NewFeature(p.Position)
		f.Properties["kind"] = KindPoint
		f.Properties["weight"] = p.Weight
		f.Properties["moving"] = p.Moving
		fc.Append(f)
	}

	for _, a := range snap.Areas {
		f := geojson.NewFeature(orb.Polygon{a.Polygon})
		f.Properties["kind"] = KindArea
		f.Properties["weight"] = a.Weight
		fc.Append(f)
	}

	return fc
}

// WriteGeoJSON writes the snapshot's feature collection to path.
func WriteGeoJSON(path string, snap sim.Snapshot) error {
	rawJSON, err := FeatureCollection(snap).MarshalJSON()
	if err != nil {
		return fmt.Errorf("encoding tick %d: %w", snap.Tick, err)
	}
	if err := os.WriteFile(path, rawJSON, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// DirWriter writes one GeoJSON file per exported tick into Dir. It implements
// sim.Observer.
type DirWriter struct {
	Dir string
	// Every exports only ticks divisible by it; values below 1 mean every tick.
	Every int
	// GridCols and GridRows, when both positive, also write the priority
	// grid of every exported tick.
	GridCols, GridRows int
}

// NewDirWriter creates dir if needed and returns a writer for it.
func NewDirWriter(dir string, every int) (*DirWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating export dir: %w", err)
	}
	return &DirWriter{Dir: dir, Every: every}, nil
}

// Path returns the file a tick is written to.
func (w *DirWriter) Path(tick int) string {
	return filepath.Join(w.Dir, fmt.Sprintf("tick-%05d.geojson", tick))
}

// PriorityPath returns the file a tick's priority grid is written to.
func (w *DirWriter) PriorityPath(tick int) string {
	return filepath.Join(w.Dir, fmt.Sprintf("priority-%05d.geojson", tick))
}

// ObserveTick writes the snapshot, and its priority grid when enabled, when
// its tick is due.
func (w *DirWriter) ObserveTick(snap sim.Snapshot) error {
	if w.Every > 1 && snap.Tick%w.Every != 0 {
		return nil
	}
	if err := WriteGeoJSON(w.Path(snap.Tick), snap); err != nil {
		return err
	}
	if w.GridCols < 1 || w.GridRows < 1 {
		return nil
	}
	return WritePriorityGrid(w.PriorityPath(snap.Tick), snap, w.GridCols, w.GridRows)
}

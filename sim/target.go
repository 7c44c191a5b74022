package sim

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/inference-sim/coverage-sim/sim/voronoi"
)

// edgeTolerance is how far outside a cell a source may sit, relative to the
// size of its coordinates, and still be claimed by that cell. Neighbouring
// cells are clipped independently, so a point exactly on a shared vertex can
// miss the lowest-id cell by a rounding-sized sliver.
const edgeTolerance = 1e-9

// AssignTargets computes a CellState for every cell.
//
// Each source is claimed by the lowest-ID cell that contains its
// representative position or touches it within rounding, so a source on a
// shared edge or vertex counts once. The
// target is the weight-normalized centroid of the claimed sources, or the
// cell's own centroid when it claims none. AssignTargets does not modify its
// inputs and returns identical results for identical inputs.
func AssignTargets(cells map[int]orb.Ring, sources []Source) map[int]*CellState {
	ids := make([]int, 0, len(cells))
	for id := range cells {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	owner := claimSources(ids, cells, sources)

	out := make(map[int]*CellState, len(cells))
	for k, id := range ids {
		poly := cells[id]
		center := voronoi.Centroid(poly)
		state := &CellState{
			Polygon: append(orb.Ring(nil), poly...),
			Center:  center,
			Target:  center,
		}

		var sumW, sx, sy float64
		for i, src := range sources {
			if owner[i] != k {
				continue
			}
			state.Contributors = append(state.Contributors, src.Position)
			sumW += src.Weight
			sx += src.Weight * src.Position[0]
			sy += src.Weight * src.Position[1]
		}
		if sumW > 0 {
			state.Target = orb.Point{sx / sumW, sy / sumW}
		}
		out[id] = state
	}
	return out
}

// claimSources returns, per source, the index into ids of the owning cell,
// or -1 when no cell claims it. A cell claims a source it contains or whose
// boundary lies within the edge tolerance, and the lowest id wins.
func claimSources(ids []int, cells map[int]orb.Ring, sources []Source) []int {
	owner := make([]int, len(sources))
	for i, src := range sources {
		owner[i] = -1
		tol := edgeTolerance * (1 + math.Max(math.Abs(src.Position[0]), math.Abs(src.Position[1])))
		for k, id := range ids {
			if claims(cells[id], src.Position, tol) {
				owner[i] = k
				break
			}
		}
	}
	return owner
}

func claims(cell orb.Ring, p orb.Point, tol float64) bool {
	if len(cell) < 3 {
		return false
	}
	return voronoi.Contains(cell, p) || planar.DistanceFrom(cell, p) <= tol
}

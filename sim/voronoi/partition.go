// Package voronoi partitions a rectangular domain into the Voronoi cells of a
// set of sites.
//
// Each cell is built by half-plane intersection: a square far larger than the
// domain stands in for the unbounded plane, it is cut by the perpendicular
// bisector towards every other site, and the result is clipped against the
// four half-planes of the domain rectangle. Cells are convex, closed,
// counter-clockwise rings whose union is the rectangle.
//
// This package has no dependency on sim/ and holds no state.
package voronoi

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
)

// coincidentEpsilon is the distance below which two sites are treated as the
// same generator.
const coincidentEpsilon = 1e-9

// Site is a Voronoi generator owned by the agent with the given ID.
type Site struct {
	ID  int
	Pos orb.Point
}

// Partition is the result of Build.
type Partition struct {
	// Cells maps site ID to its clipped cell.
	Cells map[int]orb.Ring
	// Degenerate lists, in ascending order, the site IDs that received no
	// cell: non-finite positions, sites coincident with a lower-ID site, and
	// sites whose clipped cell collapsed to nothing.
	Degenerate []int
}

// Empty reports whether the partition has no cells.
func (p Partition) Empty() bool {
	return len(p.Cells) == 0
}

// Build computes the Voronoi partition of bounds for the given sites.
// Zero sites produce an empty partition. A single effective site owns the
// whole rectangle. Build never panics on duplicate or collinear input.
func Build(sites []Site, bounds Bounds) Partition {
	part := Partition{Cells: make(map[int]orb.Ring, len(sites))}
	if len(sites) == 0 || !bounds.Valid() {
		return part
	}

	ordered := make([]Site, len(sites))
	copy(ordered, sites)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	effective := make([]Site, 0, len(ordered))
	for _, s := range ordered {
		if !finite(s.Pos) || coincidesWith(effective, s.Pos) {
			part.Degenerate = append(part.Degenerate, s.ID)
			continue
		}
		effective = append(effective, s)
	}

	if len(effective) == 1 {
		part.Cells[effective[0].ID] = bounds.Ring()
		return part
	}

	far := farBox(bounds, effective)
	for i, s := range effective {
		cell := far
		for j, o := range effective {
			if i == j {
				continue
			}
			cell = clipBisector(cell, s.Pos, o.Pos)
			if len(cell) < 3 {
				break
			}
		}
		cell = clipToBounds(cell, bounds)
		ring := orb.Ring(dedupe(cell))
		if len(ring) < 3 || Area(ring) <= areaEpsilon {
			part.Degenerate = append(part.Degenerate, s.ID)
			continue
		}
		part.Cells[s.ID] = Close(ring)
	}
	sort.Ints(part.Degenerate)
	return part
}

func coincidesWith(sites []Site, p orb.Point) bool {
	for _, s := range sites {
		if math.Hypot(s.Pos[0]-p[0], s.Pos[1]-p[1]) < coincidentEpsilon {
			return true
		}
	}
	return false
}

// farBox is a counter-clockwise square centred on the domain whose half-size
// exceeds twice the domain diagonal plus the farthest site offset, so every
// open Voronoi ridge is extended well past the rectangle before clipping.
func farBox(b Bounds, sites []Site) []orb.Point {
	cx, cy := b.Width/2, b.Height/2
	reach := 0.0
	for _, s := range sites {
		reach = math.Max(reach, math.Hypot(s.Pos[0]-cx, s.Pos[1]-cy))
	}
	h := 2*b.Diagonal() + reach
	return []orb.Point{
		{cx - h, cy - h},
		{cx + h, cy - h},
		{cx + h, cy + h},
		{cx - h, cy + h},
	}
}

// clipBisector keeps the half of poly closer to s than to o.
func clipBisector(poly []orb.Point, s, o orb.Point) []orb.Point {
	n := orb.Point{o[0] - s[0], o[1] - s[1]}
	mid := orb.Point{(s[0] + o[0]) / 2, (s[1] + o[1]) / 2}
	return clipHalfPlane(poly, n, dot(n, mid))
}

func clipToBounds(poly []orb.Point, b Bounds) []orb.Point {
	poly = clipHalfPlane(poly, orb.Point{-1, 0}, 0)
	poly = clipHalfPlane(poly, orb.Point{1, 0}, b.Width)
	poly = clipHalfPlane(poly, orb.Point{0, -1}, 0)
	poly = clipHalfPlane(poly, orb.Point{0, 1}, b.Height)
	return poly
}

// clipHalfPlane returns the part of the convex polygon poly satisfying
// n·x <= c (one Sutherland-Hodgman pass).
func clipHalfPlane(poly []orb.Point, n orb.Point, c float64) []orb.Point {
	if len(poly) == 0 {
		return poly
	}
	out := make([]orb.Point, 0, len(poly)+1)
	prev := poly[len(poly)-1]
	dPrev := dot(n, prev) - c
	for _, cur := range poly {
		dCur := dot(n, cur) - c
		curIn, prevIn := dCur <= 0, dPrev <= 0
		if curIn != prevIn {
			t := dPrev / (dPrev - dCur)
			out = append(out, orb.Point{
				prev[0] + t*(cur[0]-prev[0]),
				prev[1] + t*(cur[1]-prev[1]),
			})
		}
		if curIn {
			out = append(out, cur)
		}
		prev, dPrev = cur, dCur
	}
	return out
}

// dedupe drops consecutive vertices closer than coincidentEpsilon, including
// the wrap-around pair.
func dedupe(poly []orb.Point) []orb.Point {
	out := make([]orb.Point, 0, len(poly))
	for _, p := range poly {
		if len(out) > 0 && near(out[len(out)-1], p) {
			continue
		}
		out = append(out, p)
	}
	for len(out) > 1 && near(out[0], out[len(out)-1]) {
		out = out[:len(out)-1]
	}
	return out
}

func near(a, b orb.Point) bool {
	return math.Abs(a[0]-b[0]) < coincidentEpsilon && math.Abs(a[1]-b[1]) < coincidentEpsilon
}

func dot(a, b orb.Point) float64 {
	return a[0]*b[0] + a[1]*b[1]
}

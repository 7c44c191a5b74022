package voronoi

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Bounds is the rectangular domain [0,Width]x[0,Height].
type Bounds struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// Bound returns the domain as an orb.Bound.
func (b Bounds) Bound() orb.Bound {
	return orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{b.Width, b.Height}}
}

// Ring returns the domain as a closed counter-clockwise ring.
func (b Bounds) Ring() orb.Ring {
	return orb.Ring{
		{0, 0},
		{b.Width, 0},
		{b.Width, b.Height},
		{0, b.Height},
		{0, 0},
	}
}

// Contains reports whether p lies in the closed rectangle.
func (b Bounds) Contains(p orb.Point) bool {
	return b.Bound().Contains(p)
}

// Area returns Width*Height.
func (b Bounds) Area() float64 {
	return b.Width * b.Height
}

// Diagonal returns the length of the domain's diagonal.
func (b Bounds) Diagonal() float64 {
	return math.Hypot(b.Width, b.Height)
}

// Valid reports whether both sides are positive and finite.
func (b Bounds) Valid() bool {
	return b.Width > 0 && b.Height > 0 && !math.IsInf(b.Width, 0) && !math.IsInf(b.Height, 0)
}

// Area returns the unsigned area of a ring.
func Area(r orb.Ring) float64 {
	if len(r) < 3 {
		return 0
	}
	return math.Abs(planar.Area(r))
}

// Centroid returns the area centroid of a ring. Rings with (near) zero area
// fall back to the mean of their distinct vertices.
func Centroid(r orb.Ring) orb.Point {
	if len(r) == 0 {
		return orb.Point{}
	}
	c, a := planar.CentroidArea(r)
	if math.Abs(a) > areaEpsilon && finite(c) {
		return c
	}
	return vertexMean(r)
}

// Contains reports whether p is inside r or on its boundary.
func Contains(r orb.Ring, p orb.Point) bool {
	if len(r) < 3 {
		return false
	}
	return planar.RingContains(r, p)
}

// Close returns r with its first vertex repeated at the end, as GeoJSON and
// orb.Polygon expect. Already-closed rings are returned unchanged.
func Close(r orb.Ring) orb.Ring {
	if len(r) == 0 || r.Closed() {
		return r
	}
	out := make(orb.Ring, len(r), len(r)+1)
	copy(out, r)
	return append(out, r[0])
}

// IsSimple reports whether the ring has at least three distinct vertices and
// no two non-adjacent edges touch or cross.
func IsSimple(r orb.Ring) bool {
	pts := openRing(r)
	n := len(pts)
	if n < 3 {
		return false
	}
	for i := 0; i < n; i++ {
		a1, a2 := pts[i], pts[(i+1)%n]
		if a1.Equal(a2) {
			return false
		}
		for j := i + 1; j < n; j++ {
			// adjacent edges share exactly one vertex
			if j == i+1 || (i == 0 && j == n-1) {
				continue
			}
			b1, b2 := pts[j], pts[(j+1)%n]
			if segmentsIntersect(a1, a2, b1, b2) {
				return false
			}
		}
	}
	return true
}

const areaEpsilon = 1e-12

func openRing(r orb.Ring) []orb.Point {
	if len(r) > 1 && r.Closed() {
		return r[:len(r)-1]
	}
	return r
}

func vertexMean(r orb.Ring) orb.Point {
	pts := openRing(r)
	var sx, sy float64
	for _, p := range pts {
		sx += p[0]
		sy += p[1]
	}
	n := float64(len(pts))
	return orb.Point{sx / n, sy / n}
}

func finite(p orb.Point) bool {
	return !math.IsNaN(p[0]) && !math.IsNaN(p[1]) && !math.IsInf(p[0], 0) && !math.IsInf(p[1], 0)
}

func cross(o, a, b orb.Point) float64 {
	return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
}

func onSegment(p, q, r orb.Point) bool {
	return math.Min(p[0], r[0]) <= q[0] && q[0] <= math.Max(p[0], r[0]) &&
		math.Min(p[1], r[1]) <= q[1] && q[1] <= math.Max(p[1], r[1])
}

func segmentsIntersect(p1, p2, q1, q2 orb.Point) bool {
	d1 := cross(q1, q2, p1)
	d2 := cross(q1, q2, p2)
	d3 := cross(p1, p2, q1)
	d4 := cross(p1, p2, q2)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	switch {
	case d1 == 0 && onSegment(q1, p1, q2):
		return true
	case d2 == 0 && onSegment(q1, p2, q2):
		return true
	case d3 == 0 && onSegment(p1, q1, p2):
		return true
	case d4 == 0 && onSegment(p1, q2, p2):
		return true
	}
	return false
}

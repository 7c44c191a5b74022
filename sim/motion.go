package sim

import (
	"math"
	"math/rand"

	"github.com/paulmach/orb"
)

// MoveToward advances pos toward target by at most maxStep and lands exactly
// on target when it is closer than that.
func MoveToward(pos, target orb.Point, maxStep float64) orb.Point {
	dx, dy := target[0]-pos[0], target[1]-pos[1]
	dist := math.Hypot(dx, dy)
	if dist <= maxStep {
		return target
	}
	if maxStep <= 0 {
		return pos
	}
	f := maxStep / dist
	return orb.Point{pos[0] + dx*f, pos[1] + dy*f}
}

// Advance moves a moving point by Speed along Heading and reflects it off the
// walls of b. rng perturbs the heading when Jitter is set; it may be nil
// otherwise. Static points are left untouched.
//
// Each axis is reflected on its own: leaving through a vertical wall mirrors
// the heading about the y axis, leaving through a horizontal wall mirrors it
// about the x axis, and a corner exit does both.
func (p *PointOfInterest) Advance(b Bounds, rng *rand.Rand) {
	if !p.Moving {
		return
	}
	if p.Jitter > 0 && rng != nil {
		p.Heading += rng.NormFloat64() * p.Jitter
	}
	x := p.Position[0] + p.Speed*math.Cos(p.Heading)
	y := p.Position[1] + p.Speed*math.Sin(p.Heading)

	x, flipX := fold(x, b.Width)
	y, flipY := fold(y, b.Height)
	if flipX {
		p.Heading = math.Pi - p.Heading
	}
	if flipY {
		p.Heading = -p.Heading
	}
	p.Heading = normalizeAngle(p.Heading)
	p.Position = orb.Point{x, y}
}

// fold maps v into [0, limit] by repeated mirroring at 0 and limit and
// reports whether an odd number of mirrors happened.
func fold(v, limit float64) (float64, bool) {
	if v >= 0 && v <= limit {
		return v, false
	}
	if limit <= 0 {
		return 0, true
	}
	k := math.Floor(v / limit)
	t := v - k*limit
	flip := math.Mod(math.Abs(k), 2) == 1
	if flip {
		t = limit - t
	}
	return math.Min(math.Max(t, 0), limit), flip
}

func normalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

// applyAttrition gives every live agent, in slice order, one failure draw.
// A failure is applied only while the live count stays at or above minAlive
// afterwards. A draw is consumed for every live agent whether or not the
// failure can be applied, keeping the random stream independent of the floor.
// Returns the IDs of the agents that died.
func applyAttrition(agents []*Agent, minAlive int, rng *rand.Rand) []int {
	alive := 0
	for _, a := range agents {
		if a.Alive {
			alive++
		}
	}
	var died []int
	for _, a := range agents {
		if !a.Alive {
			continue
		}
		failed := rng.Float64() < a.FailureProb
		if failed && alive-1 >= minAlive {
			a.kill()
			alive--
			died = append(died, a.ID)
		}
	}
	return died
}

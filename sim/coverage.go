package sim

import (
	"math"

	"github.com/paulmach/orb"
)

// CoverageCost is the weighted Lloyd objective
//
//	H = Σ w·|source − nearest live agent|²
//
// which repeated partition-and-recentroid steps drive down. It is zero when
// there are no sources and +Inf when there are sources but no live agents.
func CoverageCost(agents []*Agent, sources []Source) float64 {
	if len(sources) == 0 {
		return 0
	}
	cost := 0.0
	for _, src := range sources {
		best := math.Inf(1)
		for _, a := range agents {
			if !a.Alive {
				continue
			}
			dx := src.Position[0] - a.Position[0]
			dy := src.Position[1] - a.Position[1]
			best = math.Min(best, dx*dx+dy*dy)
		}
		cost += src.Weight * best
	}
	return cost
}

// PriorityIntensity is the sum of Gaussian blobs of height weight and width
// sigma centred on every source, evaluated at p.
func PriorityIntensity(sources []Source, p orb.Point, sigma float64) float64 {
	if sigma <= 0 {
		return 0
	}
	denom := 2 * sigma * sigma
	total := 0.0
	for _, src := range sources {
		dx := p[0] - src.Position[0]
		dy := p[1] - src.Position[1]
		total += src.Weight * math.Exp(-(dx*dx+dy*dy)/denom)
	}
	return total
}

// DefaultSigma is the blob width used when none is configured: a tenth of
// the shorter side of the domain.
func DefaultSigma(b Bounds) float64 {
	return math.Min(b.Width, b.Height) / 10
}

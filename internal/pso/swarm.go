package pso

import (
	"math"
	"math/rand"
)

// Range bounds one gain dimension of the search space.
type Range struct {
	Min float64
	Max float64
}

func (r Range) span() float64 { return r.Max - r.Min }

// Particle carries one candidate gain vector with its velocity and
// personal best.
type Particle struct {
	Pos      []float64
	Vel      []float64
	Cost     float64
	BestPos  []float64
	BestCost float64
}

// newSwarm draws n particles uniformly inside the bounds. Initial
// velocities are uniform in the clamp interval so the first update does
// not start from a dead stop.
func newSwarm(n int, bounds []Range, vmax []float64, rng *rand.Rand) []Particle {
	swarm := make([]Particle, n)
	dim := len(bounds)

	for i := range swarm {
		pos := make([]float64, dim)
		vel := make([]float64, dim)
		for d, b := range bounds {
			pos[d] = b.Min + rng.Float64()*b.span()
			vel[d] = (2*rng.Float64() - 1) * vmax[d]
		}
		swarm[i] = Particle{
			Pos:      pos,
			Vel:      vel,
			Cost:     math.Inf(1),
			BestPos:  append([]float64(nil), pos...),
			BestCost: math.Inf(1),
		}
	}
	return swarm
}

// clampToBounds clips the position to the box and zeroes the velocity
// component that hit a wall.
func clampToBounds(p *Particle, bounds []Range) {
	for d, b := range bounds {
		if p.Pos[d] < b.Min {
			p.Pos[d] = b.Min
			p.Vel[d] = 0
		} else if p.Pos[d] > b.Max {
			p.Pos[d] = b.Max
			p.Vel[d] = 0
		}
	}
}

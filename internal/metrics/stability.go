package metrics

import (
	"math"

	"github.com/theSadeQ/dip-smc-pso-sub019/internal/dynamo"
)

// Default upright window: both links within ~11 degrees of vertical and
// swinging slower than 1 rad/s.
const (
	DefaultUprightAngle = 0.2
	DefaultUprightRate  = 1.0
)

// Stability reports the fraction of samples spent in the upright window.
// A sample counts as upright when both pendulum angles are within angleTol
// of vertical and both angular rates are within rateTol. The cart is
// deliberately ignored: a drifting cart under balanced links is still a
// balanced pendulum.
type Stability struct {
	name     string
	angleTol float64
	rateTol  float64
	upright  int
	samples  int
}

func NewStability(angleTol, rateTol float64) *Stability {
	return &Stability{
		name:     "stability",
		angleTol: angleTol,
		rateTol:  rateTol,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(x dynamo.State, u dynamo.Control, t float64) {
	s.samples++
	if math.Abs(x[dynamo.IdxAngle1]) > s.angleTol || math.Abs(x[dynamo.IdxAngle2]) > s.angleTol {
		return
	}
	if math.Abs(x[dynamo.IdxRate1]) > s.rateTol || math.Abs(x[dynamo.IdxRate2]) > s.rateTol {
		return
	}
	s.upright++
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return float64(s.upright) / float64(s.samples)
}

func (s *Stability) Reset() {
	s.upright = 0
	s.samples = 0
}

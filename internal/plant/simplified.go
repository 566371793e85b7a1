package plant

import (
	"math"

	"github.com/theSadeQ/dip-smc-pso-sub019/internal/dynamo"
)

// Simplified is the frictionless rigid-body model. It conserves total
// energy under zero input, which the test suite uses to validate the
// matrix derivations.
type Simplified struct {
	p       Params
	monitor *StabilityMonitor
}

func NewSimplified(p Params) (*Simplified, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Simplified{p: p, monitor: &StabilityMonitor{}}, nil
}

func (s *Simplified) Params() Params              { return s.p }
func (s *Simplified) Monitor() *StabilityMonitor  { return s.monitor }
func (s *Simplified) StateDim() int               { return dynamo.StateSize }
func (s *Simplified) ControlDim() int             { return 1 }

func (s *Simplified) ComputeDynamics(x dynamo.State, force float64, t float64) Result {
	if len(x) != dynamo.StateSize {
		r := failedResult(Diagnostics{})
		s.monitor.record(r.Diagnostics, false)
		return r
	}

	th1, th2 := x[dynamo.IdxAngle1], x[dynamo.IdxAngle2]
	w1, w2 := x[dynamo.IdxRate1], x[dynamo.IdxRate2]

	s1, c1 := math.Sincos(th1)
	s2, c2 := math.Sincos(th2)
	s12, c12 := math.Sincos(th1 - th2)

	m := s.p.massMatrix(c1, c2, c12)
	cor := s.p.coriolis(s1, s2, s12, w1, w2)
	grav := s.p.gravity(s1, s2)

	forcing := [3]float64{
		force - cor[0] - grav[0],
		-cor[1] - grav[1],
		-cor[2] - grav[2],
	}

	qdd, diag, ok := s.p.solveAccel(m, forcing)
	diag.Energy = kineticEnergy(m, x) + s.p.potentialEnergy(c1, c2)
	s.monitor.record(diag, ok)

	if !ok {
		return failedResult(diag)
	}

	return Result{
		Derivative:  assembleDerivative(x, qdd),
		OK:          true,
		Diagnostics: diag,
	}
}

func (s *Simplified) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return s.ComputeDynamics(x, dynamo.Force(u), t).Derivative
}

func (s *Simplified) Energy(x dynamo.State) float64 {
	if len(x) != dynamo.StateSize {
		return 0
	}
	c1 := math.Cos(x[dynamo.IdxAngle1])
	c2 := math.Cos(x[dynamo.IdxAngle2])
	c12 := math.Cos(x[dynamo.IdxAngle1] - x[dynamo.IdxAngle2])
	m := s.p.massMatrix(c1, c2, c12)
	return kineticEnergy(m, x) + s.p.potentialEnergy(c1, c2)
}

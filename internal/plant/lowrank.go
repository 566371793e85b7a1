package plant

import (
	"gonum.org/v1/gonum/mat"

	"github.com/theSadeQ/dip-smc-pso-sub019/internal/dynamo"
)

// LowRank is the throughput tier for large particle batches: it drops the
// link-1/link-2 coupling terms (the h3 entries of M and C) and evaluates
// trig through the interpolated lookup table. Valid in the
// small-perturbation regimes the tuner explores; it does not conserve
// energy exactly.
type LowRank struct {
	p       Params
	monitor *StabilityMonitor
}

func NewLowRank(p Params) (*LowRank, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &LowRank{p: p, monitor: &StabilityMonitor{}}, nil
}

func (l *LowRank) Params() Params             { return l.p }
func (l *LowRank) Monitor() *StabilityMonitor { return l.monitor }
func (l *LowRank) StateDim() int              { return dynamo.StateSize }
func (l *LowRank) ControlDim() int            { return 1 }

func (l *LowRank) reducedMass(c1, c2 float64) *mat.Dense {
	h1, h2, _ := l.p.couplings()
	total := l.p.CartMass + l.p.Mass1 + l.p.Mass2

	return mat.NewDense(3, 3, []float64{
		total, h1 * c1, h2 * c2,
		h1 * c1, l.p.Inertia1 + l.p.Mass2*l.p.Length1*l.p.Length1, 0,
		h2 * c2, 0, l.p.Inertia2,
	})
}

func (l *LowRank) ComputeDynamics(x dynamo.State, force float64, t float64) Result {
	if len(x) != dynamo.StateSize {
		r := failedResult(Diagnostics{})
		l.monitor.record(r.Diagnostics, false)
		return r
	}

	th1, th2 := x[dynamo.IdxAngle1], x[dynamo.IdxAngle2]
	w1, w2 := x[dynamo.IdxRate1], x[dynamo.IdxRate2]

	s1, c1 := dynamo.FastSinCos(th1)
	s2, c2 := dynamo.FastSinCos(th2)

	h1, h2, _ := l.p.couplings()
	m := l.reducedMass(c1, c2)
	grav := l.p.gravity(s1, s2)

	// Only the cart row keeps a Coriolis contribution once the link
	// coupling is dropped.
	corCart := -h1*s1*w1*w1 - h2*s2*w2*w2

	forcing := [3]float64{
		force - corCart - grav[0],
		-grav[1],
		-grav[2],
	}

	qdd, diag, ok := l.p.solveAccel(m, forcing)
	diag.Energy = kineticEnergy(m, x) + l.p.potentialEnergy(c1, c2)
	l.monitor.record(diag, ok)

	if !ok {
		return failedResult(diag)
	}

	return Result{
		Derivative:  assembleDerivative(x, qdd),
		OK:          true,
		Diagnostics: diag,
	}
}

func (l *LowRank) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return l.ComputeDynamics(x, dynamo.Force(u), t).Derivative
}

func (l *LowRank) Energy(x dynamo.State) float64 {
	if len(x) != dynamo.StateSize {
		return 0
	}
	_, c1 := dynamo.FastSinCos(x[dynamo.IdxAngle1])
	_, c2 := dynamo.FastSinCos(x[dynamo.IdxAngle2])
	m := l.reducedMass(c1, c2)
	return kineticEnergy(m, x) + l.p.potentialEnergy(c1, c2)
}

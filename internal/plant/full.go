package plant

import (
	"math"

	"github.com/theSadeQ/dip-smc-pso-sub019/internal/dynamo"
)

// coulombSharpness controls the tanh smoothing of the Coulomb friction
// term; larger is closer to a hard sign function.
const coulombSharpness = 100.0

// Full adds viscous friction at the cart and both joints, smoothed
// Coulomb friction on the cart, and an optional wind disturbance force
// applied to the cart.
type Full struct {
	p       Params
	wind    func(t float64) float64
	monitor *StabilityMonitor
}

func NewFull(p Params) (*Full, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Full{p: p, monitor: &StabilityMonitor{}}, nil
}

// SetWind installs a wind-force profile. A nil profile disables the
// disturbance.
func (f *Full) SetWind(wind func(t float64) float64) {
	f.wind = wind
}

func (f *Full) Params() Params             { return f.p }
func (f *Full) Monitor() *StabilityMonitor { return f.monitor }
func (f *Full) StateDim() int              { return dynamo.StateSize }
func (f *Full) ControlDim() int            { return 1 }

func (f *Full) ComputeDynamics(x dynamo.State, force float64, t float64) Result {
	if len(x) != dynamo.StateSize {
		r := failedResult(Diagnostics{})
		f.monitor.record(r.Diagnostics, false)
		return r
	}

	th1, th2 := x[dynamo.IdxAngle1], x[dynamo.IdxAngle2]
	vx := x[dynamo.IdxCartVel]
	w1, w2 := x[dynamo.IdxRate1], x[dynamo.IdxRate2]

	s1, c1 := math.Sincos(th1)
	s2, c2 := math.Sincos(th2)
	s12, c12 := math.Sincos(th1 - th2)

	m := f.p.massMatrix(c1, c2, c12)
	cor := f.p.coriolis(s1, s2, s12, w1, w2)
	grav := f.p.gravity(s1, s2)

	cartForce := force
	if f.wind != nil {
		cartForce += f.wind(t)
	}
	cartForce -= f.p.CartFriction * vx
	cartForce -= f.p.CartCoulomb * math.Tanh(coulombSharpness*vx)

	forcing := [3]float64{
		cartForce - cor[0] - grav[0],
		-f.p.Joint1Friction*w1 - cor[1] - grav[1],
		-f.p.Joint2Friction*w2 - cor[2] - grav[2],
	}

	qdd, diag, ok := f.p.solveAccel(m, forcing)
	diag.Energy = kineticEnergy(m, x) + f.p.potentialEnergy(c1, c2)
	f.monitor.record(diag, ok)

	if !ok {
		return failedResult(diag)
	}

	return Result{
		Derivative:  assembleDerivative(x, qdd),
		OK:          true,
		Diagnostics: diag,
	}
}

func (f *Full) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return f.ComputeDynamics(x, dynamo.Force(u), t).Derivative
}

func (f *Full) Energy(x dynamo.State) float64 {
	if len(x) != dynamo.StateSize {
		return 0
	}
	c1 := math.Cos(x[dynamo.IdxAngle1])
	c2 := math.Cos(x[dynamo.IdxAngle2])
	c12 := math.Cos(x[dynamo.IdxAngle1] - x[dynamo.IdxAngle2])
	m := f.p.massMatrix(c1, c2, c12)
	return kineticEnergy(m, x) + f.p.potentialEnergy(c1, c2)
}

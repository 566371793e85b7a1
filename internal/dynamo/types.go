package dynamo

import "math"

// State layout for the double inverted pendulum on a cart.
// Angles are measured from the upright position and are not wrapped.
const (
	IdxCartPos = 0
	IdxAngle1  = 1
	IdxAngle2  = 2
	IdxCartVel = 3
	IdxRate1   = 4
	IdxRate2   = 5

	StateSize = 6
)

type State []float64

func NewState() State {
	return make(State, StateSize)
}

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// VelocityNorm is the norm of the velocity half of the state, used by the
// controller emergency-reset checks.
func (s State) VelocityNorm() float64 {
	if len(s) < StateSize {
		return 0
	}
	vx, w1, w2 := s[IdxCartVel], s[IdxRate1], s[IdxRate2]
	return math.Sqrt(vx*vx + w1*w1 + w2*w2)
}

func (s State) Add(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] + other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

func (s State) Scale(factor float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] * factor
	}
	return result
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// Control is the scalar cart force, kept as a slice for integrator reuse
// across systems with wider inputs.
type Control []float64

func Force(u Control) float64 {
	if len(u) == 0 {
		return 0
	}
	return u[0]
}

type System interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

type Hamiltonian interface {
	Energy(x State) float64
}

type Integrator interface {
	Step(dyn System, x State, u Control, t float64, dt float64) State
}

type AdaptiveIntegrator interface {
	Integrator
	StepAdaptive(dyn System, x State, u Control, t, dt, tol float64) (State, float64, error)
}

type Metric interface {
	Name() string
	Observe(x State, u Control, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(x State, u Control, t float64)
}

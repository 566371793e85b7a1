package integrators

import (
	"math"

	"github.com/theSadeQ/dip-smc-pso-sub019/internal/dynamo"
)

// Dormand-Prince 5(4) tableau. Row s of dpA holds the couplings into
// stage s, dpC the stage nodes, dpB the fifth-order solution weights and
// dpE the difference against the embedded fourth-order solution. The last
// stage is evaluated at the accepted solution (first-same-as-last), which
// is why dpA's final row repeats dpB.
var (
	dpC = [7]float64{0, 1.0 / 5, 3.0 / 10, 4.0 / 5, 8.0 / 9, 1, 1}
	dpA = [7][6]float64{
		{},
		{1.0 / 5},
		{3.0 / 40, 9.0 / 40},
		{44.0 / 45, -56.0 / 15, 32.0 / 9},
		{19372.0 / 6561, -25360.0 / 2187, 64448.0 / 6561, -212.0 / 729},
		{9017.0 / 3168, -355.0 / 33, 46732.0 / 5247, 49.0 / 176, -5103.0 / 18656},
		{35.0 / 384, 0, 500.0 / 1113, 125.0 / 192, -2187.0 / 6784, 11.0 / 84},
	}
	dpB = [7]float64{35.0 / 384, 0, 500.0 / 1113, 125.0 / 192, -2187.0 / 6784, 11.0 / 84, 0}
	dpE = [7]float64{
		35.0/384 - 5179.0/57600,
		0,
		500.0/1113 - 7571.0/16695,
		125.0/192 - 393.0/640,
		-2187.0/6784 + 92097.0/339200,
		11.0/84 - 187.0/2100,
		-1.0 / 40,
	}
)

// RK45 is the adaptive Dormand-Prince pair used for validation runs of
// the pendulum, where a fast swing-through can demand a much smaller
// step than the near-upright phase. The batch engine sticks with
// fixed-step RK4 to keep rows in lockstep. Stage buffers are reused
// across steps; an RK45 instance must not be shared between workers.
type RK45 struct {
	safety   float64
	minScale float64
	maxScale float64

	k       [7]dynamo.State
	scratch dynamo.State
}

func NewRK45() *RK45 {
	return &RK45{
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
	}
}

func (r *RK45) ensureScratch(n int) {
	if len(r.scratch) != n {
		for s := range r.k {
			r.k[s] = make(dynamo.State, n)
		}
		r.scratch = make(dynamo.State, n)
	}
}

// Step takes the fifth-order solution at a default tolerance, discarding
// the suggested step size.
func (r *RK45) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	newX, _, _ := r.StepAdaptive(dyn, x, u, t, dt, 1e-6)
	return newX
}

// StepAdaptive advances one step of size dt and returns the next step
// size suggested by the embedded error estimate against tol.
func (r *RK45) StepAdaptive(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt, tol float64) (dynamo.State, float64, error) {
	n := len(x)
	r.ensureScratch(n)

	copy(r.k[0], dyn.Derive(x, u, t))
	for s := 1; s < 7; s++ {
		for i := 0; i < n; i++ {
			sum := 0.0
			for j := 0; j < s; j++ {
				sum += dpA[s][j] * r.k[j][i]
			}
			r.scratch[i] = x[i] + dt*sum
		}
		copy(r.k[s], dyn.Derive(r.scratch, u, t+dpC[s]*dt))
	}

	newX := make(dynamo.State, n)
	errMax := 0.0
	for i := 0; i < n; i++ {
		sum, errSum := 0.0, 0.0
		for s := 0; s < 7; s++ {
			sum += dpB[s] * r.k[s][i]
			errSum += dpE[s] * r.k[s][i]
		}
		newX[i] = x[i] + dt*sum

		scale := math.Abs(x[i]) + math.Abs(dt*r.k[0][i]) + 1e-10
		errMax = math.Max(errMax, math.Abs(dt*errSum)/scale)
	}

	errRatio := errMax / tol

	var dtNew float64
	switch {
	case errRatio > 1:
		dtNew = dt * math.Max(r.minScale, r.safety*math.Pow(errRatio, -0.25))
	case errRatio > 0:
		dtNew = dt * math.Min(r.maxScale, r.safety*math.Pow(errRatio, -0.2))
	default:
		dtNew = dt * r.maxScale
	}

	return newX, dtNew, nil
}

package smc

import (
	"math"

	"github.com/theSadeQ/dip-smc-pso-sub019/internal/dynamo"
	"github.com/theSadeQ/dip-smc-pso-sub019/internal/numsafe"
)

// SuperTwistingSMC implements the second-order sliding-mode algorithm
//
//	w = −K1·|σ|^½·sat(σ/ε) + z,   ż = −K2·sat(σ/ε),   u = w / b
//
// where b = λ1·∂θ̈1/∂u + λ2·∂θ̈2/∂u is the surface input channel, so the
// twisting law acts on σ̇ directly. Finite-time convergence requires
// K1 > K2 > 0, enforced at construction. The integrator z lives in
// [STAState] and is clamped to the force limit as anti-windup.
type SuperTwistingSMC struct {
	gains []float64

	alg1, alg2 float64 // K1, K2
	k1, k2     float64
	lam1, lam2 float64

	channel  float64
	maxForce float64
	boundary float64
	dt       float64
}

func newSuperTwisting(gains []float64, opts Options) *SuperTwistingSMC {
	return &SuperTwistingSMC{
		gains:    gains,
		alg1:     gains[0],
		alg2:     gains[1],
		k1:       gains[2],
		k2:       gains[3],
		lam1:     gains[4],
		lam2:     gains[5],
		channel:  opts.channel(gains[4], gains[5]),
		maxForce: opts.MaxForce,
		boundary: opts.BoundaryLayer,
		dt:       opts.Dt,
	}
}

func (s *SuperTwistingSMC) Type() Type                 { return SuperTwisting }
func (s *SuperTwistingSMC) Gains() []float64           { return append([]float64(nil), s.gains...) }
func (s *SuperTwistingSMC) InitialState() ControlState { return STAState{} }

func (s *SuperTwistingSMC) Compute(x dynamo.State, st ControlState, t float64) (float64, ControlState, Diagnostics) {
	state, ok := st.(STAState)
	if !ok {
		state = STAState{}
	}

	sigma := surface(x, s.k1, s.k2, s.lam1, s.lam2)
	sw := numsafe.Sat(numsafe.Divide(sigma, s.boundary))

	switchTerm := -s.alg1 * numsafe.Sqrt(math.Abs(sigma)) * sw
	u := (switchTerm + state.Integrator) / s.channel

	saturated := u > s.maxForce || u < -s.maxForce
	u = numsafe.Clamp(u, -s.maxForce, s.maxForce)

	// Anti-windup in σ̇-units: z never asks for more than the force limit
	// can deliver through the channel.
	zLim := s.maxForce * math.Abs(s.channel)
	z := state.Integrator - s.alg2*sw*s.dt
	z = numsafe.Clamp(z, -zLim, zLim)

	return u, STAState{Integrator: z}, Diagnostics{
		Sigma:      sigma,
		SwitchTerm: switchTerm,
		Saturated:  saturated,
	}
}

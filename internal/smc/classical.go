package smc

import (
	"github.com/theSadeQ/dip-smc-pso-sub019/internal/dynamo"
	"github.com/theSadeQ/dip-smc-pso-sub019/internal/numsafe"
)

// ClassicalSMC drives σ = k1·θ1 + k2·θ2 + λ1·θ̇1 + λ2·θ̇2 to zero with a
// boundary-layer switching term plus linear surface damping, routed
// through the surface input channel b = λ1·∂θ̈1/∂u + λ2·∂θ̈2/∂u:
//
//	u = −(K·sat(σ/ε) + kd·σ) / b
//
// Dividing by b gives σ̇ ≈ −K·sat(σ/ε) − kd·σ on the reaching phase; b
// is negative for the default surface, so a positive lean commands a
// positive force. The saturation inside the boundary layer ε trades
// exact sliding for reduced chattering.
type ClassicalSMC struct {
	gains []float64

	k1, k2   float64
	lam1     float64
	lam2     float64
	kSwitch  float64
	kDamping float64

	channel  float64
	maxForce float64
	boundary float64
}

func newClassical(gains []float64, opts Options) *ClassicalSMC {
	return &ClassicalSMC{
		gains:    gains,
		k1:       gains[0],
		k2:       gains[1],
		lam1:     gains[2],
		lam2:     gains[3],
		kSwitch:  gains[4],
		kDamping: gains[5],
		channel:  opts.channel(gains[2], gains[3]),
		maxForce: opts.MaxForce,
		boundary: opts.BoundaryLayer,
	}
}

func (c *ClassicalSMC) Type() Type                 { return Classical }
func (c *ClassicalSMC) Gains() []float64           { return append([]float64(nil), c.gains...) }
func (c *ClassicalSMC) InitialState() ControlState { return ClassicalState{} }

func (c *ClassicalSMC) Compute(x dynamo.State, st ControlState, t float64) (float64, ControlState, Diagnostics) {
	sigma := surface(x, c.k1, c.k2, c.lam1, c.lam2)

	switchTerm := -c.kSwitch * numsafe.Sat(numsafe.Divide(sigma, c.boundary)) / c.channel
	damping := -c.kDamping * sigma / c.channel

	u := switchTerm + damping
	saturated := u > c.maxForce || u < -c.maxForce
	u = numsafe.Clamp(u, -c.maxForce, c.maxForce)

	return u, ClassicalState{}, Diagnostics{
		Sigma:       sigma,
		SwitchTerm:  switchTerm,
		DampingTerm: damping,
		Saturated:   saturated,
	}
}

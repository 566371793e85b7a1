package smc

import (
	"fmt"
	"math"

	"github.com/theSadeQ/dip-smc-pso-sub019/internal/dynamo"
	"github.com/theSadeQ/dip-smc-pso-sub019/internal/plant"
)

// Diagnostics reports the internals of one control computation.
type Diagnostics struct {
	Sigma          float64
	SwitchTerm     float64
	DampingTerm    float64
	AdaptiveGain   float64
	AdaptiveGain2  float64
	Saturated      bool
	EmergencyReset bool
	ResetReason    string
}

// ControlState is the per-run state a controller threads between steps.
// The set of implementations is closed; each controller kind owns one.
type ControlState interface {
	kind() Type
}

type ClassicalState struct{}

type STAState struct {
	Integrator float64
}

type AdaptiveState struct {
	Gain float64
}

type HybridState struct {
	Gain1      float64
	Gain2      float64
	Integrator float64
}

func (ClassicalState) kind() Type { return Classical }
func (STAState) kind() Type       { return SuperTwisting }
func (AdaptiveState) kind() Type  { return Adaptive }
func (HybridState) kind() Type    { return HybridAdaptiveSTA }

// Controller computes a saturated cart force from the current state.
// Implementations never mutate themselves in Compute; all evolution is in
// the returned ControlState.
type Controller interface {
	Type() Type
	Gains() []float64
	InitialState() ControlState
	Compute(x dynamo.State, st ControlState, t float64) (float64, ControlState, Diagnostics)
}

// Options carries the controller parameters that are not tuned gains.
type Options struct {
	MaxForce      float64
	Dt            float64
	BoundaryLayer float64

	// LinkAccelGain1/2 are ∂θ̈1/∂u and ∂θ̈2/∂u at the upright
	// equilibrium (see plant.Params.UprightInputGains). They carry the
	// sign and magnitude of the cart-force channel into the reaching
	// laws; zero values fall back to the default plant's gains.
	LinkAccelGain1 float64
	LinkAccelGain2 float64

	// Adaptation parameters (adaptive and hybrid variants).
	DeadZone     float64
	LeakRate     float64
	GainInit     float64
	GainMin      float64
	GainMax      float64
	HybridGamma1 float64
	HybridGamma2 float64

	// Emergency-reset thresholds.
	ResetStateNorm    float64
	ResetVelocityNorm float64
}

func DefaultOptions() Options {
	g1, g2 := plant.DefaultParams().UprightInputGains()
	return Options{
		MaxForce:      100.0,
		Dt:            0.01,
		BoundaryLayer: 0.02,

		LinkAccelGain1: g1,
		LinkAccelGain2: g2,

		DeadZone:     0.01,
		LeakRate:     0.1,
		GainInit:     5.0,
		GainMin:      0.1,
		GainMax:      100.0,
		HybridGamma1: 2.0,
		HybridGamma2: 0.5,

		ResetStateNorm:    50.0,
		ResetVelocityNorm: 100.0,
	}
}

func (o Options) validate() error {
	if o.MaxForce <= 0 {
		return fmt.Errorf("smc: max force must be positive, got %g", o.MaxForce)
	}
	if o.Dt <= 0 {
		return fmt.Errorf("smc: dt must be positive, got %g", o.Dt)
	}
	if o.BoundaryLayer <= 0 {
		return fmt.Errorf("smc: boundary layer must be positive, got %g", o.BoundaryLayer)
	}
	if o.GainMax <= o.GainMin || o.GainMin <= 0 {
		return fmt.Errorf("smc: adaptive gain bounds invalid (min=%g, max=%g)", o.GainMin, o.GainMax)
	}
	return nil
}

// surface evaluates the linear sliding surface
// σ = c1·θ1 + c2·θ2 + λ1·θ̇1 + λ2·θ̇2.
func surface(x dynamo.State, c1, c2, l1, l2 float64) float64 {
	return c1*x[dynamo.IdxAngle1] + c2*x[dynamo.IdxAngle2] +
		l1*x[dynamo.IdxRate1] + l2*x[dynamo.IdxRate2]
}

// minChannel floors the surface input channel so a surface with no force
// authority saturates at the force limit instead of dividing by zero.
const minChannel = 1e-6

// channel projects the cart-force input onto the surface slope:
// b = λ1·∂θ̈1/∂u + λ2·∂θ̈2/∂u, so σ̇ responds to the force as b·u.
// Reaching laws divide by b, which keeps σ·σ̇ < 0 whatever the sign of
// the channel for the tuned surface. For the default surface b is
// negative: a positive lean commands a positive force, driving the cart
// under the falling links.
func (o Options) channel(l1, l2 float64) float64 {
	g1, g2 := o.LinkAccelGain1, o.LinkAccelGain2
	if g1 == 0 && g2 == 0 {
		g1, g2 = plant.DefaultParams().UprightInputGains()
	}

	b := l1*g1 + l2*g2
	if math.Abs(b) < minChannel {
		return math.Copysign(minChannel, g1)
	}
	return b
}

package smc

import (
	"math"

	"github.com/theSadeQ/dip-smc-pso-sub019/internal/dynamo"
	"github.com/theSadeQ/dip-smc-pso-sub019/internal/numsafe"
)

// HybridSMC combines online gain estimation with the super-twisting
// reaching law. The surface gains [c1, λ1, c2, λ2] are tuned; the
// twisting gains k1, k2 are adapted at runtime:
//
//	w = −k1·|σ|^½·sat(σ/ε) + z,   ż = −k2·sat(σ/ε),   u = w / b
//	k̇1 = γ1·|σ| − leak·k1,        k̇2 = γ2·|σ| − leak·k2
//
// outside the dead zone, both gains clamped to [GainMin, GainMax], with
// b the surface input channel. The adapted pair and the integrator are
// carried in [HybridState].
type HybridSMC struct {
	gains []float64

	c1, lam1 float64
	c2, lam2 float64

	channel float64
	opts    Options
}

func newHybrid(gains []float64, opts Options) *HybridSMC {
	return &HybridSMC{
		gains:   gains,
		c1:      gains[0],
		lam1:    gains[1],
		c2:      gains[2],
		lam2:    gains[3],
		channel: opts.channel(gains[1], gains[3]),
		opts:    opts,
	}
}

func (h *HybridSMC) Type() Type       { return HybridAdaptiveSTA }
func (h *HybridSMC) Gains() []float64 { return append([]float64(nil), h.gains...) }

func (h *HybridSMC) InitialState() ControlState {
	return HybridState{
		Gain1: h.opts.GainInit,
		Gain2: h.opts.GainInit / 2,
	}
}

func (h *HybridSMC) Compute(x dynamo.State, st ControlState, t float64) (float64, ControlState, Diagnostics) {
	state, ok := st.(HybridState)
	if !ok || state.Gain1 <= 0 || state.Gain2 <= 0 {
		state = h.InitialState().(HybridState)
	}

	sigma := surface(x, h.c1, h.c2, h.lam1, h.lam2)
	sw := numsafe.Sat(numsafe.Divide(sigma, h.opts.BoundaryLayer))

	k1, k2 := state.Gain1, state.Gain2
	if math.Abs(sigma) > h.opts.DeadZone {
		k1 += h.opts.Dt * (h.opts.HybridGamma1*math.Abs(sigma) - h.opts.LeakRate*k1)
		k2 += h.opts.Dt * (h.opts.HybridGamma2*math.Abs(sigma) - h.opts.LeakRate*k2)
	}
	k1 = numsafe.Clamp(k1, h.opts.GainMin, h.opts.GainMax)
	k2 = numsafe.Clamp(k2, h.opts.GainMin, h.opts.GainMax)

	switchTerm := -k1 * numsafe.Sqrt(math.Abs(sigma)) * sw
	u := (switchTerm + state.Integrator) / h.channel

	saturated := u > h.opts.MaxForce || u < -h.opts.MaxForce
	u = numsafe.Clamp(u, -h.opts.MaxForce, h.opts.MaxForce)

	zLim := h.opts.MaxForce * math.Abs(h.channel)
	z := state.Integrator - k2*sw*h.opts.Dt
	z = numsafe.Clamp(z, -zLim, zLim)

	if reset, why := h.emergency(u, k1, x); reset {
		return 0, h.InitialState(), Diagnostics{
			Sigma:          sigma,
			AdaptiveGain:   h.opts.GainInit,
			AdaptiveGain2:  h.opts.GainInit / 2,
			EmergencyReset: true,
			ResetReason:    why,
		}
	}

	return u, HybridState{Gain1: k1, Gain2: k2, Integrator: z}, Diagnostics{
		Sigma:         sigma,
		SwitchTerm:    switchTerm,
		AdaptiveGain:  k1,
		AdaptiveGain2: k2,
		Saturated:     saturated,
	}
}

func (h *HybridSMC) emergency(u, gain float64, x dynamo.State) (bool, string) {
	switch {
	case math.IsNaN(u) || math.IsInf(u, 0):
		return true, "non-finite control"
	case gain >= 0.9*h.opts.GainMax:
		return true, "adaptive gain near ceiling"
	case x.Norm() > h.opts.ResetStateNorm:
		return true, "state norm exceeded"
	case x.VelocityNorm() > h.opts.ResetVelocityNorm:
		return true, "velocity norm exceeded"
	}
	return false, ""
}

package smc

import (
	"math"

	"github.com/theSadeQ/dip-smc-pso-sub019/internal/dynamo"
	"github.com/theSadeQ/dip-smc-pso-sub019/internal/numsafe"
)

// AdaptiveSMC is the classical surface with an online-adapted switching
// gain:
//
//	K̇ = γ·|σ| − leak·K   outside the dead zone, K ∈ [GainMin, GainMax]
//	u = −K·sat(σ/ε) / b
//
// with b the surface input channel. The leak term bleeds the estimate
// back down when the surface is quiet, preventing gain drift. An
// emergency reset forces the control and gain estimate to safe values
// when the computation or the plant state leaves its sane envelope.
type AdaptiveSMC struct {
	gains []float64

	k1, k2     float64
	lam1, lam2 float64
	gamma      float64

	channel float64
	opts    Options
}

func newAdaptive(gains []float64, opts Options) *AdaptiveSMC {
	return &AdaptiveSMC{
		gains:   gains,
		k1:      gains[0],
		k2:      gains[1],
		lam1:    gains[2],
		lam2:    gains[3],
		gamma:   gains[4],
		channel: opts.channel(gains[2], gains[3]),
		opts:    opts,
	}
}

func (a *AdaptiveSMC) Type() Type       { return Adaptive }
func (a *AdaptiveSMC) Gains() []float64 { return append([]float64(nil), a.gains...) }

func (a *AdaptiveSMC) InitialState() ControlState {
	return AdaptiveState{Gain: a.opts.GainInit}
}

func (a *AdaptiveSMC) Compute(x dynamo.State, st ControlState, t float64) (float64, ControlState, Diagnostics) {
	state, ok := st.(AdaptiveState)
	if !ok || state.Gain <= 0 {
		state = AdaptiveState{Gain: a.opts.GainInit}
	}

	sigma := surface(x, a.k1, a.k2, a.lam1, a.lam2)

	gain := state.Gain
	if math.Abs(sigma) > a.opts.DeadZone {
		gain += a.opts.Dt * (a.gamma*math.Abs(sigma) - a.opts.LeakRate*gain)
	}
	gain = numsafe.Clamp(gain, a.opts.GainMin, a.opts.GainMax)

	switchTerm := -gain * numsafe.Sat(numsafe.Divide(sigma, a.opts.BoundaryLayer)) / a.channel
	u := numsafe.Clamp(switchTerm, -a.opts.MaxForce, a.opts.MaxForce)

	if reset, why := a.emergency(u, gain, x); reset {
		return 0, AdaptiveState{Gain: a.opts.GainInit}, Diagnostics{
			Sigma:          sigma,
			AdaptiveGain:   a.opts.GainInit,
			EmergencyReset: true,
			ResetReason:    why,
		}
	}

	return u, AdaptiveState{Gain: gain}, Diagnostics{
		Sigma:        sigma,
		SwitchTerm:   switchTerm,
		AdaptiveGain: gain,
		Saturated:    switchTerm != u,
	}
}

// emergency checks the reset conditions: non-finite output, gain estimate
// at 90% of its ceiling, or state/velocity norms past the safety envelope.
func (a *AdaptiveSMC) emergency(u, gain float64, x dynamo.State) (bool, string) {
	switch {
	case math.IsNaN(u) || math.IsInf(u, 0):
		return true, "non-finite control"
	case gain >= 0.9*a.opts.GainMax:
		return true, "adaptive gain near ceiling"
	case x.Norm() > a.opts.ResetStateNorm:
		return true, "state norm exceeded"
	case x.VelocityNorm() > a.opts.ResetVelocityNorm:
		return true, "velocity norm exceeded"
	}
	return false, ""
}

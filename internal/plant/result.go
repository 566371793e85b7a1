package plant

import "github.com/theSadeQ/dip-smc-pso-sub019/internal/dynamo"

// Diagnostics carries per-call numerical health data. It is always
// populated, including on failed solves.
type Diagnostics struct {
	Energy                float64
	ConditionNumber       float64
	RegularizationApplied bool
	RegularizationAlpha   float64
	UsedPseudoInverse     bool
}

// Result is the outcome of one dynamics evaluation. When OK is false the
// derivative is the zero vector and must not be trusted; callers check OK
// before integrating.
type Result struct {
	Derivative  dynamo.State
	OK          bool
	Diagnostics Diagnostics
}

func failedResult(d Diagnostics) Result {
	return Result{
		Derivative:  dynamo.NewState(),
		OK:          false,
		Diagnostics: d,
	}
}

// Model is the contract shared by the three fidelity tiers. It extends
// dynamo.System with the diagnostic entry point and energy accounting.
type Model interface {
	dynamo.System
	dynamo.Hamiltonian
	ComputeDynamics(x dynamo.State, force float64, t float64) Result
	Monitor() *StabilityMonitor
}

package sim

import (
	"fmt"

	"github.com/theSadeQ/dip-smc-pso-sub019/internal/dynamo"
)

// Bound is a closed interval guard on one state component.
type Bound struct {
	Min float64
	Max float64
}

// Options configures a closed-loop run. The finiteness check on the
// state runs unconditionally; zero values disable the optional guards:
// EnergyLimit 0 means no energy guard, nil StateBounds means no bounds
// guard, SettleTol 0 means no early stop.
type Options struct {
	Dt    float64
	Steps int

	EnergyLimit float64
	StateBounds []Bound

	// Early stop: the run ends once |sigma| stays below SettleTol after
	// GracePeriod seconds have elapsed.
	SettleTol   float64
	GracePeriod float64

	// Adaptive stepping hands control of dt to the integrator when it
	// supports it, bounded by [MinDt, MaxDt] at local error Tolerance.
	Adaptive  bool
	Tolerance float64
	MinDt     float64
	MaxDt     float64
}

func (o Options) validate() error {
	if o.Dt <= 0 {
		return fmt.Errorf("sim: dt must be positive, got %g", o.Dt)
	}
	if o.Steps <= 0 {
		return fmt.Errorf("sim: steps must be positive, got %d", o.Steps)
	}
	if o.Adaptive && o.Tolerance <= 0 {
		return fmt.Errorf("sim: tolerance must be positive for adaptive stepping")
	}
	if o.StateBounds != nil && len(o.StateBounds) != dynamo.StateSize {
		return fmt.Errorf("sim: state bounds must cover all %d components, got %d: %w",
			dynamo.StateSize, len(o.StateBounds), dynamo.ErrDimensionMismatch)
	}
	return nil
}

// Result holds one closed-loop trajectory. States has one more entry than
// Controls and Sigma: the initial condition occupies index 0 and controls
// are recorded per step taken.
type Result struct {
	Times    []float64
	States   []dynamo.State
	Controls []float64
	Sigma    []float64

	Metrics     map[string]float64
	EnergyDrift float64
	StepsTaken  int

	Settled bool
	Failed  bool

	// Err locates the tripped guard as a *SimError wrapping the dynamo
	// sentinel; FailReason carries its text for storage and display.
	Err        error
	FailReason string
}

// SimError reports where inside a run a guard tripped. It wraps the
// guard's sentinel error, so errors.Is distinguishes an energy stop from
// a bounds stop.
type SimError struct {
	Time float64
	Step int
	Err  error
}

func (e *SimError) Error() string {
	return fmt.Sprintf("sim: step %d (t=%.4f): %v", e.Step, e.Time, e.Err)
}

func (e *SimError) Unwrap() error { return e.Err }

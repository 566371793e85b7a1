package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/theSadeQ/dip-smc-pso-sub019/internal/dynamo"
	"github.com/theSadeQ/dip-smc-pso-sub019/internal/integrators"
	"github.com/theSadeQ/dip-smc-pso-sub019/internal/plant"
	"github.com/theSadeQ/dip-smc-pso-sub019/internal/smc"
)

// BatchOptions extends Options for batch runs. Integrators carry scratch
// buffers and cannot be shared across rows, so each row gets a fresh one
// from NewIntegrator (RK4 when nil). The plant model is shared: its
// dynamics are stateless apart from the mutex-guarded monitor.
type BatchOptions struct {
	Options

	NewIntegrator func() dynamo.Integrator
	MinChunk      int
}

func (o BatchOptions) newIntegrator() dynamo.Integrator {
	if o.NewIntegrator != nil {
		return o.NewIntegrator()
	}
	return integrators.NewRK4()
}

// BatchResult holds B trajectories with a uniform horizon. All arrays
// share len(Times) recorded points per row; States rows have one extra
// leading entry for the initial condition relative to Controls and Sigma.
//
// When a healthy row settles before the full horizon, the whole batch is
// truncated to the earliest settle so the shape stays rectangular; the
// surviving rows lose their tail samples. Failed rows never shorten the
// horizon: a guard trip only marks that row Failed, freezes it at its
// last valid state, and pads it to the batch shape, so one bad candidate
// cannot erase the trajectories of the rest.
type BatchResult struct {
	Times    []float64
	States   [][]dynamo.State
	Controls [][]float64
	Sigma    [][]float64

	Failed      []bool
	FailReasons []string
	Settled     []bool

	Truncated bool
	Steps     int
}

// RunBatch simulates one controller construction per row over B initial
// conditions in parallel.
func RunBatch(ctx context.Context, model plant.Model, newController func(row int) (smc.Controller, error), x0s []dynamo.State, opts BatchOptions) (*BatchResult, error) {
	if len(x0s) == 0 {
		return nil, fmt.Errorf("sim: batch needs at least one initial condition")
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	n := len(x0s)
	ctrls := make([]smc.Controller, n)
	ctorErrs := make([]error, n)
	for i := 0; i < n; i++ {
		ctrls[i], ctorErrs[i] = newController(i)
	}

	return runRows(ctx, model, ctrls, ctorErrs, x0s, opts)
}

// RunGainBatch simulates one gain candidate per row from a shared initial
// condition. Rows whose gains fail validation are marked failed without
// simulating and do not participate in horizon truncation; the tuner maps
// them to the penalty cost.
func RunGainBatch(ctx context.Context, model plant.Model, typ smc.Type, gainSets [][]float64, copts smc.Options, x0 dynamo.State, opts BatchOptions) (*BatchResult, error) {
	if len(gainSets) == 0 {
		return nil, fmt.Errorf("sim: gain batch needs at least one candidate")
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	n := len(gainSets)
	ctrls := make([]smc.Controller, n)
	ctorErrs := make([]error, n)
	x0s := make([]dynamo.State, n)
	for i := 0; i < n; i++ {
		ctrls[i], ctorErrs[i] = smc.New(typ, gainSets[i], copts)
		x0s[i] = x0
	}

	return runRows(ctx, model, ctrls, ctorErrs, x0s, opts)
}

func runRows(ctx context.Context, model plant.Model, ctrls []smc.Controller, ctorErrs []error, x0s []dynamo.State, opts BatchOptions) (*BatchResult, error) {
	n := len(x0s)
	result := &BatchResult{
		States:      make([][]dynamo.State, n),
		Controls:    make([][]float64, n),
		Sigma:       make([][]float64, n),
		Failed:      make([]bool, n),
		FailReasons: make([]string, n),
		Settled:     make([]bool, n),
	}

	ran := make([]bool, n)
	rowSteps := make([]int, n)

	minChunk := opts.MinChunk
	if minChunk <= 0 {
		minChunk = 1
	}

	dynamo.ParallelFor(n, minChunk, func(start, end int) {
		integ := opts.newIntegrator()
		for i := start; i < end; i++ {
			if ctorErrs[i] != nil {
				result.Failed[i] = true
				result.FailReasons[i] = ctorErrs[i].Error()
				continue
			}
			ran[i] = true
			rowSteps[i] = runRow(ctx, model, ctrls[i], integ, x0s[i], opts, result, i)
		}
	})

	if err := ctx.Err(); err != nil {
		return result, err
	}

	// Uniform shape: cut the batch to the earliest settle among healthy
	// rows. Failed rows are excluded, so a guard trip never shortens the
	// surviving trajectories.
	minSteps := opts.Steps
	anyOK := false
	for i := 0; i < n; i++ {
		if ran[i] && !result.Failed[i] {
			anyOK = true
			if rowSteps[i] < minSteps {
				minSteps = rowSteps[i]
			}
		}
	}
	if !anyOK {
		minSteps = 0
	}

	result.Steps = minSteps
	result.Truncated = minSteps < opts.Steps

	result.Times = make([]float64, minSteps+1)
	for k := 0; k <= minSteps; k++ {
		result.Times[k] = float64(k) * opts.Dt
	}

	for i := 0; i < n; i++ {
		switch {
		case !ran[i]:
			// Never simulated; give the row its initial condition so
			// indexing stays safe.
			result.States[i] = padRow(x0s[i], minSteps)
			result.Controls[i] = make([]float64, minSteps)
			result.Sigma[i] = make([]float64, minSteps)
		case result.Failed[i]:
			// Freeze at the last valid state and match the batch shape.
			result.States[i] = resizeStates(result.States[i], minSteps+1)
			result.Controls[i] = resizeFloats(result.Controls[i], minSteps)
			result.Sigma[i] = resizeFloats(result.Sigma[i], minSteps)
		default:
			result.States[i] = result.States[i][:minSteps+1]
			result.Controls[i] = result.Controls[i][:minSteps]
			result.Sigma[i] = result.Sigma[i][:minSteps]
		}
	}

	return result, nil
}

// runRow integrates one row for up to opts.Steps and returns the number
// of steps recorded.
func runRow(ctx context.Context, model plant.Model, ctrl smc.Controller, integ dynamo.Integrator, x0 dynamo.State, opts BatchOptions, out *BatchResult, row int) int {
	states := make([]dynamo.State, 0, opts.Steps+1)
	controls := make([]float64, 0, opts.Steps)
	sigma := make([]float64, 0, opts.Steps)

	x := x0.Clone()
	st := ctrl.InitialState()
	t := 0.0

	states = append(states, x.Clone())

	steps := 0
	for i := 0; i < opts.Steps; i++ {
		if i%64 == 0 && ctx.Err() != nil {
			break
		}

		var diag smc.Diagnostics
		var u float64
		u, st, diag = ctrl.Compute(x, st, t)

		newX := integ.Step(model, x, dynamo.Control{u}, t, opts.Dt)

		if guardErr := checkGuards(newX, model, opts.Options); guardErr != nil {
			out.Failed[row] = true
			out.FailReasons[row] = guardErr.Error()
			break
		}

		x = newX
		t += opts.Dt
		steps++

		states = append(states, x.Clone())
		controls = append(controls, u)
		sigma = append(sigma, diag.Sigma)

		if opts.SettleTol > 0 && t >= opts.GracePeriod && math.Abs(diag.Sigma) < opts.SettleTol {
			out.Settled[row] = true
			break
		}
	}

	out.States[row] = states
	out.Controls[row] = controls
	out.Sigma[row] = sigma
	return steps
}

func padRow(x0 dynamo.State, steps int) []dynamo.State {
	row := make([]dynamo.State, steps+1)
	for k := range row {
		row[k] = x0.Clone()
	}
	return row
}

// resizeStates truncates or extends a trajectory to exactly n entries,
// repeating the last recorded state to extend.
func resizeStates(states []dynamo.State, n int) []dynamo.State {
	if len(states) >= n {
		return states[:n]
	}
	last := states[len(states)-1]
	for len(states) < n {
		states = append(states, last.Clone())
	}
	return states
}

func resizeFloats(vals []float64, n int) []float64 {
	if len(vals) >= n {
		return vals[:n]
	}
	out := make([]float64, n)
	copy(out, vals)
	return out
}

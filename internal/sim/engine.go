package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/theSadeQ/dip-smc-pso-sub019/internal/dynamo"
	"github.com/theSadeQ/dip-smc-pso-sub019/internal/plant"
	"github.com/theSadeQ/dip-smc-pso-sub019/internal/smc"
)

// Runner drives one plant/controller/integrator triple through a
// closed-loop horizon. Guards run in a fixed order after every step:
// state validity, then the energy ceiling, then per-component bounds.
type Runner struct {
	model      plant.Model
	integrator dynamo.Integrator
	ctrl       smc.Controller
	metrics    []dynamo.Metric
	observers  []dynamo.Observer
}

func NewRunner(model plant.Model, integrator dynamo.Integrator, ctrl smc.Controller) *Runner {
	return &Runner{
		model:      model,
		integrator: integrator,
		ctrl:       ctrl,
	}
}

func (r *Runner) AddMetric(m dynamo.Metric)     { r.metrics = append(r.metrics, m) }
func (r *Runner) AddObserver(o dynamo.Observer) { r.observers = append(r.observers, o) }

func (r *Runner) Run(ctx context.Context, x0 dynamo.State, opts Options) (*Result, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	result := &Result{
		Times:    make([]float64, 0, opts.Steps+1),
		States:   make([]dynamo.State, 0, opts.Steps+1),
		Controls: make([]float64, 0, opts.Steps),
		Sigma:    make([]float64, 0, opts.Steps),
		Metrics:  make(map[string]float64),
	}

	for _, m := range r.metrics {
		m.Reset()
	}

	x := x0.Clone()
	st := r.ctrl.InitialState()
	t := 0.0
	dt := opts.Dt

	result.Times = append(result.Times, t)
	result.States = append(result.States, x.Clone())

	initialEnergy := r.model.Energy(x)

	for i := 0; i < opts.Steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		var diag smc.Diagnostics
		var u float64
		u, st, diag = r.ctrl.Compute(x, st, t)
		uc := dynamo.Control{u}

		for _, m := range r.metrics {
			m.Observe(x, uc, t)
		}
		for _, obs := range r.observers {
			obs.OnStep(x, uc, t)
		}

		var newX dynamo.State
		if opts.Adaptive {
			newX, dt = r.adaptiveStep(x, uc, t, dt, opts)
		} else {
			newX = r.integrator.Step(r.model, x, uc, t, dt)
		}

		if guardErr := checkGuards(newX, r.model, opts); guardErr != nil {
			result.Failed = true
			result.Err = &SimError{Time: t, Step: i, Err: guardErr}
			result.FailReason = guardErr.Error()
			break
		}

		x = newX
		t += dt
		result.StepsTaken++

		result.Times = append(result.Times, t)
		result.States = append(result.States, x.Clone())
		result.Controls = append(result.Controls, u)
		result.Sigma = append(result.Sigma, diag.Sigma)

		if opts.SettleTol > 0 && t >= opts.GracePeriod && math.Abs(diag.Sigma) < opts.SettleTol {
			result.Settled = true
			break
		}
	}

	finalEnergy := r.model.Energy(x)
	if initialEnergy != 0 {
		result.EnergyDrift = math.Abs(finalEnergy-initialEnergy) / math.Abs(initialEnergy)
	}

	for _, m := range r.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}

// RunOpenLoop integrates a precomputed control sequence with no feedback.
// The sequence length caps the horizon.
func (r *Runner) RunOpenLoop(ctx context.Context, x0 dynamo.State, controls []float64, opts Options) (*Result, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if len(controls) < opts.Steps {
		opts.Steps = len(controls)
	}

	result := &Result{
		Times:    make([]float64, 0, opts.Steps+1),
		States:   make([]dynamo.State, 0, opts.Steps+1),
		Controls: make([]float64, 0, opts.Steps),
		Metrics:  make(map[string]float64),
	}

	x := x0.Clone()
	t := 0.0

	result.Times = append(result.Times, t)
	result.States = append(result.States, x.Clone())

	for i := 0; i < opts.Steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		uc := dynamo.Control{controls[i]}
		newX := r.integrator.Step(r.model, x, uc, t, opts.Dt)

		if guardErr := checkGuards(newX, r.model, opts); guardErr != nil {
			result.Failed = true
			result.Err = &SimError{Time: t, Step: i, Err: guardErr}
			result.FailReason = guardErr.Error()
			break
		}

		x = newX
		t += opts.Dt
		result.StepsTaken++

		result.Times = append(result.Times, t)
		result.States = append(result.States, x.Clone())
		result.Controls = append(result.Controls, controls[i])
	}

	return result, nil
}

// checkGuards applies the post-step safety checks in order: validity,
// energy ceiling, component bounds. The finiteness check always runs;
// the other two only when configured. A tripped guard comes back as an
// error wrapping the matching dynamo sentinel.
func checkGuards(x dynamo.State, model plant.Model, opts Options) error {
	if !x.IsValid() {
		return dynamo.ErrInvalidState
	}
	if opts.EnergyLimit > 0 {
		if e := model.Energy(x); e > opts.EnergyLimit {
			return fmt.Errorf("%w: %.4g over limit %.4g", dynamo.ErrEnergyLimit, e, opts.EnergyLimit)
		}
	}
	if opts.StateBounds != nil {
		for i, b := range opts.StateBounds {
			if x[i] < b.Min || x[i] > b.Max {
				return fmt.Errorf("%w: component %d = %.4g outside [%.4g, %.4g]",
					dynamo.ErrStateBounds, i, x[i], b.Min, b.Max)
			}
		}
	}
	return nil
}

func (r *Runner) adaptiveStep(x dynamo.State, u dynamo.Control, t, dt float64, opts Options) (dynamo.State, float64) {
	if adaptive, ok := r.integrator.(dynamo.AdaptiveIntegrator); ok {
		newX, nextDt, err := adaptive.StepAdaptive(r.model, x, u, t, dt, opts.Tolerance)
		if err == nil {
			if opts.MinDt > 0 {
				nextDt = math.Max(nextDt, opts.MinDt)
			}
			if opts.MaxDt > 0 {
				nextDt = math.Min(nextDt, opts.MaxDt)
			}
			return newX, nextDt
		}
	}
	return r.integrator.Step(r.model, x, u, t, dt), dt
}

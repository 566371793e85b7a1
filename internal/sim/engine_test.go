package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/theSadeQ/dip-smc-pso-sub019/internal/dynamo"
	"github.com/theSadeQ/dip-smc-pso-sub019/internal/integrators"
	"github.com/theSadeQ/dip-smc-pso-sub019/internal/plant"
	"github.com/theSadeQ/dip-smc-pso-sub019/internal/smc"
)

func testRunner(t *testing.T) *Runner {
	t.Helper()
	model, err := plant.NewSimplified(plant.DefaultParams())
	if err != nil {
		t.Fatalf("new plant: %v", err)
	}
	ctrl, err := smc.New(smc.Classical, nil, smc.DefaultOptions())
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	return NewRunner(model, integrators.NewRK4(), ctrl)
}

func TestRunRecordsInitialCondition(t *testing.T) {
	r := testRunner(t)
	x0 := dynamo.State{0, 0.1, 0.1, 0, 0, 0}

	res, err := r.Run(context.Background(), x0, Options{Dt: 0.01, Steps: 100})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(res.States) != 101 {
		t.Fatalf("expected 101 states, got %d", len(res.States))
	}
	if len(res.Controls) != 100 || len(res.Sigma) != 100 {
		t.Fatalf("expected 100 controls and sigmas, got %d and %d", len(res.Controls), len(res.Sigma))
	}
	for i := range x0 {
		if res.States[0][i] != x0[i] {
			t.Fatalf("state 0 should be the initial condition, got %v", res.States[0])
		}
	}
	if res.Failed || res.Settled {
		t.Errorf("unguarded full-horizon run should neither fail nor settle")
	}
	if math.Abs(res.Times[100]-1.0) > 1e-9 {
		t.Errorf("expected final time 1.0, got %g", res.Times[100])
	}
}

func TestRunEnergyGuardStopsImmediately(t *testing.T) {
	r := testRunner(t)
	x0 := dynamo.State{0, 0.1, 0.1, 0, 0, 0}

	res, err := r.Run(context.Background(), x0, Options{
		Dt:          0.01,
		Steps:       100,
		EnergyLimit: 0.001,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if !res.Failed {
		t.Fatal("expected energy guard to trip")
	}
	if !errors.Is(res.Err, dynamo.ErrEnergyLimit) {
		t.Errorf("expected the energy sentinel, got %v", res.Err)
	}
	var simErr *SimError
	if !errors.As(res.Err, &simErr) {
		t.Fatalf("expected a SimError, got %T", res.Err)
	}
	if simErr.Step != 0 {
		t.Errorf("guard should locate the first step, got %d", simErr.Step)
	}
	if res.FailReason != res.Err.Error() {
		t.Errorf("fail reason %q should carry the error text %q", res.FailReason, res.Err)
	}
	if res.StepsTaken != 0 {
		t.Errorf("guard should trip on the first step, took %d", res.StepsTaken)
	}
}

func TestRunStateBoundsGuard(t *testing.T) {
	r := testRunner(t)

	bounds := make([]Bound, dynamo.StateSize)
	for i := range bounds {
		bounds[i] = Bound{Min: -100, Max: 100}
	}
	bounds[dynamo.IdxCartPos] = Bound{Min: -0.001, Max: 0.001}

	res, err := r.Run(context.Background(), dynamo.State{0, 0.2, 0.2, 0, 0, 0}, Options{
		Dt:          0.01,
		Steps:       500,
		StateBounds: bounds,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if !res.Failed {
		t.Fatal("expected bounds guard to trip")
	}
	if !errors.Is(res.Err, dynamo.ErrStateBounds) {
		t.Errorf("expected the bounds sentinel, got %v", res.Err)
	}
	if res.StepsTaken >= 500 {
		t.Error("guard should stop the run early")
	}
}

func TestRunSettlesEarly(t *testing.T) {
	r := testRunner(t)

	res, err := r.Run(context.Background(), dynamo.State{0, 0.05, 0.05, 0, 0, 0}, Options{
		Dt:          0.01,
		Steps:       1000,
		SettleTol:   10.0,
		GracePeriod: 0.05,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if !res.Settled {
		t.Fatal("expected early settle with a generous tolerance")
	}
	if res.StepsTaken >= 1000 {
		t.Error("settled run should stop before the full horizon")
	}
	if res.Failed {
		t.Error("settling is not a failure")
	}
}

func TestClassicalCatchesLean(t *testing.T) {
	model, err := plant.NewSimplified(plant.DefaultParams())
	if err != nil {
		t.Fatalf("new plant: %v", err)
	}
	ctrl, err := smc.New(smc.Classical, []float64{5, 5, 5, 0.5, 5, 1}, smc.DefaultOptions())
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	r := NewRunner(model, integrators.NewRK4(), ctrl)

	res, err := r.Run(context.Background(), dynamo.State{0, 0.1, 0.1, 0, 0, 0}, Options{
		Dt:    0.01,
		Steps: 100,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Failed {
		t.Fatalf("run failed: %s", res.FailReason)
	}

	// The surface starts at 1.0; reaching must pull it down, not feed it.
	finalSigma := res.Sigma[len(res.Sigma)-1]
	if math.Abs(finalSigma) > 0.3 {
		t.Errorf("surface should shrink from 1.0, ended at %g", finalSigma)
	}
	finalTheta1 := res.States[len(res.States)-1][dynamo.IdxAngle1]
	if math.Abs(finalTheta1) > 0.5 {
		t.Errorf("link 1 should stay near upright, ended at %g", finalTheta1)
	}
}

func TestRunStopsOnNonFiniteState(t *testing.T) {
	r := testRunner(t)

	controls := make([]float64, 50)
	controls[3] = math.NaN()
	res, err := r.RunOpenLoop(context.Background(), dynamo.State{0, 0.1, 0.1, 0, 0, 0}, controls, Options{
		Dt:    0.01,
		Steps: 50,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if !res.Failed {
		t.Fatal("non-finite state should always trip the guard")
	}
	if !errors.Is(res.Err, dynamo.ErrInvalidState) {
		t.Errorf("expected the invalid-state sentinel, got %v", res.Err)
	}
	if res.StepsTaken != 3 {
		t.Errorf("run should stop at the poisoned step, took %d", res.StepsTaken)
	}
}

func TestRunOpenLoopUnforcedLeanGrows(t *testing.T) {
	r := testRunner(t)

	controls := make([]float64, 200)
	res, err := r.RunOpenLoop(context.Background(), dynamo.State{0, 0.1, 0.1, 0, 0, 0}, controls, Options{
		Dt:    0.001,
		Steps: 200,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	first := res.States[0][dynamo.IdxAngle1]
	last := res.States[len(res.States)-1][dynamo.IdxAngle1]
	if last <= first {
		t.Errorf("unforced lean should grow under gravity: %g -> %g", first, last)
	}
}

func TestRunRejectsBadOptions(t *testing.T) {
	r := testRunner(t)

	if _, err := r.Run(context.Background(), dynamo.NewState(), Options{Dt: 0, Steps: 10}); err == nil {
		t.Error("zero dt should be rejected")
	}
	if _, err := r.Run(context.Background(), dynamo.NewState(), Options{Dt: 0.01, Steps: 0}); err == nil {
		t.Error("zero steps should be rejected")
	}
	_, err := r.Run(context.Background(), dynamo.NewState(), Options{
		Dt: 0.01, Steps: 10, StateBounds: []Bound{{-1, 1}},
	})
	if err == nil {
		t.Error("partial state bounds should be rejected")
	} else if !errors.Is(err, dynamo.ErrDimensionMismatch) {
		t.Errorf("expected the dimension sentinel, got %v", err)
	}
}

func TestRunHonorsContextCancellation(t *testing.T) {
	r := testRunner(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := r.Run(ctx, dynamo.State{0, 0.1, 0.1, 0, 0, 0}, Options{Dt: 0.01, Steps: 1000})
	if err == nil {
		t.Fatal("expected context error")
	}
	if res == nil {
		t.Fatal("partial result should still be returned")
	}
}

func TestRunComputesMetrics(t *testing.T) {
	r := testRunner(t)
	r.AddMetric(&countingMetric{})

	res, err := r.Run(context.Background(), dynamo.State{0, 0.1, 0.1, 0, 0, 0}, Options{Dt: 0.01, Steps: 50})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Metrics["count"] != 50 {
		t.Errorf("metric should observe every step, got %g", res.Metrics["count"])
	}
}

type countingMetric struct {
	n int
}

func (c *countingMetric) Name() string                                       { return "count" }
func (c *countingMetric) Observe(x dynamo.State, u dynamo.Control, t float64) { c.n++ }
func (c *countingMetric) Value() float64                                     { return float64(c.n) }
func (c *countingMetric) Reset()                                             { c.n = 0 }

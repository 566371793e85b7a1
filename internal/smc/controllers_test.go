package smc

import (
	"math"
	"testing"

	"github.com/theSadeQ/dip-smc-pso-sub019/internal/dynamo"
	"github.com/theSadeQ/dip-smc-pso-sub019/internal/plant"
)

func TestClassicalCorrectsPositiveLean(t *testing.T) {
	model, err := plant.NewSimplified(plant.DefaultParams())
	if err != nil {
		t.Fatalf("new plant: %v", err)
	}
	ctrl, err := New(Classical, nil, DefaultOptions())
	if err != nil {
		t.Fatalf("new classical: %v", err)
	}

	// Catching a forward lean means driving the cart under it. The cart
	// force tips both links backward through the mass-matrix coupling,
	// so positive sigma needs positive force.
	x := dynamo.State{0, 0.1, 0.1, 0, 0, 0}
	u, _, d := ctrl.Compute(x, ctrl.InitialState(), 0)
	if d.Sigma <= 0 {
		t.Fatalf("expected positive sigma, got %g", d.Sigma)
	}
	if u <= 0 {
		t.Errorf("expected positive control for positive sigma, got %g", u)
	}

	// Verify against the plant: the commanded force must pull the
	// surface derivative below its unforced value. Rates are zero here,
	// so only the link accelerations contribute to sigma-dot.
	spec := SpecFor(Classical)
	lam1, lam2 := spec.Defaults[2], spec.Defaults[3]
	sdot := func(force float64) float64 {
		res := model.ComputeDynamics(x, force, 0)
		if !res.OK {
			t.Fatalf("dynamics failed for force %g", force)
		}
		return lam1*res.Derivative[dynamo.IdxRate1] + lam2*res.Derivative[dynamo.IdxRate2]
	}
	if sdot(u) >= sdot(0) {
		t.Errorf("commanded force should drive sigma down: sdot(u)=%g, sdot(0)=%g", sdot(u), sdot(0))
	}

	// Mirror state flips the sign.
	xm := dynamo.State{0, -0.1, -0.1, 0, 0, 0}
	um, _, _ := ctrl.Compute(xm, ctrl.InitialState(), 0)
	if math.Abs(u+um) > 1e-12 {
		t.Errorf("control not antisymmetric: %g vs %g", u, um)
	}
}

func TestAllControllersPushTowardLean(t *testing.T) {
	x := dynamo.State{0, 0.1, 0.1, 0, 0, 0}

	for _, typ := range []Type{Classical, Adaptive, SuperTwisting, HybridAdaptiveSTA} {
		ctrl, err := New(typ, nil, DefaultOptions())
		if err != nil {
			t.Fatalf("new %s: %v", typ, err)
		}
		u, _, d := ctrl.Compute(x, ctrl.InitialState(), 0)
		if d.Sigma <= 0 {
			t.Fatalf("%s: expected positive sigma, got %g", typ, d.Sigma)
		}
		if u <= 0 {
			t.Errorf("%s: forward lean needs positive force, got %g", typ, u)
		}
	}
}

func TestClassicalSaturates(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxForce = 1.0

	ctrl, _ := New(Classical, []float64{50, 50, 50, 5, 80, 10}, opts)
	u, _, d := ctrl.Compute(dynamo.State{0, 1, 1, 0, 2, 2}, ctrl.InitialState(), 0)

	if math.Abs(u) > 1.0 {
		t.Errorf("control %g exceeds max force 1.0", u)
	}
	if !d.Saturated {
		t.Error("expected saturation flag")
	}
}

func TestClassicalZeroAtEquilibrium(t *testing.T) {
	ctrl, _ := New(Classical, nil, DefaultOptions())
	u, _, d := ctrl.Compute(dynamo.NewState(), ctrl.InitialState(), 0)
	if u != 0 || d.Sigma != 0 {
		t.Errorf("expected zero control at upright rest, got u=%g sigma=%g", u, d.Sigma)
	}
}

func TestSuperTwistingIntegratorEvolves(t *testing.T) {
	ctrl, err := New(SuperTwisting, nil, DefaultOptions())
	if err != nil {
		t.Fatalf("new sta: %v", err)
	}

	x := dynamo.State{0, 0.1, 0.1, 0, 0, 0}
	st := ctrl.InitialState()

	_, st1, _ := ctrl.Compute(x, st, 0)
	z1 := st1.(STAState).Integrator
	if z1 >= 0 {
		t.Errorf("integrator should move negative for positive sigma, got %g", z1)
	}

	_, st2, _ := ctrl.Compute(x, st1, 0.01)
	z2 := st2.(STAState).Integrator
	if z2 >= z1 {
		t.Errorf("integrator should keep integrating: %g then %g", z1, z2)
	}
}

func TestSuperTwistingContinuousInsideBoundaryLayer(t *testing.T) {
	ctrl, _ := New(SuperTwisting, nil, DefaultOptions())

	// Two states with tiny sigma difference should give nearby controls;
	// the boundary layer removes the sign discontinuity.
	xa := dynamo.State{0, 1e-5, 0, 0, 0, 0}
	xb := dynamo.State{0, -1e-5, 0, 0, 0, 0}

	ua, _, _ := ctrl.Compute(xa, ctrl.InitialState(), 0)
	ub, _, _ := ctrl.Compute(xb, ctrl.InitialState(), 0)

	if math.Abs(ua-ub) > 0.1 {
		t.Errorf("control jump %g across sigma=0 suggests chattering", math.Abs(ua-ub))
	}
}

func TestAdaptiveGainGrowsAndClamps(t *testing.T) {
	opts := DefaultOptions()
	opts.GainMax = 12.0
	opts.GainInit = 1.0
	opts.LeakRate = 0

	ctrl, err := New(Adaptive, []float64{10, 8, 5, 4, 50}, opts)
	if err != nil {
		t.Fatalf("new adaptive: %v", err)
	}

	x := dynamo.State{0, 0.2, 0.2, 0, 0, 0}
	st := ctrl.InitialState()

	prev := st.(AdaptiveState).Gain
	grew := false
	for i := 0; i < 200; i++ {
		_, next, d := ctrl.Compute(x, st, float64(i)*0.01)
		if d.EmergencyReset {
			// Ceiling proximity triggers the reset path; that is the clamp
			// doing its job.
			st = next
			break
		}
		gain := next.(AdaptiveState).Gain
		if gain > prev {
			grew = true
		}
		if gain > opts.GainMax {
			t.Fatalf("gain %g exceeded ceiling %g", gain, opts.GainMax)
		}
		prev = gain
		st = next
	}

	if !grew {
		t.Error("adaptive gain never grew outside the dead zone")
	}
}

func TestAdaptiveDeadZoneFreezesGain(t *testing.T) {
	opts := DefaultOptions()
	opts.DeadZone = 10.0 // everything inside

	ctrl, _ := New(Adaptive, nil, opts)
	x := dynamo.State{0, 0.1, 0.1, 0, 0, 0}

	st := ctrl.InitialState()
	_, next, _ := ctrl.Compute(x, st, 0)

	if next.(AdaptiveState).Gain != st.(AdaptiveState).Gain {
		t.Error("gain should not adapt inside the dead zone")
	}
}

func TestAdaptiveEmergencyResetOnDivergedState(t *testing.T) {
	ctrl, _ := New(Adaptive, nil, DefaultOptions())

	x := dynamo.State{1000, 3, 3, 500, 50, 50}
	u, st, d := ctrl.Compute(x, ctrl.InitialState(), 0)

	if !d.EmergencyReset {
		t.Fatal("expected emergency reset for diverged state")
	}
	if u != 0 {
		t.Errorf("reset control should be 0, got %g", u)
	}
	if st.(AdaptiveState).Gain != DefaultOptions().GainInit {
		t.Errorf("reset should restore initial gain, got %g", st.(AdaptiveState).Gain)
	}
	if d.ResetReason == "" {
		t.Error("reset reason should be reported")
	}
}

func TestHybridAdaptsBothGains(t *testing.T) {
	ctrl, err := New(HybridAdaptiveSTA, nil, DefaultOptions())
	if err != nil {
		t.Fatalf("new hybrid: %v", err)
	}

	x := dynamo.State{0, 0.2, 0.2, 0, 0, 0}
	st := ctrl.InitialState()
	init := st.(HybridState)

	for i := 0; i < 50; i++ {
		_, st, _ = ctrl.Compute(x, st, float64(i)*0.01)
	}

	final := st.(HybridState)
	if final.Gain1 <= init.Gain1 {
		t.Errorf("k1 estimate should grow: %g -> %g", init.Gain1, final.Gain1)
	}
	if final.Gain2 <= init.Gain2 {
		t.Errorf("k2 estimate should grow: %g -> %g", init.Gain2, final.Gain2)
	}
	if final.Integrator == 0 {
		t.Error("sta integrator should have moved")
	}
}

func TestHybridRecoversFromForeignState(t *testing.T) {
	ctrl, _ := New(HybridAdaptiveSTA, nil, DefaultOptions())

	// Passing the wrong state kind must not panic; the controller falls
	// back to its initial state.
	u, st, _ := ctrl.Compute(dynamo.State{0, 0.1, 0, 0, 0, 0}, ClassicalState{}, 0)
	if _, ok := st.(HybridState); !ok {
		t.Fatalf("expected HybridState, got %T", st)
	}
	if math.IsNaN(u) {
		t.Error("control should be finite")
	}
}

func TestControllersStayWithinMaxForce(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxForce = 10

	states := []dynamo.State{
		{0, 0.5, -0.5, 1, 2, -2},
		{1, -1, 1, -3, 5, -5},
		{0, 0.01, 0.01, 0, 0, 0},
	}

	for _, typ := range []Type{Classical, Adaptive, SuperTwisting, HybridAdaptiveSTA} {
		ctrl, err := New(typ, nil, opts)
		if err != nil {
			t.Fatalf("new %s: %v", typ, err)
		}
		st := ctrl.InitialState()
		for _, x := range states {
			var u float64
			u, st, _ = ctrl.Compute(x, st, 0)
			if math.Abs(u) > opts.MaxForce {
				t.Errorf("%s: control %g exceeds max force", typ, u)
			}
		}
	}
}

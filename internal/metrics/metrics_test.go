package metrics

import (
	"math"
	"testing"

	"github.com/theSadeQ/dip-smc-pso-sub019/internal/dynamo"
	"github.com/theSadeQ/dip-smc-pso-sub019/internal/plant"
)

func TestControlEffortIntegratesSquaredForce(t *testing.T) {
	m := NewControlEffort()

	m.Observe(dynamo.NewState(), dynamo.Control{2.0}, 0)
	m.Observe(dynamo.NewState(), dynamo.Control{-4.0}, 0.01)
	m.Observe(dynamo.NewState(), dynamo.Control{2.0}, 0.02)

	// 16*0.01 + 4*0.01; the first sample only anchors the clock.
	if got := m.Value(); math.Abs(got-0.20) > 1e-12 {
		t.Errorf("expected integrated effort 0.20, got %g", got)
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero effort after reset")
	}
	m.Observe(dynamo.NewState(), dynamo.Control{100}, 0)
	if m.Value() != 0 {
		t.Error("single sample spans no time, effort should stay zero")
	}
}

func TestControlEffortSignInvariant(t *testing.T) {
	pos := NewControlEffort()
	neg := NewControlEffort()
	for i := 0; i < 5; i++ {
		tm := float64(i) * 0.01
		pos.Observe(dynamo.NewState(), dynamo.Control{3.0}, tm)
		neg.Observe(dynamo.NewState(), dynamo.Control{-3.0}, tm)
	}
	if pos.Value() != neg.Value() {
		t.Errorf("effort should not depend on force direction: %g vs %g",
			pos.Value(), neg.Value())
	}
}

func TestChatteringMeasuresSwitchRate(t *testing.T) {
	m := NewChattering()

	// Square wave at +-1 every 0.01s: |du|/dt = 200 per transition.
	u := 1.0
	for i := 0; i < 10; i++ {
		m.Observe(dynamo.NewState(), dynamo.Control{u}, float64(i)*0.01)
		u = -u
	}

	if got := m.Value(); math.Abs(got-200.0) > 1e-9 {
		t.Errorf("expected chattering 200, got %g", got)
	}

	m.Reset()
	m.Observe(dynamo.NewState(), dynamo.Control{1}, 0)
	if m.Value() != 0 {
		t.Error("single sample should give zero chattering")
	}
}

func TestChatteringConstantControlIsZero(t *testing.T) {
	m := NewChattering()
	for i := 0; i < 5; i++ {
		m.Observe(dynamo.NewState(), dynamo.Control{3.5}, float64(i)*0.01)
	}
	if m.Value() != 0 {
		t.Errorf("constant control should have zero chattering, got %g", m.Value())
	}
}

func TestStabilityCountsUprightFraction(t *testing.T) {
	m := NewStability(0.2, 1.0)

	m.Observe(dynamo.State{0, 0.1, 0.05, 0, 0.5, 0}, nil, 0)   // upright
	m.Observe(dynamo.State{0, 0.3, 0.05, 0, 0, 0}, nil, 0.01)  // link 1 leaning
	m.Observe(dynamo.State{0, 0.1, 0.25, 0, 0, 0}, nil, 0.02)  // link 2 leaning
	m.Observe(dynamo.State{0, 0.1, 0.1, 0, 0, 2.0}, nil, 0.03) // swinging too fast

	if got := m.Value(); math.Abs(got-0.25) > 1e-12 {
		t.Errorf("expected upright fraction 0.25, got %g", got)
	}
}

func TestStabilityIgnoresCart(t *testing.T) {
	m := NewStability(DefaultUprightAngle, DefaultUprightRate)

	// Cart far from origin and moving, links balanced.
	m.Observe(dynamo.State{5.0, 0.01, 0.01, 2.0, 0, 0}, nil, 0)

	if got := m.Value(); got != 1.0 {
		t.Errorf("cart motion should not count against stability, got %g", got)
	}
}

func TestEnergyDriftTracksWorstDeviation(t *testing.T) {
	model, err := plant.NewSimplified(plant.DefaultParams())
	if err != nil {
		t.Fatalf("new plant: %v", err)
	}

	m := NewEnergyDrift(model)

	x0 := dynamo.State{0, 0.3, 0.2, 0, 0, 0}
	m.Observe(x0, nil, 0)
	if m.Value() != 0 {
		t.Errorf("first sample should give zero drift, got %g", m.Value())
	}

	// Same state again: still zero drift.
	m.Observe(x0, nil, 0.01)
	if m.Value() != 0 {
		t.Errorf("identical state should not drift, got %g", m.Value())
	}

	// A state with different energy registers a drift.
	m.Observe(dynamo.State{0, 0.3, 0.2, 1.0, 0, 0}, nil, 0.02)
	if m.Value() <= 0 {
		t.Error("energy change should register as drift")
	}
}

package storage

import (
	"testing"

	"github.com/theSadeQ/dip-smc-pso-sub019/internal/dynamo"
	"github.com/theSadeQ/dip-smc-pso-sub019/internal/pso"
	"github.com/theSadeQ/dip-smc-pso-sub019/internal/sim"
)

func sampleResult() *sim.Result {
	return &sim.Result{
		Times: []float64{0, 0.01, 0.02},
		States: []dynamo.State{
			{0, 0.1, 0.1, 0, 0, 0},
			{0.001, 0.099, 0.098, 0.1, -0.1, -0.2},
			{0.002, 0.097, 0.095, 0.2, -0.2, -0.3},
		},
		Controls: []float64{-1.0, -0.9},
		Sigma:    []float64{1.0, 0.95},
		Metrics:  map[string]float64{"control_effort": 0.95},
		Settled:  false,
	}
}

func TestSaveAndLoadRun(t *testing.T) {
	store := New(t.TempDir())
	if err := store.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}

	gains := []float64{5, 5, 5, 0.5, 0.5, 0.5}
	runID, err := store.SaveRun("simplified", "rk4", "classical_smc", gains, 0.01, 0.02, 42, sampleResult())
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	meta, err := store.Load(runID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if meta.Controller != "classical_smc" || meta.Model != "simplified" {
		t.Errorf("metadata mismatch: %+v", meta)
	}
	if len(meta.Gains) != 6 || meta.Gains[0] != 5 {
		t.Errorf("gains lost: %v", meta.Gains)
	}
	if meta.Metrics["control_effort"] != 0.95 {
		t.Errorf("metrics lost: %v", meta.Metrics)
	}
}

func TestLoadStatesRoundTrip(t *testing.T) {
	store := New(t.TempDir())
	if err := store.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}

	runID, err := store.SaveRun("simplified", "rk4", "classical_smc", nil, 0.01, 0.02, 1, sampleResult())
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	states, times, err := store.LoadStates(runID)
	if err != nil {
		t.Fatalf("load states: %v", err)
	}

	if len(times) != 3 || len(states) != 3 {
		t.Fatalf("expected 3 rows, got %d times and %d states", len(times), len(states))
	}
	// Six state values plus force and sigma per row.
	if len(states[1]) != dynamo.StateSize+2 {
		t.Fatalf("expected %d columns, got %d", dynamo.StateSize+2, len(states[1]))
	}
	if states[1][dynamo.StateSize] != -1.0 {
		t.Errorf("control column mismatch: %g", states[1][dynamo.StateSize])
	}
	if states[0][dynamo.StateSize] != 0 {
		t.Errorf("initial condition row should carry zero control, got %g", states[0][dynamo.StateSize])
	}
}

func TestListRuns(t *testing.T) {
	store := New(t.TempDir())
	if err := store.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}

	if _, err := store.SaveRun("simplified", "rk4", "classical_smc", nil, 0.01, 0.02, 1, sampleResult()); err != nil {
		t.Fatalf("save: %v", err)
	}

	runs, err := store.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
}

func TestListMissingDirIsEmpty(t *testing.T) {
	store := New(t.TempDir() + "/never_created")

	runs, err := store.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestSaveAndLoadTuning(t *testing.T) {
	store := New(t.TempDir())
	if err := store.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}

	history := []pso.IterationStats{
		{Iteration: 0, BestCost: 10, MeanCost: 50, WorstCost: 200, Inertia: 0.9},
		{Iteration: 1, BestCost: 4, MeanCost: 20, WorstCost: 90, Inertia: 0.88},
	}
	gains := []float64{6, 4, 8, 1, 2, 0.3}

	id, err := store.SaveTuning("classical_smc", 7, gains, 4.0, history)
	if err != nil {
		t.Fatalf("save tuning: %v", err)
	}

	record, err := store.LoadTuning(id)
	if err != nil {
		t.Fatalf("load tuning: %v", err)
	}

	if record.BestCost != 4.0 || len(record.BestGains) != 6 {
		t.Errorf("record mismatch: %+v", record)
	}
	if len(record.History) != 2 || record.History[1].BestCost != 4 {
		t.Errorf("history lost: %+v", record.History)
	}
}

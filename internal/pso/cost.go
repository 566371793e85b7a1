package pso

import (
	"context"
	"fmt"
	"math"

	"github.com/theSadeQ/dip-smc-pso-sub019/internal/dynamo"
	"github.com/theSadeQ/dip-smc-pso-sub019/internal/plant"
	"github.com/theSadeQ/dip-smc-pso-sub019/internal/sim"
	"github.com/theSadeQ/dip-smc-pso-sub019/internal/smc"
)

// CostWeights blends the tracking, effort, smoothness and surface terms
// of the tuning objective.
type CostWeights struct {
	StateError    float64
	ControlEffort float64
	ControlRate   float64
	Sigma         float64
}

func DefaultCostWeights() CostWeights {
	return CostWeights{
		StateError:    50.0,
		ControlEffort: 0.2,
		ControlRate:   0.1,
		Sigma:         1.0,
	}
}

// SimEvaluator scores gain candidates by closed-loop simulation: one
// batch run per initial condition, every candidate a row. Costs average
// across the initial conditions, so passing several perturbed states
// gives a Monte Carlo estimate of robustness.
type SimEvaluator struct {
	Model          plant.Model
	Type           smc.Type
	ControllerOpts smc.Options
	SimOpts        sim.BatchOptions
	Weights        CostWeights

	// X0s are the evaluation initial conditions; at least one required.
	X0s []dynamo.State
}

func (e *SimEvaluator) Evaluate(ctx context.Context, positions [][]float64) ([]float64, error) {
	if len(e.X0s) == 0 {
		return nil, fmt.Errorf("pso: evaluator needs at least one initial condition")
	}

	costs := make([]float64, len(positions))

	for _, x0 := range e.X0s {
		res, err := sim.RunGainBatch(ctx, e.Model, e.Type, positions, e.ControllerOpts, x0, e.SimOpts)
		if err != nil {
			return nil, err
		}
		for i := range positions {
			costs[i] += e.rowCost(res, i)
		}
	}

	inv := 1.0 / float64(len(e.X0s))
	for i := range costs {
		costs[i] *= inv
	}
	return costs, nil
}

// rowCost integrates the weighted objective over one recorded
// trajectory, normalized by elapsed time so truncated batches remain
// comparable. Failed rows and empty trajectories take the penalty.
func (e *SimEvaluator) rowCost(res *sim.BatchResult, row int) float64 {
	if res.Failed[row] || res.Steps == 0 {
		return PenaltyCost
	}

	dt := e.SimOpts.Dt
	elapsed := float64(res.Steps) * dt

	var ise, effort, rate, surf float64
	for k := 0; k < res.Steps; k++ {
		x := res.States[row][k+1]
		for _, v := range x {
			ise += v * v * dt
		}

		u := res.Controls[row][k]
		effort += u * u * dt

		if k > 0 {
			du := (u - res.Controls[row][k-1]) / dt
			rate += du * du * dt
		}

		s := res.Sigma[row][k]
		surf += s * s * dt
	}

	cost := (e.Weights.StateError*ise +
		e.Weights.ControlEffort*effort +
		e.Weights.ControlRate*rate +
		e.Weights.Sigma*surf) / elapsed

	if math.IsNaN(cost) || math.IsInf(cost, 0) {
		return PenaltyCost
	}
	// A completed trajectory always ranks strictly below any failed one,
	// however wild its excursions.
	if cost >= PenaltyCost {
		return PenaltyCost - 1
	}
	return cost
}

package pso

import (
	"context"
	"fmt"
	"math"
	"math/rand"
)

// PenaltyCost is the sentinel assigned to candidates that cannot be
// evaluated: invalid gains, diverged simulations, or non-finite cost
// terms. It is finite so the swarm can still rank penalized particles
// against each other and pull them back toward feasible space.
const PenaltyCost = 1e6

// Evaluator scores a whole swarm in one call. Batching lets the
// implementation simulate all candidates in parallel; the call is the
// natural synchronization barrier between iterations.
type Evaluator interface {
	Evaluate(ctx context.Context, positions [][]float64) ([]float64, error)
}

// Config sets the swarm hyperparameters. Inertia anneals linearly from
// InertiaStart to InertiaEnd over the iteration budget.
type Config struct {
	Particles  int
	Iterations int

	InertiaStart float64
	InertiaEnd   float64
	Cognitive    float64
	Social       float64

	// VelocityClampFrac bounds each velocity component to this fraction
	// of its dimension's search range.
	VelocityClampFrac float64

	Bounds []Range
	Seed   int64
}

func DefaultConfig(bounds []Range) Config {
	return Config{
		Particles:         30,
		Iterations:        50,
		InertiaStart:      0.9,
		InertiaEnd:        0.4,
		Cognitive:         1.49445,
		Social:            1.49445,
		VelocityClampFrac: 0.2,
		Bounds:            bounds,
		Seed:              1,
	}
}

func (c Config) validate() error {
	if c.Particles <= 0 {
		return fmt.Errorf("pso: particles must be positive, got %d", c.Particles)
	}
	if c.Iterations <= 0 {
		return fmt.Errorf("pso: iterations must be positive, got %d", c.Iterations)
	}
	if len(c.Bounds) == 0 {
		return fmt.Errorf("pso: search bounds are required")
	}
	for d, b := range c.Bounds {
		if b.Max <= b.Min {
			return fmt.Errorf("pso: bound %d is empty (min=%g, max=%g)", d, b.Min, b.Max)
		}
	}
	if c.VelocityClampFrac <= 0 || c.VelocityClampFrac > 1 {
		return fmt.Errorf("pso: velocity clamp fraction must be in (0, 1], got %g", c.VelocityClampFrac)
	}
	return nil
}

// IterationStats records one iteration of swarm progress.
type IterationStats struct {
	Iteration int
	BestCost  float64
	MeanCost  float64
	WorstCost float64
	Inertia   float64
}

// inertiaAt interpolates the inertia weight linearly across the
// iteration budget.
func inertiaAt(start, end float64, iter, total int) float64 {
	if total <= 1 {
		return start
	}
	frac := float64(iter) / float64(total-1)
	return start + (end-start)*frac
}

// Tuner runs particle swarm optimization against a batch evaluator.
type Tuner struct {
	cfg  Config
	eval Evaluator
}

func NewTuner(cfg Config, eval Evaluator) (*Tuner, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if eval == nil {
		return nil, fmt.Errorf("pso: evaluator is required")
	}
	return &Tuner{cfg: cfg, eval: eval}, nil
}

// Optimize runs the configured iteration budget and returns the global
// best position, its cost, and per-iteration statistics. The best-cost
// series is non-increasing. A fixed seed makes the run deterministic for
// a deterministic evaluator.
func (t *Tuner) Optimize(ctx context.Context) ([]float64, float64, []IterationStats, error) {
	cfg := t.cfg
	rng := rand.New(rand.NewSource(cfg.Seed))

	vmax := make([]float64, len(cfg.Bounds))
	for d, b := range cfg.Bounds {
		vmax[d] = cfg.VelocityClampFrac * b.span()
	}

	swarm := newSwarm(cfg.Particles, cfg.Bounds, vmax, rng)

	bestPos := append([]float64(nil), swarm[0].Pos...)
	bestCost := math.Inf(1)

	history := make([]IterationStats, 0, cfg.Iterations)
	positions := make([][]float64, cfg.Particles)

	for iter := 0; iter < cfg.Iterations; iter++ {
		if err := ctx.Err(); err != nil {
			return bestPos, bestCost, history, err
		}

		for i := range swarm {
			positions[i] = swarm[i].Pos
		}

		costs, err := t.eval.Evaluate(ctx, positions)
		if err != nil {
			return bestPos, bestCost, history, err
		}
		if len(costs) != cfg.Particles {
			return bestPos, bestCost, history,
				fmt.Errorf("pso: evaluator returned %d costs for %d particles", len(costs), cfg.Particles)
		}

		sum := 0.0
		worst := math.Inf(-1)
		for i := range swarm {
			cost := costs[i]
			if math.IsNaN(cost) || math.IsInf(cost, 0) {
				cost = PenaltyCost
			}
			swarm[i].Cost = cost
			sum += cost
			if cost > worst {
				worst = cost
			}

			if cost < swarm[i].BestCost {
				swarm[i].BestCost = cost
				copy(swarm[i].BestPos, swarm[i].Pos)
			}
			if cost < bestCost {
				bestCost = cost
				copy(bestPos, swarm[i].Pos)
			}
		}

		w := inertiaAt(cfg.InertiaStart, cfg.InertiaEnd, iter, cfg.Iterations)
		history = append(history, IterationStats{
			Iteration: iter,
			BestCost:  bestCost,
			MeanCost:  sum / float64(cfg.Particles),
			WorstCost: worst,
			Inertia:   w,
		})

		for i := range swarm {
			p := &swarm[i]
			for d := range p.Pos {
				r1, r2 := rng.Float64(), rng.Float64()
				p.Vel[d] = w*p.Vel[d] +
					cfg.Cognitive*r1*(p.BestPos[d]-p.Pos[d]) +
					cfg.Social*r2*(bestPos[d]-p.Pos[d])

				if p.Vel[d] > vmax[d] {
					p.Vel[d] = vmax[d]
				} else if p.Vel[d] < -vmax[d] {
					p.Vel[d] = -vmax[d]
				}

				p.Pos[d] += p.Vel[d]
			}
			clampToBounds(p, cfg.Bounds)
		}
	}

	return bestPos, bestCost, history, nil
}

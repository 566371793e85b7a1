package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/theSadeQ/dip-smc-pso-sub019/internal/dynamo"
	"github.com/theSadeQ/dip-smc-pso-sub019/internal/integrators"
	"github.com/theSadeQ/dip-smc-pso-sub019/internal/plant"
	"github.com/theSadeQ/dip-smc-pso-sub019/internal/pso"
	"github.com/theSadeQ/dip-smc-pso-sub019/internal/sim"
	"github.com/theSadeQ/dip-smc-pso-sub019/internal/smc"
)

const (
	DefaultDt       = 0.01
	DefaultDuration = 10.0
)

type Config struct {
	Model      string  `yaml:"model"`
	Integrator string  `yaml:"integrator"`
	Controller string  `yaml:"controller"`
	Dt         float64 `yaml:"dt"`
	Duration   float64 `yaml:"duration"`
	Seed       int64   `yaml:"seed"`

	InitState InitStateConfig `yaml:"init_state"`
	Physics   PhysicsConfig   `yaml:"physics"`
	SMC       SMCConfig       `yaml:"smc"`
	Guards    GuardConfig     `yaml:"guards"`
	PSO       PSOConfig       `yaml:"pso"`
	Cost      CostConfig      `yaml:"cost"`

	// Controllers maps canonical controller names to their tuned gains
	// and search bounds.
	Controllers map[string]ControllerConfig `yaml:"controllers"`
}

type InitStateConfig struct {
	X      float64 `yaml:"x"`
	Theta1 float64 `yaml:"theta1"`
	Theta2 float64 `yaml:"theta2"`
	VX     float64 `yaml:"vx"`
	Omega1 float64 `yaml:"omega1"`
	Omega2 float64 `yaml:"omega2"`
}

func (s InitStateConfig) ToState() dynamo.State {
	x := dynamo.NewState()
	x[dynamo.IdxCartPos] = s.X
	x[dynamo.IdxAngle1] = s.Theta1
	x[dynamo.IdxAngle2] = s.Theta2
	x[dynamo.IdxCartVel] = s.VX
	x[dynamo.IdxRate1] = s.Omega1
	x[dynamo.IdxRate2] = s.Omega2
	return x
}

type PhysicsConfig struct {
	CartMass float64 `yaml:"cart_mass"`
	Mass1    float64 `yaml:"mass1"`
	Mass2    float64 `yaml:"mass2"`
	Length1  float64 `yaml:"length1"`
	Length2  float64 `yaml:"length2"`
	Com1     float64 `yaml:"com1"`
	Com2     float64 `yaml:"com2"`
	Inertia1 float64 `yaml:"inertia1"`
	Inertia2 float64 `yaml:"inertia2"`
	Gravity  float64 `yaml:"gravity"`

	CartFriction   float64 `yaml:"cart_friction"`
	Joint1Friction float64 `yaml:"joint1_friction"`
	Joint2Friction float64 `yaml:"joint2_friction"`
	CartCoulomb    float64 `yaml:"cart_coulomb"`

	RegularizationAlpha float64 `yaml:"regularization_alpha"`
	MaxConditionNumber  float64 `yaml:"max_condition_number"`
	MinRegularization   float64 `yaml:"min_regularization"`
}

func physicsFromParams(p plant.Params) PhysicsConfig {
	return PhysicsConfig{
		CartMass: p.CartMass,
		Mass1:    p.Mass1,
		Mass2:    p.Mass2,
		Length1:  p.Length1,
		Length2:  p.Length2,
		Com1:     p.Com1,
		Com2:     p.Com2,
		Inertia1: p.Inertia1,
		Inertia2: p.Inertia2,
		Gravity:  p.Gravity,

		CartFriction:   p.CartFriction,
		Joint1Friction: p.Joint1Friction,
		Joint2Friction: p.Joint2Friction,
		CartCoulomb:    p.CartCoulomb,

		RegularizationAlpha: p.RegularizationAlpha,
		MaxConditionNumber:  p.MaxConditionNumber,
		MinRegularization:   p.MinRegularization,
	}
}

func (p PhysicsConfig) ToParams() plant.Params {
	return plant.Params{
		CartMass: p.CartMass,
		Mass1:    p.Mass1,
		Mass2:    p.Mass2,
		Length1:  p.Length1,
		Length2:  p.Length2,
		Com1:     p.Com1,
		Com2:     p.Com2,
		Inertia1: p.Inertia1,
		Inertia2: p.Inertia2,
		Gravity:  p.Gravity,

		CartFriction:   p.CartFriction,
		Joint1Friction: p.Joint1Friction,
		Joint2Friction: p.Joint2Friction,
		CartCoulomb:    p.CartCoulomb,

		RegularizationAlpha: p.RegularizationAlpha,
		MaxConditionNumber:  p.MaxConditionNumber,
		MinRegularization:   p.MinRegularization,
	}
}

type SMCConfig struct {
	MaxForce      float64 `yaml:"max_force"`
	BoundaryLayer float64 `yaml:"boundary_layer"`
	DeadZone      float64 `yaml:"dead_zone"`
	LeakRate      float64 `yaml:"leak_rate"`
	GainInit      float64 `yaml:"gain_init"`
	GainMin       float64 `yaml:"gain_min"`
	GainMax       float64 `yaml:"gain_max"`
	Gamma1        float64 `yaml:"gamma1"`
	Gamma2        float64 `yaml:"gamma2"`

	ResetStateNorm    float64 `yaml:"reset_state_norm"`
	ResetVelocityNorm float64 `yaml:"reset_velocity_norm"`
}

func smcFromOptions(o smc.Options) SMCConfig {
	return SMCConfig{
		MaxForce:      o.MaxForce,
		BoundaryLayer: o.BoundaryLayer,
		DeadZone:      o.DeadZone,
		LeakRate:      o.LeakRate,
		GainInit:      o.GainInit,
		GainMin:       o.GainMin,
		GainMax:       o.GainMax,
		Gamma1:        o.HybridGamma1,
		Gamma2:        o.HybridGamma2,

		ResetStateNorm:    o.ResetStateNorm,
		ResetVelocityNorm: o.ResetVelocityNorm,
	}
}

func (s SMCConfig) ToOptions(dt float64) smc.Options {
	return smc.Options{
		MaxForce:      s.MaxForce,
		Dt:            dt,
		BoundaryLayer: s.BoundaryLayer,
		DeadZone:      s.DeadZone,
		LeakRate:      s.LeakRate,
		GainInit:      s.GainInit,
		GainMin:       s.GainMin,
		GainMax:       s.GainMax,
		HybridGamma1:  s.Gamma1,
		HybridGamma2:  s.Gamma2,

		ResetStateNorm:    s.ResetStateNorm,
		ResetVelocityNorm: s.ResetVelocityNorm,
	}
}

// GuardConfig describes the simulation safety envelope. Zero values
// disable the corresponding guard.
type GuardConfig struct {
	EnergyLimit float64 `yaml:"energy_limit"`
	CartLimit   float64 `yaml:"cart_limit"`
	AngleLimit  float64 `yaml:"angle_limit"`
	RateLimit   float64 `yaml:"rate_limit"`
}

func (g GuardConfig) ToBounds() []sim.Bound {
	if g.CartLimit <= 0 && g.AngleLimit <= 0 && g.RateLimit <= 0 {
		return nil
	}
	wide := func(limit float64) sim.Bound {
		if limit <= 0 {
			limit = 1e9
		}
		return sim.Bound{Min: -limit, Max: limit}
	}

	bounds := make([]sim.Bound, dynamo.StateSize)
	bounds[dynamo.IdxCartPos] = wide(g.CartLimit)
	bounds[dynamo.IdxAngle1] = wide(g.AngleLimit)
	bounds[dynamo.IdxAngle2] = wide(g.AngleLimit)
	bounds[dynamo.IdxCartVel] = wide(g.RateLimit)
	bounds[dynamo.IdxRate1] = wide(g.RateLimit)
	bounds[dynamo.IdxRate2] = wide(g.RateLimit)
	return bounds
}

type PSOConfig struct {
	Particles     int     `yaml:"particles"`
	Iterations    int     `yaml:"iterations"`
	InertiaStart  float64 `yaml:"inertia_start"`
	InertiaEnd    float64 `yaml:"inertia_end"`
	Cognitive     float64 `yaml:"cognitive"`
	Social        float64 `yaml:"social"`
	VelocityClamp float64 `yaml:"velocity_clamp"`
	Seed          int64   `yaml:"seed"`
}

type CostConfig struct {
	StateError    float64 `yaml:"state_error"`
	ControlEffort float64 `yaml:"control_effort"`
	ControlRate   float64 `yaml:"control_rate"`
	Sigma         float64 `yaml:"sigma"`
}

func (c CostConfig) ToWeights() pso.CostWeights {
	return pso.CostWeights{
		StateError:    c.StateError,
		ControlEffort: c.ControlEffort,
		ControlRate:   c.ControlRate,
		Sigma:         c.Sigma,
	}
}

// ControllerConfig holds one controller's tuned gains and the per-gain
// search bounds the tuner explores.
type ControllerConfig struct {
	Gains []float64 `yaml:"gains"`
	Min   []float64 `yaml:"min"`
	Max   []float64 `yaml:"max"`
}

func DefaultConfig() *Config {
	weights := pso.DefaultCostWeights()

	cfg := &Config{
		Model:      "simplified",
		Integrator: "rk4",
		Controller: smc.Classical.String(),
		Dt:         DefaultDt,
		Duration:   DefaultDuration,
		Seed:       1,

		InitState: InitStateConfig{Theta1: 0.1, Theta2: 0.1},
		Physics:   physicsFromParams(plant.DefaultParams()),
		SMC:       smcFromOptions(smc.DefaultOptions()),
		Guards: GuardConfig{
			EnergyLimit: 1000.0,
			CartLimit:   10.0,
			AngleLimit:  6.28,
			RateLimit:   100.0,
		},
		PSO: PSOConfig{
			Particles:     30,
			Iterations:    50,
			InertiaStart:  0.9,
			InertiaEnd:    0.4,
			Cognitive:     1.49445,
			Social:        1.49445,
			VelocityClamp: 0.2,
			Seed:          1,
		},
		Cost: CostConfig{
			StateError:    weights.StateError,
			ControlEffort: weights.ControlEffort,
			ControlRate:   weights.ControlRate,
			Sigma:         weights.Sigma,
		},
		Controllers: make(map[string]ControllerConfig),
	}

	for _, typ := range []smc.Type{smc.Classical, smc.Adaptive, smc.SuperTwisting, smc.HybridAdaptiveSTA} {
		spec := smc.SpecFor(typ)
		min := make([]float64, spec.Count)
		max := make([]float64, spec.Count)
		for i := range min {
			min[i] = 0.1
			max[i] = 50.0
		}
		cfg.Controllers[typ.String()] = ControllerConfig{
			Gains: append([]float64(nil), spec.Defaults...),
			Min:   min,
			Max:   max,
		}
	}

	return cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("config: dt must be positive, got %g", c.Dt)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("config: duration must be positive, got %g", c.Duration)
	}
	switch c.Model {
	case "simplified", "full", "lowrank":
	default:
		return fmt.Errorf("config: unknown model %q (simplified, full, lowrank)", c.Model)
	}
	switch c.Integrator {
	case "euler", "rk4", "rk45":
	default:
		return fmt.Errorf("config: unknown integrator %q (euler, rk4, rk45)", c.Integrator)
	}
	if _, err := smc.ParseType(c.Controller); err != nil {
		return err
	}
	if err := c.Physics.ToParams().Validate(); err != nil {
		return err
	}
	if c.PSO.Particles <= 0 || c.PSO.Iterations <= 0 {
		return fmt.Errorf("config: pso particles and iterations must be positive")
	}
	return nil
}

// ControllerOptions assembles the controller options from the SMC
// section plus the input-channel gains linearized from the configured
// physics, so the reaching laws stay oriented when the plant parameters
// change.
func (c *Config) ControllerOptions() smc.Options {
	opts := c.SMC.ToOptions(c.Dt)
	opts.LinkAccelGain1, opts.LinkAccelGain2 = c.Physics.ToParams().UprightInputGains()
	return opts
}

// NewModel builds the plant tier named by the configuration.
func (c *Config) NewModel() (plant.Model, error) {
	params := c.Physics.ToParams()
	switch c.Model {
	case "simplified":
		return plant.NewSimplified(params)
	case "full":
		return plant.NewFull(params)
	case "lowrank":
		return plant.NewLowRank(params)
	}
	return nil, fmt.Errorf("config: unknown model %q", c.Model)
}

// NewIntegrator builds the configured integrator. Integrators hold
// scratch state, so callers needing one per goroutine call this per
// worker.
func (c *Config) NewIntegrator() (dynamo.Integrator, error) {
	switch c.Integrator {
	case "euler":
		return integrators.NewEuler(), nil
	case "rk4":
		return integrators.NewRK4(), nil
	case "rk45":
		return integrators.NewRK45(), nil
	}
	return nil, fmt.Errorf("config: unknown integrator %q", c.Integrator)
}

// Steps converts the configured duration to a step count.
func (c *Config) Steps() int {
	return int(c.Duration / c.Dt)
}

// GainsFor returns the configured gains for a canonical controller name,
// or nil when the configuration has none. It satisfies the gain resolver
// used by controller construction.
func (c *Config) GainsFor(name string) []float64 {
	cc, ok := c.Controllers[name]
	if !ok || len(cc.Gains) == 0 {
		return nil
	}
	return append([]float64(nil), cc.Gains...)
}

// SearchBounds returns the tuner's search box for a controller type,
// falling back to [0.1, 50] per gain when unconfigured.
func (c *Config) SearchBounds(typ smc.Type) []pso.Range {
	spec := smc.SpecFor(typ)
	bounds := make([]pso.Range, spec.Count)
	for i := range bounds {
		bounds[i] = pso.Range{Min: 0.1, Max: 50.0}
	}

	cc, ok := c.Controllers[typ.String()]
	if !ok {
		return bounds
	}
	for i := range bounds {
		if i < len(cc.Min) && i < len(cc.Max) && cc.Max[i] > cc.Min[i] {
			bounds[i] = pso.Range{Min: cc.Min[i], Max: cc.Max[i]}
		}
	}
	return bounds
}

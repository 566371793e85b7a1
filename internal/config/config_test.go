package config

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/theSadeQ/dip-smc-pso-sub019/internal/dynamo"
	"github.com/theSadeQ/dip-smc-pso-sub019/internal/smc"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Dt <= 0 || cfg.Duration <= 0 {
		t.Error("dt and duration should be positive")
	}
	if len(cfg.Controllers) != 4 {
		t.Errorf("expected gains for all 4 controllers, got %d", len(cfg.Controllers))
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero dt", func(c *Config) { c.Dt = 0 }},
		{"negative duration", func(c *Config) { c.Duration = -1 }},
		{"unknown model", func(c *Config) { c.Model = "linearized" }},
		{"unknown integrator", func(c *Config) { c.Integrator = "leapfrog" }},
		{"unknown controller", func(c *Config) { c.Controller = "pid" }},
		{"bad physics", func(c *Config) { c.Physics.Mass1 = -1 }},
		{"zero particles", func(c *Config) { c.PSO.Particles = 0 }},
	}

	for _, tc := range cases {
		cfg := DefaultConfig()
		tc.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.Model = "full"
	cfg.Controller = "sta_smc"
	cfg.InitState.Theta1 = 0.25
	cfg.Physics.CartFriction = 0.3

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if loaded.Model != "full" || loaded.Controller != "sta_smc" {
		t.Errorf("model/controller lost in round trip: %s, %s", loaded.Model, loaded.Controller)
	}
	if loaded.InitState.Theta1 != 0.25 {
		t.Errorf("init state lost: %g", loaded.InitState.Theta1)
	}
	if loaded.Physics.CartFriction != 0.3 {
		t.Errorf("physics lost: %g", loaded.Physics.CartFriction)
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file should error")
	}
}

func TestInitStateConversion(t *testing.T) {
	s := InitStateConfig{X: 1, Theta1: 2, Theta2: 3, VX: 4, Omega1: 5, Omega2: 6}
	x := s.ToState()

	want := dynamo.State{1, 2, 3, 4, 5, 6}
	for i := range want {
		if x[i] != want[i] {
			t.Fatalf("state %d: got %g, want %g", i, x[i], want[i])
		}
	}
}

func TestGainsForResolvesConfiguredGains(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Controllers["classical_smc"] = ControllerConfig{Gains: []float64{9, 9, 9, 1, 1, 1}}

	gains := cfg.GainsFor("classical_smc")
	if len(gains) != 6 || gains[0] != 9 {
		t.Errorf("unexpected resolved gains %v", gains)
	}

	if cfg.GainsFor("no_such_controller") != nil {
		t.Error("unknown controller should resolve nil")
	}

	// NewFromName picks the configured gains up through the resolver.
	ctrl, err := smc.NewFromName("classical", nil, cfg, cfg.ControllerOptions())
	if err != nil {
		t.Fatalf("construct from config: %v", err)
	}
	if got := ctrl.Gains(); got[0] != 9 {
		t.Errorf("controller should carry configured gains, got %v", got)
	}
}

func TestControllerOptionsCarryInputChannel(t *testing.T) {
	cfg := DefaultConfig()
	opts := cfg.ControllerOptions()

	// Cart force tips link 1 backward and link 2 forward at upright.
	if opts.LinkAccelGain1 >= 0 {
		t.Errorf("link 1 input gain should be negative, got %g", opts.LinkAccelGain1)
	}
	if opts.LinkAccelGain2 <= 0 {
		t.Errorf("link 2 input gain should be positive, got %g", opts.LinkAccelGain2)
	}

	// Heavier cart weakens the channel.
	heavy := DefaultConfig()
	heavy.Physics.CartMass = 100
	hopts := heavy.ControllerOptions()
	if math.Abs(hopts.LinkAccelGain1) >= math.Abs(opts.LinkAccelGain1) {
		t.Errorf("heavier cart should weaken the channel: %g vs %g",
			hopts.LinkAccelGain1, opts.LinkAccelGain1)
	}
}

func TestSearchBoundsFallBack(t *testing.T) {
	cfg := DefaultConfig()

	bounds := cfg.SearchBounds(smc.Adaptive)
	if len(bounds) != smc.SpecFor(smc.Adaptive).Count {
		t.Fatalf("bounds length %d", len(bounds))
	}
	for _, b := range bounds {
		if b.Max <= b.Min {
			t.Fatal("empty search range")
		}
	}

	cfg.Controllers["adaptive_smc"] = ControllerConfig{
		Min: []float64{1, 1, 1, 1, 1},
		Max: []float64{2, 2, 2, 2, 2},
	}
	bounds = cfg.SearchBounds(smc.Adaptive)
	if bounds[0].Min != 1 || bounds[0].Max != 2 {
		t.Errorf("configured bounds ignored: %+v", bounds[0])
	}
}

func TestGuardBounds(t *testing.T) {
	g := GuardConfig{CartLimit: 2.0}
	bounds := g.ToBounds()

	if bounds == nil {
		t.Fatal("expected bounds")
	}
	if bounds[dynamo.IdxCartPos].Max != 2.0 {
		t.Errorf("cart bound %g", bounds[dynamo.IdxCartPos].Max)
	}
	if bounds[dynamo.IdxAngle1].Max < 1e8 {
		t.Error("unset limits should be effectively unbounded")
	}

	if (GuardConfig{}).ToBounds() != nil {
		t.Error("all-zero guard should disable bounds")
	}
}

func TestPresets(t *testing.T) {
	for _, name := range ListPresets() {
		cfg := GetPreset(name)
		if cfg == nil {
			t.Fatalf("preset %s returned nil", name)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("preset %s invalid: %v", name, err)
		}
	}

	if GetPreset("nonexistent") != nil {
		t.Error("unknown preset should return nil")
	}
}

func TestModelAndIntegratorBuilders(t *testing.T) {
	for _, model := range []string{"simplified", "full", "lowrank"} {
		cfg := DefaultConfig()
		cfg.Model = model
		if _, err := cfg.NewModel(); err != nil {
			t.Errorf("model %s: %v", model, err)
		}
	}

	for _, integ := range []string{"euler", "rk4", "rk45"} {
		cfg := DefaultConfig()
		cfg.Integrator = integ
		if _, err := cfg.NewIntegrator(); err != nil {
			t.Errorf("integrator %s: %v", integ, err)
		}
	}
}

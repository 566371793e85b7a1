package config

// Presets are named starting scenarios, keyed by scenario name. Each
// returns a full configuration derived from the defaults.
var Presets = map[string]func() *Config{
	"nudge": func() *Config {
		cfg := DefaultConfig()
		cfg.InitState = InitStateConfig{Theta1: 0.05, Theta2: 0.05}
		return cfg
	},
	"lean": func() *Config {
		cfg := DefaultConfig()
		cfg.InitState = InitStateConfig{Theta1: 0.2, Theta2: 0.15}
		return cfg
	},
	"recover": func() *Config {
		cfg := DefaultConfig()
		cfg.InitState = InitStateConfig{Theta1: 0.4, Theta2: 0.3, Omega1: 0.5}
		cfg.Duration = 15.0
		return cfg
	},
	"offcenter": func() *Config {
		cfg := DefaultConfig()
		cfg.InitState = InitStateConfig{X: 1.0, Theta1: 0.1, Theta2: 0.1}
		return cfg
	},
	"friction": func() *Config {
		cfg := DefaultConfig()
		cfg.Model = "full"
		cfg.InitState = InitStateConfig{Theta1: 0.2, Theta2: 0.15}
		cfg.Physics.CartFriction = 0.5
		cfg.Physics.Joint1Friction = 0.01
		cfg.Physics.Joint2Friction = 0.01
		return cfg
	},
	"sweep": func() *Config {
		cfg := DefaultConfig()
		cfg.Model = "lowrank"
		cfg.InitState = InitStateConfig{Theta1: 0.1, Theta2: 0.1}
		cfg.Duration = 5.0
		return cfg
	},
}

func GetPreset(name string) *Config {
	build, ok := Presets[name]
	if !ok {
		return nil
	}
	return build()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}

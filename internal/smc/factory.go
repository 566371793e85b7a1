package smc

import (
	"fmt"
	"math"
	"strings"
)

// Type enumerates the closed set of controller kinds. The factory
// dispatches through the registration table below rather than by
// string-keyed reflection.
type Type int

const (
	Classical Type = iota
	Adaptive
	SuperTwisting
	HybridAdaptiveSTA

	numTypes
)

func (t Type) String() string {
	switch t {
	case Classical:
		return "classical_smc"
	case Adaptive:
		return "adaptive_smc"
	case SuperTwisting:
		return "sta_smc"
	case HybridAdaptiveSTA:
		return "hybrid_adaptive_sta_smc"
	}
	return fmt.Sprintf("smc.Type(%d)", int(t))
}

// aliases maps normalized spellings to controller kinds. Normalization
// strips case, spaces, dashes and underscores, so "Classical-SMC" and
// "classical_smc" both resolve.
var aliases = map[string]Type{
	"classical":            Classical,
	"classic":              Classical,
	"classicalsmc":         Classical,
	"smc":                  Classical,
	"adaptive":             Adaptive,
	"adaptivesmc":          Adaptive,
	"sta":                  SuperTwisting,
	"stasmc":               SuperTwisting,
	"supertwisting":        SuperTwisting,
	"supertwistingsmc":     SuperTwisting,
	"hybrid":               HybridAdaptiveSTA,
	"hybridadaptivesta":    HybridAdaptiveSTA,
	"hybridadaptivestasmc": HybridAdaptiveSTA,
	"hybridsta":            HybridAdaptiveSTA,
}

func normalize(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	for _, cut := range []string{" ", "-", "_"} {
		s = strings.ReplaceAll(s, cut, "")
	}
	return s
}

func ParseType(name string) (Type, error) {
	if t, ok := aliases[normalize(name)]; ok {
		return t, nil
	}
	return 0, fmt.Errorf("smc: unknown controller type %q (known: %s, %s, %s, %s)",
		name, Classical, Adaptive, SuperTwisting, HybridAdaptiveSTA)
}

// GainSpec describes the gain vector a controller kind expects.
type GainSpec struct {
	Count    int
	Names    []string
	Defaults []float64

	// structural holds kind-specific constraints beyond positivity.
	structural func(gains []float64) error
}

var registry = [numTypes]GainSpec{
	Classical: {
		Count:    6,
		Names:    []string{"k1", "k2", "lam1", "lam2", "K", "kd"},
		Defaults: []float64{5.0, 5.0, 5.0, 0.5, 0.5, 0.5},
	},
	Adaptive: {
		Count:    5,
		Names:    []string{"k1", "k2", "lam1", "lam2", "gamma"},
		Defaults: []float64{10.0, 8.0, 5.0, 4.0, 1.0},
	},
	SuperTwisting: {
		Count:    6,
		Names:    []string{"K1", "K2", "k1", "k2", "lam1", "lam2"},
		Defaults: []float64{4.0, 2.0, 12.0, 6.0, 8.0, 4.0},
		structural: func(g []float64) error {
			if !(g[0] > g[1] && g[1] > 0) {
				return fmt.Errorf("smc: super-twisting requires K1 > K2 > 0 for finite-time convergence, got K1=%g, K2=%g",
					g[0], g[1])
			}
			return nil
		},
	},
	HybridAdaptiveSTA: {
		Count:    4,
		Names:    []string{"c1", "lam1", "c2", "lam2"},
		Defaults: []float64{5.0, 5.0, 5.0, 0.5},
	},
}

// SpecFor returns the gain specification for a controller kind.
func SpecFor(t Type) GainSpec {
	return registry[t]
}

// ValidateGains runs the construction-time validation pipeline: gain
// count, finiteness, positivity, then the kind-specific structural
// constraint. It is also used by the tuner to pre-filter particles.
func ValidateGains(t Type, gains []float64) error {
	spec := registry[t]

	if len(gains) != spec.Count {
		return fmt.Errorf("smc: %s expects %d gains (%s), got %d",
			t, spec.Count, strings.Join(spec.Names, ", "), len(gains))
	}

	for i, g := range gains {
		if math.IsNaN(g) || math.IsInf(g, 0) {
			return fmt.Errorf("smc: %s gain %s must be finite, got %g", t, spec.Names[i], g)
		}
	}

	for i, g := range gains {
		if g <= 0 {
			return fmt.Errorf("smc: %s gain %s must be positive, got %g", t, spec.Names[i], g)
		}
	}

	if spec.structural != nil {
		return spec.structural(gains)
	}
	return nil
}

// New validates gains and constructs a controller. A nil gain slice
// resolves to the registry defaults.
func New(t Type, gains []float64, opts Options) (Controller, error) {
	if t < 0 || t >= numTypes {
		return nil, fmt.Errorf("smc: invalid controller type %d", int(t))
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	if gains == nil {
		gains = append([]float64(nil), registry[t].Defaults...)
	}
	if err := ValidateGains(t, gains); err != nil {
		return nil, err
	}

	g := append([]float64(nil), gains...)
	switch t {
	case Classical:
		return newClassical(g, opts), nil
	case Adaptive:
		return newAdaptive(g, opts), nil
	case SuperTwisting:
		return newSuperTwisting(g, opts), nil
	case HybridAdaptiveSTA:
		return newHybrid(g, opts), nil
	}
	return nil, fmt.Errorf("smc: unreachable controller type %d", int(t))
}

// GainResolver supplies per-controller default gains, typically backed by
// the loaded configuration.
type GainResolver interface {
	GainsFor(name string) []float64
}

// NewFromName resolves the controller type by name and its gains in
// priority order: the explicit gains argument, the resolver's defaults,
// then the registry defaults. The resolved gains pass through the full
// validation pipeline.
func NewFromName(name string, gains []float64, resolver GainResolver, opts Options) (Controller, error) {
	t, err := ParseType(name)
	if err != nil {
		return nil, err
	}

	if gains == nil && resolver != nil {
		gains = resolver.GainsFor(t.String())
	}
	return New(t, gains, opts)
}

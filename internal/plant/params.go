package plant

import (
	"fmt"

	"github.com/theSadeQ/dip-smc-pso-sub019/internal/dynamo"
)

// Default physical parameters: a 1.5 kg cart carrying two light links.
const (
	DefaultCartMass = 1.5
	DefaultMass1    = 0.2
	DefaultMass2    = 0.15
	DefaultLength1  = 0.4
	DefaultLength2  = 0.3
	DefaultGravity  = 9.81

	DefaultRegularizationAlpha = 1e-4
	DefaultMaxCondition        = 1e8
	DefaultMinRegularization   = 1e-10
)

// Params holds the physical constants of the plant plus the
// numerical-stability knobs for the mass-matrix solve.
//
// Inertia1/Inertia2 are moments of inertia of each link about its joint,
// so m·Lc² ≤ I ≤ (1/3)·m·L² (point mass at the COM vs uniform rod).
type Params struct {
	CartMass float64
	Mass1    float64
	Mass2    float64

	Length1 float64 // joint to joint
	Length2 float64
	Com1    float64 // joint to link COM
	Com2    float64

	Inertia1 float64
	Inertia2 float64

	Gravity float64

	CartFriction   float64 // viscous, N·s/m
	Joint1Friction float64 // viscous, N·m·s/rad
	Joint2Friction float64
	CartCoulomb    float64 // Coulomb friction magnitude on the cart, N

	RegularizationAlpha float64
	MaxConditionNumber  float64
	MinRegularization   float64
}

func DefaultParams() Params {
	return Params{
		CartMass: DefaultCartMass,
		Mass1:    DefaultMass1,
		Mass2:    DefaultMass2,
		Length1:  DefaultLength1,
		Length2:  DefaultLength2,
		Com1:     DefaultLength1 / 2,
		Com2:     DefaultLength2 / 2,
		Inertia1: DefaultMass1 * DefaultLength1 * DefaultLength1 / 3,
		Inertia2: DefaultMass2 * DefaultLength2 * DefaultLength2 / 3,
		Gravity:  DefaultGravity,

		RegularizationAlpha: DefaultRegularizationAlpha,
		MaxConditionNumber:  DefaultMaxCondition,
		MinRegularization:   DefaultMinRegularization,
	}
}

func (p Params) Validate() error {
	positives := []struct {
		name string
		v    float64
	}{
		{"cart mass", p.CartMass},
		{"link 1 mass", p.Mass1},
		{"link 2 mass", p.Mass2},
		{"link 1 length", p.Length1},
		{"link 2 length", p.Length2},
		{"link 1 com", p.Com1},
		{"link 2 com", p.Com2},
		{"gravity", p.Gravity},
	}
	for _, x := range positives {
		if x.v <= 0 {
			return fmt.Errorf("plant: %s must be positive, got %g: %w", x.name, x.v, dynamo.ErrParameterBounds)
		}
	}

	if p.Com1 > p.Length1 || p.Com2 > p.Length2 {
		return fmt.Errorf("plant: center of mass beyond link length (com1=%g/L1=%g, com2=%g/L2=%g): %w",
			p.Com1, p.Length1, p.Com2, p.Length2, dynamo.ErrParameterBounds)
	}

	if err := checkInertia("link 1", p.Inertia1, p.Mass1, p.Com1, p.Length1); err != nil {
		return err
	}
	if err := checkInertia("link 2", p.Inertia2, p.Mass2, p.Com2, p.Length2); err != nil {
		return err
	}

	frictions := []struct {
		name string
		v    float64
	}{
		{"cart friction", p.CartFriction},
		{"joint 1 friction", p.Joint1Friction},
		{"joint 2 friction", p.Joint2Friction},
		{"cart coulomb friction", p.CartCoulomb},
	}
	for _, x := range frictions {
		if x.v < 0 {
			return fmt.Errorf("plant: %s must be non-negative, got %g: %w", x.name, x.v, dynamo.ErrParameterBounds)
		}
	}

	if p.RegularizationAlpha <= 0 || p.MinRegularization <= 0 {
		return fmt.Errorf("plant: regularization knobs must be positive (alpha=%g, min=%g): %w",
			p.RegularizationAlpha, p.MinRegularization, dynamo.ErrParameterBounds)
	}
	if p.MaxConditionNumber <= 1 {
		return fmt.Errorf("plant: max condition number must exceed 1, got %g: %w",
			p.MaxConditionNumber, dynamo.ErrParameterBounds)
	}

	return nil
}

func checkInertia(name string, inertia, mass, com, length float64) error {
	lo := mass * com * com
	hi := mass * length * length / 3
	if inertia < lo || inertia > hi {
		return fmt.Errorf("plant: %s inertia %g outside physical range [%g, %g] (m·Lc² to m·L²/3): %w",
			name, inertia, lo, hi, dynamo.ErrParameterBounds)
	}
	return nil
}

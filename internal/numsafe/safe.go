// Package numsafe provides epsilon-guarded elementary operations used by
// the plant models and controllers to avoid singularities. All functions
// are pure and deterministic.
package numsafe

import "math"

// Thresholds sized against double-precision machine epsilon (~2.2e-16)
// with margin for the physical signal scales in this plant (forces up to
// ~1e2 N, angles up to ~1e1 rad).
const (
	// EpsDiv guards denominators.
	EpsDiv = 1e-12
	// EpsDomain floors sqrt/log arguments.
	EpsDomain = 1e-15
	// MaxExpArg caps exp arguments below the float64 overflow point (~709.8).
	MaxExpArg = 700.0
)

// Divide returns num/den, or 0 when |den| < EpsDiv.
func Divide(num, den float64) float64 {
	return DivideEps(num, den, EpsDiv, 0)
}

// DivideEps returns num/den, or fallback when |den| < eps.
func DivideEps(num, den, eps, fallback float64) float64 {
	if math.Abs(den) < eps {
		return fallback
	}
	return num / den
}

// DivideSlice divides elementwise, substituting fallback where the
// denominator is degenerate. Inputs must have equal length.
func DivideSlice(num, den []float64, fallback float64) []float64 {
	out := make([]float64, len(num))
	for i := range num {
		out[i] = DivideEps(num[i], den[i], EpsDiv, fallback)
	}
	return out
}

// Reciprocal returns 1/x with the divide guard.
func Reciprocal(x float64) float64 {
	return Divide(1, x)
}

// Sqrt clamps its argument to EpsDomain before taking the root, so it
// never returns NaN for finite input.
func Sqrt(x float64) float64 {
	return SqrtFloor(x, EpsDomain)
}

func SqrtFloor(x, min float64) float64 {
	return math.Sqrt(math.Max(x, min))
}

// Log clamps its argument to EpsDomain before taking the logarithm.
func Log(x float64) float64 {
	return LogFloor(x, EpsDomain)
}

func LogFloor(x, min float64) float64 {
	return math.Log(math.Max(x, min))
}

// Exp caps its argument at MaxExpArg to avoid overflow to +Inf.
func Exp(x float64) float64 {
	return ExpCap(x, MaxExpArg)
}

func ExpCap(x, max float64) float64 {
	return math.Exp(math.Min(x, max))
}

// Normalize returns v / max(||v||, minNorm). When the norm is numerically
// zero it returns a copy of fallback (or a zero vector if fallback is nil).
func Normalize(v []float64, minNorm float64, fallback []float64) []float64 {
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}
	norm := math.Sqrt(sum)

	out := make([]float64, len(v))
	if norm < EpsDomain {
		copy(out, fallback)
		return out
	}
	if norm < minNorm {
		norm = minNorm
	}
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}

// Clamp bounds x into [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Sat is the boundary-layer saturation used in sliding mode control.
func Sat(z float64) float64 {
	return Clamp(z, -1.0, 1.0)
}

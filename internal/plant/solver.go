package plant

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// rcond for the pseudo-inverse rank cutoff.
const pinvRankTol = 1e-12

// solveAccel solves M·q̈ = forcing without ever panicking on a degenerate
// mass matrix. The fallback chain is:
//
//  1. direct LU solve, taken when the condition number is acceptable
//  2. Tikhonov-regularized solve of (M + α·I) with α scaled by the
//     condition number and floored at MinRegularization
//  3. least-squares pseudo-inverse via SVD
//
// Which path produced the result is visible in the returned Diagnostics.
func (p Params) solveAccel(m *mat.Dense, forcing [3]float64) ([3]float64, Diagnostics, bool) {
	var diag Diagnostics

	if !matFinite(m) {
		return [3]float64{}, diag, false
	}

	b := mat.NewVecDense(3, []float64{forcing[0], forcing[1], forcing[2]})

	cond := mat.Cond(m, 2)
	diag.ConditionNumber = cond

	if !math.IsNaN(cond) && cond <= p.MaxConditionNumber {
		if qdd, ok := luSolve(m, b); ok {
			return qdd, diag, true
		}
	}

	// Adaptive Tikhonov: worse conditioning gets a larger alpha.
	scale := cond / p.MaxConditionNumber
	if math.IsNaN(scale) || math.IsInf(scale, 0) {
		scale = 1e3
	}
	alpha := math.Max(p.MinRegularization, p.RegularizationAlpha*scale)
	diag.RegularizationApplied = true
	diag.RegularizationAlpha = alpha

	reg := mat.NewDense(3, 3, nil)
	reg.Copy(m)
	for i := 0; i < 3; i++ {
		reg.Set(i, i, reg.At(i, i)+alpha)
	}

	if qdd, ok := luSolve(reg, b); ok {
		return qdd, diag, true
	}

	diag.UsedPseudoInverse = true

	var svd mat.SVD
	if svd.Factorize(m, mat.SVDThin) {
		if rank := svd.Rank(pinvRankTol); rank > 0 {
			var x mat.VecDense
			svd.SolveVecTo(&x, b, rank)
			qdd := [3]float64{x.AtVec(0), x.AtVec(1), x.AtVec(2)}
			if vecFinite(qdd) {
				return qdd, diag, true
			}
		}
	}

	return [3]float64{}, diag, false
}

func luSolve(m *mat.Dense, b *mat.VecDense) ([3]float64, bool) {
	var lu mat.LU
	lu.Factorize(m)

	var x mat.VecDense
	if err := lu.SolveVecTo(&x, false, b); err != nil {
		return [3]float64{}, false
	}

	qdd := [3]float64{x.AtVec(0), x.AtVec(1), x.AtVec(2)}
	return qdd, vecFinite(qdd)
}

func matFinite(m *mat.Dense) bool {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := m.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}

func vecFinite(v [3]float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

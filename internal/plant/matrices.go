package plant

import (
	"gonum.org/v1/gonum/mat"

	"github.com/theSadeQ/dip-smc-pso-sub019/internal/dynamo"
)

// Coupling coefficients shared by the matrix assembly:
//
//	h1 = m1·Lc1 + m2·L1  (cart / link-1 coupling)
//	h2 = m2·Lc2          (cart / link-2 coupling)
//	h3 = m2·L1·Lc2       (link-1 / link-2 coupling)
func (p Params) couplings() (h1, h2, h3 float64) {
	h1 = p.Mass1*p.Com1 + p.Mass2*p.Length1
	h2 = p.Mass2 * p.Com2
	h3 = p.Mass2 * p.Length1 * p.Com2
	return
}

// massMatrix builds M(q) for generalized coordinates [x, θ1, θ2].
// Inertia1/Inertia2 are about the joints, so the link-1 diagonal entry only
// adds the m2·L1² carried-mass term.
func (p Params) massMatrix(c1, c2, c12 float64) *mat.Dense {
	h1, h2, h3 := p.couplings()
	total := p.CartMass + p.Mass1 + p.Mass2

	return mat.NewDense(3, 3, []float64{
		total, h1 * c1, h2 * c2,
		h1 * c1, p.Inertia1 + p.Mass2*p.Length1*p.Length1, h3 * c12,
		h2 * c2, h3 * c12, p.Inertia2,
	})
}

// coriolis returns C(q,q̇)·q̇.
func (p Params) coriolis(s1, s2, s12, w1, w2 float64) [3]float64 {
	h1, h2, h3 := p.couplings()
	return [3]float64{
		-h1*s1*w1*w1 - h2*s2*w2*w2,
		h3 * s12 * w2 * w2,
		-h3 * s12 * w1 * w1,
	}
}

// gravity returns G(q) = ∂V/∂q with angles measured from upright, so both
// entries destabilize the vertical equilibrium.
func (p Params) gravity(s1, s2 float64) [3]float64 {
	h1, h2, _ := p.couplings()
	return [3]float64{0, -h1 * p.Gravity * s1, -h2 * p.Gravity * s2}
}

// UprightInputGains returns ∂θ̈1/∂u and ∂θ̈2/∂u at the upright
// equilibrium: the second and third components of M(0)⁻¹·B for the cart
// force input B = [1, 0, 0]. Pushing the cart tips link 1 backward and
// whips link 2 forward, so the pair comes out (negative, positive) for
// any physical parameter set. Controllers use these to orient their
// reaching laws.
func (p Params) UprightInputGains() (float64, float64) {
	m := p.massMatrix(1, 1, 1)
	b := mat.NewVecDense(3, []float64{1, 0, 0})

	var a mat.VecDense
	if err := a.SolveVec(m, b); err != nil {
		return 0, 0
	}
	return a.AtVec(1), a.AtVec(2)
}

func (p Params) potentialEnergy(c1, c2 float64) float64 {
	h1, h2, _ := p.couplings()
	return h1*p.Gravity*c1 + h2*p.Gravity*c2
}

// kineticEnergy evaluates ½·q̇ᵀ·M·q̇ against the supplied mass matrix so
// each tier's energy stays consistent with its own dynamics.
func kineticEnergy(m *mat.Dense, x dynamo.State) float64 {
	qd := [3]float64{x[dynamo.IdxCartVel], x[dynamo.IdxRate1], x[dynamo.IdxRate2]}

	ke := 0.0
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			ke += qd[i] * m.At(i, j) * qd[j]
		}
	}
	return 0.5 * ke
}

func assembleDerivative(x dynamo.State, qdd [3]float64) dynamo.State {
	return dynamo.State{
		x[dynamo.IdxCartVel],
		x[dynamo.IdxRate1],
		x[dynamo.IdxRate2],
		qdd[0],
		qdd[1],
		qdd[2],
	}
}

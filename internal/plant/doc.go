// Package plant implements the double-inverted-pendulum-on-a-cart dynamics
// in three fidelity tiers sharing one contract:
//
//   - [Simplified]: rigid-body matrices, no friction or disturbances
//   - [Full]: adds viscous and Coulomb friction plus optional wind forcing
//   - [LowRank]: drops the inter-link coupling terms and uses the trig
//     lookup table, trading accuracy for throughput in large batches
//
// Each tier computes the inertia matrix M(q), Coriolis vector C(q,q̇)q̇ and
// gravity vector G(q), then solves M·q̈ = u − Cq̇ − G. The solve never
// panics on an ill-conditioned M: it falls back to Tikhonov regularization
// scaled by the condition number, then to a least-squares pseudo-inverse.
// All outcomes are reported in [Diagnostics] and counted by the per-instance
// [StabilityMonitor].
//
// Angles are measured from the upright position; θ1 = θ2 = 0 with zero
// velocity is the unstable equilibrium the controllers regulate to.
package plant

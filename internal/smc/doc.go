// Package smc implements sliding-mode controllers for the double inverted
// pendulum and the factory that validates gains and constructs them.
//
// Four variants are provided:
//
//   - [ClassicalSMC]: boundary-layer switching on a linear sliding surface
//   - [SuperTwistingSMC]: second-order sliding mode with continuous control
//   - [AdaptiveSMC]: classical surface with an online-adapted switching gain
//   - [HybridSMC]: adaptive gain estimation driving a super-twisting
//     reaching law
//
// Controllers are stateless values; any state carried across steps
// (integrators, adapted gains) lives in an explicit [ControlState] value
// the caller threads between Compute calls.
package smc

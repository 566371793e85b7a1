// Package dynamo provides core simulation primitives for the double
// inverted pendulum lab.
//
// The package defines the fundamental interfaces and types shared by the
// plant models, controllers, and simulation engines:
//
//   - [State]: the 6-dimensional plant state vector
//   - [System]: interface for ODE systems (dX/dt = f(X, u, t))
//   - [Integrator]: numerical integrator interface
//   - [Hamiltonian]: optional total-energy computation
//
// # Thread Safety
//
// States are plain slices and are not safe for concurrent mutation. The
// batch engine in internal/sim gives every batch row its own state and
// plant instance; [ParallelFor] is the only concurrency primitive here.
package dynamo

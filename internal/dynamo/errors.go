package dynamo

import "errors"

// Domain errors for simulation operations.
var (
	// ErrInvalidState indicates a state vector with NaN or Inf entries.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrEnergyLimit indicates the total energy guard rejected a state.
	ErrEnergyLimit = errors.New("dynamo: energy limit exceeded")

	// ErrStateBounds indicates a state left the configured bounds.
	ErrStateBounds = errors.New("dynamo: state outside configured bounds")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrDimensionMismatch indicates mismatched state/control dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")
)

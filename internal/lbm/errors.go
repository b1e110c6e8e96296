package lbm

import (
	"errors"
	"fmt"
)

// Domain errors for solver operations.
var (
	// ErrInvalidDimensions indicates a grid with a non-positive width or height.
	ErrInvalidDimensions = errors.New("lbm: grid dimensions must be positive")

	// ErrParameterBounds indicates a relaxation parameter outside the stable range.
	ErrParameterBounds = errors.New("lbm: relaxation parameter out of bounds (omega must be in (0,2))")

	// ErrDiverged indicates the populations became non-physical.
	ErrDiverged = errors.New("lbm: simulation diverged")
)

// DivergenceError records where divergence was first seen.
type DivergenceError struct {
	Tick int
	X, Y int
	Rho  float64
}

func (e *DivergenceError) Error() string {
	return fmt.Sprintf("%v at tick %d, node (%d,%d), rho=%g", ErrDiverged, e.Tick, e.X, e.Y, e.Rho)
}

func (e *DivergenceError) Unwrap() error {
	return ErrDiverged
}

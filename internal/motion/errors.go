package motion

import "errors"

// Domain errors for motion setup.
var (
	// ErrDegenerateGeometry indicates a zero, negative or non-finite field or body size.
	ErrDegenerateGeometry = errors.New("motion: degenerate geometry")

	// ErrUnknownMode indicates a mode name that maps to no strategy.
	ErrUnknownMode = errors.New("motion: unknown mode")

	// ErrInvalidSample indicates an acceleration sample with NaN or Inf components.
	ErrInvalidSample = errors.New("motion: invalid acceleration sample")
)

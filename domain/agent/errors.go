package agent

import "errors"

// Domain errors for the reasoning loop.
var (
	// ErrEmptyQuery indicates a loop was started without a query.
	ErrEmptyQuery = errors.New("empty query")

	// ErrInvalidPhase indicates the phase is not a recognized canonical phase.
	ErrInvalidPhase = errors.New("invalid phase")

	// ErrInvalidTransition indicates an attempted phase transition is not allowed.
	ErrInvalidTransition = errors.New("invalid phase transition")
)

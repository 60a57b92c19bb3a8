package engine

import "errors"

var (
	// ErrUnknownAction is returned for an action type the engine cannot
	// execute. It is a configuration or programming error and aborts the run.
	ErrUnknownAction = errors.New("action not implemented for client")

	// ErrNoAction is returned when a profile leaves no action with a positive
	// probability.
	ErrNoAction = errors.New("no action with positive probability")

	// ErrNonPositiveAmount is returned when an amount distribution can never
	// produce a positive draw.
	ErrNonPositiveAmount = errors.New("amount distribution cannot produce a positive value")

	// ErrMissingBank is returned when a client without a bank performs a
	// bank action.
	ErrMissingBank = errors.New("client has no bank")
)

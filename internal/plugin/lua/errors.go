package lua

import "errors"

// Errors for Lua state operations.
var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrExecutionTimeout is returned when execution runs past the timeout.
	ErrExecutionTimeout = errors.New("lua execution timeout")

	// ErrFunctionNotFound is returned by Call for an undefined global.
	ErrFunctionNotFound = errors.New("lua function not found")

	// ErrNotFunction is returned by Call when the global is not a function.
	ErrNotFunction = errors.New("lua global is not a function")
)

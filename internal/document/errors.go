package document

import "errors"

// Errors returned by document mutations.
var (
	// ErrNotFound indicates no element exists with the given id.
	ErrNotFound = errors.New("document: element not found")

	// ErrDuplicateID indicates an element with the id already exists.
	ErrDuplicateID = errors.New("document: duplicate element id")

	// ErrInvalidElement indicates a nil element or one without an id.
	ErrInvalidElement = errors.New("document: invalid element")

	// ErrInvalidOrder indicates an ordering that is not a permutation of
	// the current element ids.
	ErrInvalidOrder = errors.New("document: invalid order")
)

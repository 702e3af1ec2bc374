package history

import "errors"

// Errors returned by history operations.
var (
	// ErrNilStore indicates New was called without an element store.
	ErrNilStore = errors.New("history: nil store")

	// ErrCheckpointNotFound indicates the checkpoint's entry was pruned or
	// dropped with a redo tail.
	ErrCheckpointNotFound = errors.New("history: checkpoint not found")
)

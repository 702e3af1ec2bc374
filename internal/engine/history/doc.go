// Package history provides undo/redo functionality for the document editor.
//
// The history engine is a bounded, append-only log of reversible operations
// applied to an external element store. It only logs: callers mutate the
// store first and then report the change. Undo and redo are the only paths
// where the engine writes to the store itself.
//
// # Operations
//
// An Operation is one reversible change to the store. There are four kinds:
//   - Add: forward inserts elements, inverse removes them
//   - Remove: forward removes elements, inverse re-inserts them
//   - Update: forward applies the after snapshots, inverse the before snapshots
//   - Reorder: forward and inverse replace the full ordering
//
// Element snapshots embedded in an operation must be independent copies
// (see element.Element.Clone). Once logged they are never mutated.
//
// # Entries and Coalescing
//
// Each undoable step is an Entry holding one or more operations. A commit
// merges into the most recent entry when it happens within the merge window
// and its label and merge key are unset or equal; otherwise a new entry is
// appended, dropping any redo tail first:
//
//	h, _ := history.New(store)
//	h.Push(history.NewAdd(rect.Clone()))
//	h.Undo()
//	h.Redo()
//
// # Batching
//
// Operations pushed while a batch is open are committed together:
//
//	h.BeginBatch("Move", "")
//	// ... several pushes ...
//	h.EndBatch(true)
//
// WithUndo and Transaction wrap the same pattern around a function.
// Nested batches flatten into the outer one.
//
// # Memory Bounds
//
// Every entry carries an estimated byte size. After each commit the log is
// pruned when it exceeds a fraction of its entry or memory budget: old past
// entries and far future entries are dropped first, then the largest entries
// outside the most recent few.
//
// # Concurrency
//
// The engine is single-writer. A mutex guards its state so that calls from a
// helper goroutine (for example a config reloader) are safe, but operations
// are not designed for concurrent editing.
package history

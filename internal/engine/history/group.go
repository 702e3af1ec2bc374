package history

// BeginBatch opens a batch. Operations pushed until EndBatch are committed
// as one group. Nested calls are ignored: their pushes flatten into the
// batch that is already open.
func (h *History) BeginBatch(label, mergeKey string) {
	h.beginBatch(label, mergeKey)
}

// beginBatch opens a batch and reports whether this call opened it.
func (h *History) beginBatch(label, mergeKey string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.batch.active {
		return false
	}

	h.batch = batchState{
		active:   true,
		label:    label,
		mergeKey: mergeKey,
	}
	return true
}

// EndBatch closes the open batch. With commit set and at least one pending
// operation the group is committed; otherwise the pending operations are
// discarded. Discarding never touches the store: changes the caller already
// made stay in place.
func (h *History) EndBatch(commit bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.batch.active {
		return
	}

	b := h.batch
	h.batch = batchState{}

	if commit && len(b.pending) > 0 {
		h.commitLocked(b.pending, b.label, b.mergeKey)
		return
	}

	if len(b.pending) > 0 {
		h.logger.Debug("history: discarded batch", "label", b.label, "ops", len(b.pending))
	}
}

// IsBatching returns true if a batch is open.
func (h *History) IsBatching() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.batch.active
}

// WithUndo runs fn inside a batch so every operation it pushes lands in one
// undo step (or coalesces into the previous one). If a batch is already open,
// fn's pushes join it and the outer caller decides when it ends.
func (h *History) WithUndo(label string, fn func()) {
	if !h.beginBatch(label, "") {
		fn()
		return
	}
	defer h.EndBatch(true)
	fn()
}

// Transaction executes fn within a batch.
// If fn returns an error or panics, the batch is discarded. Changes fn
// already made to the store are not rolled back.
func (h *History) Transaction(label string, fn func() error) (err error) {
	if !h.beginBatch(label, "") {
		return fn()
	}

	committed := false
	defer func() {
		if !committed {
			h.EndBatch(false)
		}
	}()

	err = fn()
	committed = true
	h.EndBatch(err == nil)
	return err
}

// BatchScope provides a convenient way to batch pushes using defer.
// Usage:
//
//	func dragTo(h *History, ...) {
//	    defer h.Batch("Move", "drag").End()
//	    // ... pushes ...
//	}
type BatchScope struct {
	history *History
	active  bool
}

// Batch opens a batch scope. A scope created while another batch is open
// is inert: ending or cancelling it leaves the outer batch alone.
func (h *History) Batch(label, mergeKey string) *BatchScope {
	return &BatchScope{
		history: h,
		active:  h.beginBatch(label, mergeKey),
	}
}

// End commits the scope.
// Safe to call multiple times; only the first call has effect.
func (s *BatchScope) End() {
	if s.active {
		s.history.EndBatch(true)
		s.active = false
	}
}

// Cancel discards the scope's pending operations.
// Note: changes already made to the store remain.
func (s *BatchScope) Cancel() {
	if s.active {
		s.history.EndBatch(false)
		s.active = false
	}
}

// Checkpoint marks a position in history that can be returned to.
type Checkpoint struct {
	entryID string
}

// CreateCheckpoint creates a checkpoint at the current history position.
// The entry at the cursor stops coalescing, so later edits always land in
// new entries that UndoToCheckpoint can revert.
func (h *History) CreateCheckpoint() Checkpoint {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cursor < 0 {
		return Checkpoint{}
	}
	e := h.entries[h.cursor]
	e.sealed = true
	return Checkpoint{entryID: e.ID}
}

// UndoToCheckpoint undoes all steps made since the checkpoint.
func (h *History) UndoToCheckpoint(cp Checkpoint) error {
	target, err := h.checkpointIndex(cp)
	if err != nil {
		return err
	}
	for h.Cursor() > target {
		if !h.Undo() {
			break
		}
	}
	return nil
}

// RedoToCheckpoint redoes steps until the checkpoint position is reached.
// This only works while the redo tail still holds the checkpoint.
func (h *History) RedoToCheckpoint(cp Checkpoint) error {
	target, err := h.checkpointIndex(cp)
	if err != nil {
		return err
	}
	for h.Cursor() < target {
		if !h.Redo() {
			break
		}
	}
	return nil
}

// checkpointIndex locates the checkpoint entry in the retained log.
func (h *History) checkpointIndex(cp Checkpoint) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if cp.entryID == "" {
		return -1, nil
	}
	for i, e := range h.entries {
		if e.ID == cp.entryID {
			return i, nil
		}
	}
	return 0, ErrCheckpointNotFound
}

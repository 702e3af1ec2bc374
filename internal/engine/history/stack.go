package history

import (
	"log/slog"
	"sync"
	"time"
)

// batchState holds operations buffered while a batch is open.
type batchState struct {
	active   bool
	label    string
	mergeKey string
	pending  []Operation
}

// History manages the undo/redo log for an element store.
type History struct {
	mu sync.Mutex

	store Store

	// entries[0..cursor] is the undoable past, entries[cursor+1..] the
	// redoable future. cursor is -1 when there is nothing to undo.
	entries []*Entry
	cursor  int

	batch batchState

	cfg    Config
	now    func() time.Time
	newID  func() string
	logger *slog.Logger
}

// New creates a history engine that replays changes against store.
func New(store Store, opts ...Option) (*History, error) {
	if store == nil {
		return nil, ErrNilStore
	}

	h := &History{
		store:  store,
		cursor: -1,
		cfg:    DefaultConfig(),
		now:    time.Now,
		newID:  defaultIDGenerator,
		logger: slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(h)
	}

	return h, nil
}

// Push reports operations the caller has already applied to the store.
// While a batch is open they are buffered; otherwise they are committed
// immediately as one group.
func (h *History) Push(ops ...Operation) {
	h.PushWith("", "", ops...)
}

// PushWith is Push with an explicit label and merge key. Both are ignored
// when a batch is open; the batch's own label and key apply.
func (h *History) PushWith(label, mergeKey string, ops ...Operation) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ops = validOps(ops)
	if len(ops) == 0 {
		return
	}

	if h.batch.active {
		h.batch.pending = append(h.batch.pending, ops...)
		return
	}

	h.commitLocked(ops, label, mergeKey)
}

// commitLocked appends or coalesces a group of operations.
func (h *History) commitLocked(ops []Operation, label, mergeKey string) {
	if len(ops) == 0 {
		return
	}

	// New mutations invalidate the redo tail.
	h.truncateFutureLocked()

	now := h.now()
	if prev := h.lastLocked(); prev != nil && h.shouldMerge(prev, label, mergeKey, now) {
		prev.Ops = append(prev.Ops, ops...)
		prev.Timestamp = now
		prev.EstimatedSize = EstimateEntrySize(prev)

		h.logger.Debug("history: merged into entry",
			"entry", prev.ID, "ops", len(ops), "total_ops", len(prev.Ops), "size", prev.EstimatedSize)
	} else {
		entry := &Entry{
			ID:        h.newID(),
			Label:     label,
			MergeKey:  mergeKey,
			Timestamp: now,
			Ops:       append([]Operation(nil), ops...),
		}
		entry.EstimatedSize = EstimateEntrySize(entry)

		h.entries = append(h.entries, entry)
		h.cursor = len(h.entries) - 1

		h.logger.Debug("history: committed entry",
			"entry", entry.ID, "label", label, "ops", len(ops), "size", entry.EstimatedSize)
	}

	if h.needsPruneLocked() {
		h.pruneLocked()
	}
}

// shouldMerge reports whether a commit may coalesce into prev.
func (h *History) shouldMerge(prev *Entry, label, mergeKey string, now time.Time) bool {
	if h.cfg.MergeWindow <= 0 || prev.sealed {
		return false
	}
	if now.Sub(prev.Timestamp) > h.cfg.MergeWindow {
		return false
	}
	if label != "" && label != prev.Label {
		return false
	}
	if mergeKey != "" && mergeKey != prev.MergeKey {
		return false
	}
	return true
}

func (h *History) truncateFutureLocked() {
	if h.cursor >= len(h.entries)-1 {
		return
	}
	for i := h.cursor + 1; i < len(h.entries); i++ {
		h.entries[i] = nil
	}
	h.entries = h.entries[:h.cursor+1]
}

func (h *History) lastLocked() *Entry {
	if len(h.entries) == 0 {
		return nil
	}
	return h.entries[len(h.entries)-1]
}

// Undo reverts the entry at the cursor, applying its operations in reverse
// order. Returns false if there is nothing to undo.
func (h *History) Undo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cursor < 0 {
		return false
	}

	entry := h.entries[h.cursor]
	for i := len(entry.Ops) - 1; i >= 0; i-- {
		entry.Ops[i].Revert(h.store)
	}
	h.cursor--

	h.logger.Debug("history: undo", "entry", entry.ID, "ops", len(entry.Ops), "cursor", h.cursor)
	return true
}

// Redo re-applies the entry after the cursor in forward order.
// Returns false if there is nothing to redo.
func (h *History) Redo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cursor >= len(h.entries)-1 {
		return false
	}

	entry := h.entries[h.cursor+1]
	for _, op := range entry.Ops {
		op.Apply(h.store)
	}
	h.cursor++

	h.logger.Debug("history: redo", "entry", entry.ID, "ops", len(entry.Ops), "cursor", h.cursor)
	return true
}

// CanUndo returns true if undo is available.
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cursor >= 0
}

// CanRedo returns true if redo is available.
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cursor < len(h.entries)-1
}

// UndoCount returns the number of undo steps available.
func (h *History) UndoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cursor + 1
}

// RedoCount returns the number of redo steps available.
func (h *History) RedoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries) - h.cursor - 1
}

// Len returns the number of retained entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Cursor returns the index of the most recent undoable entry, or -1.
func (h *History) Cursor() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cursor
}

// Clear removes all history, including any open batch.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = nil
	h.cursor = -1
	h.batch = batchState{}
}

// Entries returns info about every retained entry, oldest first.
func (h *History) Entries() []EntryInfo {
	h.mu.Lock()
	defer h.mu.Unlock()

	result := make([]EntryInfo, len(h.entries))
	for i, e := range h.entries {
		result[i] = e.info()
	}
	return result
}

// PeekUndo returns info about the next undo step without applying it.
func (h *History) PeekUndo() (EntryInfo, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cursor < 0 {
		return EntryInfo{}, false
	}
	return h.entries[h.cursor].info(), true
}

// PeekRedo returns info about the next redo step without applying it.
func (h *History) PeekRedo() (EntryInfo, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cursor >= len(h.entries)-1 {
		return EntryInfo{}, false
	}
	return h.entries[h.cursor+1].info(), true
}

// MemoryUsage returns the entry count and estimated size of the log.
func (h *History) MemoryUsage() MemoryUsage {
	h.mu.Lock()
	defer h.mu.Unlock()

	total := h.totalSizeLocked()
	return MemoryUsage{
		EntriesCount:   len(h.entries),
		EstimatedBytes: total,
		EstimatedMB:    float64(total) / bytesPerMB,
	}
}

func (h *History) totalSizeLocked() int64 {
	var total int64
	for _, e := range h.entries {
		total += e.EstimatedSize
	}
	return total
}

// Config returns the current configuration.
func (h *History) Config() Config {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cfg
}

// SetMergeWindow changes the coalescing window. Negative values are ignored.
func (h *History) SetMergeWindow(d time.Duration) {
	if d < 0 {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.cfg.MergeWindow = d
}

// SetMemoryLimits changes the entry and memory budgets and prunes if the
// log now exceeds them. Non-positive values leave that budget unchanged.
func (h *History) SetMemoryLimits(maxEntries int, maxMemoryMB float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if maxEntries > 0 {
		h.cfg.MaxEntries = maxEntries
	}
	if maxMemoryMB > 0 {
		h.cfg.MaxMemoryBytes = mbToBytes(maxMemoryMB)
	}

	if h.needsPruneLocked() {
		h.pruneLocked()
	}
}

// SetConfig replaces the configuration and prunes if needed.
func (h *History) SetConfig(cfg Config) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.cfg = cfg.normalize()
	if h.needsPruneLocked() {
		h.pruneLocked()
	}
}

package history

import (
	"time"
)

// Entry is one undoable step. It may hold several operations when a batch
// was committed or later pushes were coalesced into it.
type Entry struct {
	ID            string
	Label         string
	MergeKey      string
	Timestamp     time.Time
	Ops           []Operation
	EstimatedSize int64

	// sealed entries never absorb later pushes; set when a checkpoint
	// points at the entry.
	sealed bool
}

// Description returns the entry label, or a summary of its operations.
func (e *Entry) Description() string {
	if e.Label != "" {
		return e.Label
	}
	switch len(e.Ops) {
	case 0:
		return "Empty"
	case 1:
		return e.Ops[0].Description()
	default:
		return e.Ops[0].Description() + " (+more)"
	}
}

// info builds a read-only view of the entry.
func (e *Entry) info() EntryInfo {
	return EntryInfo{
		ID:            e.ID,
		Label:         e.Label,
		MergeKey:      e.MergeKey,
		Description:   e.Description(),
		Timestamp:     e.Timestamp,
		OpCount:       len(e.Ops),
		EstimatedSize: e.EstimatedSize,
	}
}

// EntryInfo provides read-only info about an entry.
// Used for displaying undo/redo history to users.
type EntryInfo struct {
	ID            string
	Label         string
	MergeKey      string
	Description   string
	Timestamp     time.Time
	OpCount       int
	EstimatedSize int64
}

// MemoryUsage reports the size of the retained log.
type MemoryUsage struct {
	EntriesCount   int
	EstimatedBytes int64
	EstimatedMB    float64
}

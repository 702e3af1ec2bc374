package compat

import (
	"github.com/dshills/strata/internal/engine/history"
)

// Recorder feeds loosely shaped operations into a history engine. The host
// must already have applied them to its store; the recorder only logs them.
type Recorder struct {
	history *history.History
}

// NewRecorder creates a recorder for h.
func NewRecorder(h *history.History) *Recorder {
	return &Recorder{history: h}
}

// Push decodes data and pushes every valid operation as one group. It
// returns the number of operations recorded; malformed input records
// nothing.
func (r *Recorder) Push(data []byte) int {
	return r.PushWith("", "", data)
}

// PushWith is Push with a label and merge key.
func (r *Recorder) PushWith(label, mergeKey string, data []byte) int {
	ops := DecodeOperations(data)
	if len(ops) == 0 {
		return 0
	}
	r.history.PushWith(label, mergeKey, ops...)
	return len(ops)
}

// Replay applies each decoded group to store and records it, the way a
// host replays a saved editing session. It returns the number of groups
// replayed.
func Replay(h *history.History, store history.Store, data []byte) int {
	groups := DecodeGroups(data)
	for _, g := range groups {
		for _, op := range g.Ops {
			op.Apply(store)
		}
		h.PushWith(g.Label, g.MergeKey, g.Ops...)
	}
	return len(groups)
}

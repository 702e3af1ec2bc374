package history

import (
	"math"
	"sort"
)

// PruneHistory runs the pruning policy regardless of thresholds and returns
// the number of entries removed.
func (h *History) PruneHistory() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pruneLocked()
}

// needsPruneLocked reports whether the log exceeds the prune threshold of
// either budget.
func (h *History) needsPruneLocked() bool {
	ratio := h.cfg.PruneThresholdRatio
	if float64(len(h.entries)) > float64(h.cfg.MaxEntries)*ratio {
		return true
	}
	return float64(h.totalSizeLocked()) > float64(h.cfg.MaxMemoryBytes)*ratio
}

// retentionTargets splits the entry budget between past and future.
func (h *History) retentionTargets() (past, future int) {
	past = int(math.Floor(float64(h.cfg.MaxEntries)*h.cfg.PastRetentionRatio + 1e-9))
	if past < 1 {
		past = 1
	}
	future = h.cfg.MaxEntries - past
	if future < 0 {
		future = 0
	}
	return past, future
}

// retained is an entry surviving the count phase, tagged with its side of
// the cursor.
type retained struct {
	entry *Entry
	past  bool
}

// pruneLocked bounds the log. Oldest past entries and farthest future
// entries go first; if the estimate still exceeds the memory budget, the
// largest entries outside the newest ProtectedRecent are evicted. The cursor
// is recomputed so it still marks the past/future boundary.
func (h *History) pruneLocked() int {
	before := len(h.entries)
	if before == 0 {
		return 0
	}

	pastTarget, futureTarget := h.retentionTargets()

	past := h.entries[:h.cursor+1]
	future := h.entries[h.cursor+1:]
	if len(past) > pastTarget {
		past = past[len(past)-pastTarget:]
	}
	if len(future) > futureTarget {
		future = future[:futureTarget]
	}

	kept := make([]retained, 0, len(past)+len(future))
	var total int64
	for _, e := range past {
		kept = append(kept, retained{entry: e, past: true})
		total += e.EstimatedSize
	}
	for _, e := range future {
		kept = append(kept, retained{entry: e})
		total += e.EstimatedSize
	}

	if total > h.cfg.MaxMemoryBytes && len(kept) > h.cfg.MinEntriesForMemoryPrune {
		kept, total = h.evictLargest(kept, total)
	}

	entries := make([]*Entry, len(kept))
	pastCount := 0
	for i, r := range kept {
		entries[i] = r.entry
		if r.past {
			pastCount++
		}
	}

	h.entries = entries
	h.cursor = clamp(pastCount-1, -1, len(entries)-1)

	pruned := before - len(entries)
	if pruned > 0 {
		h.logger.Debug("history: pruned entries",
			"pruned", pruned, "remaining", len(entries), "bytes", total, "cursor", h.cursor)
	}
	return pruned
}

// evictLargest drops entries largest-first until the memory budget is met
// or only MinEntriesForMemoryPrune entries remain. The newest
// ProtectedRecent entries are never candidates.
func (h *History) evictLargest(kept []retained, total int64) ([]retained, int64) {
	protectFrom := len(kept) - h.cfg.ProtectedRecent
	if protectFrom <= 0 {
		return kept, total
	}

	candidates := make([]int, protectFrom)
	for i := range candidates {
		candidates[i] = i
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return kept[candidates[a]].entry.EstimatedSize > kept[candidates[b]].entry.EstimatedSize
	})

	evicted := make(map[int]bool)
	for _, idx := range candidates {
		if total <= h.cfg.MaxMemoryBytes || len(kept)-len(evicted) <= h.cfg.MinEntriesForMemoryPrune {
			break
		}
		evicted[idx] = true
		total -= kept[idx].entry.EstimatedSize
	}

	if len(evicted) == 0 {
		return kept, total
	}

	out := make([]retained, 0, len(kept)-len(evicted))
	for i, r := range kept {
		if !evicted[i] {
			out = append(out, r)
		}
	}
	return out, total
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package history

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/dshills/strata/internal/element"
)

// pushDistinct commits n non-mergeable entries, each adding its own element.
func pushDistinct(h *History, mem interface {
	InsertAt(int, element.ID, *element.Element)
	IndexOf(element.ID) int
}, clk *fakeClock, n int) {
	for i := 0; i < n; i++ {
		el := rect(element.ID(fmt.Sprintf("el-%d", i)), float64(i))
		mem.InsertAt(-1, el.ID, el)
		h.Push(NewAddAt([]*element.Element{el}, []int{mem.IndexOf(el.ID)}))
		clk.Advance(time.Second)
	}
}

func entryIDs(h *History) []string {
	var ids []string
	for _, e := range h.Entries() {
		ids = append(ids, e.ID)
	}
	return ids
}

// Scenario: the log settles within a small entry budget and undo still
// reverts the newest retained entry.
func TestPruneSettlesWithinMaxEntries(t *testing.T) {
	h, mem, clk := newTestHistory(t, WithMaxEntries(5))

	pushDistinct(h, mem, clk, 10)

	if h.Len() > 5 {
		t.Fatalf("Len() = %d, want <= 5", h.Len())
	}
	if h.Cursor() != h.Len()-1 {
		t.Errorf("Cursor() = %d, want %d", h.Cursor(), h.Len()-1)
	}

	if !h.Undo() {
		t.Fatal("Undo() = false")
	}
	if _, ok := mem.Get("el-9"); ok {
		t.Error("undo did not revert the most recent entry")
	}
	if _, ok := mem.Get("el-8"); !ok {
		t.Error("undo reverted more than one entry")
	}
}

func TestPruneBoundHoldsAfterEveryCommit(t *testing.T) {
	const maxEntries = 20
	h, mem, clk := newTestHistory(t, WithMaxEntries(maxEntries))

	for i := 0; i < 200; i++ {
		el := rect(element.ID(fmt.Sprintf("n%d", i)), 0)
		mem.InsertAt(-1, el.ID, el)
		h.Push(NewAdd(el))
		clk.Advance(time.Second)

		if h.Len() > maxEntries {
			t.Fatalf("after %d pushes Len() = %d, want <= %d", i+1, h.Len(), maxEntries)
		}
	}
}

func TestPruneKeepsNewestPast(t *testing.T) {
	h, mem, clk := newTestHistory(t, WithMaxEntries(10), WithPruneThresholdRatio(1))
	pushDistinct(h, mem, clk, 10)

	pruned := h.PruneHistory()

	if pruned != 3 {
		t.Errorf("PruneHistory() = %d, want 3", pruned)
	}
	ids := entryIDs(h)
	if len(ids) != 7 || ids[0] != "e3" || ids[6] != "e9" {
		t.Errorf("retained %v, want e3..e9", ids)
	}
	if h.Cursor() != 6 {
		t.Errorf("Cursor() = %d, want 6", h.Cursor())
	}
}

func TestPruneDropsFarthestFuture(t *testing.T) {
	h, mem, clk := newTestHistory(t, WithMaxEntries(10), WithPruneThresholdRatio(1))
	pushDistinct(h, mem, clk, 10)
	for i := 0; i < 6; i++ {
		h.Undo()
	}
	// past e0..e3, future e4..e9

	pruned := h.PruneHistory()

	if pruned != 3 {
		t.Errorf("PruneHistory() = %d, want 3", pruned)
	}
	ids := entryIDs(h)
	want := []string{"e0", "e1", "e2", "e3", "e4", "e5", "e6"}
	if strings.Join(ids, ",") != strings.Join(want, ",") {
		t.Errorf("retained %v, want %v", ids, want)
	}
	if h.Cursor() != 3 {
		t.Errorf("Cursor() = %d, want 3", h.Cursor())
	}

	// The boundary still works in both directions.
	if !h.Redo() {
		t.Fatal("Redo() = false")
	}
	if _, ok := mem.Get("el-4"); !ok {
		t.Error("redo did not re-add el-4")
	}
	h.Undo()
	h.Undo()
	if _, ok := mem.Get("el-3"); ok {
		t.Error("undo did not remove el-3")
	}
}

func TestPruneWithAllUndone(t *testing.T) {
	h, mem, clk := newTestHistory(t, WithMaxEntries(10), WithPruneThresholdRatio(1))
	pushDistinct(h, mem, clk, 6)
	for h.Undo() {
	}

	h.SetMemoryLimits(4, 0)

	if h.Cursor() != -1 {
		t.Errorf("Cursor() = %d, want -1", h.Cursor())
	}
	if h.Len() != 2 {
		t.Errorf("Len() = %d, want 2 (future share of 4)", h.Len())
	}
	if !h.CanRedo() || h.CanUndo() {
		t.Error("expected only redo to be available")
	}
}

func TestPruneEmptyHistory(t *testing.T) {
	h, _, _ := newTestHistory(t)
	if got := h.PruneHistory(); got != 0 {
		t.Errorf("PruneHistory() = %d, want 0", got)
	}
	if h.Cursor() != -1 {
		t.Errorf("Cursor() = %d, want -1", h.Cursor())
	}
}

func TestPruneEvictsLargestOutsideRecent(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxEntries = 100
	cfg.MaxMemoryBytes = 50_000
	cfg.PruneThresholdRatio = 1
	h, mem, clk := newTestHistory(t, WithConfig(cfg))

	for i := 0; i < 15; i++ {
		el := rect(element.ID(fmt.Sprintf("el-%d", i)), 0)
		if i == 2 || i == 12 {
			el.Kind = element.KindImage
			el.DataURL = strings.Repeat("x", 100_000)
		}
		mem.InsertAt(-1, el.ID, el)
		h.Push(NewAdd(el))
		clk.Advance(time.Second)
	}

	ids := entryIDs(h)
	has := func(id string) bool {
		for _, v := range ids {
			if v == id {
				return true
			}
		}
		return false
	}

	if has("e2") {
		t.Error("old large entry should have been evicted")
	}
	if !has("e12") {
		t.Error("large entry among the newest should be protected")
	}
	if h.Len() != cfg.MinEntriesForMemoryPrune {
		t.Errorf("Len() = %d, want %d", h.Len(), cfg.MinEntriesForMemoryPrune)
	}
	if h.Cursor() != h.Len()-1 || h.CanRedo() {
		t.Errorf("Cursor() = %d, Len() = %d", h.Cursor(), h.Len())
	}

	h.Undo()
	if _, ok := mem.Get("el-14"); ok {
		t.Error("undo did not revert the newest entry")
	}
}

func TestPruneMemoryStopsAtMinimumEntries(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxMemoryBytes = 1000
	cfg.PruneThresholdRatio = 1
	h, mem, clk := newTestHistory(t, WithConfig(cfg))

	pushDistinct(h, mem, clk, 8)

	// Over budget, but too few entries for memory pruning.
	if h.Len() != 8 {
		t.Errorf("Len() = %d, want 8", h.Len())
	}
	if h.MemoryUsage().EstimatedBytes <= cfg.MaxMemoryBytes {
		t.Error("test setup should exceed the memory budget")
	}
}

func TestRetentionTargets(t *testing.T) {
	tests := []struct {
		max        int
		ratio      float64
		wantPast   int
		wantFuture int
	}{
		{10, 0.7, 7, 3},
		{5, 0.7, 3, 2},
		{1, 0.7, 1, 0},
		{100, 1, 100, 0},
	}

	for _, tt := range tests {
		h, _, _ := newTestHistory(t, WithMaxEntries(tt.max), WithRetention(tt.ratio, 5))
		past, future := h.retentionTargets()
		if past != tt.wantPast || future != tt.wantFuture {
			t.Errorf("retentionTargets(%d, %v) = %d/%d, want %d/%d",
				tt.max, tt.ratio, past, future, tt.wantPast, tt.wantFuture)
		}
	}
}

package history

import (
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"testing"
	"time"

	"github.com/dshills/strata/internal/element"
	"github.com/dshills/strata/internal/store"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// sequentialIDs returns a generator producing e0, e1, ...
func sequentialIDs() func() string {
	n := 0
	return func() string {
		id := fmt.Sprintf("e%d", n)
		n++
		return id
	}
}

// Helper to create a history over an in-memory store with a fake clock.
func newTestHistory(t *testing.T, opts ...Option) (*History, *store.Memory, *fakeClock) {
	t.Helper()

	mem := store.NewMemory()
	clk := newFakeClock()

	all := append([]Option{WithClock(clk.Now), WithIDGenerator(sequentialIDs())}, opts...)
	h, err := New(mem, all...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return h, mem, clk
}

func rect(id element.ID, x float64) *element.Element {
	return &element.Element{ID: id, Kind: element.KindRect, X: x, Width: 10, Height: 10}
}

// addElement inserts el into the store and reports it, as a caller would.
func addElement(h *History, mem *store.Memory, el *element.Element) {
	mem.InsertAt(-1, el.ID, el)
	h.Push(NewAddAt([]*element.Element{el}, []int{mem.IndexOf(el.ID)}))
}

// storeState is a comparable copy of the store contents.
type storeState struct {
	Order    []element.ID
	Elements map[element.ID]element.Element
}

func captureState(mem *store.Memory) storeState {
	s := storeState{
		Order:    mem.Order(),
		Elements: make(map[element.ID]element.Element),
	}
	if len(s.Order) == 0 {
		s.Order = nil
	}
	for _, el := range mem.Elements() {
		s.Elements[el.ID] = *el.Clone()
	}
	return s
}

func assertState(t *testing.T, mem *store.Memory, want storeState) {
	t.Helper()
	got := captureState(mem)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("store state mismatch:\n got  %+v\n want %+v", got, want)
	}
}

func newTestLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

package document

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/dshills/strata/internal/element"
	"github.com/dshills/strata/internal/engine/history"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestDocument(t *testing.T, opts ...history.Option) (*Document, *clock) {
	t.Helper()
	clk := &clock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	d, err := New(append([]history.Option{history.WithClock(clk.now)}, opts...)...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return d, clk
}

func box(id element.ID) *element.Element {
	return &element.Element{ID: id, Kind: element.KindRect, Width: 10, Height: 10}
}

func order(d *Document) []element.ID { return d.Store().Order() }

func TestAddUndoRedo(t *testing.T) {
	d, _ := newTestDocument(t)

	if err := d.Add(box("a"), box("b")); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if got := order(d); !slices.Equal(got, []element.ID{"a", "b"}) {
		t.Fatalf("order = %v", got)
	}

	d.Undo()
	if d.Store().Len() != 0 {
		t.Errorf("Len() = %d after undo, want 0", d.Store().Len())
	}

	d.Redo()
	if got := order(d); !slices.Equal(got, []element.ID{"a", "b"}) {
		t.Errorf("order after redo = %v", got)
	}
}

func TestAddSnapshotsInput(t *testing.T) {
	d, _ := newTestDocument(t)
	el := box("a")
	if err := d.Add(el); err != nil {
		t.Fatal(err)
	}

	el.X = 99
	got, _ := d.Get("a")
	if got.X != 0 {
		t.Error("document shares the caller's element")
	}
}

func TestAddErrors(t *testing.T) {
	d, _ := newTestDocument(t)
	if err := d.Add(box("a")); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		els  []*element.Element
		want error
	}{
		{"duplicate", []*element.Element{box("a")}, ErrDuplicateID},
		{"nil", []*element.Element{nil}, ErrInvalidElement},
		{"no id", []*element.Element{{Kind: element.KindRect}}, ErrInvalidElement},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := d.Add(tt.els...); !errors.Is(err, tt.want) {
				t.Errorf("Add() error = %v, want %v", err, tt.want)
			}
		})
	}

	if d.History().Len() != 1 {
		t.Errorf("failed adds were recorded: Len() = %d", d.History().Len())
	}
}

func TestAddAtPosition(t *testing.T) {
	d, clk := newTestDocument(t)
	_ = d.Add(box("a"), box("d"))
	clk.advance(time.Second)

	if err := d.AddAt(1, box("b"), box("c")); err != nil {
		t.Fatal(err)
	}
	want := []element.ID{"a", "b", "c", "d"}
	if got := order(d); !slices.Equal(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}

	d.Undo()
	d.Redo()
	if got := order(d); !slices.Equal(got, want) {
		t.Errorf("order after undo/redo = %v, want %v", got, want)
	}
}

func TestUpdateRestoresSnapshot(t *testing.T) {
	d, clk := newTestDocument(t)
	_ = d.Add(box("a"))
	clk.advance(time.Second)

	err := d.Update("a", func(el *element.Element) {
		el.X = 50
		el.Text = "moved"
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	d.Undo()
	got, _ := d.Get("a")
	if got.X != 0 || got.Text != "" {
		t.Errorf("after undo = %+v", got)
	}

	d.Redo()
	got, _ = d.Get("a")
	if got.X != 50 || got.Text != "moved" {
		t.Errorf("after redo = %+v", got)
	}
}

func TestUpdateMissing(t *testing.T) {
	d, _ := newTestDocument(t)
	err := d.Update("ghost", func(*element.Element) {})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
}

func TestUpdateWithCoalescesDrag(t *testing.T) {
	d, clk := newTestDocument(t)
	_ = d.Add(box("a"))
	clk.advance(time.Second)

	for i := 1; i <= 10; i++ {
		x := float64(i * 10)
		_ = d.UpdateWith("Move", "drag:a", "a", func(el *element.Element) { el.X = x })
		clk.advance(50 * time.Millisecond)
	}

	if d.History().Len() != 2 {
		t.Fatalf("Len() = %d, want 2", d.History().Len())
	}

	d.Undo()
	got, _ := d.Get("a")
	if got.X != 0 {
		t.Errorf("X = %v after one undo, want 0", got.X)
	}
}

func TestRemoveRestoresPositions(t *testing.T) {
	d, clk := newTestDocument(t)
	_ = d.Add(box("a"), box("b"), box("c"), box("d"), box("e"))
	clk.advance(time.Second)

	if err := d.Remove("d", "b"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if got := order(d); !slices.Equal(got, []element.ID{"a", "c", "e"}) {
		t.Fatalf("order = %v", got)
	}

	d.Undo()
	want := []element.ID{"a", "b", "c", "d", "e"}
	if got := order(d); !slices.Equal(got, want) {
		t.Errorf("order after undo = %v, want %v", got, want)
	}
}

func TestRemoveMissingLeavesStore(t *testing.T) {
	d, _ := newTestDocument(t)
	_ = d.Add(box("a"))

	if err := d.Remove("a", "ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Remove() error = %v, want ErrNotFound", err)
	}
	if _, ok := d.Get("a"); !ok {
		t.Error("partial remove deleted an element")
	}
}

func TestReorderAndMove(t *testing.T) {
	d, clk := newTestDocument(t)
	_ = d.Add(box("a"), box("b"), box("c"))
	clk.advance(time.Second)

	if err := d.Move("a", 10); err != nil {
		t.Fatalf("Move() error = %v", err)
	}
	if got := order(d); !slices.Equal(got, []element.ID{"b", "c", "a"}) {
		t.Fatalf("order = %v", got)
	}

	d.Undo()
	if got := order(d); !slices.Equal(got, []element.ID{"a", "b", "c"}) {
		t.Errorf("order after undo = %v", got)
	}
}

func TestReorderValidation(t *testing.T) {
	d, _ := newTestDocument(t)
	_ = d.Add(box("a"), box("b"))

	tests := []struct {
		name  string
		order []element.ID
	}{
		{"missing", []element.ID{"a"}},
		{"unknown", []element.ID{"a", "z"}},
		{"duplicate", []element.ID{"a", "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := d.Reorder(tt.order); !errors.Is(err, ErrInvalidOrder) {
				t.Errorf("Reorder() error = %v, want ErrInvalidOrder", err)
			}
		})
	}
}

func TestReorderUnchangedRecordsNothing(t *testing.T) {
	d, clk := newTestDocument(t)
	_ = d.Add(box("a"), box("b"))
	clk.advance(time.Second)

	if err := d.Reorder([]element.ID{"a", "b"}); err != nil {
		t.Fatal(err)
	}
	if d.History().Len() != 1 {
		t.Errorf("Len() = %d, want 1", d.History().Len())
	}
}

func TestWrap(t *testing.T) {
	src, _ := newTestDocument(t)
	d := Wrap(src.Store(), src.History())
	_ = d.Add(box("a"))
	if src.History().Len() != 1 {
		t.Error("wrapped document did not record into the shared history")
	}
}

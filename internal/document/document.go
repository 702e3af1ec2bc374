// Package document pairs an element store with a history engine.
//
// Every mutation is applied to the store first and then reported to the
// history as an operation carrying the snapshots it needs to be reverted.
// Callers that drive the store directly must follow the same order.
package document

import (
	"fmt"
	"slices"

	"github.com/dshills/strata/internal/element"
	"github.com/dshills/strata/internal/engine/history"
	"github.com/dshills/strata/internal/store"
)

// Document is an editable element collection with undo/redo.
type Document struct {
	store   *store.Memory
	history *history.History
}

// New creates an empty document with a fresh history configured by opts.
func New(opts ...history.Option) (*Document, error) {
	mem := store.NewMemory()
	h, err := history.New(mem, opts...)
	if err != nil {
		return nil, err
	}
	return &Document{store: mem, history: h}, nil
}

// Wrap binds an existing store and history. h must replay into mem.
func Wrap(mem *store.Memory, h *history.History) *Document {
	return &Document{store: mem, history: h}
}

// Store returns the underlying element store.
func (d *Document) Store() *store.Memory { return d.store }

// History returns the underlying history engine.
func (d *Document) History() *history.History { return d.history }

// Get returns the current element stored under id.
func (d *Document) Get(id element.ID) (*element.Element, bool) {
	return d.store.Get(id)
}

// Add appends elements in the given order and records one Add operation.
func (d *Document) Add(els ...*element.Element) error {
	return d.AddAt(-1, els...)
}

// AddAt inserts elements starting at index. A negative index appends.
func (d *Document) AddAt(index int, els ...*element.Element) error {
	if len(els) == 0 {
		return nil
	}
	for _, el := range els {
		if el == nil || el.ID == "" {
			return ErrInvalidElement
		}
		if _, ok := d.store.Get(el.ID); ok {
			return fmt.Errorf("%w: %s", ErrDuplicateID, el.ID)
		}
	}

	added := make([]*element.Element, len(els))
	indices := make([]int, len(els))
	for i, el := range els {
		snap := el.Clone()
		at := index
		if index >= 0 {
			at = index + i
		}
		d.store.InsertAt(at, snap.ID, snap)
		added[i] = snap
		indices[i] = d.store.IndexOf(snap.ID)
	}

	d.history.Push(history.NewAddAt(added, indices))
	return nil
}

// Update applies fn to a copy of the element and records the change.
func (d *Document) Update(id element.ID, fn func(el *element.Element)) error {
	return d.UpdateWith("", "", id, fn)
}

// UpdateWith is Update with an explicit label and merge key, so that
// continuous gestures on one element coalesce into a single undo step.
func (d *Document) UpdateWith(label, mergeKey string, id element.ID, fn func(el *element.Element)) error {
	before, after, ok := d.store.Mutate(id, fn)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	d.history.PushWith(label, mergeKey, history.NewUpdate(before, after))
	return nil
}

// Remove deletes elements and records their positions so undo restores
// the original ordering.
func (d *Document) Remove(ids ...element.ID) error {
	if len(ids) == 0 {
		return nil
	}

	type placed struct {
		el    *element.Element
		index int
	}
	targets := make([]placed, 0, len(ids))
	for _, id := range ids {
		el, ok := d.store.Get(id)
		if !ok {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		targets = append(targets, placed{el: el, index: d.store.IndexOf(id)})
	}
	slices.SortStableFunc(targets, func(a, b placed) int { return a.index - b.index })

	els := make([]*element.Element, len(targets))
	indices := make([]int, len(targets))
	for i, t := range targets {
		els[i] = t.el
		indices[i] = t.index
	}
	for _, el := range els {
		d.store.Delete(el.ID)
	}

	d.history.Push(history.NewRemoveAt(els, indices))
	return nil
}

// Reorder replaces the ordering. order must be a permutation of the
// current element ids. An unchanged ordering records nothing.
func (d *Document) Reorder(order []element.ID) error {
	before := d.store.Order()
	if !samePermutation(before, order) {
		return ErrInvalidOrder
	}
	if slices.Equal(before, order) {
		return nil
	}

	after := slices.Clone(order)
	d.store.SetOrder(after)
	d.history.Push(history.NewReorder(before, after))
	return nil
}

// Move places id at index in the ordering, clamped to the valid range.
func (d *Document) Move(id element.ID, index int) error {
	order := d.store.Order()
	from := slices.Index(order, id)
	if from < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	order = slices.Delete(order, from, from+1)
	index = max(0, min(index, len(order)))
	order = slices.Insert(order, index, id)
	return d.Reorder(order)
}

// Undo reverts the most recent history entry.
func (d *Document) Undo() bool { return d.history.Undo() }

// Redo re-applies the next history entry.
func (d *Document) Redo() bool { return d.history.Redo() }

func samePermutation(a, b []element.ID) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[element.ID]int, len(a))
	for _, id := range a {
		seen[id]++
	}
	for _, id := range b {
		if seen[id] == 0 {
			return false
		}
		seen[id]--
	}
	return true
}

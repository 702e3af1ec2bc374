// Package store provides an in-memory element store.
//
// The store is copy-on-write: an element pointer it holds is never mutated
// after insertion. Edits go through Mutate, which clones, applies the edit
// and swaps the clone in. This lets the history engine keep the before and
// after pointers as snapshots without extra copies.
package store

import (
	"slices"
	"sync"

	"github.com/dshills/strata/internal/element"
)

// Memory is a keyed, ordered element store.
type Memory struct {
	mu       sync.RWMutex
	elements map[element.ID]*element.Element
	order    []element.ID
}

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{
		elements: make(map[element.ID]*element.Element),
	}
}

// Get returns the element stored under id. The returned element must be
// treated as read-only; use Mutate or Clone to edit.
func (m *Memory) Get(id element.ID) (*element.Element, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	el, ok := m.elements[id]
	return el, ok
}

// Snapshot returns an independent copy of the element stored under id.
func (m *Memory) Snapshot(id element.ID) (*element.Element, bool) {
	el, ok := m.Get(id)
	if !ok {
		return nil, false
	}
	return el.Clone(), true
}

// Set stores el under id. An id not yet in the ordering is appended.
func (m *Memory) Set(id element.ID, el *element.Element) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.elements[id]; !ok && !slices.Contains(m.order, id) {
		m.order = append(m.order, id)
	}
	m.elements[id] = el
}

// Delete removes the element and its position in the ordering.
func (m *Memory) Delete(id element.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.elements, id)
	m.order = slices.DeleteFunc(m.order, func(o element.ID) bool { return o == id })
}

// InsertAt stores el and places it at index in the ordering. A negative or
// out-of-range index appends. An id already present is moved.
func (m *Memory) InsertAt(index int, id element.ID, el *element.Element) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.order = slices.DeleteFunc(m.order, func(o element.ID) bool { return o == id })
	if index < 0 || index > len(m.order) {
		index = len(m.order)
	}
	m.order = slices.Insert(m.order, index, id)
	m.elements[id] = el
}

// SetOrder replaces the ordering with a copy of ids.
func (m *Memory) SetOrder(ids []element.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.order = slices.Clone(ids)
}

// Order returns a copy of the ordering.
func (m *Memory) Order() []element.ID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.order)
}

// IndexOf returns the position of id in the ordering, or -1.
func (m *Memory) IndexOf(id element.ID) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Index(m.order, id)
}

// Len returns the number of stored elements.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.elements)
}

// Elements returns the stored elements in order.
func (m *Memory) Elements() []*element.Element {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*element.Element, 0, len(m.order))
	for _, id := range m.order {
		if el, ok := m.elements[id]; ok {
			out = append(out, el)
		}
	}
	return out
}

// Mutate applies fn to a clone of the element stored under id, bumps its
// version and stores the clone. It returns the previous and new elements;
// both are immutable from here on and can be logged as snapshots.
func (m *Memory) Mutate(id element.ID, fn func(el *element.Element)) (before, after *element.Element, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	before, ok = m.elements[id]
	if !ok {
		return nil, nil, false
	}

	after = before.Clone()
	fn(after)
	after.ID = id
	after.Touch()

	m.elements[id] = after
	return before, after, true
}

package history

import (
	"github.com/dshills/strata/internal/element"
)

// Store is the element store the history engine replays changes against.
//
// Implementations must not keep references that something other than the
// history engine could later mutate: the snapshots passed to Set and
// InsertAt are owned by the log.
type Store interface {
	// Get returns the element with the given id.
	Get(id element.ID) (*element.Element, bool)

	// Set replaces the element stored under id.
	Set(id element.ID, el *element.Element)

	// Delete removes the element and its position in the ordering.
	Delete(id element.ID)

	// InsertAt inserts the element at index in the ordering.
	// An index that is negative or past the end appends.
	InsertAt(index int, id element.ID, el *element.Element)

	// SetOrder replaces the full ordering.
	SetOrder(ids []element.ID)

	// Order returns the current ordering.
	Order() []element.ID
}

// StoreFuncs adapts a set of closures to the Store interface.
// Nil functions are treated as no-ops.
type StoreFuncs struct {
	GetElement      func(id element.ID) (*element.Element, bool)
	SetElement      func(id element.ID, el *element.Element)
	DeleteElement   func(id element.ID)
	InsertElementAt func(index int, id element.ID, el *element.Element)
	SetOrderFunc    func(ids []element.ID)
	GetOrder        func() []element.ID
}

// Get implements Store.
func (f StoreFuncs) Get(id element.ID) (*element.Element, bool) {
	if f.GetElement == nil {
		return nil, false
	}
	return f.GetElement(id)
}

// Set implements Store.
func (f StoreFuncs) Set(id element.ID, el *element.Element) {
	if f.SetElement != nil {
		f.SetElement(id, el)
	}
}

// Delete implements Store.
func (f StoreFuncs) Delete(id element.ID) {
	if f.DeleteElement != nil {
		f.DeleteElement(id)
	}
}

// InsertAt implements Store.
func (f StoreFuncs) InsertAt(index int, id element.ID, el *element.Element) {
	if f.InsertElementAt != nil {
		f.InsertElementAt(index, id, el)
	}
}

// SetOrder implements Store.
func (f StoreFuncs) SetOrder(ids []element.ID) {
	if f.SetOrderFunc != nil {
		f.SetOrderFunc(ids)
	}
}

// Order implements Store.
func (f StoreFuncs) Order() []element.ID {
	if f.GetOrder == nil {
		return nil
	}
	return f.GetOrder()
}

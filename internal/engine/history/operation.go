package history

import (
	"fmt"
	"sort"

	"github.com/dshills/strata/internal/element"
)

// Kind identifies the variant of an Operation.
type Kind int

const (
	// KindAdd inserts elements.
	KindAdd Kind = iota
	// KindRemove deletes elements.
	KindRemove
	// KindUpdate replaces elements with new snapshots.
	KindUpdate
	// KindReorder replaces the element ordering.
	KindReorder
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindAdd:
		return "add"
	case KindRemove:
		return "remove"
	case KindUpdate:
		return "update"
	case KindReorder:
		return "reorder"
	default:
		return "unknown"
	}
}

// Operation is a single reversible change to the element store.
// The set of implementations is closed: *Add, *Remove, *Update and *Reorder.
type Operation interface {
	// Kind returns the operation variant.
	Kind() Kind

	// Apply performs the forward effect on the store (redo).
	Apply(s Store)

	// Revert performs the inverse effect on the store (undo).
	Revert(s Store)

	// Empty reports whether the operation carries nothing to replay.
	Empty() bool

	// Description returns a human-readable description.
	Description() string

	isOperation()
}

// Add records inserted elements.
type Add struct {
	Elements []*element.Element
	// Indices holds the insertion index of each element. Missing entries
	// (or a nil slice) mean "append".
	Indices []int
}

// NewAdd creates an Add operation that appends the given snapshots.
func NewAdd(els ...*element.Element) *Add {
	return &Add{Elements: els}
}

// NewAddAt creates an Add operation with recorded insertion indices.
func NewAddAt(els []*element.Element, indices []int) *Add {
	return &Add{Elements: els, Indices: indices}
}

// Kind implements Operation.
func (op *Add) Kind() Kind { return KindAdd }

// Apply inserts each element at its recorded index.
func (op *Add) Apply(s Store) {
	for i, el := range op.Elements {
		if el == nil {
			continue
		}
		s.InsertAt(indexAt(op.Indices, i), el.ID, el)
	}
}

// Revert removes each listed element.
func (op *Add) Revert(s Store) {
	for i := len(op.Elements) - 1; i >= 0; i-- {
		if el := op.Elements[i]; el != nil {
			s.Delete(el.ID)
		}
	}
}

// Empty implements Operation.
func (op *Add) Empty() bool { return countElements(op.Elements) == 0 }

// Description implements Operation.
func (op *Add) Description() string {
	return describe("Add", countElements(op.Elements))
}

func (op *Add) isOperation() {}

// Remove records deleted elements.
type Remove struct {
	Elements []*element.Element
	// Indices holds the position each element occupied before removal.
	Indices []int
}

// NewRemove creates a Remove operation without recorded positions.
// Undo appends the elements.
func NewRemove(els ...*element.Element) *Remove {
	return &Remove{Elements: els}
}

// NewRemoveAt creates a Remove operation with recorded positions.
func NewRemoveAt(els []*element.Element, indices []int) *Remove {
	return &Remove{Elements: els, Indices: indices}
}

// Kind implements Operation.
func (op *Remove) Kind() Kind { return KindRemove }

// Apply removes each listed element.
func (op *Remove) Apply(s Store) {
	for _, el := range op.Elements {
		if el != nil {
			s.Delete(el.ID)
		}
	}
}

// Revert re-inserts the elements. Elements with a recorded index are
// inserted in ascending index order so each lands at its original position;
// the rest are appended afterwards.
func (op *Remove) Revert(s Store) {
	type placed struct {
		el    *element.Element
		index int
	}

	var indexed, appended []placed
	for i, el := range op.Elements {
		if el == nil {
			continue
		}
		p := placed{el: el, index: indexAt(op.Indices, i)}
		if p.index < 0 {
			appended = append(appended, p)
		} else {
			indexed = append(indexed, p)
		}
	}

	sort.SliceStable(indexed, func(a, b int) bool {
		return indexed[a].index < indexed[b].index
	})

	for _, p := range indexed {
		s.InsertAt(p.index, p.el.ID, p.el)
	}
	for _, p := range appended {
		s.InsertAt(-1, p.el.ID, p.el)
	}
}

// Empty implements Operation.
func (op *Remove) Empty() bool { return countElements(op.Elements) == 0 }

// Description implements Operation.
func (op *Remove) Description() string {
	return describe("Remove", countElements(op.Elements))
}

func (op *Remove) isOperation() {}

// Update records elements replaced in place.
// Before and After are matched by element id, not by position.
type Update struct {
	Before []*element.Element
	After  []*element.Element
}

// NewUpdate creates an Update operation for a single element.
func NewUpdate(before, after *element.Element) *Update {
	return &Update{
		Before: []*element.Element{before},
		After:  []*element.Element{after},
	}
}

// Kind implements Operation.
func (op *Update) Kind() Kind { return KindUpdate }

// Apply sets each key to its after snapshot.
func (op *Update) Apply(s Store) {
	for _, el := range op.After {
		if el != nil {
			s.Set(el.ID, el)
		}
	}
}

// Revert sets each key to its before snapshot.
func (op *Update) Revert(s Store) {
	for i := len(op.Before) - 1; i >= 0; i-- {
		if el := op.Before[i]; el != nil {
			s.Set(el.ID, el)
		}
	}
}

// Empty implements Operation.
func (op *Update) Empty() bool {
	return countElements(op.Before) == 0 && countElements(op.After) == 0
}

// Description implements Operation.
func (op *Update) Description() string {
	n := countElements(op.After)
	if b := countElements(op.Before); b > n {
		n = b
	}
	return describe("Update", n)
}

func (op *Update) isOperation() {}

// Reorder records a change of the element ordering.
type Reorder struct {
	Before []element.ID
	After  []element.ID
}

// NewReorder creates a Reorder operation.
func NewReorder(before, after []element.ID) *Reorder {
	return &Reorder{Before: before, After: after}
}

// Kind implements Operation.
func (op *Reorder) Kind() Kind { return KindReorder }

// Apply replaces the ordering with After.
func (op *Reorder) Apply(s Store) {
	s.SetOrder(cloneIDs(op.After))
}

// Revert replaces the ordering with Before.
func (op *Reorder) Revert(s Store) {
	s.SetOrder(cloneIDs(op.Before))
}

// Empty implements Operation.
func (op *Reorder) Empty() bool {
	return op.Before == nil && op.After == nil
}

// Description implements Operation.
func (op *Reorder) Description() string {
	return "Reorder elements"
}

func (op *Reorder) isOperation() {}

// indexAt returns the recorded index for element i, or -1.
func indexAt(indices []int, i int) int {
	if i < len(indices) {
		return indices[i]
	}
	return -1
}

func countElements(els []*element.Element) int {
	n := 0
	for _, el := range els {
		if el != nil {
			n++
		}
	}
	return n
}

func describe(verb string, n int) string {
	if n == 1 {
		return verb + " element"
	}
	return fmt.Sprintf("%s %d elements", verb, n)
}

func cloneIDs(ids []element.ID) []element.ID {
	if ids == nil {
		return nil
	}
	out := make([]element.ID, len(ids))
	copy(out, ids)
	return out
}

// validOps drops nil and empty operations.
func validOps(ops []Operation) []Operation {
	out := make([]Operation, 0, len(ops))
	for _, op := range ops {
		if isNilOperation(op) || op.Empty() {
			continue
		}
		out = append(out, op)
	}
	return out
}

// isNilOperation catches both a nil interface and a typed nil pointer.
func isNilOperation(op Operation) bool {
	switch v := op.(type) {
	case nil:
		return true
	case *Add:
		return v == nil
	case *Remove:
		return v == nil
	case *Update:
		return v == nil
	case *Reorder:
		return v == nil
	default:
		return true
	}
}

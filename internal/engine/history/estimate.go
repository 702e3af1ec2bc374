package history

import (
	"github.com/rivo/uniseg"

	"github.com/dshills/strata/internal/element"
)

// Size estimates in bytes. They are heuristics: a poor estimate only makes
// pruning run somewhat earlier or later.
const (
	EntryOverhead    int64 = 200 // per entry
	ElementBaseSize  int64 = 300 // per element snapshot
	PointSize        int64 = 16  // per path vertex
	CellOverhead     int64 = 16  // per table cell, plus its text length
	TextGraphemeSize int64 = 2   // per user-perceived character
	PropSize         int64 = 32  // per free-form property
	IndexSize        int64 = 8   // per recorded index
	OrderIDSize      int64 = 40  // per id in a reorder
)

const bytesPerMB = 1024 * 1024

// EstimateEntrySize returns the estimated retained size of an entry.
func EstimateEntrySize(e *Entry) int64 {
	if e == nil {
		return 0
	}
	size := EntryOverhead
	for _, op := range e.Ops {
		size += EstimateOperationSize(op)
	}
	return size
}

// EstimateOperationSize returns the estimated retained size of an operation.
// Update counts both halves since undo needs Before and redo needs After.
func EstimateOperationSize(op Operation) int64 {
	if isNilOperation(op) {
		return 0
	}

	switch v := op.(type) {
	case *Add:
		return estimateElements(v.Elements) + int64(len(v.Indices))*IndexSize
	case *Remove:
		return estimateElements(v.Elements) + int64(len(v.Indices))*IndexSize
	case *Update:
		return estimateElements(v.Before) + estimateElements(v.After)
	case *Reorder:
		return int64(len(v.Before)+len(v.After)) * OrderIDSize
	default:
		return 0
	}
}

// EstimateElementSize returns the estimated size of one element snapshot.
func EstimateElementSize(el *element.Element) int64 {
	if el == nil {
		return 0
	}

	size := ElementBaseSize + int64(len(el.ID))
	size += int64(len(el.Points)) * PointSize
	size += int64(len(el.DataURL))

	for _, row := range el.Cells {
		for _, cell := range row {
			size += CellOverhead + int64(len(cell))
		}
	}

	if el.Text != "" {
		size += int64(uniseg.GraphemeClusterCount(el.Text)) * TextGraphemeSize
	}

	size += int64(len(el.Props)) * PropSize
	return size
}

func estimateElements(els []*element.Element) int64 {
	var size int64
	for _, el := range els {
		size += EstimateElementSize(el)
	}
	return size
}

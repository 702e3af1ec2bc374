// Package element defines the entities held by the document's element store.
//
// An Element is treated as a value once it has been handed to the history
// engine: snapshots embedded in operations are never mutated. Use Clone to
// obtain an independent copy before editing.
package element

import (
	"reflect"
	"slices"

	"github.com/vmihailenco/msgpack/v5"
)

// ID identifies an element within a document.
type ID string

// Kind describes what an element draws.
type Kind string

// Known element kinds.
const (
	KindRect  Kind = "rect"
	KindPath  Kind = "path"
	KindImage Kind = "image"
	KindTable Kind = "table"
	KindText  Kind = "text"
)

// Point is a vertex of a path-like element, relative to the element origin.
type Point struct {
	X float64 `msgpack:"x"`
	Y float64 `msgpack:"y"`
}

// Element is a single document entity.
type Element struct {
	ID      ID      `msgpack:"id"`
	Kind    Kind    `msgpack:"kind"`
	X       float64 `msgpack:"x"`
	Y       float64 `msgpack:"y"`
	Width   float64 `msgpack:"w"`
	Height  float64 `msgpack:"h"`
	Angle   float64 `msgpack:"a"`
	Version int     `msgpack:"v"`

	// Content. Only the fields relevant to Kind are normally set.
	Points  []Point    `msgpack:"pts,omitempty"`
	DataURL string     `msgpack:"data,omitempty"` // encoded binary payload (images)
	Cells   [][]string `msgpack:"cells,omitempty"`
	Text    string     `msgpack:"text,omitempty"`

	// Props holds free-form, JSON-like attributes (strings, float64, bool,
	// nested []any and map[string]any).
	Props map[string]any `msgpack:"props,omitempty"`
}

// New creates an element of the given kind.
func New(id ID, kind Kind) *Element {
	return &Element{ID: id, Kind: kind}
}

// Clone returns a deep copy of the element. A nil element clones to nil.
func (e *Element) Clone() *Element {
	if e == nil {
		return nil
	}

	c := *e

	if e.Points != nil {
		c.Points = make([]Point, len(e.Points))
		copy(c.Points, e.Points)
	}

	if e.Cells != nil {
		c.Cells = make([][]string, len(e.Cells))
		for i, row := range e.Cells {
			if row == nil {
				continue
			}
			c.Cells[i] = make([]string, len(row))
			copy(c.Cells[i], row)
		}
	}

	if e.Props != nil {
		c.Props = cloneProps(e.Props)
	}

	return &c
}

// cloneProps deep-copies a property map. Values keep their dynamic types.
func cloneProps(props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = cloneValue(v)
	}
	return out
}

// cloneValue copies JSON-like shapes directly. Other composite values go
// through a typed msgpack round trip; values msgpack cannot encode (funcs,
// channels) are shared.
func cloneValue(v any) any {
	switch t := v.(type) {
	case nil, bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return v
	case map[string]any:
		if t == nil {
			return t
		}
		return cloneProps(t)
	case []any:
		if t == nil {
			return t
		}
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return slices.Clone(t)
	case []float64:
		return slices.Clone(t)
	case []int:
		return slices.Clone(t)
	}

	rt := reflect.TypeOf(v)
	switch rt.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Pointer, reflect.Struct:
	default:
		return v
	}

	data, err := msgpack.Marshal(v)
	if err != nil {
		return v
	}
	dst := reflect.New(rt)
	if err := msgpack.Unmarshal(data, dst.Interface()); err != nil {
		return v
	}
	return dst.Elem().Interface()
}

// Touch bumps the element version. Call it on a clone after editing.
func (e *Element) Touch() {
	e.Version++
}

package compat

import (
	"errors"
	"slices"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/dshills/strata/internal/element"
	"github.com/dshills/strata/internal/engine/history"
	"github.com/dshills/strata/internal/store"
)

func TestDecodeOperationShapes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		kind history.Kind
	}{
		{"add array", `{"type":"add","elements":[{"id":"a"}]}`, history.KindAdd},
		{"kind alias", `{"kind":"ADD","elements":[{"id":"a"}]}`, history.KindAdd},
		{"single element", `{"type":"insert","element":{"id":"a","x":1}}`, history.KindAdd},
		{"keyed elements", `{"type":"delete","elements":{"a":{"x":1},"b":{}}}`, history.KindRemove},
		{"update", `{"type":"update","before":[{"id":"a"}],"after":[{"id":"a","x":2}]}`, history.KindUpdate},
		{"reorder strings", `{"type":"reorder","before":["a","b"],"after":["b","a"]}`, history.KindReorder},
		{"reorder mixed ids", `{"op":"order","before":[{"id":"a"},7],"after":[7,{"id":"a"}]}`, history.KindReorder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, ok := DecodeOperation(tt.in)
			if !ok {
				t.Fatalf("DecodeOperation(%s) rejected", tt.in)
			}
			if op.Kind() != tt.kind {
				t.Errorf("Kind() = %v, want %v", op.Kind(), tt.kind)
			}
		})
	}
}

func TestDecodeOperationRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"not json", `{type: add`},
		{"scalar", `42`},
		{"unknown type", `{"type":"explode","elements":[{"id":"a"}]}`},
		{"missing type", `{"elements":[{"id":"a"}]}`},
		{"no elements", `{"type":"add"}`},
		{"elements without ids", `{"type":"add","elements":[{"x":1},3]}`},
		{"update length mismatch", `{"type":"update","before":[{"id":"a"}],"after":[]}`},
		{"reorder bad id", `{"type":"reorder","before":["a"],"after":[true]}`},
		{"reorder missing half", `{"type":"reorder","after":["a"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if op, ok := DecodeOperation(tt.in); ok {
				t.Errorf("DecodeOperation(%s) = %#v, want rejection", tt.in, op)
			}
		})
	}
}

func TestDecodeElementFields(t *testing.T) {
	in := `{"type":"add","elements":[{
		"id": 12,
		"type": "path",
		"x": 1.5, "y": 2, "w": 30, "h": 40, "rotation": 90,
		"points": [[0,0],{"x":3,"y":4},[9]],
		"src": "data:image/png;base64,AAAA",
		"cells": [["a","b"],"skip",["c"]],
		"text": "hi",
		"stroke": "#000",
		"props": {"opacity": 0.5}
	}],"indices":[3]}`

	op, ok := DecodeOperation(in)
	if !ok {
		t.Fatal("DecodeOperation rejected a valid add")
	}
	add := op.(*history.Add)
	if !slices.Equal(add.Indices, []int{3}) {
		t.Errorf("Indices = %v, want [3]", add.Indices)
	}

	el := add.Elements[0]
	if el.ID != "12" || el.Kind != element.KindPath {
		t.Errorf("ID/Kind = %q/%q", el.ID, el.Kind)
	}
	if el.X != 1.5 || el.Y != 2 || el.Width != 30 || el.Height != 40 || el.Angle != 90 {
		t.Errorf("geometry = %+v", el)
	}
	wantPts := []element.Point{{X: 0, Y: 0}, {X: 3, Y: 4}}
	if !slices.Equal(el.Points, wantPts) {
		t.Errorf("Points = %v, want %v", el.Points, wantPts)
	}
	if el.DataURL != "data:image/png;base64,AAAA" || el.Text != "hi" {
		t.Errorf("content = %q / %q", el.DataURL, el.Text)
	}
	if len(el.Cells) != 2 || el.Cells[0][1] != "b" || el.Cells[1][0] != "c" {
		t.Errorf("Cells = %v", el.Cells)
	}
	if el.Props["stroke"] != "#000" || el.Props["opacity"] != 0.5 {
		t.Errorf("Props = %v", el.Props)
	}
}

func TestDecodeDropsPartialIndices(t *testing.T) {
	op, ok := DecodeOperation(`{"type":"add","elements":[{"id":"a"},{"id":"b"}],"indices":[0]}`)
	if !ok {
		t.Fatal("rejected")
	}
	if add := op.(*history.Add); add.Indices != nil {
		t.Errorf("Indices = %v, want nil when not every element has one", add.Indices)
	}
}

func TestDecodeOperationsSkipsInvalid(t *testing.T) {
	in := []byte(`[
		{"type":"add","elements":[{"id":"a"}]},
		{"type":"bogus"},
		"text",
		{"type":"remove","elements":[{"id":"b"}]}
	]`)

	ops := DecodeOperations(in)
	if len(ops) != 2 || ops[0].Kind() != history.KindAdd || ops[1].Kind() != history.KindRemove {
		t.Errorf("DecodeOperations() = %v", ops)
	}

	if ops := DecodeOperations([]byte(`not json`)); ops != nil {
		t.Errorf("DecodeOperations(invalid) = %v, want nil", ops)
	}
}

func TestDecodeGroups(t *testing.T) {
	in := []byte(`[
		{"type":"add","elements":[{"id":"a"}]},
		{"label":"Move","mergeKey":"drag:a","ops":[
			{"type":"update","before":[{"id":"a"}],"after":[{"id":"a","x":5}]},
			{"type":"nope"}
		]},
		{"label":"empty","ops":[{"type":"nope"}]}
	]`)

	groups := DecodeGroups(in)
	if len(groups) != 2 {
		t.Fatalf("len(groups) = %d, want 2", len(groups))
	}
	if groups[0].Label != "" || len(groups[0].Ops) != 1 {
		t.Errorf("groups[0] = %+v", groups[0])
	}
	if groups[1].Label != "Move" || groups[1].MergeKey != "drag:a" || len(groups[1].Ops) != 1 {
		t.Errorf("groups[1] = %+v", groups[1])
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	a := &element.Element{
		ID: "a", Kind: element.KindTable, X: 1, Y: 2, Width: 3, Height: 4, Version: 2,
		Cells: [][]string{{"x", "y"}},
		Props: map[string]any{"fill": "red"},
	}
	p := &element.Element{ID: "p", Kind: element.KindPath, Points: []element.Point{{X: 1, Y: 2}}}

	ops := []history.Operation{
		history.NewAddAt([]*element.Element{a, p}, []int{0, 1}),
		history.NewUpdate(a, &element.Element{ID: "a", Kind: element.KindTable, Text: "t"}),
		history.NewReorder([]element.ID{"a", "p"}, []element.ID{"p", "a"}),
		history.NewRemove(p),
	}

	raw, err := EncodeOperations(ops)
	if err != nil {
		t.Fatalf("EncodeOperations() error = %v", err)
	}
	if !gjson.Valid(raw) {
		t.Fatalf("invalid JSON: %s", raw)
	}

	got := DecodeOperations([]byte(raw))
	if len(got) != len(ops) {
		t.Fatalf("decoded %d ops, want %d: %s", len(got), len(ops), raw)
	}

	add := got[0].(*history.Add)
	if !slices.Equal(add.Indices, []int{0, 1}) {
		t.Errorf("Indices = %v", add.Indices)
	}
	ea := add.Elements[0]
	if ea.Version != 2 || ea.Cells[0][1] != "y" || ea.Props["fill"] != "red" {
		t.Errorf("element a = %+v", ea)
	}
	if pts := add.Elements[1].Points; len(pts) != 1 || pts[0] != (element.Point{X: 1, Y: 2}) {
		t.Errorf("points = %v", pts)
	}
	if r := got[2].(*history.Reorder); !slices.Equal(r.After, []element.ID{"p", "a"}) {
		t.Errorf("Reorder.After = %v", r.After)
	}
}

type fakeOp struct{ history.Operation }

func TestEncodeUnsupported(t *testing.T) {
	if _, err := EncodeOperation(fakeOp{}); !errors.Is(err, ErrUnsupportedOperation) {
		t.Errorf("EncodeOperation() error = %v, want ErrUnsupportedOperation", err)
	}
}

func TestRecorder(t *testing.T) {
	mem := store.NewMemory()
	h, err := history.New(mem)
	if err != nil {
		t.Fatal(err)
	}
	r := NewRecorder(h)

	if n := r.Push([]byte(`{"type":"nope"}`)); n != 0 || h.Len() != 0 {
		t.Errorf("malformed push recorded: n = %d, Len() = %d", n, h.Len())
	}

	mem.InsertAt(-1, "a", element.New("a", element.KindRect))
	if n := r.PushWith("Insert", "", []byte(`{"type":"add","elements":[{"id":"a","kind":"rect"}]}`)); n != 1 {
		t.Fatalf("Push() = %d, want 1", n)
	}

	h.Undo()
	if mem.Len() != 0 {
		t.Errorf("undo did not revert recorded add")
	}
}

func TestReplay(t *testing.T) {
	mem := store.NewMemory()
	h, _ := history.New(mem, history.WithMergeWindow(0))

	in := []byte(`[
		{"type":"add","elements":[{"id":"a"},{"id":"b"}],"indices":[0,1]},
		{"label":"Move","ops":[{"type":"update","before":[{"id":"a"}],"after":[{"id":"a","x":10}]}]},
		{"type":"reorder","before":["a","b"],"after":["b","a"]}
	]`)

	if n := Replay(h, mem, in); n != 3 {
		t.Fatalf("Replay() = %d, want 3", n)
	}
	if got := mem.Order(); !slices.Equal(got, []element.ID{"b", "a"}) {
		t.Errorf("Order() = %v", got)
	}
	if el, _ := mem.Get("a"); el.X != 10 {
		t.Errorf("a.X = %v, want 10", el.X)
	}

	for h.Undo() {
	}
	if mem.Len() != 0 {
		t.Errorf("Len() = %d after undoing everything", mem.Len())
	}
}

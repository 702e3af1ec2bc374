// Package compat translates loosely shaped JSON operations into history
// operations and back.
//
// The decoder is forgiving about spelling and shape: "type" or "kind" name
// the operation, element lists may be arrays or id-keyed objects, ids may be
// strings, numbers or {"id": ...} objects and points may be [x, y] pairs or
// {"x", "y"} objects. Anything it cannot make sense of is dropped without an
// error so that foreign input never reaches the history engine half-formed.
package compat

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/dshills/strata/internal/element"
	"github.com/dshills/strata/internal/engine/history"
)

// Group is a decoded set of operations committed together.
type Group struct {
	Label    string
	MergeKey string
	Ops      []history.Operation
}

// DecodeOperations decodes a single operation object or an array of them.
// Malformed operations are skipped.
func DecodeOperations(data []byte) []history.Operation {
	if !gjson.ValidBytes(data) {
		return nil
	}
	return decodeOps(gjson.ParseBytes(data))
}

// DecodeGroups decodes a replay document. The top level is an array whose
// items are either operations or {"label", "mergeKey", "ops"} groups; a bare
// object is treated as a one-item array. Consecutive bare operations each
// form their own group. Groups left without valid operations are skipped.
func DecodeGroups(data []byte) []Group {
	if !gjson.ValidBytes(data) {
		return nil
	}

	root := gjson.ParseBytes(data)
	items := []gjson.Result{root}
	if root.IsArray() {
		items = root.Array()
	}

	var groups []Group
	for _, item := range items {
		if !item.IsObject() {
			continue
		}

		ops := item.Get("ops")
		if !ops.Exists() {
			if op, ok := decodeOp(item); ok {
				groups = append(groups, Group{Ops: []history.Operation{op}})
			}
			continue
		}

		g := Group{
			Label:    firstString(item, "label", "name"),
			MergeKey: firstString(item, "mergeKey", "merge_key"),
			Ops:      decodeOps(ops),
		}
		if len(g.Ops) > 0 {
			groups = append(groups, g)
		}
	}
	return groups
}

func decodeOps(r gjson.Result) []history.Operation {
	items := []gjson.Result{r}
	if r.IsArray() {
		items = r.Array()
	}

	var ops []history.Operation
	for _, item := range items {
		if op, ok := decodeOp(item); ok {
			ops = append(ops, op)
		}
	}
	return ops
}

// DecodeOperation decodes one operation from raw JSON.
func DecodeOperation(raw string) (history.Operation, bool) {
	if !gjson.Valid(raw) {
		return nil, false
	}
	return decodeOp(gjson.Parse(raw))
}

func decodeOp(r gjson.Result) (history.Operation, bool) {
	if !r.IsObject() {
		return nil, false
	}

	var op history.Operation
	switch strings.ToLower(firstString(r, "type", "kind", "op")) {
	case "add", "insert", "create":
		els, indices := decodeElements(r, "elements", "element")
		op = &history.Add{Elements: els, Indices: indices}
	case "remove", "delete":
		els, indices := decodeElements(r, "elements", "element")
		op = &history.Remove{Elements: els, Indices: indices}
	case "update", "modify":
		before, _ := decodeElements(r, "before")
		after, _ := decodeElements(r, "after")
		if len(before) != len(after) {
			return nil, false
		}
		op = &history.Update{Before: before, After: after}
	case "reorder", "order":
		before, okBefore := decodeIDs(r.Get("before"))
		after, okAfter := decodeIDs(r.Get("after"))
		if !okBefore || !okAfter {
			return nil, false
		}
		op = &history.Reorder{Before: before, After: after}
	default:
		return nil, false
	}

	if op.Empty() {
		return nil, false
	}
	return op, true
}

// decodeElements reads the element list under the first present key, plus
// an optional "indices" array aligned with it. Elements without an id are
// dropped along with their index.
func decodeElements(r gjson.Result, keys ...string) ([]*element.Element, []int) {
	var list gjson.Result
	for _, k := range keys {
		if v := r.Get(k); v.Exists() {
			list = v
			break
		}
	}
	if !list.Exists() {
		return nil, nil
	}

	rawIndices := r.Get("indices")
	if !rawIndices.Exists() {
		rawIndices = r.Get("index")
	}
	indexAt := func(i int) (int, bool) {
		if !rawIndices.Exists() {
			return 0, false
		}
		if !rawIndices.IsArray() {
			return int(rawIndices.Int()), i == 0
		}
		arr := rawIndices.Array()
		if i >= len(arr) || arr[i].Type != gjson.Number {
			return 0, false
		}
		return int(arr[i].Int()), true
	}

	var els []*element.Element
	var indices []int
	haveIndices := true
	i := 0
	add := func(idHint string, v gjson.Result) {
		el, ok := decodeElement(v, idHint)
		if ok {
			els = append(els, el)
			if idx, ok := indexAt(i); ok {
				indices = append(indices, idx)
			} else {
				haveIndices = false
			}
		}
		i++
	}

	switch {
	case list.IsArray():
		for _, v := range list.Array() {
			add("", v)
		}
	case list.IsObject() && !list.Get("id").Exists():
		list.ForEach(func(k, v gjson.Result) bool {
			add(k.String(), v)
			return true
		})
	default:
		add("", list)
	}

	if !haveIndices {
		indices = nil
	}
	return els, indices
}

// decodeElement builds an element from an object. Keys it does not model
// are kept in Props.
func decodeElement(v gjson.Result, idHint string) (*element.Element, bool) {
	if !v.IsObject() {
		return nil, false
	}

	id := idString(v.Get("id"))
	if id == "" {
		id = idHint
	}
	if id == "" {
		return nil, false
	}

	el := element.New(element.ID(id), element.Kind(firstString(v, "kind", "type")))
	v.ForEach(func(k, val gjson.Result) bool {
		switch k.String() {
		case "id", "kind", "type":
		case "x":
			el.X = val.Float()
		case "y":
			el.Y = val.Float()
		case "width", "w":
			el.Width = val.Float()
		case "height", "h":
			el.Height = val.Float()
		case "angle", "rotation":
			el.Angle = val.Float()
		case "version":
			el.Version = int(val.Int())
		case "points":
			el.Points = decodePoints(val)
		case "dataURL", "dataUrl", "data", "src":
			el.DataURL = val.String()
		case "cells":
			el.Cells = decodeCells(val)
		case "text":
			el.Text = val.String()
		case "props":
			if val.IsObject() {
				val.ForEach(func(pk, pv gjson.Result) bool {
					setProp(el, pk.String(), pv)
					return true
				})
			}
		default:
			setProp(el, k.String(), val)
		}
		return true
	})
	return el, true
}

func setProp(el *element.Element, key string, v gjson.Result) {
	if el.Props == nil {
		el.Props = make(map[string]any)
	}
	el.Props[key] = v.Value()
}

func decodePoints(v gjson.Result) []element.Point {
	if !v.IsArray() {
		return nil
	}
	var pts []element.Point
	for _, p := range v.Array() {
		switch {
		case p.IsArray():
			xy := p.Array()
			if len(xy) >= 2 {
				pts = append(pts, element.Point{X: xy[0].Float(), Y: xy[1].Float()})
			}
		case p.IsObject():
			pts = append(pts, element.Point{X: p.Get("x").Float(), Y: p.Get("y").Float()})
		}
	}
	return pts
}

func decodeCells(v gjson.Result) [][]string {
	if !v.IsArray() {
		return nil
	}
	var rows [][]string
	for _, row := range v.Array() {
		if !row.IsArray() {
			continue
		}
		cells := make([]string, 0, len(row.Array()))
		for _, c := range row.Array() {
			cells = append(cells, c.String())
		}
		rows = append(rows, cells)
	}
	return rows
}

// decodeIDs reads an ordering. Every item must resolve to an id.
func decodeIDs(v gjson.Result) ([]element.ID, bool) {
	if !v.IsArray() {
		return nil, false
	}
	arr := v.Array()
	ids := make([]element.ID, 0, len(arr))
	for _, item := range arr {
		var id string
		if item.IsObject() {
			id = idString(item.Get("id"))
		} else {
			id = idString(item)
		}
		if id == "" {
			return nil, false
		}
		ids = append(ids, element.ID(id))
	}
	return ids, true
}

func idString(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return v.Str
	case gjson.Number:
		if v.Num == float64(int64(v.Num)) {
			return strconv.FormatInt(int64(v.Num), 10)
		}
		return v.Raw
	}
	return ""
}

func firstString(r gjson.Result, keys ...string) string {
	for _, k := range keys {
		if v := r.Get(k); v.Type == gjson.String {
			return v.Str
		}
	}
	return ""
}

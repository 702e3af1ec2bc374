package api

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/strata/internal/element"
	plua "github.com/dshills/strata/internal/plugin/lua"
)

// elementToTable converts an element to a Lua table. Zero-valued content
// fields are left out.
func elementToTable(L *lua.LState, el *element.Element) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("id", lua.LString(el.ID))
	t.RawSetString("kind", lua.LString(el.Kind))
	t.RawSetString("x", lua.LNumber(el.X))
	t.RawSetString("y", lua.LNumber(el.Y))
	t.RawSetString("width", lua.LNumber(el.Width))
	t.RawSetString("height", lua.LNumber(el.Height))
	t.RawSetString("angle", lua.LNumber(el.Angle))
	t.RawSetString("version", lua.LNumber(el.Version))

	if el.Text != "" {
		t.RawSetString("text", lua.LString(el.Text))
	}
	if el.DataURL != "" {
		t.RawSetString("data_url", lua.LString(el.DataURL))
	}
	if len(el.Points) > 0 {
		pts := L.CreateTable(len(el.Points), 0)
		for _, p := range el.Points {
			pt := L.CreateTable(0, 2)
			pt.RawSetString("x", lua.LNumber(p.X))
			pt.RawSetString("y", lua.LNumber(p.Y))
			pts.Append(pt)
		}
		t.RawSetString("points", pts)
	}
	if len(el.Cells) > 0 {
		rows := L.CreateTable(len(el.Cells), 0)
		for _, row := range el.Cells {
			rows.Append(plua.ToLuaValue(L, row))
		}
		t.RawSetString("cells", rows)
	}
	if len(el.Props) > 0 {
		t.RawSetString("props", plua.ToLuaValue(L, el.Props))
	}
	return t
}

// tableToElement builds a new element from a Lua table. id is required.
func tableToElement(t *lua.LTable) (*element.Element, error) {
	id, err := idValue(t.RawGetString("id"))
	if err != nil {
		return nil, err
	}
	el := &element.Element{ID: id}
	if err := applyFields(el, t); err != nil {
		return nil, err
	}
	return el, nil
}

// applyFields copies every field present in t onto el. id is ignored so an
// update can never rename an element. props is applied first so that
// loose keys land on top of it.
func applyFields(el *element.Element, t *lua.LTable) error {
	if v := t.RawGetString("props"); v != lua.LNil {
		if err := applyField(el, "props", v); err != nil {
			return err
		}
	}

	var err error
	t.ForEach(func(k, v lua.LValue) {
		if err != nil {
			return
		}
		key, ok := k.(lua.LString)
		if !ok || key == "props" {
			return
		}
		err = applyField(el, string(key), v)
	})
	return err
}

func applyField(el *element.Element, key string, v lua.LValue) error {
	switch key {
	case "id":
		return nil
	case "kind":
		s, err := stringValue(key, v)
		el.Kind = element.Kind(s)
		return err
	case "text":
		s, err := stringValue(key, v)
		el.Text = s
		return err
	case "data_url":
		s, err := stringValue(key, v)
		el.DataURL = s
		return err
	case "x":
		return numberInto(key, v, &el.X)
	case "y":
		return numberInto(key, v, &el.Y)
	case "width":
		return numberInto(key, v, &el.Width)
	case "height":
		return numberInto(key, v, &el.Height)
	case "angle":
		return numberInto(key, v, &el.Angle)
	case "version":
		var f float64
		err := numberInto(key, v, &f)
		el.Version = int(f)
		return err
	case "points":
		pts, err := pointsValue(v)
		el.Points = pts
		return err
	case "cells":
		cells, err := cellsValue(v)
		el.Cells = cells
		return err
	case "props":
		if v == lua.LNil {
			el.Props = nil
			return nil
		}
		props, ok := plua.ToGoValue(v).(map[string]any)
		if !ok {
			return fmt.Errorf("props: expected table with string keys, got %s", v.Type())
		}
		el.Props = props
		return nil
	default:
		if el.Props == nil {
			el.Props = make(map[string]any)
		}
		el.Props[key] = plua.ToGoValue(v)
		return nil
	}
}

func idValue(v lua.LValue) (element.ID, error) {
	switch id := v.(type) {
	case lua.LString:
		if id == "" {
			return "", fmt.Errorf("id: must not be empty")
		}
		return element.ID(id), nil
	case lua.LNumber:
		return element.ID(id.String()), nil
	default:
		return "", fmt.Errorf("id: expected string, got %s", v.Type())
	}
}

func stringValue(key string, v lua.LValue) (string, error) {
	switch s := v.(type) {
	case lua.LString:
		return string(s), nil
	case *lua.LNilType:
		return "", nil
	default:
		return "", fmt.Errorf("%s: expected string, got %s", key, v.Type())
	}
}

func numberInto(key string, v lua.LValue, dst *float64) error {
	n, ok := v.(lua.LNumber)
	if !ok {
		return fmt.Errorf("%s: expected number, got %s", key, v.Type())
	}
	*dst = float64(n)
	return nil
}

// pointsValue accepts {{x=1, y=2}, ...} or {{1, 2}, ...}.
func pointsValue(v lua.LValue) ([]element.Point, error) {
	t, ok := v.(*lua.LTable)
	if !ok {
		if v == lua.LNil {
			return nil, nil
		}
		return nil, fmt.Errorf("points: expected table, got %s", v.Type())
	}

	pts := make([]element.Point, 0, t.Len())
	for i := 1; i <= t.Len(); i++ {
		pt, ok := t.RawGetInt(i).(*lua.LTable)
		if !ok {
			return nil, fmt.Errorf("points[%d]: expected table", i)
		}
		x, y := pt.RawGetString("x"), pt.RawGetString("y")
		if x == lua.LNil && y == lua.LNil {
			x, y = pt.RawGetInt(1), pt.RawGetInt(2)
		}
		xn, xok := x.(lua.LNumber)
		yn, yok := y.(lua.LNumber)
		if !xok || !yok {
			return nil, fmt.Errorf("points[%d]: expected numeric x and y", i)
		}
		pts = append(pts, element.Point{X: float64(xn), Y: float64(yn)})
	}
	return pts, nil
}

func cellsValue(v lua.LValue) ([][]string, error) {
	t, ok := v.(*lua.LTable)
	if !ok {
		if v == lua.LNil {
			return nil, nil
		}
		return nil, fmt.Errorf("cells: expected table, got %s", v.Type())
	}

	cells := make([][]string, 0, t.Len())
	for i := 1; i <= t.Len(); i++ {
		row, ok := t.RawGetInt(i).(*lua.LTable)
		if !ok {
			return nil, fmt.Errorf("cells[%d]: expected table", i)
		}
		out := make([]string, 0, row.Len())
		for j := 1; j <= row.Len(); j++ {
			out = append(out, lua.LVAsString(row.RawGetInt(j)))
		}
		cells = append(cells, out)
	}
	return cells, nil
}

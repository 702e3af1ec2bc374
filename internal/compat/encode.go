package compat

import (
	"fmt"

	"github.com/tidwall/sjson"

	"github.com/dshills/strata/internal/element"
	"github.com/dshills/strata/internal/engine/history"
)

// EncodeOperations renders ops as a JSON array in the canonical shape
// DecodeOperations accepts.
func EncodeOperations(ops []history.Operation) (string, error) {
	out := "[]"
	for _, op := range ops {
		raw, err := EncodeOperation(op)
		if err != nil {
			return "", err
		}
		if out, err = sjson.SetRaw(out, "-1", raw); err != nil {
			return "", fmt.Errorf("compat: append operation: %w", err)
		}
	}
	return out, nil
}

// EncodeGroups renders groups as a replay document.
func EncodeGroups(groups []Group) (string, error) {
	out := "[]"
	for _, g := range groups {
		ops, err := EncodeOperations(g.Ops)
		if err != nil {
			return "", err
		}
		item := "{}"
		if g.Label != "" {
			item, _ = sjson.Set(item, "label", g.Label)
		}
		if g.MergeKey != "" {
			item, _ = sjson.Set(item, "mergeKey", g.MergeKey)
		}
		if item, err = sjson.SetRaw(item, "ops", ops); err != nil {
			return "", fmt.Errorf("compat: encode group: %w", err)
		}
		if out, err = sjson.SetRaw(out, "-1", item); err != nil {
			return "", fmt.Errorf("compat: append group: %w", err)
		}
	}
	return out, nil
}

// EncodeOperation renders a single operation.
func EncodeOperation(op history.Operation) (string, error) {
	var (
		out = "{}"
		err error
	)

	switch o := op.(type) {
	case *history.Add:
		out, err = encodeElementOp(out, "add", o.Elements, o.Indices)
	case *history.Remove:
		out, err = encodeElementOp(out, "remove", o.Elements, o.Indices)
	case *history.Update:
		out, _ = sjson.Set(out, "type", "update")
		if out, err = setElements(out, "before", o.Before); err == nil {
			out, err = setElements(out, "after", o.After)
		}
	case *history.Reorder:
		out, _ = sjson.Set(out, "type", "reorder")
		if out, err = sjson.Set(out, "before", idStrings(o.Before)); err == nil {
			out, err = sjson.Set(out, "after", idStrings(o.After))
		}
	default:
		return "", fmt.Errorf("%w: %T", ErrUnsupportedOperation, op)
	}

	if err != nil {
		return "", fmt.Errorf("compat: encode %s: %w", op.Kind(), err)
	}
	return out, nil
}

func encodeElementOp(out, kind string, els []*element.Element, indices []int) (string, error) {
	out, err := sjson.Set(out, "type", kind)
	if err != nil {
		return "", err
	}
	if out, err = setElements(out, "elements", els); err != nil {
		return "", err
	}
	if len(indices) > 0 {
		out, err = sjson.Set(out, "indices", indices)
	}
	return out, err
}

func setElements(out, key string, els []*element.Element) (string, error) {
	out, err := sjson.SetRaw(out, key, "[]")
	if err != nil {
		return "", err
	}
	for _, el := range els {
		if el == nil {
			continue
		}
		raw, err := EncodeElement(el)
		if err != nil {
			return "", err
		}
		if out, err = sjson.SetRaw(out, key+".-1", raw); err != nil {
			return "", err
		}
	}
	return out, nil
}

// EncodeElement renders an element. Zero-valued content fields are
// omitted.
func EncodeElement(el *element.Element) (string, error) {
	out := "{}"
	set := func(path string, v any) error {
		var err error
		out, err = sjson.Set(out, path, v)
		return err
	}

	fields := []struct {
		path string
		v    any
		skip bool
	}{
		{"id", string(el.ID), false},
		{"kind", string(el.Kind), el.Kind == ""},
		{"x", el.X, false},
		{"y", el.Y, false},
		{"width", el.Width, false},
		{"height", el.Height, false},
		{"angle", el.Angle, el.Angle == 0},
		{"version", el.Version, el.Version == 0},
		{"dataURL", el.DataURL, el.DataURL == ""},
		{"text", el.Text, el.Text == ""},
		{"cells", el.Cells, len(el.Cells) == 0},
	}
	for _, f := range fields {
		if f.skip {
			continue
		}
		if err := set(f.path, f.v); err != nil {
			return "", err
		}
	}

	if len(el.Points) > 0 {
		pts := make([][2]float64, len(el.Points))
		for i, p := range el.Points {
			pts[i] = [2]float64{p.X, p.Y}
		}
		if err := set("points", pts); err != nil {
			return "", err
		}
	}

	if len(el.Props) > 0 {
		if err := set("props", el.Props); err != nil {
			return "", err
		}
	}
	return out, nil
}

func idStrings(ids []element.ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

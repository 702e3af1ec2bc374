package api

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/strata/internal/document"
	"github.com/dshills/strata/internal/element"
)

// DocumentModule implements the strata.doc API module. Positions are
// 1-based on the Lua side.
type DocumentModule struct {
	doc *document.Document
}

// NewDocumentModule creates a document module.
func NewDocumentModule(doc *document.Document) *DocumentModule {
	return &DocumentModule{doc: doc}
}

// Name returns the module name.
func (m *DocumentModule) Name() string {
	return "doc"
}

// Register registers the module into the Lua state.
func (m *DocumentModule) Register(L *lua.LState) error {
	mod := L.NewTable()

	L.SetField(mod, "add", L.NewFunction(m.add))
	L.SetField(mod, "add_at", L.NewFunction(m.addAt))
	L.SetField(mod, "update", L.NewFunction(m.update))
	L.SetField(mod, "update_with", L.NewFunction(m.updateWith))
	L.SetField(mod, "remove", L.NewFunction(m.remove))
	L.SetField(mod, "reorder", L.NewFunction(m.reorder))
	L.SetField(mod, "move", L.NewFunction(m.move))
	L.SetField(mod, "get", L.NewFunction(m.get))
	L.SetField(mod, "order", L.NewFunction(m.order))
	L.SetField(mod, "count", L.NewFunction(m.count))
	L.SetField(mod, "index_of", L.NewFunction(m.indexOf))

	L.SetGlobal(globalName(m.Name()), mod)
	return nil
}

// add(el, ...) or add({el, ...})
// Appends elements as one undoable step.
func (m *DocumentModule) add(L *lua.LState) int {
	els := elementArgs(L, 1)
	if err := m.doc.Add(els...); err != nil {
		L.RaiseError("doc.add: %v", err)
	}
	return 0
}

// add_at(index, el, ...)
// Inserts elements starting at index.
func (m *DocumentModule) addAt(L *lua.LState) int {
	index := L.CheckInt(1)
	if index < 1 {
		L.ArgError(1, "index must be >= 1")
		return 0
	}
	els := elementArgs(L, 2)
	if err := m.doc.AddAt(min(index-1, m.doc.Store().Len()), els...); err != nil {
		L.RaiseError("doc.add_at: %v", err)
	}
	return 0
}

// update(id, fields)
// Copies the fields onto the element.
func (m *DocumentModule) update(L *lua.LState) int {
	m.doUpdate(L, "", "", 1)
	return 0
}

// update_with(label, merge_key, id, fields)
// Like update, but consecutive calls with the same label and key inside the
// merge window coalesce into one undo step.
func (m *DocumentModule) updateWith(L *lua.LState) int {
	label := L.CheckString(1)
	key := L.CheckString(2)
	m.doUpdate(L, label, key, 3)
	return 0
}

func (m *DocumentModule) doUpdate(L *lua.LState, label, key string, base int) {
	id := element.ID(L.CheckString(base))
	fields := L.CheckTable(base + 1)

	current, ok := m.doc.Get(id)
	if !ok {
		L.RaiseError("doc.update: element %q not found", id)
		return
	}
	// Validate on a scratch copy so a bad field never records a half-applied
	// update.
	if err := applyFields(current.Clone(), fields); err != nil {
		L.RaiseError("doc.update: %v", err)
		return
	}

	err := m.doc.UpdateWith(label, key, id, func(el *element.Element) {
		_ = applyFields(el, fields)
	})
	if err != nil {
		L.RaiseError("doc.update: %v", err)
	}
}

// remove(id, ...)
// Removes elements as one undoable step.
func (m *DocumentModule) remove(L *lua.LState) int {
	ids := idArgs(L, 1)
	if err := m.doc.Remove(ids...); err != nil {
		L.RaiseError("doc.remove: %v", err)
	}
	return 0
}

// reorder({id, ...})
// Replaces the element ordering with a permutation of it.
func (m *DocumentModule) reorder(L *lua.LState) int {
	ids := idArgs(L, 1)
	if err := m.doc.Reorder(ids); err != nil {
		L.RaiseError("doc.reorder: %v", err)
	}
	return 0
}

// move(id, index)
// Moves one element to index, clamped to the valid range.
func (m *DocumentModule) move(L *lua.LState) int {
	id := element.ID(L.CheckString(1))
	index := L.CheckInt(2)
	if err := m.doc.Move(id, index-1); err != nil {
		L.RaiseError("doc.move: %v", err)
	}
	return 0
}

// get(id) -> table or nil
func (m *DocumentModule) get(L *lua.LState) int {
	el, ok := m.doc.Get(element.ID(L.CheckString(1)))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(elementToTable(L, el))
	return 1
}

// order() -> {id, ...}
func (m *DocumentModule) order(L *lua.LState) int {
	order := m.doc.Store().Order()
	t := L.CreateTable(len(order), 0)
	for _, id := range order {
		t.Append(lua.LString(id))
	}
	L.Push(t)
	return 1
}

// count() -> number
func (m *DocumentModule) count(L *lua.LState) int {
	L.Push(lua.LNumber(m.doc.Store().Len()))
	return 1
}

// index_of(id) -> number or nil
func (m *DocumentModule) indexOf(L *lua.LState) int {
	i := m.doc.Store().IndexOf(element.ID(L.CheckString(1)))
	if i < 0 {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(i + 1))
	return 1
}

// elementArgs reads element tables from position start onwards. A single
// table without an id is treated as a list of elements.
func elementArgs(L *lua.LState, start int) []*element.Element {
	var tables []*lua.LTable
	for i := start; i <= L.GetTop(); i++ {
		t := L.CheckTable(i)
		if t.RawGetString("id") == lua.LNil && t.Len() > 0 {
			for j := 1; j <= t.Len(); j++ {
				item, ok := t.RawGetInt(j).(*lua.LTable)
				if !ok {
					L.ArgError(i, "expected a list of element tables")
					return nil
				}
				tables = append(tables, item)
			}
			continue
		}
		tables = append(tables, t)
	}

	els := make([]*element.Element, 0, len(tables))
	for _, t := range tables {
		el, err := tableToElement(t)
		if err != nil {
			L.RaiseError("invalid element: %v", err)
			return nil
		}
		els = append(els, el)
	}
	return els
}

// idArgs reads ids from position start onwards. A single table argument
// is treated as a list of ids.
func idArgs(L *lua.LState, start int) []element.ID {
	var ids []element.ID
	for i := start; i <= L.GetTop(); i++ {
		switch v := L.Get(i).(type) {
		case *lua.LTable:
			for j := 1; j <= v.Len(); j++ {
				ids = append(ids, element.ID(lua.LVAsString(v.RawGetInt(j))))
			}
		default:
			ids = append(ids, element.ID(L.CheckString(i)))
		}
	}
	return ids
}

package api

import (
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/strata/internal/engine/history"
)

const checkpointTypeName = "strata.checkpoint"

// HistoryModule implements the strata.history API module.
type HistoryModule struct {
	history *history.History
}

// NewHistoryModule creates a history module.
func NewHistoryModule(h *history.History) *HistoryModule {
	return &HistoryModule{history: h}
}

// Name returns the module name.
func (m *HistoryModule) Name() string {
	return "history"
}

// Register registers the module into the Lua state.
func (m *HistoryModule) Register(L *lua.LState) error {
	mod := L.NewTable()

	L.SetField(mod, "undo", L.NewFunction(m.undo))
	L.SetField(mod, "redo", L.NewFunction(m.redo))
	L.SetField(mod, "can_undo", L.NewFunction(m.canUndo))
	L.SetField(mod, "can_redo", L.NewFunction(m.canRedo))
	L.SetField(mod, "undo_count", L.NewFunction(m.undoCount))
	L.SetField(mod, "redo_count", L.NewFunction(m.redoCount))
	L.SetField(mod, "len", L.NewFunction(m.length))
	L.SetField(mod, "peek_undo", L.NewFunction(m.peekUndo))
	L.SetField(mod, "peek_redo", L.NewFunction(m.peekRedo))
	L.SetField(mod, "entries", L.NewFunction(m.entries))
	L.SetField(mod, "batch", L.NewFunction(m.batch))
	L.SetField(mod, "begin_batch", L.NewFunction(m.beginBatch))
	L.SetField(mod, "end_batch", L.NewFunction(m.endBatch))
	L.SetField(mod, "is_batching", L.NewFunction(m.isBatching))
	L.SetField(mod, "memory_usage", L.NewFunction(m.memoryUsage))
	L.SetField(mod, "config", L.NewFunction(m.config))
	L.SetField(mod, "set_merge_window", L.NewFunction(m.setMergeWindow))
	L.SetField(mod, "set_memory_limits", L.NewFunction(m.setMemoryLimits))
	L.SetField(mod, "prune", L.NewFunction(m.prune))
	L.SetField(mod, "clear", L.NewFunction(m.clear))
	L.SetField(mod, "checkpoint", L.NewFunction(m.checkpoint))
	L.SetField(mod, "undo_to", L.NewFunction(m.undoTo))
	L.SetField(mod, "redo_to", L.NewFunction(m.redoTo))

	mt := L.NewTypeMetatable(checkpointTypeName)
	L.SetField(mt, "__tostring", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(checkpointTypeName))
		return 1
	}))

	L.SetGlobal(globalName(m.Name()), mod)
	return nil
}

// undo() -> bool
func (m *HistoryModule) undo(L *lua.LState) int {
	L.Push(lua.LBool(m.history.Undo()))
	return 1
}

// redo() -> bool
func (m *HistoryModule) redo(L *lua.LState) int {
	L.Push(lua.LBool(m.history.Redo()))
	return 1
}

func (m *HistoryModule) canUndo(L *lua.LState) int {
	L.Push(lua.LBool(m.history.CanUndo()))
	return 1
}

func (m *HistoryModule) canRedo(L *lua.LState) int {
	L.Push(lua.LBool(m.history.CanRedo()))
	return 1
}

func (m *HistoryModule) undoCount(L *lua.LState) int {
	L.Push(lua.LNumber(m.history.UndoCount()))
	return 1
}

func (m *HistoryModule) redoCount(L *lua.LState) int {
	L.Push(lua.LNumber(m.history.RedoCount()))
	return 1
}

func (m *HistoryModule) length(L *lua.LState) int {
	L.Push(lua.LNumber(m.history.Len()))
	return 1
}

// peek_undo() -> description or nil
func (m *HistoryModule) peekUndo(L *lua.LState) int {
	info, ok := m.history.PeekUndo()
	pushDescription(L, info, ok)
	return 1
}

// peek_redo() -> description or nil
func (m *HistoryModule) peekRedo(L *lua.LState) int {
	info, ok := m.history.PeekRedo()
	pushDescription(L, info, ok)
	return 1
}

func pushDescription(L *lua.LState, info history.EntryInfo, ok bool) {
	if !ok {
		L.Push(lua.LNil)
		return
	}
	L.Push(lua.LString(info.Description))
}

// entries() -> {{id, label, merge_key, description, op_count, size, timestamp}, ...}
// timestamp is in Unix milliseconds.
func (m *HistoryModule) entries(L *lua.LState) int {
	infos := m.history.Entries()
	t := L.CreateTable(len(infos), 0)
	for _, info := range infos {
		e := L.CreateTable(0, 7)
		e.RawSetString("id", lua.LString(info.ID))
		e.RawSetString("label", lua.LString(info.Label))
		e.RawSetString("merge_key", lua.LString(info.MergeKey))
		e.RawSetString("description", lua.LString(info.Description))
		e.RawSetString("op_count", lua.LNumber(info.OpCount))
		e.RawSetString("size", lua.LNumber(info.EstimatedSize))
		e.RawSetString("timestamp", lua.LNumber(info.Timestamp.UnixMilli()))
		t.Append(e)
	}
	L.Push(t)
	return 1
}

// batch(label, [merge_key], fn)
// Runs fn inside a batch. The batch commits even when fn raises, since its
// edits are already in the document; the error is then re-raised.
func (m *HistoryModule) batch(L *lua.LState) int {
	label := L.CheckString(1)
	key := ""
	fnIndex := 2
	if L.GetTop() >= 3 {
		key = L.CheckString(2)
		fnIndex = 3
	}
	fn := L.CheckFunction(fnIndex)

	scope := m.history.Batch(label, key)
	err := L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true})
	scope.End()

	if err != nil {
		if apiErr, ok := err.(*lua.ApiError); ok {
			L.Error(apiErr.Object, 0)
			return 0
		}
		L.RaiseError("%s", err.Error())
	}
	return 0
}

// begin_batch(label, [merge_key])
func (m *HistoryModule) beginBatch(L *lua.LState) int {
	m.history.BeginBatch(L.OptString(1, ""), L.OptString(2, ""))
	return 0
}

// end_batch([commit]) commits unless commit is false.
func (m *HistoryModule) endBatch(L *lua.LState) int {
	m.history.EndBatch(L.OptBool(1, true))
	return 0
}

func (m *HistoryModule) isBatching(L *lua.LState) int {
	L.Push(lua.LBool(m.history.IsBatching()))
	return 1
}

// memory_usage() -> {entries, bytes, mb}
func (m *HistoryModule) memoryUsage(L *lua.LState) int {
	u := m.history.MemoryUsage()
	t := L.CreateTable(0, 3)
	t.RawSetString("entries", lua.LNumber(u.EntriesCount))
	t.RawSetString("bytes", lua.LNumber(u.EstimatedBytes))
	t.RawSetString("mb", lua.LNumber(u.EstimatedMB))
	L.Push(t)
	return 1
}

// config() -> {merge_window_ms, max_entries, max_memory_mb, prune_threshold_ratio}
func (m *HistoryModule) config(L *lua.LState) int {
	cfg := m.history.Config()
	t := L.CreateTable(0, 4)
	t.RawSetString("merge_window_ms", lua.LNumber(cfg.MergeWindow.Milliseconds()))
	t.RawSetString("max_entries", lua.LNumber(cfg.MaxEntries))
	t.RawSetString("max_memory_mb", lua.LNumber(float64(cfg.MaxMemoryBytes)/(1024*1024)))
	t.RawSetString("prune_threshold_ratio", lua.LNumber(cfg.PruneThresholdRatio))
	L.Push(t)
	return 1
}

// set_merge_window(ms)
func (m *HistoryModule) setMergeWindow(L *lua.LState) int {
	ms := float64(L.CheckNumber(1))
	m.history.SetMergeWindow(time.Duration(ms * float64(time.Millisecond)))
	return 0
}

// set_memory_limits(max_entries, max_memory_mb)
func (m *HistoryModule) setMemoryLimits(L *lua.LState) int {
	m.history.SetMemoryLimits(L.CheckInt(1), float64(L.CheckNumber(2)))
	return 0
}

// prune() -> number of entries removed
func (m *HistoryModule) prune(L *lua.LState) int {
	L.Push(lua.LNumber(m.history.PruneHistory()))
	return 1
}

func (m *HistoryModule) clear(L *lua.LState) int {
	m.history.Clear()
	return 0
}

// checkpoint() -> checkpoint
func (m *HistoryModule) checkpoint(L *lua.LState) int {
	ud := L.NewUserData()
	ud.Value = m.history.CreateCheckpoint()
	L.SetMetatable(ud, L.GetTypeMetatable(checkpointTypeName))
	L.Push(ud)
	return 1
}

// undo_to(checkpoint) -> true or false, message
func (m *HistoryModule) undoTo(L *lua.LState) int {
	return pushResult(L, m.history.UndoToCheckpoint(checkCheckpoint(L, 1)))
}

// redo_to(checkpoint) -> true or false, message
func (m *HistoryModule) redoTo(L *lua.LState) int {
	return pushResult(L, m.history.RedoToCheckpoint(checkCheckpoint(L, 1)))
}

func checkCheckpoint(L *lua.LState, n int) history.Checkpoint {
	ud := L.CheckUserData(n)
	cp, ok := ud.Value.(history.Checkpoint)
	if !ok {
		L.ArgError(n, "checkpoint expected")
	}
	return cp
}

func pushResult(L *lua.LState, err error) int {
	if err != nil {
		L.Push(lua.LFalse)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LTrue)
	return 1
}

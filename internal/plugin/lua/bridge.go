package lua

import (
	"fmt"
	"strconv"

	lua "github.com/yuin/gopher-lua"
)

// ToGoValue converts a Lua value to a JSON-like Go value: nil, bool,
// float64, string, []any or map[string]any. Functions, userdata values and
// cyclic table references convert to nil.
func ToGoValue(lv lua.LValue) any {
	return toGo(lv, make(map[*lua.LTable]bool))
}

func toGo(lv lua.LValue, visited map[*lua.LTable]bool) any {
	switch v := lv.(type) {
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		return float64(v)
	case lua.LString:
		return string(v)
	case *lua.LTable:
		if visited[v] {
			return nil
		}
		visited[v] = true
		defer delete(visited, v)
		return tableToGo(v, visited)
	default:
		return nil
	}
}

// tableToGo returns a slice for tables with contiguous integer keys from 1
// and a map otherwise. An empty table becomes an empty map.
func tableToGo(t *lua.LTable, visited map[*lua.LTable]bool) any {
	if n := arrayLen(t); n > 0 {
		arr := make([]any, n)
		for i := 1; i <= n; i++ {
			arr[i-1] = toGo(t.RawGetInt(i), visited)
		}
		return arr
	}

	m := make(map[string]any)
	t.ForEach(func(k, v lua.LValue) {
		var key string
		switch kv := k.(type) {
		case lua.LString:
			key = string(kv)
		case lua.LNumber:
			key = strconv.FormatFloat(float64(kv), 'f', -1, 64)
		default:
			key = k.String()
		}
		m[key] = toGo(v, visited)
	})
	return m
}

// arrayLen returns the sequence length of t, or 0 when t has other keys.
func arrayLen(t *lua.LTable) int {
	count, maxN := 0, 0
	isArray := true
	t.ForEach(func(k, _ lua.LValue) {
		count++
		kn, ok := k.(lua.LNumber)
		n := int(kn)
		if !ok || float64(n) != float64(kn) || n < 1 {
			isArray = false
			return
		}
		if n > maxN {
			maxN = n
		}
	})
	if !isArray || count != maxN {
		return 0
	}
	return maxN
}

// ToLuaValue converts a Go value to a Lua value. Unknown types become their
// fmt string.
func ToLuaValue(L *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case lua.LValue:
		return val
	case bool:
		return lua.LBool(val)
	case string:
		return lua.LString(val)
	case []byte:
		return lua.LString(val)
	case float64:
		return lua.LNumber(val)
	case float32:
		return lua.LNumber(val)
	case int:
		return lua.LNumber(val)
	case int8:
		return lua.LNumber(val)
	case int16:
		return lua.LNumber(val)
	case int32:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case uint:
		return lua.LNumber(val)
	case uint8:
		return lua.LNumber(val)
	case uint16:
		return lua.LNumber(val)
	case uint32:
		return lua.LNumber(val)
	case uint64:
		return lua.LNumber(val)
	case []any:
		t := L.CreateTable(len(val), 0)
		for _, item := range val {
			t.Append(ToLuaValue(L, item))
		}
		return t
	case []string:
		t := L.CreateTable(len(val), 0)
		for _, item := range val {
			t.Append(lua.LString(item))
		}
		return t
	case map[string]any:
		t := L.CreateTable(0, len(val))
		for k, item := range val {
			t.RawSetString(k, ToLuaValue(L, item))
		}
		return t
	default:
		return lua.LString(fmt.Sprint(v))
	}
}

// TableString returns t[key] when it is a string.
func TableString(t *lua.LTable, key string) (string, bool) {
	s, ok := t.RawGetString(key).(lua.LString)
	return string(s), ok
}

// TableNumber returns t[key] when it is a number.
func TableNumber(t *lua.LTable, key string) (float64, bool) {
	n, ok := t.RawGetString(key).(lua.LNumber)
	return float64(n), ok
}

// TableTable returns t[key] when it is a table.
func TableTable(t *lua.LTable, key string) (*lua.LTable, bool) {
	v, ok := t.RawGetString(key).(*lua.LTable)
	return v, ok
}

package scripting

import (
	"fmt"
	"sort"

	"github.com/farmdemo/server/internal/motion"
	lua "github.com/yuin/gopher-lua"
)

// ToGo converts a Lua value to a Go value: nil, bool, float64, string,
// []any or map[string]any. A table whose keys are all numbers becomes a
// slice ordered by key, with nil entries dropped; any other table becomes a
// map keyed by the string form of each key. Functions and other values
// become "<typename>".
func ToGo(v lua.LValue) any {
	switch v := v.(type) {
	case *lua.LNilType:
		return nil
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		return float64(v)
	case lua.LString:
		return string(v)
	case *lua.LTable:
		return tableToGo(v)
	}
	return fmt.Sprintf("<%s>", v.Type().String())
}

func tableToGo(tb *lua.LTable) any {
	type entry struct {
		key lua.LValue
		val any
	}
	var entries []entry
	arrayLike := true
	tb.ForEach(func(k, v lua.LValue) {
		if _, ok := k.(lua.LNumber); !ok {
			arrayLike = false
		}
		entries = append(entries, entry{k, ToGo(v)})
	})

	if arrayLike {
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].key.(lua.LNumber) < entries[j].key.(lua.LNumber)
		})
		out := make([]any, 0, len(entries))
		for _, e := range entries {
			if e.val != nil {
				out = append(out, e.val)
			}
		}
		return out
	}
	out := make(map[string]any, len(entries))
	for _, e := range entries {
		out[e.key.String()] = e.val
	}
	return out
}

// ToLua converts a Go value to a Lua value. Slices become 1-based array
// tables and maps become record tables. Unsupported values become the
// string "<type>".
func ToLua(L *lua.LState, v any) lua.LValue {
	switch v := v.(type) {
	case nil:
		return lua.LNil
	case lua.LValue:
		return v
	case bool:
		return lua.LBool(v)
	case float64:
		return lua.LNumber(v)
	case float32:
		return lua.LNumber(v)
	case int:
		return lua.LNumber(v)
	case int64:
		return lua.LNumber(v)
	case string:
		return lua.LString(v)
	case motion.Xyz:
		tb := L.NewTable()
		tb.RawSetString("x", lua.LNumber(v.X))
		tb.RawSetString("y", lua.LNumber(v.Y))
		tb.RawSetString("z", lua.LNumber(v.Z))
		return tb
	case []any:
		tb := L.CreateTable(len(v), 0)
		for i, item := range v {
			tb.RawSetInt(i+1, ToLua(L, item))
		}
		return tb
	case []string:
		tb := L.CreateTable(len(v), 0)
		for i, item := range v {
			tb.RawSetInt(i+1, lua.LString(item))
		}
		return tb
	case []float64:
		tb := L.CreateTable(len(v), 0)
		for i, item := range v {
			tb.RawSetInt(i+1, lua.LNumber(item))
		}
		return tb
	case map[string]any:
		tb := L.CreateTable(0, len(v))
		for k, item := range v {
			tb.RawSetString(k, ToLua(L, item))
		}
		return tb
	case map[string]string:
		tb := L.CreateTable(0, len(v))
		for k, item := range v {
			tb.RawSetString(k, lua.LString(item))
		}
		return tb
	}
	return lua.LString(fmt.Sprintf("<%T>", v))
}

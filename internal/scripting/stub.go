package scripting

import (
	"fmt"
	"strings"

	"github.com/farmdemo/server/internal/action"
	lua "github.com/yuin/gopher-lua"
)

// installStubs makes every undefined global resolve to a stub. Indexing a
// stub yields a deeper stub, so foo.bar.baz() works too; calling one emits
// an error send_message naming the path and returns false.
func (r *run) installStubs() {
	mt := r.vm.NewTable()
	mt.RawSetString("__index", r.vm.NewFunction(func(L *lua.LState) int {
		L.Push(r.stub([]string{lua.LVAsString(L.Get(2))}))
		return 1
	}))
	r.vm.SetMetatable(r.vm.G.Global, mt)
}

func (r *run) stub(path []string) *lua.LTable {
	tb := r.vm.NewTable()
	mt := r.vm.NewTable()
	mt.RawSetString("__index", r.vm.NewFunction(func(L *lua.LState) int {
		next := append(path[:len(path):len(path)], lua.LVAsString(L.Get(2)))
		L.Push(r.stub(next))
		return 1
	}))
	mt.RawSetString("__call", r.vm.NewFunction(func(L *lua.LState) int {
		r.emit(action.New(action.SendMessage, "error",
			fmt.Sprintf(`Lua function "%s" is not implemented.`, strings.Join(path, "."))))
		L.Push(lua.LFalse)
		return 1
	}))
	r.vm.SetMetatable(tb, mt)
	return tb
}

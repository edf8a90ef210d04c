// Package scripting runs user and sequence Lua programs and collects the
// actions they emit.
package scripting

import (
	"errors"
	"fmt"

	"github.com/farmdemo/server/internal/action"
	"github.com/farmdemo/server/internal/motion"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// MaxCallDepth is the deepest nesting of sequence calls a run may reach.
const MaxCallDepth = 100

// ErrMaxCallDepth is returned when a run is started deeper than MaxCallDepth.
var ErrMaxCallDepth = errors.New("maximum call depth exceeded")

// Libraries opened in every VM. io, os, package and debug stay closed.
var openLibs = []struct {
	name string
	fn   lua.LGFunction
}{
	{lua.BaseLibName, lua.OpenBase},
	{lua.TabLibName, lua.OpenTable},
	{lua.StringLibName, lua.OpenString},
	{lua.MathLibName, lua.OpenMath},
}

// Engine runs Lua programs. Each run gets a fresh VM so globals never leak
// from one program into the next. Single-goroutine access only.
type Engine struct {
	env motion.Environment
	log *zap.Logger
}

// NewEngine creates an engine. env resolves variable() lookups.
func NewEngine(env motion.Environment, log *zap.Logger) *Engine {
	return &Engine{env: env, log: log}
}

// RunLua executes code at the given call depth with vars bound and returns
// the actions it emitted, in call order. Lua errors do not fail the run:
// they become an error send_message after the actions emitted so far.
func (e *Engine) RunLua(depth int, code string, vars []motion.ParameterApplication) ([]action.Action, error) {
	if depth > MaxCallDepth {
		e.log.Error("lua call depth exceeded", zap.Int("depth", depth))
		return nil, ErrMaxCallDepth
	}

	vm := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer vm.Close()
	for _, lib := range openLibs {
		vm.Push(vm.NewFunction(lib.fn))
		vm.Push(lua.LString(lib.name))
		vm.Call(1, 0)
	}

	r := &run{vm: vm, env: e.env, vars: vars, actions: []action.Action{}}
	r.register()
	r.installStubs()

	if err := vm.DoString(code); err != nil {
		msg := err.Error()
		var apiErr *lua.ApiError
		if errors.As(err, &apiErr) {
			msg = apiErr.Object.String()
		}
		e.log.Warn("lua run failed", zap.Int("depth", depth), zap.String("error", msg))
		r.emit(action.New(action.SendMessage, "error", fmt.Sprintf("Lua error: %s", msg)))
	}
	e.log.Debug("lua run finished", zap.Int("depth", depth), zap.Int("actions", len(r.actions)))
	return r.actions, nil
}

// run is the state of one program execution.
type run struct {
	vm      *lua.LState
	env     motion.Environment
	vars    []motion.ParameterApplication
	actions []action.Action
}

func (r *run) emit(a action.Action) {
	r.actions = append(r.actions, a)
}

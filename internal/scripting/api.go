package scripting

import (
	"strings"

	"github.com/farmdemo/server/internal/action"
	"github.com/farmdemo/server/internal/motion"
	lua "github.com/yuin/gopher-lua"
)

// register installs the demo API as globals of the run's VM.
func (r *run) register() {
	api := map[string]lua.LGFunction{
		"move_absolute":       r.moveAbsolute,
		"move_relative":       r.moveRelative,
		"move":                r.move,
		"_move":               r.rawMove,
		"wait_ms":             r.wait,
		"wait":                r.wait,
		"find_home":           r.home(action.FindHome),
		"go_to_home":          r.home(action.GoToHome),
		"send_message":        r.sendMessage,
		"toast":               r.toast,
		"print":               r.print,
		"emergency_lock":      r.simple(action.EmergencyLock),
		"emergency_unlock":    r.simple(action.EmergencyUnlock),
		"take_photo":          r.simple(action.TakePhoto),
		"calibrate_camera":    r.simple(action.CalibrateCamera),
		"detect_weeds":        r.simple(action.DetectWeeds),
		"measure_soil_height": r.simple(action.MeasureSoilHeight),
		"write_pin":           r.writePin,
		"toggle_pin":          r.togglePin,
		"read_pin":            r.readPin,
		"set_job_progress":    r.setJobProgress,
		"update_device":       r.updateDevice,
		"variable":            r.variable,
	}
	for name, fn := range api {
		r.vm.SetGlobal(name, r.vm.NewFunction(fn))
	}
}

func (r *run) simple(kind action.Kind) lua.LGFunction {
	return func(L *lua.LState) int {
		r.emit(action.New(kind))
		return 0
	}
}

// xyzArgs reads either (x, y, z) or ({x=, y=, z=}) starting at stack index 1.
// Missing values are 0.
func xyzArgs(L *lua.LState) (x, y, z float64) {
	if tb, ok := L.Get(1).(*lua.LTable); ok {
		return tableNumber(tb, "x"), tableNumber(tb, "y"), tableNumber(tb, "z")
	}
	return float64(L.OptNumber(1, 0)), float64(L.OptNumber(2, 0)), float64(L.OptNumber(3, 0))
}

func tableNumber(tb *lua.LTable, key string) float64 {
	return float64(lua.LVAsNumber(tb.RawGetString(key)))
}

func (r *run) moveAbsolute(L *lua.LState) int {
	x, y, z := xyzArgs(L)
	r.emit(action.New(action.MoveAbsolute, x, y, z))
	return 0
}

func (r *run) moveRelative(L *lua.LState) int {
	x, y, z := xyzArgs(L)
	r.emit(action.New(action.MoveRelative, x, y, z))
	return 0
}

// move builds a move body from move{x=, y=, z=, speed=, safe_z=}. Numbers
// overwrite an axis; the strings "soil_height" and "safe_height" become
// special values and any other string names a variable.
func (r *run) move(L *lua.LState) int {
	tb := L.CheckTable(1)
	var body []motion.Item
	for _, axis := range []motion.Axis{motion.AxisX, motion.AxisY, motion.AxisZ} {
		v := tb.RawGetString(string(axis))
		var operand *motion.Operand
		switch v := v.(type) {
		case lua.LNumber:
			operand = motion.Numeric(float64(v))
		case lua.LString:
			label := string(v)
			if label == motion.SpecialSoilHeight || label == motion.SpecialSafeHeight {
				operand = motion.Special(label)
			} else {
				operand = &motion.Operand{Kind: motion.OperandIdentifier, Args: motion.OperandArgs{Label: label}}
			}
		default:
			continue
		}
		body = append(body, motion.Item{
			Kind: motion.KindAxisOverwrite,
			Args: motion.ItemArgs{Axis: axis, AxisOperand: operand},
		})
	}
	if speed, ok := tb.RawGetString("speed").(lua.LNumber); ok {
		body = append(body, motion.Item{
			Kind: motion.KindSpeedOverwrite,
			Args: motion.ItemArgs{Axis: motion.AxisAll, SpeedSetting: motion.Numeric(float64(speed))},
		})
	}
	if lua.LVAsBool(tb.RawGetString("safe_z")) {
		body = append(body, motion.Item{Kind: motion.KindSafeZ})
	}
	encoded, err := motion.EncodeBody(body)
	if err != nil {
		L.RaiseError("move: %v", err)
		return 0
	}
	r.emit(action.New(action.Move, encoded))
	return 0
}

func (r *run) rawMove(L *lua.LState) int {
	r.emit(action.New(action.Move, L.CheckString(1)))
	return 0
}

func (r *run) wait(L *lua.LState) int {
	r.emit(action.New(action.WaitMs, float64(L.CheckNumber(1))))
	return 0
}

func (r *run) home(kind action.Kind) lua.LGFunction {
	return func(L *lua.LState) int {
		r.emit(action.New(kind, L.OptString(1, string(motion.AxisAll))))
		return 0
	}
}

// channels accepts "toast", "toast,email" or {"toast", "email"}.
func channels(v lua.LValue) string {
	if tb, ok := v.(*lua.LTable); ok {
		items, _ := ToGo(tb).([]any)
		var names []string
		for _, item := range items {
			if s, ok := item.(string); ok {
				names = append(names, s)
			}
		}
		return strings.Join(names, ",")
	}
	if v == lua.LNil {
		return ""
	}
	return lua.LVAsString(v)
}

// sendMessage only carries a channels argument when the caller passed one.
func (r *run) sendMessage(L *lua.LState) int {
	args := []any{L.OptString(1, "info"), lua.LVAsString(L.Get(2))}
	if L.GetTop() >= 3 && L.Get(3) != lua.LNil {
		args = append(args, channels(L.Get(3)))
	}
	r.emit(action.New(action.SendMessage, args...))
	return 0
}

func (r *run) toast(L *lua.LState) int {
	r.emit(action.New(action.SendMessage,
		L.OptString(2, "info"),
		lua.LVAsString(L.Get(1)),
		"toast",
	))
	return 0
}

func (r *run) print(L *lua.LState) int {
	parts := make([]string, L.GetTop())
	for i := range parts {
		parts[i] = L.ToStringMeta(L.Get(i + 1)).String()
	}
	r.emit(action.New(action.Print, strings.Join(parts, "\t")))
	return 0
}

func (r *run) writePin(L *lua.LState) int {
	r.emit(action.New(action.WritePin,
		float64(L.CheckNumber(1)),
		L.OptString(2, "digital"),
		float64(L.OptNumber(3, 0)),
	))
	return 0
}

func (r *run) togglePin(L *lua.LState) int {
	r.emit(action.New(action.TogglePin, float64(L.CheckNumber(1))))
	return 0
}

// readPin has no simulated sensor behind it and always reads 0.
func (r *run) readPin(L *lua.LState) int {
	L.Push(lua.LNumber(0))
	return 1
}

// setJobProgress takes (name, {percent=, status=, time=}).
func (r *run) setJobProgress(L *lua.LState) int {
	name := L.CheckString(1)
	opts := L.OptTable(2, L.NewTable())
	var t any
	if v := opts.RawGetString("time"); v != lua.LNil {
		t = lua.LVAsString(v)
	}
	r.emit(action.New(action.SetJobProgress,
		name,
		tableNumber(opts, "percent"),
		lua.LVAsString(opts.RawGetString("status")),
		t,
	))
	return 0
}

// updateDevice supports {mounted_tool_id=}.
func (r *run) updateDevice(L *lua.LState) int {
	tb := L.CheckTable(1)
	if v, ok := tb.RawGetString("mounted_tool_id").(lua.LNumber); ok {
		r.emit(action.New(action.UpdateDevice, "mounted_tool_id", float64(v)))
	}
	return 0
}

// variable returns the position bound to label ("parent" by default) as
// {x=, y=, z=}, or nil when the label is unbound or does not resolve.
func (r *run) variable(L *lua.LState) int {
	v, ok := motion.Lookup(r.vars, L.OptString(1, "parent"))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	pos, ok := motion.Locate(r.env, v)
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(ToLua(L, pos))
	return 1
}

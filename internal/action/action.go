// Package action defines the flat instruction record passed between the
// script runtime, the expander and the scheduler.
package action

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind names an action. The set is closed; anything else a script produces
// passes through the expander untouched and is ignored by the scheduler.
type Kind string

const (
	MoveAbsolute         Kind = "move_absolute"
	MoveRelative         Kind = "move_relative"
	Move                 Kind = "_move"
	ExpandedMoveAbsolute Kind = "expanded_move_absolute"
	FindHome             Kind = "find_home"
	GoToHome             Kind = "go_to_home"
	WaitMs               Kind = "wait_ms"
	SendMessage          Kind = "send_message"
	Print                Kind = "print"
	TakePhoto            Kind = "take_photo"
	CalibrateCamera      Kind = "calibrate_camera"
	DetectWeeds          Kind = "detect_weeds"
	MeasureSoilHeight    Kind = "measure_soil_height"
	EmergencyLock        Kind = "emergency_lock"
	EmergencyUnlock      Kind = "emergency_unlock"
	WritePin             Kind = "write_pin"
	TogglePin            Kind = "toggle_pin"
	SetJobProgress       Kind = "set_job_progress"
	CreatePoint          Kind = "create_point"
	UpdateDevice         Kind = "update_device"
)

var known = map[Kind]bool{
	MoveAbsolute: true, MoveRelative: true, Move: true, ExpandedMoveAbsolute: true,
	FindHome: true, GoToHome: true, WaitMs: true, SendMessage: true, Print: true,
	TakePhoto: true, CalibrateCamera: true, DetectWeeds: true, MeasureSoilHeight: true,
	EmergencyLock: true, EmergencyUnlock: true, WritePin: true, TogglePin: true,
	SetJobProgress: true, CreatePoint: true, UpdateDevice: true,
}

// Known reports whether k belongs to the action vocabulary.
func (k Kind) Known() bool { return known[k] }

// Action is one instruction. Args is a positional tuple whose shape depends
// on Type; values are float64, string, bool, nil, []any or map[string]any.
type Action struct {
	Type Kind  `json:"type"`
	Args []any `json:"args"`
}

// New builds an action from positional arguments.
func New(kind Kind, args ...any) Action {
	if args == nil {
		args = []any{}
	}
	return Action{Type: kind, Args: args}
}

func (a Action) String() string {
	b, err := json.Marshal(a)
	if err != nil {
		return string(a.Type)
	}
	return string(b)
}

// Arg returns the i-th argument or nil.
func (a Action) Arg(i int) any {
	if i < 0 || i >= len(a.Args) {
		return nil
	}
	return a.Args[i]
}

// Number returns the i-th argument as a number. Numeric strings are parsed;
// anything else yields 0.
func (a Action) Number(i int) float64 {
	switch v := a.Arg(i).(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case bool:
		if v {
			return 1
		}
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return 0
}

// Str returns the i-th argument as text. Missing and nil arguments are "".
func (a Action) Str(i int) string {
	switch v := a.Arg(i).(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
}

// With returns a copy of a with argument i set, growing Args as needed.
func (a Action) With(i int, v any) Action {
	n := len(a.Args)
	if i >= n {
		n = i + 1
	}
	args := make([]any, n)
	copy(args, a.Args)
	args[i] = v
	return Action{Type: a.Type, Args: args}
}

package motion

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Axis selects one coordinate or all three.
type Axis string

const (
	AxisX   Axis = "x"
	AxisY   Axis = "y"
	AxisZ   Axis = "z"
	AxisAll Axis = "all"
)

// ItemKind tags a move body directive.
type ItemKind string

const (
	KindAxisAddition   ItemKind = "axis_addition"
	KindAxisOverwrite  ItemKind = "axis_overwrite"
	KindSpeedOverwrite ItemKind = "speed_overwrite"
	KindSafeZ          ItemKind = "safe_z"
	KindAxisOrder      ItemKind = "axis_order"
)

// OperandKind tags the value an axis directive applies.
type OperandKind string

const (
	OperandNumeric      OperandKind = "numeric"
	OperandCoordinate   OperandKind = "coordinate"
	OperandTool         OperandKind = "tool"
	OperandIdentifier   OperandKind = "identifier"
	OperandSpecialValue OperandKind = "special_value"
)

// Special value labels understood on the z axis.
const (
	SpecialSoilHeight = "soil_height"
	SpecialSafeHeight = "safe_height"
)

// Item is one directive of a move body. Kinds outside the known set decode
// fine and are reported as warnings by CalculateMove.
type Item struct {
	Kind ItemKind `json:"kind"`
	Args ItemArgs `json:"args"`
}

// ItemArgs holds the union of arguments used by every item kind.
type ItemArgs struct {
	Axis         Axis     `json:"axis,omitempty"`
	AxisOperand  *Operand `json:"axis_operand,omitempty"`
	SpeedSetting *Operand `json:"speed_setting,omitempty"`
	Grouping     string   `json:"grouping,omitempty"`
	Route        Route    `json:"route,omitempty"`
}

// Operand is the value side of an axis addition or overwrite.
type Operand struct {
	Kind OperandKind `json:"kind"`
	Args OperandArgs `json:"args"`
}

// OperandArgs holds the union of operand arguments.
type OperandArgs struct {
	Number float64 `json:"number"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Z      float64 `json:"z"`
	ToolID int     `json:"tool_id"`
	Label  string  `json:"label"`
}

// MarshalJSON writes only the arguments that belong to the operand kind.
func (o Operand) MarshalJSON() ([]byte, error) {
	var args any
	switch o.Kind {
	case OperandNumeric:
		args = struct {
			Number float64 `json:"number"`
		}{o.Args.Number}
	case OperandCoordinate:
		args = struct {
			X float64 `json:"x"`
			Y float64 `json:"y"`
			Z float64 `json:"z"`
		}{o.Args.X, o.Args.Y, o.Args.Z}
	case OperandTool:
		args = struct {
			ToolID int `json:"tool_id"`
		}{o.Args.ToolID}
	case OperandIdentifier, OperandSpecialValue:
		args = struct {
			Label string `json:"label"`
		}{o.Args.Label}
	default:
		args = struct{}{}
	}
	return json.Marshal(struct {
		Kind OperandKind `json:"kind"`
		Args any         `json:"args"`
	}{o.Kind, args})
}

// Numeric builds a numeric operand.
func Numeric(n float64) *Operand {
	return &Operand{Kind: OperandNumeric, Args: OperandArgs{Number: n}}
}

// Special builds a special_value operand.
func Special(label string) *Operand {
	return &Operand{Kind: OperandSpecialValue, Args: OperandArgs{Label: label}}
}

// ParseBody decodes a JSON move body as carried by a _move action.
func ParseBody(raw string) ([]Item, error) {
	var items []Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("parse move body: %w", err)
	}
	return items, nil
}

// EncodeBody is the inverse of ParseBody.
func EncodeBody(items []Item) (string, error) {
	if items == nil {
		items = []Item{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(items); err != nil {
		return "", fmt.Errorf("encode move body: %w", err)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

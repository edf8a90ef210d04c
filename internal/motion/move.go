package motion

import "fmt"

// Environment supplies the external state a move body can refer to.
type Environment interface {
	// ToolSlot returns the position of the slot holding toolID.
	ToolSlot(toolID int) (Xyz, bool)
	// Point returns the position of a stored point.
	Point(id int) (Xyz, bool)
	// SafeZ returns the configured safe travel height.
	SafeZ() float64
	// SoilHeight returns the soil surface height below (x, y).
	SoilHeight(x, y float64) float64
}

// Result is the outcome of resolving a move body.
type Result struct {
	Moves    []Xyz
	Warnings []string
}

// CalculateMove applies body to current and returns the waypoints to travel
// through. Unsupported directives never fail: they are reported in Warnings
// and leave the position untouched. A missing tool slot or point is a silent
// no-op.
func CalculateMove(env Environment, body []Item, current Xyz, vars []ParameterApplication) Result {
	pos := current
	var warnings []string
	var safeZ bool
	var order *ItemArgs

	for i := range body {
		item := &body[i]
		switch item.Kind {
		case KindAxisAddition:
			if w := addAxis(&pos, item.Args); w != "" {
				warnings = append(warnings, w)
			}
		case KindAxisOverwrite:
			if w := overwriteAxis(env, &pos, item.Args, vars); w != "" {
				warnings = append(warnings, w)
			}
		case KindSpeedOverwrite:
		case KindSafeZ:
			safeZ = true
		case KindAxisOrder:
			if order == nil {
				order = &item.Args
			}
		default:
			warnings = append(warnings, fmt.Sprintf("item kind: %s", item.Kind))
		}
	}

	if safeZ {
		z := env.SafeZ()
		return Result{
			Moves: []Xyz{
				{X: current.X, Y: current.Y, Z: z},
				{X: pos.X, Y: pos.Y, Z: z},
				pos,
			},
			Warnings: warnings,
		}
	}
	if order != nil {
		return Result{
			Moves:    GenerateMoves(order.Grouping, order.Route, current, pos),
			Warnings: warnings,
		}
	}
	return Result{Moves: []Xyz{pos}, Warnings: warnings}
}

func operandKind(o *Operand) OperandKind {
	if o == nil {
		return ""
	}
	return o.Kind
}

func addAxis(pos *Xyz, args ItemArgs) string {
	op := args.AxisOperand
	switch operandKind(op) {
	case OperandNumeric:
		n := op.Args.Number
		if args.Axis == AxisAll {
			pos.X += n
			pos.Y += n
			pos.Z += n
		} else {
			pos.Set(args.Axis, pos.Get(args.Axis)+n)
		}
	case OperandCoordinate:
		c := Xyz{X: op.Args.X, Y: op.Args.Y, Z: op.Args.Z}
		if args.Axis == AxisAll {
			pos.X += c.X
			pos.Y += c.Y
			pos.Z += c.Z
		} else {
			pos.Set(args.Axis, pos.Get(args.Axis)+c.Get(args.Axis))
		}
	default:
		return fmt.Sprintf("axis_addition axis_operand kind: %s", operandKind(op))
	}
	return ""
}

func overwriteAxis(env Environment, pos *Xyz, args ItemArgs, vars []ParameterApplication) string {
	op := args.AxisOperand
	switch operandKind(op) {
	case OperandNumeric:
		n := op.Args.Number
		setAxes(pos, args.Axis, Xyz{X: n, Y: n, Z: n})
	case OperandCoordinate:
		setAxes(pos, args.Axis, Xyz{X: op.Args.X, Y: op.Args.Y, Z: op.Args.Z})
	case OperandTool:
		slot, ok := env.ToolSlot(op.Args.ToolID)
		if !ok {
			return ""
		}
		setAxes(pos, args.Axis, slot)
	case OperandIdentifier:
		v, found := Lookup(vars, op.Args.Label)
		if !found {
			return "identifier location kind: undefined"
		}
		switch v.Kind {
		case ValueCoordinate, ValuePoint:
			if loc, ok := Locate(env, v); ok {
				*pos = loc
			}
		default:
			return fmt.Sprintf("identifier location kind: %s", v.Kind)
		}
	case OperandSpecialValue:
		label := op.Args.Label
		switch {
		case label == SpecialSoilHeight && args.Axis == AxisZ:
			pos.Z = env.SoilHeight(pos.X, pos.Y)
		case label == SpecialSafeHeight && args.Axis == AxisZ:
			pos.Z = env.SafeZ()
		default:
			return fmt.Sprintf("special_value label: %s", label)
		}
	default:
		return fmt.Sprintf("axis_overwrite axis_operand kind: %s", operandKind(op))
	}
	return ""
}

// setAxes copies src into pos on the selected axis, or on every axis for
// AxisAll.
func setAxes(pos *Xyz, axis Axis, src Xyz) {
	if axis == AxisAll {
		*pos = src
		return
	}
	pos.Set(axis, src.Get(axis))
}

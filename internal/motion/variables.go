package motion

// Data value kinds a variable can be bound to.
const (
	ValueCoordinate = "coordinate"
	ValuePoint      = "point"
	ValuePointGroup = "point_group"
)

// ParameterApplication binds a variable label to a value.
type ParameterApplication struct {
	Label     string    `json:"label" yaml:"label"`
	DataValue DataValue `json:"data_value" yaml:"data_value"`
}

// DataValue is the value side of a variable binding.
type DataValue struct {
	Kind string        `json:"kind" yaml:"kind"`
	Args DataValueArgs `json:"args" yaml:"args"`
}

// DataValueArgs holds the union of data value arguments.
type DataValueArgs struct {
	X            float64 `json:"x" yaml:"x"`
	Y            float64 `json:"y" yaml:"y"`
	Z            float64 `json:"z" yaml:"z"`
	PointerID    int     `json:"pointer_id" yaml:"pointer_id"`
	PointerType  string  `json:"pointer_type" yaml:"pointer_type"`
	PointGroupID int     `json:"point_group_id" yaml:"point_group_id"`
}

// Lookup returns the value bound to label. The first match wins.
func Lookup(vars []ParameterApplication, label string) (DataValue, bool) {
	for _, v := range vars {
		if v.Label == label {
			return v.DataValue, true
		}
	}
	return DataValue{}, false
}

// PointVariable binds label to a single point.
func PointVariable(label string, pointerType string, pointerID int) ParameterApplication {
	return ParameterApplication{
		Label: label,
		DataValue: DataValue{
			Kind: ValuePoint,
			Args: DataValueArgs{PointerType: pointerType, PointerID: pointerID},
		},
	}
}

// Locate resolves a bound value to a position. Coordinates resolve directly,
// points through env; anything else does not resolve.
func Locate(env Environment, v DataValue) (Xyz, bool) {
	switch v.Kind {
	case ValueCoordinate:
		return Xyz{X: v.Args.X, Y: v.Args.Y, Z: v.Args.Z}, true
	case ValuePoint:
		return env.Point(v.Args.PointerID)
	}
	return Xyz{}, false
}

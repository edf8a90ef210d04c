// Package motion resolves symbolic move directives into waypoints.
package motion

import "strconv"

// Xyz is a position in bot coordinates (mm).
type Xyz struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// Get returns the coordinate on a single axis. AxisAll and unknown axes
// return 0.
func (p Xyz) Get(axis Axis) float64 {
	switch axis {
	case AxisX:
		return p.X
	case AxisY:
		return p.Y
	case AxisZ:
		return p.Z
	}
	return 0
}

// Set assigns a single axis. AxisAll and unknown axes are ignored.
func (p *Xyz) Set(axis Axis, v float64) {
	switch axis {
	case AxisX:
		p.X = v
	case AxisY:
		p.Y = v
	case AxisZ:
		p.Z = v
	}
}

func (p Xyz) String() string {
	return "(" + ftoa(p.X) + ", " + ftoa(p.Y) + ", " + ftoa(p.Z) + ")"
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

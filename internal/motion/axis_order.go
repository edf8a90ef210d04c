package motion

import (
	"slices"
	"strings"
)

// Route decides whether z leads or trails the other axis groups.
type Route string

const (
	RouteHigh    Route = "high"
	RouteLow     Route = "low"
	RouteInOrder Route = "in_order"
)

var allAxes = [...]Axis{AxisX, AxisY, AxisZ}

// ParseGrouping splits a comma separated grouping such as "xy,z". Empty
// groups are dropped.
func ParseGrouping(grouping string) []string {
	var groups []string
	for _, g := range strings.Split(grouping, ",") {
		if g = strings.TrimSpace(g); g != "" {
			groups = append(groups, g)
		}
	}
	return groups
}

// GenerateMoves drives the axis groups of grouping towards target one group
// at a time, in an order acceptable to route, and returns one waypoint per
// group. Axes the grouping leaves out keep their current value. A grouping
// with no groups at all moves straight to target.
//
// z counts as going up when |target.z| < |current.z|: machine z is negative
// below the home position, so a smaller magnitude is closer to home.
func GenerateMoves(grouping string, route Route, current, target Xyz) []Xyz {
	groups := ReorderGroups(ParseGrouping(grouping), route, zGoingUp(current, target))

	moves := make([]Xyz, 0, len(groups))
	last := current
	for _, g := range groups {
		next := last
		for _, axis := range allAxes {
			if strings.Contains(g, string(axis)) {
				next.Set(axis, target.Get(axis))
			}
		}
		moves = append(moves, next)
		last = next
	}
	if len(groups) == 0 {
		return []Xyz{target}
	}
	return moves
}

func zGoingUp(current, target Xyz) bool {
	return abs(target.Z) < abs(current.Z)
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// ReorderGroups returns the first acceptable ordering out of: as given,
// reversed, z group moved to the front, and z group moved to the front then
// reversed. The last candidate is returned unconditionally; it is always
// acceptable for high and low routes.
func ReorderGroups(groups []string, route Route, zUp bool) []string {
	candidates := [][]string{
		groups,
		reversed(groups),
		zFirst(groups),
	}
	for _, c := range candidates {
		if OrderOK(c, route, zUp) {
			return c
		}
	}
	return reversed(zFirst(groups))
}

// OrderOK reports whether groups is an acceptable order for route.
func OrderOK(groups []string, route Route, zUp bool) bool {
	switch route {
	case RouteHigh:
		if zUp {
			return isZFirst(groups)
		}
		return isZFirst(reversed(groups))
	case RouteLow:
		if zUp {
			return isZFirst(reversed(groups))
		}
		return isZFirst(groups)
	default:
		return true
	}
}

// isZFirst holds when no group moves z, or the first one does.
func isZFirst(groups []string) bool {
	if !strings.Contains(strings.Join(groups, ""), "z") {
		return true
	}
	return strings.Contains(groups[0], "z")
}

func zFirst(groups []string) []string {
	out := slices.Clone(groups)
	idx := slices.IndexFunc(out, func(g string) bool { return strings.Contains(g, "z") })
	if idx > 0 {
		g := out[idx]
		out = slices.Delete(out, idx, idx+1)
		out = slices.Insert(out, 0, g)
	}
	return out
}

func reversed(groups []string) []string {
	out := slices.Clone(groups)
	slices.Reverse(out)
	return out
}

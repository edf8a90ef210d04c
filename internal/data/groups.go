package data

import (
	"cmp"
	"slices"
)

// Point group sort types.
const (
	SortXYAscending  = "xy_ascending"
	SortXYDescending = "xy_descending"
	SortYXAscending  = "yx_ascending"
	SortYXDescending = "yx_descending"
	SortRandom       = "random"
)

// GroupPoints returns the points of group groupID ordered by the group's
// sort type. Unknown point ids are skipped. Random order is not reproducible
// in a demo run and falls back to xy_ascending, as does an unknown sort type.
func (r *Resources) GroupPoints(groupID int) ([]Point, error) {
	g, err := r.PointGroup(groupID)
	if err != nil {
		return nil, err
	}
	points := make([]Point, 0, len(g.PointIDs))
	for _, id := range g.PointIDs {
		if p, ok := r.Point(id); ok {
			points = append(points, p)
		}
	}
	SortPoints(points, g.SortType)
	return points, nil
}

// SortPoints orders points in place by sortType.
func SortPoints(points []Point, sortType string) {
	byXY := func(a, b Point) int {
		return cmp.Or(cmp.Compare(a.X, b.X), cmp.Compare(a.Y, b.Y))
	}
	byYX := func(a, b Point) int {
		return cmp.Or(cmp.Compare(a.Y, b.Y), cmp.Compare(a.X, b.X))
	}
	switch sortType {
	case SortXYDescending:
		slices.SortStableFunc(points, byXY)
		slices.Reverse(points)
	case SortYXAscending:
		slices.SortStableFunc(points, byYX)
	case SortYXDescending:
		slices.SortStableFunc(points, byYX)
		slices.Reverse(points)
	default:
		slices.SortStableFunc(points, byXY)
	}
}

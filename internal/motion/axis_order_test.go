package motion

import (
	"reflect"
	"strings"
	"testing"
)

func TestGenerateMovesInOrder(t *testing.T) {
	got := GenerateMoves("z,y,x", RouteInOrder, Xyz{50, 50, 50}, Xyz{100, 100, 100})
	want := []Xyz{{50, 50, 100}, {50, 100, 100}, {100, 100, 100}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("GenerateMoves = %v, want %v", got, want)
	}
}

func TestGenerateMovesHighRoute(t *testing.T) {
	got := GenerateMoves("z,xy", RouteHigh, Xyz{50, 50, 50}, Xyz{0, 0, 0})
	want := []Xyz{{50, 50, 0}, {0, 0, 0}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("GenerateMoves = %v, want %v", got, want)
	}
}

func TestGenerateMovesMissingAxis(t *testing.T) {
	got := GenerateMoves("x,y", RouteInOrder, Xyz{}, Xyz{1, 2, 3})
	want := []Xyz{{1, 0, 0}, {1, 2, 0}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("GenerateMoves = %v, want %v", got, want)
	}

	got = GenerateMoves("xy", RouteInOrder, Xyz{50, 50, 50}, Xyz{})
	if want := []Xyz{{0, 0, 50}}; !reflect.DeepEqual(got, want) {
		t.Errorf("GenerateMoves(xy) = %v, want %v", got, want)
	}
}

func TestGenerateMovesEmptyGrouping(t *testing.T) {
	got := GenerateMoves(" , ", RouteHigh, Xyz{}, Xyz{1, 2, 3})
	if !reflect.DeepEqual(got, []Xyz{{1, 2, 3}}) {
		t.Errorf("GenerateMoves = %v", got)
	}
}

func TestParseGrouping(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"xy,z", []string{"xy", "z"}},
		{" x , y ,z", []string{"x", "y", "z"}},
		{"xyz", []string{"xyz"}},
		{"x,,z", []string{"x", "z"}},
		{"", nil},
	}
	for _, tt := range tests {
		if got := ParseGrouping(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseGrouping(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestZGoingUpUsesMagnitude(t *testing.T) {
	tests := []struct {
		current, target float64
		want            bool
	}{
		{-100, -10, true},
		{-10, -100, false},
		{50, 0, true},
		{0, 50, false},
		{-50, 20, true},
		{20, -50, false},
		{30, -30, false},
		{-30, 30, false},
	}
	for _, tt := range tests {
		got := zGoingUp(Xyz{Z: tt.current}, Xyz{Z: tt.target})
		if got != tt.want {
			t.Errorf("zGoingUp(%v -> %v) = %v, want %v", tt.current, tt.target, got, tt.want)
		}
	}
}

// orderedPartitions lists every grouping string that partitions x, y and z
// into ordered groups.
func orderedPartitions() []string {
	perms := [][3]string{
		{"x", "y", "z"}, {"x", "z", "y"}, {"y", "x", "z"},
		{"y", "z", "x"}, {"z", "x", "y"}, {"z", "y", "x"},
	}
	var out []string
	for _, p := range perms {
		for mask := 0; mask < 4; mask++ {
			var b strings.Builder
			b.WriteString(p[0])
			if mask&1 != 0 {
				b.WriteByte(',')
			}
			b.WriteString(p[1])
			if mask&2 != 0 {
				b.WriteByte(',')
			}
			b.WriteString(p[2])
			out = append(out, b.String())
		}
	}
	return out
}

func TestReorderGroupsAlwaysAcceptable(t *testing.T) {
	groupings := orderedPartitions()
	if len(groupings) != 24 {
		t.Fatalf("got %d groupings, want 24", len(groupings))
	}
	for _, grouping := range groupings {
		for _, route := range []Route{RouteHigh, RouteLow, RouteInOrder} {
			for _, zUp := range []bool{true, false} {
				groups := ReorderGroups(ParseGrouping(grouping), route, zUp)
				if !OrderOK(groups, route, zUp) {
					t.Errorf("ReorderGroups(%q, %s, zUp=%v) = %q is not acceptable", grouping, route, zUp, groups)
				}
			}
		}
	}
}

func TestGenerateMovesAlwaysReachTarget(t *testing.T) {
	current := Xyz{10, 20, -30}
	targets := []Xyz{{100, 200, -5}, {100, 200, -300}, {0, 0, 0}}
	for _, grouping := range orderedPartitions() {
		for _, route := range []Route{RouteHigh, RouteLow, RouteInOrder} {
			for _, target := range targets {
				moves := GenerateMoves(grouping, route, current, target)
				if len(moves) == 0 || moves[len(moves)-1] != target {
					t.Errorf("GenerateMoves(%q, %s, %v) = %v does not end on target", grouping, route, target, moves)
				}
			}
		}
	}
}

func TestGenerateMovesHighRouteZPlacement(t *testing.T) {
	current := Xyz{50, 50, -100}
	up := Xyz{0, 0, -10}
	down := Xyz{0, 0, -200}
	for _, grouping := range []string{"x,y,z", "x,z,y", "z,x,y", "xy,z", "z,xy"} {
		moves := GenerateMoves(grouping, RouteHigh, current, up)
		if moves[0].Z != up.Z {
			t.Errorf("%q going up: first waypoint %v should lift z first", grouping, moves[0])
		}
		moves = GenerateMoves(grouping, RouteHigh, current, down)
		if moves[len(moves)-2].Z != current.Z {
			t.Errorf("%q going down: z should move last, got %v", grouping, moves)
		}
	}
}

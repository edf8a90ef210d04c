// Package terrain answers soil height queries over a triangulated surface.
package terrain

import "math"

// degenerateDet is the smallest |det| a projected face may have and still be
// used for point location.
const degenerateDet = 1e-10

// Vertex is one surface point in bot coordinates.
type Vertex [3]float64

// Triangle is a surface face projected onto the XY plane with its barycentric
// denominator cached. Built once per dataset and never mutated.
type Triangle struct {
	A   Vertex  `json:"a"`
	B   Vertex  `json:"b"`
	C   Vertex  `json:"c"`
	X1  float64 `json:"x1"`
	Y1  float64 `json:"y1"`
	X2  float64 `json:"x2"`
	Y2  float64 `json:"y2"`
	X3  float64 `json:"x3"`
	Y3  float64 `json:"y3"`
	Det float64 `json:"det"`
}

// Precompute turns every face triple into a Triangle, dropping faces whose
// XY projection is degenerate. Face indices outside vertices are skipped.
func Precompute(vertices []Vertex, faces []int) []Triangle {
	triangles := make([]Triangle, 0, len(faces)/3)
	for i := 0; i+2 < len(faces); i += 3 {
		ia, ib, ic := faces[i], faces[i+1], faces[i+2]
		if !inRange(ia, len(vertices)) || !inRange(ib, len(vertices)) || !inRange(ic, len(vertices)) {
			continue
		}
		a, b, c := vertices[ia], vertices[ib], vertices[ic]
		x1, y1 := a[0], a[1]
		x2, y2 := b[0], b[1]
		x3, y3 := c[0], c[1]

		det := (y2-y3)*(x1-x3) + (x3-x2)*(y1-y3)
		if math.Abs(det) < degenerateDet {
			continue
		}
		triangles = append(triangles, Triangle{
			A: a, B: b, C: c,
			X1: x1, Y1: y1,
			X2: x2, Y2: y2,
			X3: x3, Y3: y3,
			Det: det,
		})
	}
	return triangles
}

// HeightAt returns a lookup that interpolates z inside the first triangle
// containing (x, y), in precompute order, or returns fallback when no
// triangle contains the point.
func HeightAt(triangles []Triangle, fallback float64) func(x, y float64) float64 {
	return func(x, y float64) float64 {
		for i := range triangles {
			if z, ok := triangles[i].Z(x, y); ok {
				return z
			}
		}
		return fallback
	}
}

// Z interpolates the height at (x, y) if the point lies inside t.
func (t *Triangle) Z(x, y float64) (float64, bool) {
	// Decoded datasets may carry faces Precompute would have dropped.
	if math.Abs(t.Det) < degenerateDet {
		return 0, false
	}
	l1 := ((t.Y2-t.Y3)*(x-t.X3) + (t.X3-t.X2)*(y-t.Y3)) / t.Det
	l2 := ((t.Y3-t.Y1)*(x-t.X3) + (t.X1-t.X3)*(y-t.Y3)) / t.Det
	l3 := 1 - l1 - l2
	if l1 < 0 || l2 < 0 || l3 < 0 {
		return 0, false
	}
	return l1*t.A[2] + l2*t.B[2] + l3*t.C[2], true
}

func inRange(i, n int) bool {
	return i >= 0 && i < n
}

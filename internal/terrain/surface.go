package terrain

import (
	"fmt"

	"github.com/fogleman/delaunay"
)

// innerInset pulls the inner boundary corners just inside the outer ones.
const innerInset = 0.01

// Geometry describes the raised bed the soil surface is attached to.
type Geometry struct {
	BedLengthOuter   float64
	BedWidthOuter    float64
	BedWallThickness float64
	BedXOffset       float64
	BedYOffset       float64
	BedHeight        float64
	// ZZero is the distance from bot z=0 down to the bed top.
	ZZero float64
	// SoilHeight is the default soil depth below z=0 (positive).
	SoilHeight float64
}

// Surface is a triangulated soil surface. Faces index Vertices, three per
// triangle, and every face corner has its own vertex.
type Surface struct {
	Vertices []Vertex
	Faces    []int
}

type bounds struct {
	minX, maxX, minY, maxY float64
}

func (g Geometry) outer() bounds {
	return bounds{
		minX: g.BedWallThickness - g.BedXOffset,
		maxX: g.BedLengthOuter - g.BedWallThickness - g.BedXOffset,
		minY: g.BedWallThickness - g.BedYOffset,
		maxY: g.BedWidthOuter - g.BedWallThickness - g.BedYOffset,
	}
}

// boundaryZ clamps the default soil level between bed top and bed bottom so
// the surface edge attaches to the bed walls.
func (g Geometry) boundaryZ() float64 {
	soilZ := -g.SoilHeight
	bedTopZ := -g.ZZero
	bedBottomZ := bedTopZ - g.BedHeight
	if soilZ > bedTopZ {
		return bedTopZ
	}
	if soilZ < bedBottomZ {
		return bedBottomZ
	}
	return soilZ
}

func (b bounds) corners() [4][2]float64 {
	return [4][2]float64{
		{b.minX, b.minY},
		{b.minX, b.maxY},
		{b.maxX, b.minY},
		{b.maxX, b.maxY},
	}
}

// ComputeSurface triangulates measured soil height points together with the
// bed boundary. Points on or outside the outer boundary are ignored. Without
// any measured point the inner boundary is added at the default soil level,
// giving a flat surface with a short slope to the bed walls.
func ComputeSurface(points []Vertex, g Geometry) (Surface, error) {
	outer := g.outer()
	soil := make([]Vertex, 0, len(points)+8)
	for _, p := range points {
		if p[0] > outer.minX && p[0] < outer.maxX && p[1] > outer.minY && p[1] < outer.maxY {
			soil = append(soil, p)
		}
	}
	hasPoints := len(soil) > 0

	for _, c := range outer.corners() {
		soil = append(soil, Vertex{c[0], c[1], g.boundaryZ()})
	}
	if !hasPoints {
		inner := bounds{
			minX: outer.minX + innerInset,
			maxX: outer.maxX - innerInset,
			minY: outer.minY + innerInset,
			maxY: outer.maxY - innerInset,
		}
		for _, c := range inner.corners() {
			soil = append(soil, Vertex{c[0], c[1], -g.SoilHeight})
		}
	}

	projected := make([]delaunay.Point, len(soil))
	for i, p := range soil {
		projected[i] = delaunay.Point{X: p[0], Y: p[1]}
	}
	tri, err := delaunay.Triangulate(projected)
	if err != nil {
		return Surface{}, fmt.Errorf("triangulate %d soil points: %w", len(soil), err)
	}

	s := Surface{
		Vertices: make([]Vertex, 0, len(tri.Triangles)),
		Faces:    make([]int, 0, len(tri.Triangles)),
	}
	for i, idx := range tri.Triangles {
		s.Faces = append(s.Faces, i)
		s.Vertices = append(s.Vertices, soil[idx])
	}
	return s, nil
}

// Triangles precomputes the surface for height queries.
func (s Surface) Triangles() []Triangle {
	return Precompute(s.Vertices, s.Faces)
}

package data

import (
	"fmt"

	"github.com/farmdemo/server/internal/motion"
	"github.com/farmdemo/server/internal/terrain"
	"go.uber.org/zap"
)

// Garden answers move resolver lookups from the resource index, the device
// safe height and the session terrain dataset.
type Garden struct {
	res      *Resources
	session  *Store
	safeZ    float64
	fallback float64
	log      *zap.Logger

	cachedRaw string
	height    func(x, y float64) float64
}

// NewGarden builds a Garden. fallback is the soil height used outside the
// terrain mesh.
func NewGarden(res *Resources, session *Store, safeZ, fallback float64, log *zap.Logger) *Garden {
	return &Garden{
		res:      res,
		session:  session,
		safeZ:    safeZ,
		fallback: fallback,
		log:      log,
		height:   terrain.HeightAt(nil, fallback),
	}
}

// ToolSlot implements motion.Environment.
func (g *Garden) ToolSlot(toolID int) (motion.Xyz, bool) {
	s, ok := g.res.ToolSlot(toolID)
	if !ok {
		return motion.Xyz{}, false
	}
	return motion.Xyz{X: s.X, Y: s.Y, Z: s.Z}, true
}

// Point implements motion.Environment.
func (g *Garden) Point(id int) (motion.Xyz, bool) {
	p, ok := g.res.Point(id)
	if !ok {
		return motion.Xyz{}, false
	}
	return p.Position(), true
}

// SafeZ implements motion.Environment.
func (g *Garden) SafeZ() float64 { return g.safeZ }

// SoilHeight implements motion.Environment. The triangle dataset is re-read
// from the session store whenever it changes.
func (g *Garden) SoilHeight(x, y float64) float64 {
	raw, _ := g.session.Get(KeySoilSurface)
	if raw != g.cachedRaw {
		g.cachedRaw = raw
		triangles, err := terrain.Decode([]byte(raw))
		if err != nil {
			g.log.Warn("soil surface dataset unreadable", zap.Error(err))
			triangles = nil
		}
		g.height = terrain.HeightAt(triangles, g.fallback)
	}
	return g.height(x, y)
}

// SoilVertices converts measured soil height points into surface vertices.
func SoilVertices(points []Point) []terrain.Vertex {
	out := make([]terrain.Vertex, len(points))
	for i, p := range points {
		out[i] = terrain.Vertex{p.X, p.Y, p.Z}
	}
	return out
}

// BuildSoilSurface triangulates points against the bed described by g and
// stores the dataset in session. It returns the number of triangles stored.
func BuildSoilSurface(session *Store, points []Point, g terrain.Geometry) (int, error) {
	surface, err := terrain.ComputeSurface(SoilVertices(points), g)
	if err != nil {
		return 0, fmt.Errorf("soil surface: %w", err)
	}
	triangles := surface.Triangles()
	raw, err := terrain.Encode(triangles)
	if err != nil {
		return 0, fmt.Errorf("encode soil surface: %w", err)
	}
	session.Set(KeySoilSurface, string(raw))
	return len(triangles), nil
}

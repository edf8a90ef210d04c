package expand

import (
	"math"

	"github.com/farmdemo/server/internal/data"
	"github.com/farmdemo/server/internal/motion"
)

// Default pacing when the override store has no value.
const (
	DefaultTimeStepMs  = 250
	DefaultMMPerSecond = 500
)

// snapEpsilon is how close the last chunk must be to the target to count as
// having arrived.
const snapEpsilon = 0.01

// Overrides is the key/value store pacing is read from.
type Overrides interface {
	Int(key string, def int) int
	Bool(key string) bool
}

// Pacing is the animation timing of chunked moves.
type Pacing struct {
	TimeStepMs      int
	MMPerSecond     int
	DisableChunking bool
}

// ReadPacing reads pacing from o, falling back to the defaults.
func ReadPacing(o Overrides) Pacing {
	return Pacing{
		TimeStepMs:      o.Int(data.KeyTimeStepMs, DefaultTimeStepMs),
		MMPerSecond:     o.Int(data.KeyMMPerSecond, DefaultMMPerSecond),
		DisableChunking: o.Bool(data.KeyDisableChunking),
	}
}

// MMPerTimeStep is the distance travelled in one time step.
func (p Pacing) MMPerTimeStep() float64 {
	return float64(p.MMPerSecond) * float64(p.TimeStepMs) / 1000
}

// Chunks splits the straight line from current to target into steps of
// length step. The last chunk is target itself unless a full step already
// landed on it. A zero-length move is a single chunk. step <= 0 disables
// intermediate chunks.
func Chunks(current, target motion.Xyz, step float64) []motion.Xyz {
	dx := target.X - current.X
	dy := target.Y - current.Y
	dz := target.Z - current.Z
	length := math.Sqrt(dx*dx + dy*dy + dz*dz)
	if length == 0 {
		return []motion.Xyz{target}
	}
	dir := motion.Xyz{X: dx / length, Y: dy / length, Z: dz / length}

	steps := 0
	if step > 0 {
		steps = int(math.Floor(length / step))
	}
	chunks := make([]motion.Xyz, 0, steps+1)
	for i := 1; i <= steps; i++ {
		d := step * float64(i)
		chunks = append(chunks, motion.Xyz{
			X: current.X + dir.X*d,
			Y: current.Y + dir.Y*d,
			Z: current.Z + dir.Z*d,
		})
	}
	if len(chunks) == 0 || !almostEqual(chunks[len(chunks)-1], target) {
		chunks = append(chunks, target)
	}
	return chunks
}

func almostEqual(a, b motion.Xyz) bool {
	return math.Abs(a.X-b.X) < snapEpsilon &&
		math.Abs(a.Y-b.Y) < snapEpsilon &&
		math.Abs(a.Z-b.Z) < snapEpsilon
}

// Workspace bounds the reachable volume.
type Workspace struct {
	Size    motion.Xyz
	HomeUpZ bool
}

// Clamp limits p to the workspace. x and y range over [0, size]; z ranges
// over [-size, 0] when home is up and [0, size] otherwise.
func (w Workspace) Clamp(p motion.Xyz) motion.Xyz {
	out := motion.Xyz{
		X: clamp(p.X, 0, w.Size.X),
		Y: clamp(p.Y, 0, w.Size.Y),
	}
	if w.HomeUpZ {
		out.Z = clamp(p.Z, -w.Size.Z, 0)
	} else {
		out.Z = clamp(p.Z, 0, w.Size.Z)
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

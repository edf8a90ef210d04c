package event

import (
	"time"

	"github.com/farmdemo/server/internal/core/system"
)

// DispatchSystem delivers the events emitted during the previous tick.
type DispatchSystem struct {
	bus *Bus
}

func NewDispatchSystem(bus *Bus) *DispatchSystem {
	return &DispatchSystem{bus: bus}
}

func (s *DispatchSystem) Phase() system.Phase { return system.PhasePreUpdate }

func (s *DispatchSystem) Update(_ time.Duration) {
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
}

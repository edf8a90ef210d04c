// Package world holds the simulated bot: the state the hardware would report
// after the scheduler's effects were applied.
package world

import (
	"github.com/farmdemo/server/internal/core/event"
	"github.com/farmdemo/server/internal/data"
	"github.com/farmdemo/server/internal/motion"
	"go.uber.org/zap"
)

// Pin modes accepted by write_pin.
const (
	PinDigital = "digital"
	PinAnalog  = "analog"
)

// Pin is the last value written to a pin.
type Pin struct {
	Mode  string
	Value float64
}

// State is the simulated bot. Accessed only from the tick loop goroutine,
// no locks needed.
type State struct {
	position motion.Xyz
	locked   bool
	pins     map[int]Pin
	jobs     map[string]event.JobProgressed
	queue    int
	toolID   int

	res *data.Resources
	log *zap.Logger
}

// NewState creates a bot at the origin, unlocked, with toolID mounted.
// Points created by effects are added to res.
func NewState(res *data.Resources, toolID int, log *zap.Logger) *State {
	return &State{
		pins:   make(map[int]Pin),
		jobs:   make(map[string]event.JobProgressed),
		toolID: toolID,
		res:    res,
		log:    log,
	}
}

// Attach subscribes the state to every effect event on bus.
func (s *State) Attach(bus *event.Bus) {
	event.Subscribe(bus, s.onPosition)
	event.Subscribe(bus, s.onLock)
	event.Subscribe(bus, s.onPinWritten)
	event.Subscribe(bus, s.onPinToggled)
	event.Subscribe(bus, s.onJob)
	event.Subscribe(bus, s.onQueue)
	event.Subscribe(bus, s.onTool)
	event.Subscribe(bus, s.onPointCreated)
}

func (s *State) Position() motion.Xyz { return s.position }

func (s *State) Locked() bool { return s.locked }

// Pin returns the last value written to pin.
func (s *State) Pin(pin int) (Pin, bool) {
	p, ok := s.pins[pin]
	return p, ok
}

// Job returns the last progress reported for name.
func (s *State) Job(name string) (event.JobProgressed, bool) {
	j, ok := s.jobs[name]
	return j, ok
}

// QueueLength is the scheduler queue length last published.
func (s *State) QueueLength() int { return s.queue }

// MountedToolID is the id of the tool on the head, 0 for none.
func (s *State) MountedToolID() int { return s.toolID }

func (s *State) onPosition(e event.PositionChanged) {
	s.position = e.Position
}

func (s *State) onLock(e event.LockChanged) {
	if s.locked != e.Locked {
		s.log.Info("lock state changed", zap.Bool("locked", e.Locked))
	}
	s.locked = e.Locked
}

func (s *State) onPinWritten(e event.PinWritten) {
	mode := e.Mode
	if mode == "" {
		mode = PinDigital
	}
	s.pins[e.Pin] = Pin{Mode: mode, Value: e.Value}
	s.log.Debug("pin written",
		zap.Int("pin", e.Pin),
		zap.String("mode", mode),
		zap.Float64("value", e.Value),
	)
}

// onPinToggled flips a digital pin: 0 and unset pins go to 1, anything else
// goes to 0.
func (s *State) onPinToggled(e event.PinToggled) {
	next := 1.0
	if p, ok := s.pins[e.Pin]; ok && p.Value != 0 {
		next = 0
	}
	s.pins[e.Pin] = Pin{Mode: PinDigital, Value: next}
	s.log.Debug("pin toggled", zap.Int("pin", e.Pin), zap.Float64("value", next))
}

func (s *State) onJob(e event.JobProgressed) {
	s.jobs[e.Name] = e
}

func (s *State) onQueue(e event.QueueLengthChanged) {
	s.queue = e.Pending
}

func (s *State) onTool(e event.MountedToolChanged) {
	s.toolID = e.ToolID
	s.log.Info("mounted tool changed", zap.Int("tool_id", e.ToolID))
}

func (s *State) onPointCreated(e event.PointCreated) {
	p := s.res.AddPoint(e.Point)
	s.log.Info("point created",
		zap.Int("id", p.ID),
		zap.String("name", p.Name),
		zap.String("pointer_type", p.PointerType),
		zap.Float64("x", p.X),
		zap.Float64("y", p.Y),
		zap.Float64("z", p.Z),
	)
}

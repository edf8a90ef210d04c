// Package scheduler plays expanded actions back on a single virtual
// timeline, one effect at a time.
package scheduler

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/farmdemo/server/internal/action"
	"github.com/farmdemo/server/internal/core/event"
	"github.com/farmdemo/server/internal/core/system"
	"github.com/farmdemo/server/internal/data"
	"github.com/farmdemo/server/internal/locale"
	"github.com/farmdemo/server/internal/motion"
	"go.uber.org/zap"
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Hardware is the simulated bot state effects are checked against.
type Hardware interface {
	Locked() bool
	Position() motion.Xyz
}

// Cursor is resynchronised to the hardware position on emergency stop.
type Cursor interface {
	Set(motion.Xyz)
}

// Config holds scheduler settings.
type Config struct {
	ImageBaseURL string
}

type scheduled struct {
	kind action.Kind
	fn   func()
	at   time.Time
}

// batch is the per-Submit state shared by every action in one call.
type batch struct {
	notified bool
}

// Scheduler owns the pending queue and the single armed deadline.
//
// States: idle (nothing pending, nothing armed), scheduled (one deadline
// armed for the head of the queue) and draining (inside Update, firing the
// head and re-arming).
type Scheduler struct {
	bus    *event.Bus
	hw     Hardware
	cursor Cursor
	clock  Clock
	tr     *locale.Translator
	cfg    Config
	log    *zap.Logger

	pending  []scheduled
	latest   time.Time
	armed    bool
	deadline time.Time
}

// New creates a Scheduler. latest starts at the current time.
func New(bus *event.Bus, hw Hardware, cursor Cursor, clock Clock, tr *locale.Translator, cfg Config, log *zap.Logger) *Scheduler {
	return &Scheduler{
		bus:    bus,
		hw:     hw,
		cursor: cursor,
		clock:  clock,
		tr:     tr,
		cfg:    cfg,
		log:    log,
		latest: clock.Now(),
	}
}

// Phase implements system.System.
func (s *Scheduler) Phase() system.Phase { return system.PhaseUpdate }

// Pending returns the number of queued effects.
func (s *Scheduler) Pending() int { return len(s.pending) }

// Armed reports whether a deadline is armed.
func (s *Scheduler) Armed() bool { return s.armed }

// Idle reports whether nothing is queued or armed.
func (s *Scheduler) Idle() bool { return !s.armed && len(s.pending) == 0 }

// Submit queues actions behind everything already queued. wait_ms actions
// only add delay to the next effect. While the hardware is locked every
// action but emergency_unlock is dropped, and the locked notice is shown at
// most once per Submit call.
func (s *Scheduler) Submit(actions []action.Action) {
	var delay time.Duration
	b := &batch{}
	for _, a := range actions {
		if a.Type == action.WaitMs {
			if !s.blocked(a, b) {
				delay = addWait(delay, a.Number(0))
			}
			continue
		}
		if s.blocked(a, b) {
			continue
		}
		if !a.Type.Known() {
			s.log.Warn("unknown action dropped", zap.String("type", string(a.Type)))
			continue
		}
		fn := s.effect(a)
		if fn == nil {
			s.log.Debug("action has no effect", zap.String("type", string(a.Type)))
			continue
		}
		now := s.clock.Now()
		if s.latest.Before(now) {
			s.latest = now
		}
		s.latest = addClamped(s.latest, delay)
		delay = 0
		s.pending = append(s.pending, scheduled{kind: a.Type, fn: s.guard(a, b, fn), at: s.latest})
		s.runNext()
	}
}

// maxWait bounds a single wait and the delay added to the timeline at once.
const maxWait = time.Duration(math.MaxInt64 / 4)

// addWait adds ms milliseconds to d. Negative and NaN waits add nothing.
func addWait(d time.Duration, ms float64) time.Duration {
	if !(ms > 0) {
		return d
	}
	w := maxWait
	if ms < float64(maxWait/time.Millisecond) {
		w = time.Duration(ms * float64(time.Millisecond))
	}
	if d > maxWait-w {
		return maxWait
	}
	return d + w
}

// addClamped returns t+d, never past maxWait from t.
func addClamped(t time.Time, d time.Duration) time.Time {
	if d > maxWait {
		d = maxWait
	}
	return t.Add(d)
}

// blocked reports whether a must be dropped because the hardware is locked,
// showing the locked notice the first time per batch.
func (s *Scheduler) blocked(a action.Action, b *batch) bool {
	if a.Type == action.EmergencyUnlock || !s.hw.Locked() {
		return false
	}
	if !b.notified {
		b.notified = true
		event.Emit(s.bus, event.Toasted{
			Type:    "error",
			Title:   s.tr.T(locale.LockedTitle),
			Message: s.tr.T(locale.LockedMessage),
		})
	}
	s.log.Debug("action suppressed while locked", zap.String("type", string(a.Type)))
	return true
}

// guard re-checks the lock when the effect fires.
func (s *Scheduler) guard(a action.Action, b *batch, fn func()) func() {
	return func() {
		if s.blocked(a, b) {
			return
		}
		fn()
	}
}

// runNext arms a deadline for the head of the queue unless one is armed.
func (s *Scheduler) runNext() {
	if s.armed || len(s.pending) == 0 {
		return
	}
	s.armed = true
	s.deadline = s.pending[0].at
}

// Update fires every action whose deadline has passed, one at a time.
func (s *Scheduler) Update(_ time.Duration) {
	for s.armed && !s.clock.Now().Before(s.deadline) {
		s.armed = false
		next := s.pending[0]
		s.pending = s.pending[1:]
		next.fn()
		s.log.Debug("action fired",
			zap.String("type", string(next.kind)),
			zap.Int("pending", len(s.pending)),
		)
		event.Publish(s.bus, event.QueueLengthChanged{Pending: len(s.pending)})
		s.runNext()
	}
}

// EStop drops every queued effect, resets the timeline, engages the lock and
// moves the cursor back to where the hardware actually is. Effects that
// already fired stay applied.
func (s *Scheduler) EStop() {
	s.log.Warn("emergency stop", zap.Int("dropped", len(s.pending)))
	s.pending = nil
	s.armed = false
	s.latest = time.Time{}
	event.Publish(s.bus, event.LockChanged{Locked: true})
	s.cursor.Set(s.hw.Position())
}

func (s *Scheduler) effect(a action.Action) func() {
	switch a.Type {
	case action.SendMessage:
		msg := event.MessageLogged{
			Type:      a.Str(0),
			Message:   a.Str(1),
			Channels:  strings.Split(a.Str(2), ","),
			Verbosity: int(a.Number(4)),
		}
		if err := json.Unmarshal([]byte(a.Str(3)), &msg.Position); err != nil {
			s.log.Debug("message without position", zap.String("message", msg.Message))
		}
		return func() {
			msg.At = s.clock.Now()
			for _, ch := range msg.Channels {
				if ch == "toast" {
					event.Emit(s.bus, event.Toasted{Type: msg.Type, Message: msg.Message})
					break
				}
			}
			event.Emit(s.bus, msg)
		}

	case action.Print:
		text := a.Str(0)
		return func() {
			event.Emit(s.bus, event.Printed{Text: text})
		}

	case action.TakePhoto:
		pos := motion.Xyz{X: a.Number(0), Y: a.Number(1), Z: a.Number(2)}
		return func() {
			event.Emit(s.bus, event.PhotoTaken{
				URL:      s.cfg.ImageBaseURL + "/soil.png",
				Position: pos,
				Name:     "demo.png",
				At:       s.clock.Now(),
			})
		}

	case action.EmergencyLock:
		return s.EStop

	case action.EmergencyUnlock:
		return func() {
			event.Publish(s.bus, event.LockChanged{Locked: false})
		}

	case action.ExpandedMoveAbsolute:
		pos := motion.Xyz{X: a.Number(0), Y: a.Number(1), Z: a.Number(2)}
		return func() {
			event.Publish(s.bus, event.PositionChanged{Position: pos})
		}

	case action.TogglePin:
		pin := int(a.Number(0))
		return func() {
			event.Publish(s.bus, event.PinToggled{Pin: pin})
		}

	case action.WritePin:
		ev := event.PinWritten{Pin: int(a.Number(0)), Mode: a.Str(1), Value: a.Number(2)}
		return func() {
			event.Publish(s.bus, ev)
		}

	case action.SetJobProgress:
		ev := event.JobProgressed{
			Name:    a.Str(0),
			Percent: a.Number(1),
			Status:  a.Str(2),
			Time:    a.Str(3),
		}
		if ev.Status == "Complete" {
			ev.Time = ""
		}
		return func() {
			ev.UpdatedAt = s.clock.Now()
			event.Publish(s.bus, ev)
		}

	case action.CreatePoint:
		var p data.Point
		if err := json.Unmarshal([]byte(a.Str(0)), &p); err != nil {
			s.log.Error("create_point payload rejected", zap.Error(err))
			return nil
		}
		if p.Meta == nil {
			p.Meta = map[string]string{}
		}
		return func() {
			event.Emit(s.bus, event.PointCreated{Point: p})
		}

	case action.UpdateDevice:
		toolID := int(a.Number(1))
		return func() {
			event.Publish(s.bus, event.MountedToolChanged{ToolID: toolID})
		}
	}
	return nil
}

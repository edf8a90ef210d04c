package event

import (
	"time"

	"github.com/farmdemo/server/internal/data"
	"github.com/farmdemo/server/internal/motion"
)

// State changes. Published synchronously by the scheduler.

type PositionChanged struct {
	Position motion.Xyz
}

type LockChanged struct {
	Locked bool
}

type PinWritten struct {
	Pin   int
	Mode  string
	Value float64
}

type PinToggled struct {
	Pin int
}

type JobProgressed struct {
	Name      string
	Percent   float64
	Status    string
	Time      string // empty once the job is complete
	UpdatedAt time.Time
}

type QueueLengthChanged struct {
	Pending int
}

type MountedToolChanged struct {
	ToolID int
}

// Records. Emitted for delivery on the next tick.

// MessageLogged is a send_message effect.
type MessageLogged struct {
	Type      string
	Message   string
	Channels  []string
	Position  motion.Xyz
	Verbosity int
	At        time.Time
}

// Toasted asks the UI to show a toast.
type Toasted struct {
	Type    string
	Title   string
	Message string
}

type Printed struct {
	Text string
}

type PhotoTaken struct {
	URL      string
	Position motion.Xyz
	Name     string
	At       time.Time
}

type PointCreated struct {
	Point data.Point
}

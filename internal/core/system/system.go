package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhasePreUpdate Phase = iota // 0: deliver last tick's events
	PhaseUpdate                 // 1: fire due scheduled actions
	PhaseOutput                 // 2: toasts, log lines
	PhasePersist                // 3: flush records to the database
)

// System is the interface every tick-driven component implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}

package pipeline

import "appforge/internal/check"

// RunPhase is the sequencer lifecycle state. Settling is the fixed pause
// between a step's completion and the next step's start, kept distinct so
// "work finished" and "next step visible" never collapse into one instant.
type RunPhase uint8

const (
	RunIdle RunPhase = iota + 1
	RunActive
	RunSettling
	RunCompleted
)

func (p RunPhase) String() string {
	switch p {
	case RunIdle:
		return "idle"
	case RunActive:
		return "active"
	case RunSettling:
		return "settling"
	case RunCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

func (p RunPhase) IsValid() bool {
	switch p {
	case RunIdle, RunActive, RunSettling, RunCompleted:
		return true
	default:
		return false
	}
}

// Transition validates and applies a phase change. Invalid transitions are
// programming errors: asserted in debug builds, refused in release builds.
func (p RunPhase) Transition(to RunPhase) RunPhase {
	ok := false
	switch p {
	case RunIdle:
		ok = to == RunActive
	case RunActive:
		ok = to == RunSettling || to == RunCompleted || to == RunActive
	case RunSettling:
		ok = to == RunActive
	case RunCompleted:
		ok = to == RunActive
	}
	check.Assertf(ok, "run phase transition: %s -> %s", p, to)
	if !ok {
		return p
	}
	return to
}

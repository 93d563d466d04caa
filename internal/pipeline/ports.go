package pipeline

import "time"

// Clock abstracts time.Now() for deterministic testing.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the real system clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// Timer is a handle to a scheduled callback. Stop reports whether the
// callback was prevented from running.
type Timer interface {
	Stop() bool
}

// Scheduler abstracts time.AfterFunc so runs can be driven by a virtual
// clock in tests and cancelled deterministically on re-activation.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

// RealScheduler schedules callbacks on the runtime timer heap.
type RealScheduler struct{}

func (RealScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

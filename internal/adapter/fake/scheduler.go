package fake

import (
	"sync"
	"time"

	"appforge/internal/pipeline"
)

var _ pipeline.Scheduler = (*Scheduler)(nil)

// Scheduler is a deterministic replacement for time.AfterFunc. Callbacks
// never fire on their own; tests drive them with Advance, and the clock
// moves in lockstep with each fired deadline.
type Scheduler struct {
	clock *Clock

	mu     sync.Mutex
	seq    uint64
	timers []*schedTimer
}

// NewScheduler creates a Scheduler that advances the given clock as
// deadlines fire.
func NewScheduler(clock *Clock) *Scheduler {
	return &Scheduler{clock: clock}
}

// AfterFunc registers fn to fire once the clock has advanced by d.
func (s *Scheduler) AfterFunc(d time.Duration, fn func()) pipeline.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	t := &schedTimer{
		sched: s,
		at:    s.clock.Now().Add(d),
		seq:   s.seq,
		fn:    fn,
	}
	s.timers = append(s.timers, t)
	return t
}

// Advance moves the clock forward by d, firing every due callback in
// deadline order. Callbacks may schedule further timers; those fire too
// if they fall within the window.
func (s *Scheduler) Advance(d time.Duration) {
	target := s.clock.Now().Add(d)
	for {
		t := s.popDueBefore(target)
		if t == nil {
			break
		}
		s.clock.Set(t.at)
		t.fn()
	}
	s.clock.Set(target)
}

// RunNext fires the earliest pending callback regardless of its deadline,
// advancing the clock to it. Returns false if nothing is pending.
func (s *Scheduler) RunNext() bool {
	t := s.popDueBefore(time.Time{})
	if t == nil {
		return false
	}
	s.clock.Set(t.at)
	t.fn()
	return true
}

// Pending returns the number of scheduled callbacks not yet fired.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// popDueBefore removes and returns the earliest timer due at or before
// target. A zero target means "earliest regardless of deadline".
func (s *Scheduler) popDueBefore(target time.Time) *schedTimer {
	s.mu.Lock()
	defer s.mu.Unlock()

	best := -1
	for i, t := range s.timers {
		if !target.IsZero() && t.at.After(target) {
			continue
		}
		if best == -1 || t.at.Before(s.timers[best].at) ||
			(t.at.Equal(s.timers[best].at) && t.seq < s.timers[best].seq) {
			best = i
		}
	}
	if best == -1 {
		return nil
	}

	t := s.timers[best]
	s.timers = append(s.timers[:best], s.timers[best+1:]...)
	return t
}

type schedTimer struct {
	sched *Scheduler
	at    time.Time
	seq   uint64
	fn    func()
}

// Stop removes the timer. Reports whether it was still pending.
func (t *schedTimer) Stop() bool {
	t.sched.mu.Lock()
	defer t.sched.mu.Unlock()

	for i, pending := range t.sched.timers {
		if pending == t {
			t.sched.timers = append(t.sched.timers[:i], t.sched.timers[i+1:]...)
			return true
		}
	}
	return false
}

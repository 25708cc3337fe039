package sched

import (
	"sort"
	"time"
)

// Handle identifies a scheduled task. The zero Handle is never issued, so
// callers can use it as the "nothing pending" marker.
type Handle uint64

// None is the zero Handle.
const None Handle = 0

// Scheduler is the timer service consumed by the session and the animation
// player. Callbacks run on the goroutine that drives the scheduler, never
// concurrently with it.
type Scheduler interface {
	// ScheduleOnce runs fn once after delay has elapsed.
	ScheduleOnce(delay time.Duration, fn func()) Handle
	// ScheduleIdle runs fn at the next idle point (the next RunIdle call).
	ScheduleIdle(fn func()) Handle
	// Cancel removes a pending task. Unknown or already-fired handles are
	// ignored.
	Cancel(h Handle)
}

type task struct {
	id  Handle
	due time.Duration
	fn  func()
}

// StepScheduler is a scheduler driven by explicit time steps. The viewer
// advances it from the frame loop with real elapsed time; tests advance it
// with simulated time. There is no background goroutine.
type StepScheduler struct {
	now    time.Duration
	nextID Handle
	timers []*task
	idle   []*task
}

// NewStepScheduler returns an empty scheduler positioned at time zero.
func NewStepScheduler() *StepScheduler {
	return &StepScheduler{}
}

func (s *StepScheduler) ScheduleOnce(delay time.Duration, fn func()) Handle {
	if delay < 0 {
		delay = 0
	}
	s.nextID++
	t := &task{id: s.nextID, due: s.now + delay, fn: fn}
	s.timers = append(s.timers, t)
	return t.id
}

func (s *StepScheduler) ScheduleIdle(fn func()) Handle {
	s.nextID++
	t := &task{id: s.nextID, fn: fn}
	s.idle = append(s.idle, t)
	return t.id
}

func (s *StepScheduler) Cancel(h Handle) {
	if h == None {
		return
	}
	for i, t := range s.timers {
		if t.id == h {
			s.timers = append(s.timers[:i], s.timers[i+1:]...)
			return
		}
	}
	for i, t := range s.idle {
		if t.id == h {
			s.idle = append(s.idle[:i], s.idle[i+1:]...)
			return
		}
	}
}

// Now returns the scheduler's current virtual time.
func (s *StepScheduler) Now() time.Duration {
	return s.now
}

// Pending reports whether a handle still refers to an unfired task.
func (s *StepScheduler) Pending(h Handle) bool {
	for _, t := range s.timers {
		if t.id == h {
			return true
		}
	}
	for _, t := range s.idle {
		if t.id == h {
			return true
		}
	}
	return false
}

// Advance moves virtual time forward and fires every timer that becomes due,
// in due order (schedule order for equal deadlines). A firing callback may
// schedule or cancel further timers; newly scheduled timers fire in the same
// Advance call if their deadline falls within it.
func (s *StepScheduler) Advance(d time.Duration) {
	if d < 0 {
		return
	}
	target := s.now + d
	for {
		next := s.popDue(target)
		if next == nil {
			break
		}
		// Jump time to the firing point so reschedules made by the
		// callback are measured from it.
		if next.due > s.now {
			s.now = next.due
		}
		next.fn()
	}
	s.now = target
}

func (s *StepScheduler) popDue(limit time.Duration) *task {
	best := -1
	for i, t := range s.timers {
		if t.due > limit {
			continue
		}
		if best == -1 || t.due < s.timers[best].due ||
			(t.due == s.timers[best].due && t.id < s.timers[best].id) {
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

// RunIdle drains the idle queue, running the tasks in schedule order. Tasks
// queued while draining wait for the next RunIdle call.
func (s *StepScheduler) RunIdle() {
	pending := s.idle
	s.idle = nil
	sort.Slice(pending, func(i, j int) bool { return pending[i].id < pending[j].id })
	for _, t := range pending {
		t.fn()
	}
}

package timerqueue

import "time"

// Source is the reactor-facing view of one timer queue inside a Set. It is
// the part of a queue the demultiplexing loop needs without knowing the
// deadline representation: how long it may block, and a way to run
// everything overdue after waking.
type Source interface {
	// Empty reports whether the source has no pending timers.
	Empty() bool

	// WaitDuration returns how long the reactor may block before the
	// source's earliest timer is due, clamped to [0, max]. An empty
	// source returns max.
	WaitDuration(now time.Time, max time.Duration) time.Duration

	// Dispatch fires every timer strictly earlier than now.
	Dispatch(now time.Time)
}

// TimeSource adapts a wall-clock queue to Source.
func TimeSource[K comparable](q *Queue[time.Time, K]) Source {
	return timeSource[K]{q}
}

type timeSource[K comparable] struct {
	q *Queue[time.Time, K]
}

func (s timeSource[K]) Empty() bool {
	return s.q.Empty()
}

func (s timeSource[K]) WaitDuration(now time.Time, max time.Duration) time.Duration {
	if s.q.Empty() {
		return max
	}
	d := s.q.EarliestTime().Sub(now)
	if d < 0 {
		return 0
	}
	if d > max {
		return max
	}
	return d
}

func (s timeSource[K]) Dispatch(now time.Time) {
	s.q.Dispatch(now)
}

// Set aggregates the timer queues a reactor owns, one per deadline
// representation, so the demultiplexing wait can be sized across all of
// them with one call.
type Set struct {
	sources []Source
}

// Insert adds src to the set.
func (s *Set) Insert(src Source) {
	s.sources = append(s.sources, src)
}

// Remove drops src from the set. Removing a source that is not a member is
// a no-op.
func (s *Set) Remove(src Source) {
	for i, have := range s.sources {
		if have == src {
			s.sources = append(s.sources[:i], s.sources[i+1:]...)
			return
		}
	}
}

// Empty reports whether every source in the set is empty.
func (s *Set) Empty() bool {
	for _, src := range s.sources {
		if !src.Empty() {
			return false
		}
	}
	return true
}

// WaitDuration returns the longest the reactor may block without missing a
// timer in any source, clamped to [0, max].
func (s *Set) WaitDuration(now time.Time, max time.Duration) time.Duration {
	wait := max
	for _, src := range s.sources {
		if d := src.WaitDuration(now, wait); d < wait {
			wait = d
		}
	}
	return wait
}

// DispatchAll fires every timer in every source strictly earlier than now.
func (s *Set) DispatchAll(now time.Time) {
	for _, src := range s.sources {
		src.Dispatch(now)
	}
}

// Package timerqueue implements the timer-scheduling core of an event-driven
// reactor. It holds pending timed operations in a binary min-heap ordered by
// deadline, paired with a token index that lets every pending timer
// registered under one cancellation token be aborted in a single call. The
// reactor enqueues deferred work, sizes its demultiplexing wait from the
// earliest deadline, and dispatches everything overdue after it wakes.
//
// The queue is single-threaded by contract: it performs no locking and is
// meant to be driven by one reactor loop. Callers that share a queue across
// goroutines must provide their own synchronization.
package timerqueue

import "time"

// LessFunc reports whether a is strictly earlier than b. It must define a
// strict weak ordering over deadlines; the queue never compares deadlines
// any other way.
type LessFunc[T any] func(a, b T) bool

// Queue is a timer queue ordered by an injected comparator. T is the
// deadline representation and K the cancellation token type.
//
// Records are kept in two structures that the queue holds in lockstep after
// every mutation: the deadline heap, and the token index of newest-first
// chains. A record is a member of both or of neither.
type Queue[T any, K comparable] struct {
	// less orders deadlines.
	less LessFunc[T]

	// arena owns every record; the heap and chains refer into it by ref.
	// Freed slots are recycled through free.
	arena []record[T, K]

	// free heads the intrusive list of recycled arena slots, threaded
	// through record.next.
	free ref

	// heap is the binary min-heap of pending records, earliest at index 0.
	heap []ref

	// chains maps a token to the head of the chain of pending records
	// enqueued under it. A token with no pending records has no entry.
	chains map[K]ref
}

// New creates an empty queue ordered by less.
func New[T any, K comparable](less LessFunc[T]) *Queue[T, K] {
	return &Queue[T, K]{
		less:   less,
		free:   nilRef,
		chains: make(map[K]ref),
	}
}

// NewTimeQueue creates an empty queue over wall-clock deadlines.
func NewTimeQueue[K comparable]() *Queue[time.Time, K] {
	return New[time.Time, K](time.Time.Before)
}

// Enqueue registers handler to run at deadline when, grouped under token for
// cancellation. It reports whether the new timer is now the earliest in the
// queue, in which case the reactor's demultiplexing wait may need to be
// interrupted and re-sized. A timer that ties the current minimum is not
// the earliest: the comparison is strict.
func (q *Queue[T, K]) Enqueue(when T, handler Handler, token K) bool {
	// Allocate before touching either structure so an allocation failure
	// cannot leave them half-updated.
	r := q.alloc()
	rec := &q.arena[r]
	rec.when = when
	rec.token = token
	rec.handler = handler

	// Prepend to the token's chain.
	rec.prev = nilRef
	if head, ok := q.chains[token]; ok {
		rec.next = head
		q.arena[head].prev = r
	} else {
		rec.next = nilRef
	}
	q.chains[token] = r

	// Sift into place in the heap.
	rec.heapIndex = len(q.heap)
	q.heap = append(q.heap, r)
	q.upHeap(rec.heapIndex)
	return q.heap[0] == r
}

// Empty reports whether no timers are pending.
func (q *Queue[T, K]) Empty() bool {
	return len(q.heap) == 0
}

// Len returns the number of pending timers.
func (q *Queue[T, K]) Len() int {
	return len(q.heap)
}

// EarliestTime returns the deadline of the earliest pending timer, for the
// reactor to size its wait. The queue must not be empty: callers check
// Empty first, and calling EarliestTime on an empty queue panics.
func (q *Queue[T, K]) EarliestTime() T {
	if len(q.heap) == 0 {
		panic("timerqueue: EarliestTime on empty queue")
	}
	return q.arena[q.heap[0]].when
}

// Dispatch fires every pending timer whose deadline is strictly earlier
// than cutoff, earliest first. Timers due exactly at cutoff stay pending
// for a later call with a later cutoff. Each record is detached from both
// structures before its handler runs, so a handler may enqueue new timers.
func (q *Queue[T, K]) Dispatch(cutoff T) {
	for len(q.heap) > 0 && q.less(q.arena[q.heap[0]].when, cutoff) {
		r := q.heap[0]
		q.removeAt(0)
		q.unlink(r)
		h := q.arena[r].handler
		q.release(r)
		h.Fire()
	}
}

// Cancel aborts every pending timer registered under token, invoking Cancel
// on each handler. A token with nothing pending is a no-op. The token's
// index entry is gone by the time the last chain member is unlinked.
func (q *Queue[T, K]) Cancel(token K) {
	r, ok := q.chains[token]
	if !ok {
		return
	}
	for r != nilRef {
		// The chain link is read before r is released.
		next := q.arena[r].next
		q.removeAt(q.arena[r].heapIndex)
		q.unlink(r)
		h := q.arena[r].handler
		q.release(r)
		h.Cancel()
		r = next
	}
}

// unlink detaches r from its token chain, patching the neighbors or the
// index entry and erasing the entry when r was the chain's only member.
func (q *Queue[T, K]) unlink(r ref) {
	rec := &q.arena[r]
	switch {
	case rec.prev != nilRef:
		q.arena[rec.prev].next = rec.next
	case rec.next != nilRef:
		q.chains[rec.token] = rec.next
	default:
		delete(q.chains, rec.token)
	}
	if rec.next != nilRef {
		q.arena[rec.next].prev = rec.prev
	}
}

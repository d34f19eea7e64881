package timerqueue

// Handler is the capability a timer invokes when it reaches its terminal
// operation. Exactly one of Fire or Cancel is called, exactly once, over a
// timer's lifetime: Fire when its deadline falls before a dispatch cutoff,
// Cancel when its token is cancelled first.
type Handler interface {
	// Fire runs the deferred operation.
	Fire()

	// Cancel runs the operation's abort path.
	Cancel()
}

// HandlerFuncs adapts a pair of funcs to Handler. A nil func is a no-op,
// so callers that only care about firing can leave OnCancel unset.
type HandlerFuncs struct {
	OnFire   func()
	OnCancel func()
}

// Fire implements Handler.
func (h HandlerFuncs) Fire() {
	if h.OnFire != nil {
		h.OnFire()
	}
}

// Cancel implements Handler.
func (h HandlerFuncs) Cancel() {
	if h.OnCancel != nil {
		h.OnCancel()
	}
}

// ref is a stable handle to a record in the queue's arena. Handles stay
// valid across arena growth, and every cross-reference between the heap,
// the token index and chain links is a ref rather than a pointer.
type ref int32

// nilRef marks the absence of a record.
const nilRef ref = -1

// record is a single pending timer. The arena owns the record from Enqueue
// until its one terminal operation releases the slot.
type record[T any, K comparable] struct {
	// when is the deadline at which the timer becomes eligible to fire.
	when T

	// token groups the record with every other pending timer enqueued
	// under the same cancellation token.
	token K

	// handler receives the record's terminal operation.
	handler Handler

	// heapIndex is the record's current position in the heap array,
	// updated on every swap so arbitrary removal stays O(log n).
	heapIndex int

	// next and prev link the doubly linked chain of pending records
	// sharing token, newest first. next doubles as the free-list link
	// while the slot is unused.
	next, prev ref
}

// alloc returns a slot for a new record, recycling a freed one when
// available.
func (q *Queue[T, K]) alloc() ref {
	if q.free != nilRef {
		r := q.free
		q.free = q.arena[r].next
		return r
	}
	q.arena = append(q.arena, record[T, K]{})
	return ref(len(q.arena) - 1)
}

// release returns r's slot to the free list. The deadline, token and
// handler are zeroed so a dead slot does not pin them for the collector.
func (q *Queue[T, K]) release(r ref) {
	rec := &q.arena[r]
	var zeroT T
	var zeroK K
	rec.when = zeroT
	rec.token = zeroK
	rec.handler = nil
	rec.heapIndex = -1
	rec.prev = nilRef
	rec.next = q.free
	q.free = r
}

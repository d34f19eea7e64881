package timerqueue

// upHeap moves the record at heap index i toward the root while it is
// strictly earlier than its parent.
func (q *Queue[T, K]) upHeap(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !q.less(q.arena[q.heap[i]].when, q.arena[q.heap[parent]].when) {
			break
		}
		q.swap(i, parent)
		i = parent
	}
}

// downHeap moves the record at heap index i toward the leaves while its
// strictly-smaller child is earlier than it. The left child stands in when
// there is no right sibling.
func (q *Queue[T, K]) downHeap(i int) {
	for {
		child := 2*i + 1
		if child >= len(q.heap) {
			return
		}
		if right := child + 1; right < len(q.heap) &&
			q.less(q.arena[q.heap[right]].when, q.arena[q.heap[child]].when) {
			child = right
		}
		if !q.less(q.arena[q.heap[child]].when, q.arena[q.heap[i]].when) {
			return
		}
		q.swap(i, child)
		i = child
	}
}

// swap exchanges two heap entries and keeps both records' tracked positions
// in sync.
func (q *Queue[T, K]) swap(i, j int) {
	q.heap[i], q.heap[j] = q.heap[j], q.heap[i]
	q.arena[q.heap[i]].heapIndex = i
	q.arena[q.heap[j]].heapIndex = j
}

// removeAt removes the heap entry at index i in O(log n). The last entry is
// swapped into i, the heap shrinks by one, and the swapped-in record is
// sifted up if it is now strictly earlier than its parent, down otherwise.
// Popping the minimum is removeAt(0).
func (q *Queue[T, K]) removeAt(i int) {
	last := len(q.heap) - 1
	if last == 0 {
		q.heap = q.heap[:0]
		return
	}
	q.swap(i, last)
	q.heap = q.heap[:last]
	if i == last {
		return
	}
	if i > 0 && q.less(q.arena[q.heap[i]].when, q.arena[q.heap[(i-1)/2]].when) {
		q.upHeap(i)
	} else {
		q.downHeap(i)
	}
}

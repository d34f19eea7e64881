package timerqueue

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// checkConsistent verifies the three structural invariants the queue must
// restore after every mutation: heap ordering, tracked-position accuracy,
// and agreement between heap membership and the token index chains.
func checkConsistent(t *testing.T, q *Queue[int, string]) {
	t.Helper()

	for i, r := range q.heap {
		require.Equal(t, i, q.arena[r].heapIndex,
			"tracked position drifted at heap index %d", i)
		if i > 0 {
			parent := q.heap[(i-1)/2]
			require.False(t, q.less(q.arena[r].when, q.arena[parent].when),
				"heap order violated at index %d", i)
		}
	}

	chained := 0
	for token, head := range q.chains {
		require.NotEqual(t, nilRef, head, "index must never hold an empty chain")
		require.Equal(t, nilRef, q.arena[head].prev, "chain head has a prev link")
		for r := head; r != nilRef; r = q.arena[r].next {
			rec := &q.arena[r]
			require.Equal(t, token, rec.token)
			require.Equal(t, r, q.heap[rec.heapIndex],
				"chain member is not at its tracked heap position")
			if rec.next != nilRef {
				require.Equal(t, r, q.arena[rec.next].prev, "broken prev link")
			}
			chained++
		}
	}
	require.Equal(t, len(q.heap), chained,
		"heap and token index disagree on membership")
}

// TestRemovalSiftsBothWays removes records from the middle of a populated
// heap so the swapped-in tail element must sift up in some cases and down
// in others.
func TestRemovalSiftsBothWays(t *testing.T) {
	q := New[int, string](intLess)

	// Distinct tokens so single records can be plucked out anywhere.
	tokens := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}
	for i, tok := range tokens {
		q.Enqueue((i*7)%10, &terminal{}, tok)
	}
	checkConsistent(t, q)

	for _, tok := range []string{"d", "a", "j", "f", "b"} {
		q.Cancel(tok)
		checkConsistent(t, q)
	}
	require.Equal(t, 5, q.Len())

	q.Dispatch(100)
	checkConsistent(t, q)
	require.True(t, q.Empty())
}

// shadowRec mirrors one enqueued timer in the reference model.
type shadowRec struct {
	when  int
	token string
	h     *terminal
}

// TestRandomizedShadowModel drives a queue with a random operation mix and
// shadow-checks it against a plain slice model after every step: same size,
// same minimum deadline, structurally consistent, and exactly one terminal
// operation per removed record.
func TestRandomizedShadowModel(t *testing.T) {
	rng := rand.New(rand.NewSource(0x5eed))
	tokens := []string{"a", "b", "c", "d", "e"}

	q := New[int, string](intLess)
	var pending []*shadowRec
	var retired []*shadowRec

	for step := 0; step < 3000; step++ {
		switch op := rng.Intn(10); {
		case op < 6: // enqueue
			sr := &shadowRec{
				when:  rng.Intn(1000),
				token: tokens[rng.Intn(len(tokens))],
				h:     &terminal{},
			}
			wasMin := len(pending) == 0 || sr.when < minWhen(pending)
			require.Equal(t, wasMin, q.Enqueue(sr.when, sr.h, sr.token),
				"became-earliest result at step %d", step)
			pending = append(pending, sr)

		case op < 8: // cancel one token
			tok := tokens[rng.Intn(len(tokens))]
			q.Cancel(tok)
			kept := pending[:0]
			for _, sr := range pending {
				if sr.token == tok {
					require.Equal(t, 1, sr.h.cancelled, "step %d", step)
					require.Zero(t, sr.h.fired, "step %d", step)
					retired = append(retired, sr)
				} else {
					kept = append(kept, sr)
				}
			}
			pending = kept

		default: // dispatch
			cutoff := rng.Intn(1100)
			q.Dispatch(cutoff)
			kept := pending[:0]
			for _, sr := range pending {
				if sr.when < cutoff {
					require.Equal(t, 1, sr.h.fired, "step %d", step)
					require.Zero(t, sr.h.cancelled, "step %d", step)
					retired = append(retired, sr)
				} else {
					kept = append(kept, sr)
				}
			}
			pending = kept
		}

		require.Equal(t, len(pending), q.Len(), "size mismatch at step %d", step)
		if len(pending) > 0 {
			require.Equal(t, minWhen(pending), q.EarliestTime(),
				"minimum mismatch at step %d", step)
		}
		checkConsistent(t, q)
	}

	q.Dispatch(2000)
	require.True(t, q.Empty())
	require.Empty(t, q.chains)
	for _, sr := range pending {
		require.Equal(t, 1, sr.h.fired)
	}
	for _, sr := range retired {
		require.Equal(t, 1, sr.h.fired+sr.h.cancelled,
			"retired record must see exactly one terminal operation")
	}
}

func minWhen(recs []*shadowRec) int {
	min := recs[0].when
	for _, sr := range recs[1:] {
		if sr.when < min {
			min = sr.when
		}
	}
	return min
}

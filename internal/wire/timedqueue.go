package wire

import "time"

// TimedQueue is a wall-clock-bucketed queue: buckets[k] holds every item
// that arrived during [time+k*delta, time+(k+1)*delta). Push extends the
// queue with empty buckets as wall-clock time advances past the tail;
// Take atomically drains (at most) the first n buckets, padding with
// empties to exactly n, and resets the reference instant.
//
// Implementers may substitute any monotonic clock; the only requirement
// is monotonicity and a resolution finer than delta — time.Now() on every
// platform Go targets satisfies this.
type TimedQueue[P any] struct {
	buckets [][]P
	delta   time.Duration
	since   time.Time
}

// NewTimedQueue builds an empty queue with the given bucket width.
func NewTimedQueue[P any](delta time.Duration) *TimedQueue[P] {
	return &TimedQueue[P]{
		buckets: [][]P{{}},
		delta:   delta,
		since:   time.Now(),
	}
}

// Push appends element to the bucket matching how much wall-clock time
// has elapsed since the queue's reference instant, extending the deque
// with empty buckets as needed.
func (q *TimedQueue[P]) Push(element P) {
	if len(q.buckets) == 0 {
		q.buckets = append(q.buckets, []P{})
	}

	idx := int(time.Since(q.since) / q.delta)
	for len(q.buckets)-1 < idx {
		q.buckets = append(q.buckets, []P{})
	}

	last := len(q.buckets) - 1
	q.buckets[last] = append(q.buckets[last], element)
}

// Take drains at most the first n buckets, pads the result with empty
// buckets to exactly n entries, and resets the reference instant to now.
func (q *TimedQueue[P]) Take(n int) [][]P {
	q.since = time.Now()

	take := n
	if take > len(q.buckets) {
		take = len(q.buckets)
	}

	head := make([][]P, take)
	copy(head, q.buckets[:take])
	q.buckets = q.buckets[take:]

	for len(head) < n {
		head = append(head, []P{})
	}
	return head
}

// Len reports the number of buckets currently queued.
func (q *TimedQueue[P]) Len() int { return len(q.buckets) }

// TimeSinceTake reports how long has elapsed since the last Take (or
// construction, if Take has never been called).
func (q *TimedQueue[P]) TimeSinceTake() time.Duration {
	return time.Since(q.since)
}

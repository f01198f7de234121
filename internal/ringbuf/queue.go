// SPDX-License-Identifier: MIT

/*
Package ringbuf implements a bounded FIFO queue over a fixed circular store.

The queue keeps at most Limit elements. Pushing past the limit evicts the
oldest elements first, so the queue always holds the most recent history.
Backing storage is rounded up to a power of two and cursors are wrapped with a
mask instead of a modulo.

A Queue is not safe for concurrent use; callers serialize access.
*/
package ringbuf

import "waveform/pkg/bitint"

// Queue is a bounded, drop-oldest circular queue.
type Queue[T any] struct {
	buf   []T
	mask  int
	start int // index of the oldest element
	size  int // number of buffered elements
	limit int // maximum retained elements
}

// New creates a queue retaining at most limit elements. A non-positive limit
// is treated as one.
func New[T any](limit int) *Queue[T] {
	if limit < 1 {
		limit = 1
	}
	capacity := bitint.NextPowerOfTwo(limit)
	return &Queue[T]{
		buf:   make([]T, capacity),
		mask:  capacity - 1,
		limit: limit,
	}
}

// Len returns the number of buffered elements.
func (q *Queue[T]) Len() int { return q.size }

// Limit returns the maximum number of retained elements.
func (q *Queue[T]) Limit() int { return q.limit }

// Cap returns the size of the backing store.
func (q *Queue[T]) Cap() int { return len(q.buf) }

// Reset discards all elements. The backing store is kept.
func (q *Queue[T]) Reset() {
	q.start = 0
	q.size = 0
}

// Push appends src, evicting the oldest elements beyond the limit.
func (q *Queue[T]) Push(src []T) {
	src = q.makeRoom(src, len(src))
	q.write(src)
}

// PushZero appends n zero values, evicting the oldest elements beyond the limit.
func (q *Queue[T]) PushZero(n int) {
	if n <= 0 {
		return
	}
	if n > q.limit {
		n = q.limit
	}
	q.makeRoom(nil, n)
	var zero T
	end := (q.start + q.size) & q.mask
	for i := 0; i < n; i++ {
		q.buf[(end+i)&q.mask] = zero
	}
	q.size += n
}

// TrimFront drops up to n of the oldest elements.
func (q *Queue[T]) TrimFront(n int) {
	if n <= 0 {
		return
	}
	if n >= q.size {
		q.Reset()
		return
	}
	q.start = (q.start + n) & q.mask
	q.size -= n
}

// Tail copies the most recent len(dst) elements into dst, oldest first.
// When fewer are buffered, the front of dst is zero-filled so the newest
// element always lands in dst[len(dst)-1]. It returns the number of buffered
// elements copied.
func (q *Queue[T]) Tail(dst []T) int {
	n := len(dst)
	if n > q.size {
		n = q.size
	}
	pad := len(dst) - n
	var zero T
	for i := 0; i < pad; i++ {
		dst[i] = zero
	}
	if n == 0 {
		return 0
	}

	from := (q.start + q.size - n) & q.mask
	first := copy(dst[pad:], q.buf[from:])
	if first < n {
		copy(dst[pad+first:], q.buf[:n-first])
	}
	return n
}

// makeRoom evicts enough old elements to fit n more without exceeding the
// limit. When n alone exceeds the limit, everything is evicted and only the
// newest limit elements of src are returned.
func (q *Queue[T]) makeRoom(src []T, n int) []T {
	if n > q.limit {
		if src != nil {
			src = src[n-q.limit:]
		}
		q.Reset()
		return src
	}
	if over := q.size + n - q.limit; over > 0 {
		q.TrimFront(over)
	}
	return src
}

func (q *Queue[T]) write(src []T) {
	if len(src) == 0 {
		return
	}
	end := (q.start + q.size) & q.mask
	first := copy(q.buf[end:], src)
	if first < len(src) {
		copy(q.buf, src[first:])
	}
	q.size += len(src)
}

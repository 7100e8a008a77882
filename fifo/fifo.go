/*
Package fifo provides the queues used for stream buffering.

Fixed is a ring of power-of-two capacity. It has no length counter: a ring
is full when the slot under the write cursor is still occupied and empty
when the slot under the read cursor is free.

Queue chains Fixed rings. When the newest ring is full a ring of double
capacity is linked after it, so pushes and shifts stay O(1) amortized and
memory follows the peak backlog rather than total throughput.
*/
package fifo

import "fmt"

// DefaultCapacity is the capacity of the first ring of a Queue.
const DefaultCapacity = 16

type slot[T any] struct {
	v    T
	full bool
}

// Fixed is a bounded ring buffer.
type Fixed[T any] struct {
	buf  []slot[T]
	mask int
	top  int
	btm  int
	next *Fixed[T]
}

// NewFixed returns a ring with provided capacity. Capacity must be a
// positive power of two.
func NewFixed[T any](capacity int) *Fixed[T] {
	if capacity <= 0 || capacity&(capacity-1) != 0 {
		panic(fmt.Sprintf("fifo: capacity %d is not a power of two", capacity))
	}
	return &Fixed[T]{
		buf:  make([]slot[T], capacity),
		mask: capacity - 1,
	}
}

// Cap returns the capacity of the ring.
func (f *Fixed[T]) Cap() int {
	return len(f.buf)
}

// Push puts v under the write cursor. False is returned if the ring is full.
func (f *Fixed[T]) Push(v T) bool {
	s := &f.buf[f.top]
	if s.full {
		return false
	}
	s.v, s.full = v, true
	f.top = (f.top + 1) & f.mask
	return true
}

// Shift removes and returns the oldest value.
func (f *Fixed[T]) Shift() (T, bool) {
	s := &f.buf[f.btm]
	if !s.full {
		var zero T
		return zero, false
	}
	v := s.v
	*s = slot[T]{}
	f.btm = (f.btm + 1) & f.mask
	return v, true
}

// Peek returns the oldest value without removing it.
func (f *Fixed[T]) Peek() (T, bool) {
	s := f.buf[f.btm]
	return s.v, s.full
}

// IsEmpty reports whether there is nothing to shift.
func (f *Fixed[T]) IsEmpty() bool {
	return !f.buf[f.btm].full
}

// Clear resets cursors and blanks the storage.
func (f *Fixed[T]) Clear() {
	f.top, f.btm = 0, 0
	f.next = nil
	for i := range f.buf {
		f.buf[i] = slot[T]{}
	}
}

// Queue is an unbounded FIFO built from Fixed rings.
type Queue[T any] struct {
	head   *Fixed[T] // newest ring, receives pushes
	tail   *Fixed[T] // oldest ring, serves shifts
	length int
}

// New returns a queue which starts with a ring of provided capacity. Zero
// capacity means DefaultCapacity.
func New[T any](capacity int) *Queue[T] {
	if capacity == 0 {
		capacity = DefaultCapacity
	}
	f := NewFixed[T](capacity)
	return &Queue[T]{head: f, tail: f}
}

// Len returns number of queued values.
func (q *Queue[T]) Len() int {
	return q.length
}

// IsEmpty reports whether the queue has no values.
func (q *Queue[T]) IsEmpty() bool {
	return q.length == 0
}

// Push appends v to the queue.
func (q *Queue[T]) Push(v T) {
	q.length++
	if q.head.Push(v) {
		return
	}
	next := NewFixed[T](2 * q.head.Cap())
	q.head.next = next
	q.head = next
	q.head.Push(v)
}

// Shift removes and returns the oldest value.
func (q *Queue[T]) Shift() (T, bool) {
	v, ok := q.tail.Shift()
	if !ok && q.tail.next != nil {
		next := q.tail.next
		q.tail.next = nil
		q.tail = next
		v, ok = q.tail.Shift()
	}
	if ok {
		q.length--
	}
	return v, ok
}

// Peek returns the oldest value without removing it.
func (q *Queue[T]) Peek() (T, bool) {
	v, ok := q.tail.Peek()
	if !ok && q.tail.next != nil {
		return q.tail.next.Peek()
	}
	return v, ok
}

// Clear drops all values and keeps only the oldest ring.
func (q *Queue[T]) Clear() {
	q.head = q.tail
	q.head.Clear()
	q.length = 0
}

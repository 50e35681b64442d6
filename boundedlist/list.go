// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package boundedlist

import (
	"errors"
	"iter"
)

var (
	// ErrInvalidArgument is returned by New for a non-positive capacity.
	ErrInvalidArgument = errors.New("boundedlist: invalid argument")

	// ErrCapacityExceeded is returned by PushTail once the list is full.
	ErrCapacityExceeded = errors.New("boundedlist: capacity exceeded")
)

// nilIndex marks the absence of a neighbour, or of a head/tail.
const nilIndex int32 = -1

type (
	// List is a fixed-capacity doubly-linked sequence, backed by an arena of
	// slots that is allocated once, by New.
	//
	// Values are stored by copy. Handles returned by PushTail stay valid until
	// the element is removed, after which they are rejected (the slot
	// generation is bumped on release).
	//
	// List is NOT safe for concurrent use.
	List[T any] struct { // betteralign:ignore
		slots []slot[T]
		clone func(T) T
		head  int32
		tail  int32
		free  int32
		count int
	}

	// Handle addresses an element of a List. The zero value is never valid.
	Handle struct {
		index int32
		gen   uint32
	}

	slot[T any] struct {
		value T
		prev  int32
		next  int32
		gen   uint32
		used  bool
	}

	// Option configures a List, see New.
	Option[T any] func(c *listConfig[T])

	listConfig[T any] struct {
		clone func(T) T
	}
)

// WithClone configures a function applied to every value passed to
// PushTail, before it is stored, e.g. [slices.Clone] for []byte payloads, so
// the list never aliases memory owned by the caller.
func WithClone[T any](fn func(T) T) Option[T] {
	return func(c *listConfig[T]) {
		c.clone = fn
	}
}

// New allocates a list able to hold at most capacity elements.
func New[T any](capacity int, opts ...Option[T]) (*List[T], error) {
	if capacity <= 0 || int64(capacity) > int64(^uint32(0)>>1) {
		return nil, ErrInvalidArgument
	}

	var cfg listConfig[T]
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	x := &List[T]{
		slots: make([]slot[T], capacity),
		clone: cfg.clone,
	}
	x.reset()
	return x, nil
}

// reset links every slot into the free list, and empties the list.
func (x *List[T]) reset() {
	for i := range x.slots {
		x.slots[i].prev = nilIndex
		x.slots[i].next = int32(i + 1)
	}
	x.slots[len(x.slots)-1].next = nilIndex
	x.head = nilIndex
	x.tail = nilIndex
	x.free = 0
	x.count = 0
}

// PushTail appends a copy of v, returning a handle to the new element.
func (x *List[T]) PushTail(v T) (Handle, error) {
	if x.free == nilIndex {
		return Handle{}, ErrCapacityExceeded
	}

	if x.clone != nil {
		v = x.clone(v)
	}

	i := x.free
	s := &x.slots[i]
	x.free = s.next

	s.gen++
	if s.gen == 0 {
		// the zero generation is reserved for the zero Handle
		s.gen = 1
	}
	s.used = true
	s.value = v
	s.prev = x.tail
	s.next = nilIndex

	if x.tail == nilIndex {
		x.head = i
	} else {
		x.slots[x.tail].next = i
	}
	x.tail = i
	x.count++

	return Handle{index: i, gen: s.gen}, nil
}

// Remove detaches and releases the element addressed by h, in O(1).
// Returns false if h is not (or no longer) a valid handle for this list.
func (x *List[T]) Remove(h Handle) bool {
	if !x.valid(h) {
		return false
	}

	s := &x.slots[h.index]

	if s.prev == nilIndex {
		x.head = s.next
	} else {
		x.slots[s.prev].next = s.next
	}
	if s.next == nilIndex {
		x.tail = s.prev
	} else {
		x.slots[s.next].prev = s.prev
	}

	x.release(h.index)
	x.count--
	return true
}

func (x *List[T]) release(i int32) {
	s := &x.slots[i]
	var zero T
	s.value = zero
	s.used = false
	s.gen++
	s.prev = nilIndex
	s.next = x.free
	x.free = i
}

// Get returns the handle of the element at index, walking from the head.
func (x *List[T]) Get(index int) (Handle, bool) {
	if index < 0 || index >= x.count {
		return Handle{}, false
	}
	i := x.head
	for ; index > 0; index-- {
		i = x.slots[i].next
	}
	return Handle{index: i, gen: x.slots[i].gen}, true
}

// Value returns the value of the element addressed by h.
func (x *List[T]) Value(h Handle) (v T, ok bool) {
	if !x.valid(h) {
		return v, false
	}
	return x.slots[h.index].value, true
}

// Front returns the handle of the first element.
func (x *List[T]) Front() (Handle, bool) {
	if x.head == nilIndex {
		return Handle{}, false
	}
	return Handle{index: x.head, gen: x.slots[x.head].gen}, true
}

// Next returns the handle of the element following h.
func (x *List[T]) Next(h Handle) (Handle, bool) {
	if !x.valid(h) {
		return Handle{}, false
	}
	n := x.slots[h.index].next
	if n == nilIndex {
		return Handle{}, false
	}
	return Handle{index: n, gen: x.slots[n].gen}, true
}

// All iterates the list in insertion order. The element currently being
// visited may be removed during iteration, any other mutation is undefined.
func (x *List[T]) All() iter.Seq2[Handle, T] {
	return func(yield func(Handle, T) bool) {
		for i := x.head; i != nilIndex; {
			s := &x.slots[i]
			next := s.next
			if !yield(Handle{index: i, gen: s.gen}, s.value) {
				return
			}
			i = next
		}
	}
}

// Len returns the number of elements.
func (x *List[T]) Len() int { return x.count }

// Cap returns the fixed capacity.
func (x *List[T]) Cap() int { return len(x.slots) }

// IsEmpty reports whether Len is zero.
func (x *List[T]) IsEmpty() bool { return x.count == 0 }

// IsFull reports whether a PushTail would fail.
func (x *List[T]) IsFull() bool { return x.count >= len(x.slots) }

// Clear removes every element, invalidating all outstanding handles.
func (x *List[T]) Clear() {
	for i := x.head; i != nilIndex; {
		next := x.slots[i].next
		x.release(i)
		i = next
	}
	x.reset()
}

func (x *List[T]) valid(h Handle) bool {
	return h.gen != 0 &&
		h.index >= 0 &&
		int(h.index) < len(x.slots) &&
		x.slots[h.index].used &&
		x.slots[h.index].gen == h.gen
}

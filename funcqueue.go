// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package dispatcher

import (
	"sync"
)

// funcQueue is a fixed-capacity FIFO ring buffer of pending calls.
//
// Thread Safety: all methods are safe for concurrent use. Pushes from
// different goroutines are ordered by when they acquire mu, not when they
// were submitted.
type funcQueue struct {
	mu   sync.Mutex
	buf  []func()
	head int // index of the oldest entry
	n    int // number of queued entries
}

func newFuncQueue(capacity int) *funcQueue {
	return &funcQueue{buf: make([]func(), capacity)}
}

// push appends fn, failing with ErrCapacityExceeded if the queue is full.
func (q *funcQueue) push(fn func()) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.n == len(q.buf) {
		return ErrCapacityExceeded
	}
	q.buf[(q.head+q.n)%len(q.buf)] = fn
	q.n++
	return nil
}

// pop removes and returns the oldest entry.
func (q *funcQueue) pop() (func(), bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.n == 0 {
		return nil, false
	}
	fn := q.buf[q.head]
	q.buf[q.head] = nil // release the closure for GC
	q.head = (q.head + 1) % len(q.buf)
	q.n--
	return fn, true
}

func (q *funcQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.n
}

func (q *funcQueue) capacity() int {
	return len(q.buf)
}

// clear drops every queued entry, returning how many were dropped.
func (q *funcQueue) clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := q.n
	for i := range q.buf {
		q.buf[i] = nil
	}
	q.head = 0
	q.n = 0
	return n
}

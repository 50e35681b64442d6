// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package eventgroup implements a multi-bit wake signal: bits may be set from
// any goroutine, and a waiter blocks until any bit of interest is set,
// atomically consuming (clearing) the bits it observed.
package eventgroup

import (
	"context"
	"sync"
	"time"
)

// Bits is a set of event flags.
type Bits uint32

// Group is an edge-triggered, auto-clearing set of event bits.
//
// Set and Clear are safe to call from any goroutine. Wait supports a single
// waiter at a time: a notification consumed by one waiter is not replayed to
// another.
type Group struct {
	mu   sync.Mutex
	bits Bits
	// wake is a 1-buffered notification channel, it is only a hint that bits
	// may have changed (state is always re-read under mu)
	wake chan struct{}
}

// New returns an empty Group.
func New() *Group {
	return &Group{wake: make(chan struct{}, 1)}
}

// Set ORs bits into the group, releasing a blocked Wait if any of them are of
// interest to it.
func (g *Group) Set(bits Bits) {
	if bits == 0 {
		return
	}
	g.mu.Lock()
	g.bits |= bits
	g.mu.Unlock()
	select {
	case g.wake <- struct{}{}:
	default:
	}
}

// Clear removes bits from the group, returning the bits that were set prior.
func (g *Group) Clear(bits Bits) Bits {
	g.mu.Lock()
	defer g.mu.Unlock()
	prev := g.bits
	g.bits &^= bits
	return prev
}

// Get returns the currently set bits, without consuming them.
func (g *Group) Get() Bits {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.bits
}

// Wait blocks until at least one bit in mask is set, then clears and returns
// exactly the bits in mask that it observed. Bits outside mask are left
// untouched. The context may be used to implement timeouts or cancellation,
// in which case ctx.Err() is returned, with no bits consumed.
func (g *Group) Wait(ctx context.Context, mask Bits) (Bits, error) {
	for {
		if bits := g.take(mask); bits != 0 {
			return bits, nil
		}
		select {
		case <-g.wake:
		case <-ctx.Done():
			// last chance, avoids reporting a timeout when bits raced in
			if bits := g.take(mask); bits != 0 {
				return bits, nil
			}
			return 0, ctx.Err()
		}
	}
}

// WaitTimeout is Wait with a relative timeout, returning zero bits if the
// timeout elapsed. A non-positive timeout polls.
func (g *Group) WaitTimeout(mask Bits, timeout time.Duration) Bits {
	if timeout <= 0 {
		return g.take(mask)
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	bits, _ := g.Wait(ctx, mask)
	return bits
}

func (g *Group) take(mask Bits) Bits {
	g.mu.Lock()
	defer g.mu.Unlock()
	bits := g.bits & mask
	g.bits &^= bits
	return bits
}

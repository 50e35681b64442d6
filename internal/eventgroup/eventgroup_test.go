// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package eventgroup

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	bitA Bits = 1 << iota
	bitB
	bitC
)

func TestGroup_Wait_consumesObservedBits(t *testing.T) {
	g := New()
	g.Set(bitA | bitC)

	bits, err := g.Wait(context.Background(), bitA|bitB)
	require.NoError(t, err)
	require.Equal(t, bitA, bits)

	// bitC was outside the mask, so it must survive
	require.Equal(t, bitC, g.Get())

	bits, err = g.Wait(context.Background(), bitA|bitB|bitC)
	require.NoError(t, err)
	require.Equal(t, bitC, bits)
	require.Zero(t, g.Get())
}

func TestGroup_Wait_blocksUntilSet(t *testing.T) {
	g := New()
	done := make(chan Bits)
	go func() {
		bits, err := g.Wait(context.Background(), bitB)
		if err != nil {
			panic(err)
		}
		done <- bits
	}()

	select {
	case <-done:
		t.Fatal(`expected wait to block`)
	case <-time.After(20 * time.Millisecond):
	}

	// not of interest
	g.Set(bitA)
	select {
	case <-done:
		t.Fatal(`expected wait to ignore bits outside the mask`)
	case <-time.After(20 * time.Millisecond):
	}

	g.Set(bitB)
	select {
	case bits := <-done:
		require.Equal(t, bitB, bits)
	case <-time.After(time.Second):
		t.Fatal(`expected wait to return`)
	}
	require.Equal(t, bitA, g.Get())
}

func TestGroup_Wait_contextCancel(t *testing.T) {
	g := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bits, err := g.Wait(ctx, bitA)
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, bits)
}

func TestGroup_WaitTimeout(t *testing.T) {
	g := New()
	start := time.Now()
	require.Zero(t, g.WaitTimeout(bitA, 30*time.Millisecond))
	require.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)

	g.Set(bitA)
	require.Equal(t, bitA, g.WaitTimeout(bitA, 0))
	require.Zero(t, g.WaitTimeout(bitA, 0))
}

func TestGroup_Clear(t *testing.T) {
	g := New()
	g.Set(bitA | bitB)
	require.Equal(t, bitA|bitB, g.Clear(bitA))
	require.Equal(t, bitB, g.Get())
}

func TestGroup_concurrentSetNoLostWakeups(t *testing.T) {
	const setters = 8
	const perSetter = 500

	g := New()
	var received int
	var wg sync.WaitGroup
	done := make(chan struct{})

	// every set of bitA is paired with a set of bitB when the setters finish,
	// so the waiter must eventually observe bitB
	go func() {
		defer close(done)
		for {
			bits, err := g.Wait(context.Background(), bitA|bitB)
			if err != nil {
				panic(err)
			}
			if bits&bitA != 0 {
				received++
			}
			if bits&bitB != 0 {
				return
			}
		}
	}()

	for i := 0; i < setters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perSetter; j++ {
				g.Set(bitA)
			}
		}()
	}
	wg.Wait()
	g.Set(bitB)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal(`waiter did not observe the final bit`)
	}
	require.Positive(t, received)
}

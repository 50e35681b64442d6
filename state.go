// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package dispatcher

import (
	"sync/atomic"
)

// State represents the lifecycle of a Dispatcher.
//
// State Machine (linear, no re-entry):
//
//	StateNotStarted → StateRunning    [Start()]
//	StateNotStarted → StateDestroyed  [Destroy()]
//	StateRunning    → StateStopped    [Stop()]
//	StateStopped    → StateDestroyed  [Destroy()]
//	StateDestroyed  → (terminal)
type State uint32

const (
	// StateNotStarted indicates the dispatcher has been created but its
	// worker has not been started. Work may be queued.
	StateNotStarted State = iota
	// StateRunning indicates the worker goroutine is running.
	StateRunning
	// StateStopped indicates the worker has been told to exit. No further
	// callbacks will be started.
	StateStopped
	// StateDestroyed indicates all resources have been released.
	StateDestroyed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "NotStarted"
	case StateRunning:
		return "Running"
	case StateStopped:
		return "Stopped"
	case StateDestroyed:
		return "Destroyed"
	default:
		return "Unknown"
	}
}

// lifecycle is a lock-free state machine.
type lifecycle struct {
	v atomic.Uint32
}

// Load returns the current state atomically.
func (s *lifecycle) Load() State {
	return State(s.v.Load())
}

// TryTransition attempts to atomically transition from one state to another.
func (s *lifecycle) TryTransition(from, to State) bool {
	return s.v.CompareAndSwap(uint32(from), uint32(to))
}

// TransitionAny attempts to transition from any of validFrom to the target,
// returning the state it transitioned from.
func (s *lifecycle) TransitionAny(validFrom []State, to State) (State, bool) {
	for _, from := range validFrom {
		if s.v.CompareAndSwap(uint32(from), uint32(to)) {
			return from, true
		}
	}
	return 0, false
}

// acceptErr returns the error for submitting work in the current state, if
// any. Work is accepted before Start, and while running.
func (s *lifecycle) acceptErr() error {
	switch s.Load() {
	case StateNotStarted, StateRunning:
		return nil
	case StateStopped:
		return ErrStopped
	default:
		return ErrDestroyed
	}
}

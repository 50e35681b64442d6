// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package dispatcher

import (
	"errors"
	"fmt"

	"github.com/joeycumines/go-dispatcher/boundedlist"
)

// Standard errors.
var (
	// ErrInvalidArgument is returned for a nil function, or a non-positive
	// delay or capacity. It indicates a bug in the caller.
	ErrInvalidArgument = errors.New("dispatcher: invalid argument")

	// ErrCapacityExceeded is returned when the call queue or the schedule
	// table is full. Nothing is queued, and the caller may retry or drop.
	ErrCapacityExceeded = boundedlist.ErrCapacityExceeded

	// ErrAllocationFailure is returned when a blob could not be copied,
	// because it exceeds the configured blob budget (see WithMaxBlobSize).
	ErrAllocationFailure = errors.New("dispatcher: allocation failure")

	// ErrPlatformFailure is returned when an underlying timer or worker
	// primitive could not be created.
	ErrPlatformFailure = errors.New("dispatcher: platform failure")

	// ErrAlreadyStarted is returned by Start if the dispatcher has been
	// started before (it cannot be restarted after Stop).
	ErrAlreadyStarted = errors.New("dispatcher: already started")

	// ErrStopped is returned when work is submitted to a stopped dispatcher.
	ErrStopped = errors.New("dispatcher: stopped")

	// ErrDestroyed is returned by all operations on a destroyed dispatcher.
	ErrDestroyed = errors.New("dispatcher: destroyed")
)

// PanicError wraps a value recovered from a panicking callback or hook.
type PanicError struct {
	Value any
}

// Error implements the error interface.
func (e PanicError) Error() string {
	return fmt.Sprintf("dispatcher: callback panicked: %v", e.Value)
}

// Unwrap returns the panic value, if it is an error.
func (e PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

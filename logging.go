// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package dispatcher

import (
	"time"

	catrate "github.com/joeycumines/go-catrate"
	"github.com/joeycumines/logiface"
)

// Log categories, added to every event as the "category" field.
const (
	categoryLifecycle = "lifecycle"
	categoryCall      = "call"
	categorySchedule  = "schedule"
	categoryWorker    = "worker"
)

// dropLimiter rate limits the error logged when a fired schedule is dropped,
// using the schedule tag as the category.
type dropLimiter struct {
	limiter *catrate.Limiter
}

func newDropLimiter(rates map[time.Duration]int) dropLimiter {
	if len(rates) == 0 {
		return dropLimiter{}
	}
	return dropLimiter{limiter: catrate.NewLimiter(rates)}
}

// allow reports whether a drop log may be emitted for tag.
func (x dropLimiter) allow(tag int) bool {
	if x.limiter == nil {
		return true
	}
	_, ok := x.limiter.Allow(tag)
	return ok
}

func (d *Dispatcher) logEvent(b *logiface.Builder[logiface.Event], category string) *logiface.Builder[logiface.Event] {
	return b.Str("category", category).Uint64("dispatcher", d.id)
}

func (d *Dispatcher) logCapacityExceeded(category string, queue string, capacity int) {
	d.logEvent(d.logger.Warning(), category).
		Str("queue", queue).
		Int("capacity", capacity).
		Log("queue is full")
}

func (d *Dispatcher) logScheduleDropped(tag int, delay time.Duration, err error) {
	if d.logger == nil || !d.dropLimiter.allow(tag) {
		return
	}
	d.logEvent(d.logger.Err(), categorySchedule).
		Int("tag", tag).
		Dur("delay", delay).
		Err(err).
		Log("fired schedule dropped, callback will not run")
}

func (d *Dispatcher) logPanic(category string, err PanicError) {
	d.logEvent(d.logger.Err(), category).
		Err(err).
		Log("recovered panic")
}

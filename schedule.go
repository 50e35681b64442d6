// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package dispatcher

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/joeycumines/go-dispatcher/boundedlist"
)

// scheduleEntry is a pending "run later" call.
//
// All fields except fired are guarded by Dispatcher.schedMu. The fired flag
// is the only state touched by the timer's goroutine.
type scheduleEntry struct {
	call  func()
	timer timerHandle
	delay time.Duration
	tag   int
	fired atomic.Bool
}

func (x *scheduleEntry) stopTimer() {
	if x.timer != nil {
		x.timer.Stop()
	}
}

// Schedule queues fn to run on the worker goroutine, once delay has elapsed.
// The tag may be used to query (ScheduleWaiting) or cancel (ScheduleClear)
// the schedule, until it fires. Tags need not be unique.
//
// When the delay elapses, fn is handed off to the call queue, on the next
// wake. If the call queue is full at that point, fn is dropped, and will
// never run. Such drops are logged, and counted in Stats.Dropped.
//
// Like Call, Schedule is safe to use from any goroutine, and may be used
// before Start.
func (d *Dispatcher) Schedule(delay time.Duration, tag int, fn func()) error {
	if fn == nil {
		return ErrInvalidArgument
	}
	return d.schedule(delay, tag, fn)
}

// ScheduleWith is like Schedule, but passes a copy of blob to fn. The caller
// retains ownership of blob.
func (d *Dispatcher) ScheduleWith(delay time.Duration, tag int, fn func(blob []byte), blob []byte) error {
	if fn == nil || delay <= 0 {
		return ErrInvalidArgument
	}
	if err := d.state.acceptErr(); err != nil {
		return err
	}
	blob, err := d.copyBlob(blob)
	if err != nil {
		return err
	}
	return d.schedule(delay, tag, bindBlob(fn, blob))
}

func (d *Dispatcher) schedule(delay time.Duration, tag int, call func()) error {
	if delay <= 0 {
		return ErrInvalidArgument
	}
	if err := d.state.acceptErr(); err != nil {
		return err
	}

	entry := &scheduleEntry{
		call:  call,
		delay: delay,
		tag:   tag,
	}

	d.schedMu.Lock()
	defer d.schedMu.Unlock()

	// re-checked under the lock, Destroy clears the table while holding it
	if err := d.state.acceptErr(); err != nil {
		return err
	}

	handle, err := d.schedules.PushTail(entry)
	if err != nil {
		d.logCapacityExceeded(categorySchedule, "schedules", d.schedules.Cap())
		return err
	}

	timer, err := d.newTimer(delay, func() {
		entry.fired.Store(true)
		d.raise(ReasonScheduleTick)
	})
	if err != nil {
		d.schedules.Remove(handle)
		return fmt.Errorf("%w: schedule timer: %w", ErrPlatformFailure, err)
	}
	entry.timer = timer

	d.stats.scheduled.Add(1)

	return nil
}

// ScheduleWaiting reports whether a schedule with the given tag is pending,
// i.e. has neither been handed off nor cancelled.
func (d *Dispatcher) ScheduleWaiting(tag int) bool {
	d.schedMu.Lock()
	defer d.schedMu.Unlock()
	_, _, ok := d.findSchedule(tag)
	return ok
}

// ScheduleClear cancels the first (oldest) pending schedule with the given
// tag, returning false if there was none. A schedule that has already been
// handed off to the call queue cannot be cancelled.
func (d *Dispatcher) ScheduleClear(tag int) bool {
	d.schedMu.Lock()
	defer d.schedMu.Unlock()

	handle, entry, ok := d.findSchedule(tag)
	if !ok {
		return false
	}

	entry.stopTimer()
	d.schedules.Remove(handle)
	d.stats.cancelled.Add(1)

	return true
}

// findSchedule must be called with schedMu held.
func (d *Dispatcher) findSchedule(tag int) (boundedlist.Handle, *scheduleEntry, bool) {
	for h, entry := range d.schedules.All() {
		if entry.tag == tag {
			return h, entry, true
		}
	}
	return boundedlist.Handle{}, nil, false
}

// handoffFired moves every fired schedule, in insertion order, into the call
// queue. Runs on the worker, after consuming ReasonScheduleTick.
func (d *Dispatcher) handoffFired(ctx context.Context) {
	d.schedMu.Lock()
	defer d.schedMu.Unlock()

	if d.schedules.IsEmpty() {
		return
	}

	var span trace.Span
	var fired, dropped int

	for h, entry := range d.schedules.All() {
		if !entry.fired.Load() {
			continue
		}

		if span == nil {
			_, span = startSpan(ctx, "handoff")
		}

		d.schedules.Remove(h)
		entry.stopTimer()

		if err := d.calls.push(entry.call); err != nil {
			dropped++
			d.logScheduleDropped(entry.tag, entry.delay, err)
			d.stats.dropped.Add(1)
			continue
		}

		fired++
		d.stats.fired.Add(1)
	}

	if fired != 0 {
		d.raise(ReasonAsync)
	}

	if span != nil {
		span.SetAttributes(
			attribute.Int("fired", fired),
			attribute.Int("dropped", dropped),
		)
		span.End()
	}
}

// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package dispatcher

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/joeycumines/logiface"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/joeycumines/go-dispatcher/boundedlist"
	"github.com/joeycumines/go-dispatcher/internal/eventgroup"
)

// Reason is a set of wake reasons, as observed by the Hook.
type Reason uint32

const (
	// ReasonNotify is raised by Notify.
	ReasonNotify Reason = 1 << iota
	// ReasonAsync is raised whenever a call is queued.
	ReasonAsync
	// ReasonScheduleTick is raised by the periodic schedule tick, and when a
	// schedule timer fires.
	ReasonScheduleTick

	// ReasonUser is the first of NumUserReasons bits reserved for
	// application-defined reasons, raised via Notify. The n-th is
	// ReasonUser << n.
	ReasonUser Reason = 1 << 8
)

// NumUserReasons is the number of application-defined reason bits.
const NumUserReasons = 8

const (
	userReasonMask = (ReasonUser<<NumUserReasons - 1) &^ (ReasonUser - 1)
	waitMask       = ReasonNotify | ReasonAsync | ReasonScheduleTick | userReasonMask
)

// Hook is invoked by the worker goroutine once per wake, with the reasons
// consumed by that wake, before any queued calls are drained.
type Hook func(d *Dispatcher, reasons Reason)

// Dispatcher runs callbacks, exactly once each, on a single dedicated worker
// goroutine. Callbacks may be queued to run as soon as possible (Call), or
// after a cancellable delay (Schedule), from any goroutine.
//
// Instances must be created using New.
type Dispatcher struct { // betteralign:ignore
	// Prevent copying
	_ [0]func()

	hook Hook
	data any

	clock       clock.Clock
	logger      *logiface.Logger[logiface.Event]
	dropLimiter dropLimiter
	maxBlobSize int
	metrics     *Metrics

	state *lifecycle

	// Wake signal
	events *eventgroup.Group

	// Pending "run now" calls
	calls *funcQueue

	// Pending "run later" calls, see schedule.go
	schedMu   sync.Mutex
	schedules *boundedlist.List[*scheduleEntry]

	// Worker lifecycle, guarded by lifeMu
	lifeMu sync.Mutex
	cancel context.CancelFunc
	ticker *clock.Ticker
	done   chan struct{}

	// test hooks
	newTimer func(d time.Duration, f func()) (timerHandle, error)

	stats counters

	id uint64
}

// timerHandle is the subset of *clock.Timer used by the dispatcher.
type timerHandle interface {
	Stop() bool
}

var dispatcherIDCounter atomic.Uint64

// New creates a dispatcher, with call queue and schedule table each bounded
// to capacity entries. The hook may be nil. The data value is returned by
// Dispatcher.Data, for use by the hook and callbacks.
//
// The worker is not started until Start is called, but calls and schedules
// may be queued immediately.
func New(hook Hook, data any, capacity int, opts ...Option) (*Dispatcher, error) {
	if capacity <= 0 {
		return nil, ErrInvalidArgument
	}

	cfg, err := resolveDispatcherOptions(opts)
	if err != nil {
		return nil, err
	}

	schedules, err := boundedlist.New[*scheduleEntry](capacity)
	if err != nil {
		return nil, err
	}

	d := &Dispatcher{
		hook:        hook,
		data:        data,
		clock:       cfg.clock,
		logger:      cfg.logger,
		dropLimiter: newDropLimiter(cfg.dropLogRates),
		maxBlobSize: cfg.maxBlobSize,
		state:       new(lifecycle),
		events:      eventgroup.New(),
		calls:       newFuncQueue(capacity),
		schedules:   schedules,
		done:        make(chan struct{}),
		id:          dispatcherIDCounter.Add(1),
	}

	if cfg.metricsEnabled {
		d.metrics = new(Metrics)
	}

	d.newTimer = func(delay time.Duration, f func()) (timerHandle, error) {
		return d.clock.AfterFunc(delay, f), nil
	}

	d.logEvent(d.logger.Debug(), categoryLifecycle).
		Int("capacity", capacity).
		Log("dispatcher created")

	return d, nil
}

// Start starts the worker goroutine, and the periodic schedule tick.
// A dispatcher may only be started once.
func (d *Dispatcher) Start(opts ...StartOption) error {
	cfg, err := resolveStartOptions(opts)
	if err != nil {
		return err
	}

	d.lifeMu.Lock()
	defer d.lifeMu.Unlock()

	if !d.state.TryTransition(StateNotStarted, StateRunning) {
		switch d.state.Load() {
		case StateDestroyed:
			return ErrDestroyed
		default:
			return ErrAlreadyStarted
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel

	d.ticker = d.clock.Ticker(cfg.tickInterval)
	ticks := d.ticker.C

	go d.run(ctx, cfg.lockOSThread)

	// forwards ticks to the wake signal, until the worker stops
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticks:
				d.raise(ReasonScheduleTick)
			}
		}
	}()

	d.logEvent(d.logger.Debug(), categoryLifecycle).
		Dur("tick_interval", cfg.tickInterval).
		Log("dispatcher started")

	return nil
}

// Stop stops the worker, without draining queued calls, and without waiting
// for an in-flight callback (or hook) to return. No further callbacks will be
// started once Stop returns, though one already running will run to
// completion. Use Done to wait for the worker goroutine to exit.
//
// Queued calls and pending schedules are retained until Destroy. A stopped
// dispatcher cannot be restarted.
func (d *Dispatcher) Stop() {
	d.lifeMu.Lock()
	defer d.lifeMu.Unlock()

	from, ok := d.state.TransitionAny([]State{StateRunning, StateNotStarted}, StateStopped)
	if !ok {
		return
	}

	if from == StateNotStarted {
		// the worker never ran
		close(d.done)
		return
	}

	d.ticker.Stop()
	d.cancel()

	d.logEvent(d.logger.Debug(), categoryLifecycle).
		Log("dispatcher stopped")
}

// Destroy stops the dispatcher, cancels every pending schedule timer, and
// releases all queued calls and schedules, none of which will run. All
// subsequent operations fail with ErrDestroyed.
func (d *Dispatcher) Destroy() {
	d.Stop()

	if _, ok := d.state.TransitionAny([]State{StateStopped, StateNotStarted}, StateDestroyed); !ok {
		return
	}

	d.schedMu.Lock()
	for _, entry := range d.schedules.All() {
		entry.stopTimer()
	}
	pendingSchedules := d.schedules.Len()
	d.schedules.Clear()
	d.schedMu.Unlock()

	pendingCalls := d.calls.clear()
	d.events.Clear(eventgroup.Bits(waitMask))

	d.logEvent(d.logger.Debug(), categoryLifecycle).
		Int("pending_calls", pendingCalls).
		Int("pending_schedules", pendingSchedules).
		Log("dispatcher destroyed")
}

// Data returns the data value provided to New.
func (d *Dispatcher) Data() any {
	return d.data
}

// State returns the current lifecycle state.
func (d *Dispatcher) State() State {
	return d.state.Load()
}

// Done returns a channel that is closed once the worker goroutine has
// exited, after Stop (or Destroy).
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}

// Stats returns a snapshot of the dispatcher's counters.
func (d *Dispatcher) Stats() Stats {
	return d.stats.snapshot()
}

// Metrics returns the runtime metrics, or nil if not enabled via WithMetrics.
func (d *Dispatcher) Metrics() *Metrics {
	return d.metrics
}

// Notify raises ReasonNotify, plus any application-defined reasons in extra
// (see ReasonUser). Other bits of extra are ignored.
func (d *Dispatcher) Notify(extra Reason) error {
	if err := d.state.acceptErr(); err != nil {
		return err
	}
	d.raise(ReasonNotify | (extra & userReasonMask))
	return nil
}

func (d *Dispatcher) raise(reasons Reason) {
	d.events.Set(eventgroup.Bits(reasons))
}

// run is the worker goroutine.
func (d *Dispatcher) run(ctx context.Context, lockOSThread bool) {
	defer close(d.done)

	if lockOSThread {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}

	for {
		bits, err := d.events.Wait(ctx, eventgroup.Bits(waitMask))
		if err != nil {
			// cancelled by Stop
			return
		}
		if d.state.Load() != StateRunning {
			return
		}
		d.stats.wakes.Add(1)
		d.wake(ctx, Reason(bits))
	}
}

// wake performs a single wake cycle, for the consumed reasons.
func (d *Dispatcher) wake(ctx context.Context, reasons Reason) {
	if d.metrics != nil {
		d.metrics.Queue.UpdateCalls(d.calls.len())
		d.schedMu.Lock()
		depth := d.schedules.Len()
		d.schedMu.Unlock()
		d.metrics.Queue.UpdateSchedules(depth)
	}

	if d.hook != nil {
		d.safeExecute(categoryWorker, func() { d.hook(d, reasons) })
	}

	// the hook may have stopped the dispatcher, fired schedules stay pending
	if reasons&ReasonScheduleTick != 0 && d.state.Load() == StateRunning {
		d.handoffFired(ctx)
	}

	if reasons&ReasonAsync != 0 {
		d.drain(ctx)
	}
}

// drain runs the calls queued at the start of the drain, leaving any queued
// while draining for the next wake.
func (d *Dispatcher) drain(ctx context.Context) {
	count := d.calls.len()
	if count == 0 {
		return
	}

	_, span := startSpan(ctx, "drain", trace.WithAttributes(
		attribute.Int("count", count),
	))
	defer span.End()

	for i := 0; i < count; i++ {
		if d.state.Load() != StateRunning {
			// stopped mid-drain
			return
		}
		fn, ok := d.calls.pop()
		if !ok {
			return
		}
		d.invoke(fn)
	}
}

// invoke runs a single callback, recording metrics.
func (d *Dispatcher) invoke(fn func()) {
	var start time.Time
	if d.metrics != nil {
		start = d.clock.Now()
	}
	d.safeExecute(categoryCall, fn)
	if d.metrics != nil {
		d.metrics.Latency.Record(d.clock.Since(start))
	}
	d.stats.dispatched.Add(1)
}

// safeExecute executes fn with panic recovery.
func (d *Dispatcher) safeExecute(category string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			d.stats.panics.Add(1)
			d.logPanic(category, PanicError{Value: r})
		}
	}()
	fn()
}

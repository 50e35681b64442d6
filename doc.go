// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package dispatcher runs short callbacks, exactly once each, on a single
// dedicated worker goroutine.
//
// Producers on any goroutine may request that a callback run as soon as
// possible ([Dispatcher.Call]), or after a delay ([Dispatcher.Schedule]).
// Delayed callbacks carry an integer tag, which may be used to check whether
// they are still pending ([Dispatcher.ScheduleWaiting]), or to cancel them
// ([Dispatcher.ScheduleClear]). Application logic that runs only on the
// worker, i.e. in callbacks and the [Hook], needs no further synchronization.
//
// # Wake cycle
//
// The worker blocks until at least one wake [Reason] is raised. Each wake, it
// consumes the raised reasons, then:
//
//  1. Invokes the hook (if any) with the consumed reasons
//  2. If [ReasonScheduleTick] was consumed, hands off every schedule whose
//     delay has elapsed to the call queue, in the order they were scheduled
//  3. If [ReasonAsync] was consumed, runs the calls that were queued when the
//     drain began; calls queued while draining run on the next wake
//
// A schedule whose delay has elapsed, but that cannot be handed off because
// the call queue is full, is dropped. Drops are logged, and counted in
// [Stats].Dropped.
//
// # Capacity
//
// Both the call queue and the schedule table are bounded, per [New]. Neither
// evicts: a full queue fails with [ErrCapacityExceeded].
//
// # Lifecycle
//
// Work may be queued as soon as the dispatcher is created. [Dispatcher.Start]
// starts the worker, [Dispatcher.Stop] stops it without draining, and
// [Dispatcher.Destroy] cancels all pending schedules and releases everything
// still queued.
package dispatcher

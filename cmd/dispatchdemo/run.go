// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/joeycumines/go-dispatcher"
	"github.com/joeycumines/logiface"
)

// settleTimeout bounds the wait for outstanding schedules, beyond their delay.
const settleTimeout = 5 * time.Second

// runDemo posts cfg.calls calls and cfg.schedules schedules (tagged by index),
// cancels every cfg.cancelEvery-th tag, then waits for every remaining
// schedule to fire (or be dropped), and for every accepted callback to run.
func runDemo(cfg demoConfig, logger *logiface.Logger[logiface.Event]) (dispatcher.Stats, error) {
	var hookWakes int
	d, err := dispatcher.New(
		func(d *dispatcher.Dispatcher, reasons dispatcher.Reason) {
			hookWakes++
			if reasons&dispatcher.ReasonScheduleTick != 0 {
				logger.Debug().
					Int("wake", hookWakes).
					Log("schedule tick")
			}
		},
		nil,
		cfg.capacity,
		dispatcher.WithLogger(logger),
		dispatcher.WithMaxBlobSize(cfg.maxBlob),
		dispatcher.WithMetrics(true),
	)
	if err != nil {
		return dispatcher.Stats{}, fmt.Errorf("new dispatcher: %w", err)
	}
	defer d.Destroy()

	if err := d.Start(dispatcher.WithTickInterval(cfg.tickInterval)); err != nil {
		return dispatcher.Stats{}, fmt.Errorf("start dispatcher: %w", err)
	}

	var rejected int
	for i := 0; i < cfg.calls; i++ {
		err := d.CallWith(func(blob []byte) {
			logger.Debug().
				Str("blob", string(blob)).
				Log("call")
		}, fmt.Appendf(nil, "call-%d", i))
		if err != nil {
			if !errors.Is(err, dispatcher.ErrCapacityExceeded) && !errors.Is(err, dispatcher.ErrAllocationFailure) {
				return dispatcher.Stats{}, err
			}
			rejected++
		}
	}

	for i := 0; i < cfg.schedules; i++ {
		tag := i
		err := d.Schedule(cfg.delay, tag, func() {
			logger.Debug().
				Int("tag", tag).
				Log("schedule fired")
		})
		if err != nil {
			if !errors.Is(err, dispatcher.ErrCapacityExceeded) {
				return dispatcher.Stats{}, err
			}
			rejected++
		}
	}

	if cfg.cancelEvery > 0 {
		for tag := 0; tag < cfg.schedules; tag += cfg.cancelEvery {
			d.ScheduleClear(tag)
		}
	}

	stats, err := awaitSettled(d, cfg.delay+settleTimeout)

	var logEvent *logiface.Builder[logiface.Event]
	if err != nil {
		logEvent = logger.Err().Err(err)
	} else {
		logEvent = logger.Info()
	}
	latency := &d.Metrics().Latency
	latency.Sample()
	logEvent.
		Uint64("called", stats.Called).
		Uint64("scheduled", stats.Scheduled).
		Uint64("fired", stats.Fired).
		Uint64("cancelled", stats.Cancelled).
		Uint64("dropped", stats.Dropped).
		Uint64("dispatched", stats.Dispatched).
		Uint64("panics", stats.Panics).
		Uint64("wakes", stats.Wakes).
		Int("rejected", rejected).
		Dur("latency_p99", latency.P99).
		Log("demo complete")

	return stats, err
}

// awaitSettled polls until every schedule is resolved and every accepted
// callback has run.
func awaitSettled(d *dispatcher.Dispatcher, timeout time.Duration) (dispatcher.Stats, error) {
	deadline := time.Now().Add(timeout)
	for {
		s := d.Stats()
		if s.Fired+s.Cancelled+s.Dropped == s.Scheduled && s.Dispatched == s.Called+s.Fired {
			return s, nil
		}
		if time.Now().After(deadline) {
			return s, errors.New("timed out waiting for the dispatcher to settle")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

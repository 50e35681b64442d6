// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package dispatcher

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/joeycumines/logiface"
)

// DefaultTickInterval is the period of the schedule tick, see WithTickInterval.
const DefaultTickInterval = time.Second

// dispatcherOptions holds configuration options for Dispatcher creation.
type dispatcherOptions struct {
	clock          clock.Clock
	logger         *logiface.Logger[logiface.Event]
	dropLogRates   map[time.Duration]int
	maxBlobSize    int
	metricsEnabled bool
}

// startOptions holds configuration options for Dispatcher.Start.
type startOptions struct {
	tickInterval time.Duration
	lockOSThread bool
}

// --- Dispatcher Options ---

// Option configures a Dispatcher instance, see New.
type Option interface {
	applyDispatcher(*dispatcherOptions) error
}

// optionImpl implements Option.
type optionImpl struct {
	applyDispatcherFunc func(*dispatcherOptions) error
}

func (o *optionImpl) applyDispatcher(opts *dispatcherOptions) error {
	return o.applyDispatcherFunc(opts)
}

// WithClock sets the time source used to create schedule timers and the
// schedule tick. Defaults to the real clock. Use clock.NewMock() for
// deterministic tests.
func WithClock(clk clock.Clock) Option {
	return &optionImpl{func(opts *dispatcherOptions) error {
		if clk == nil {
			return ErrInvalidArgument
		}
		opts.clock = clk
		return nil
	}}
}

// WithLogger sets the structured logger. A nil logger disables logging,
// which is also the default.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return &optionImpl{func(opts *dispatcherOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithDropLogRates configures the per-tag rate limits applied to the error
// logged when a fired schedule is dropped, e.g. because the call queue was
// full. A nil or empty map disables rate limiting. The rates are validated by
// go-catrate, and invalid rates will panic.
func WithDropLogRates(rates map[time.Duration]int) Option {
	return &optionImpl{func(opts *dispatcherOptions) error {
		opts.dropLogRates = rates
		return nil
	}}
}

// WithMaxBlobSize limits the size of blobs accepted by CallWith and
// ScheduleWith. Larger blobs fail with ErrAllocationFailure. Zero (the
// default) means no limit.
func WithMaxBlobSize(n int) Option {
	return &optionImpl{func(opts *dispatcherOptions) error {
		if n < 0 {
			return ErrInvalidArgument
		}
		opts.maxBlobSize = n
		return nil
	}}
}

// WithMetrics enables runtime metrics collection, see Dispatcher.Metrics.
func WithMetrics(enabled bool) Option {
	return &optionImpl{func(opts *dispatcherOptions) error {
		opts.metricsEnabled = enabled
		return nil
	}}
}

// resolveDispatcherOptions applies Option instances to dispatcherOptions.
func resolveDispatcherOptions(opts []Option) (*dispatcherOptions, error) {
	cfg := &dispatcherOptions{
		dropLogRates: map[time.Duration]int{
			time.Second: 5,
			time.Minute: 60,
		},
	}
	for _, opt := range opts {
		if opt == nil {
			continue // Skip nil options gracefully
		}
		if err := opt.applyDispatcher(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.clock == nil {
		cfg.clock = clock.New()
	}
	return cfg, nil
}

// --- Start Options ---

// StartOption configures Dispatcher.Start.
type StartOption interface {
	applyStart(*startOptions) error
}

// startOptionImpl implements StartOption.
type startOptionImpl struct {
	applyStartFunc func(*startOptions) error
}

func (o *startOptionImpl) applyStart(opts *startOptions) error {
	return o.applyStartFunc(opts)
}

// WithTickInterval sets the period of the schedule tick, which raises
// ReasonScheduleTick on the worker. Non-positive values select
// DefaultTickInterval.
func WithTickInterval(d time.Duration) StartOption {
	return &startOptionImpl{func(opts *startOptions) error {
		if d > 0 {
			opts.tickInterval = d
		}
		return nil
	}}
}

// WithLockOSThread pins the worker goroutine to its own OS thread, for the
// lifetime of the worker.
func WithLockOSThread(enabled bool) StartOption {
	return &startOptionImpl{func(opts *startOptions) error {
		opts.lockOSThread = enabled
		return nil
	}}
}

// resolveStartOptions applies StartOption instances to startOptions.
func resolveStartOptions(opts []StartOption) (*startOptions, error) {
	cfg := &startOptions{
		tickInterval: DefaultTickInterval,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyStart(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

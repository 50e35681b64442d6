// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package dispatcher

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 2 * time.Second
	tick    = time.Millisecond
)

// newMockDispatcher returns a dispatcher driven by a mock clock, destroyed on
// test cleanup.
func newMockDispatcher(t *testing.T, hook Hook, capacity int, opts ...Option) (*Dispatcher, *clock.Mock) {
	t.Helper()
	mock := clock.NewMock()
	d, err := New(hook, nil, capacity, append([]Option{WithClock(mock)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(d.Destroy)
	return d, mock
}

// syncBuffer is a goroutine-safe log sink.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (x *syncBuffer) Write(p []byte) (int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.buf.Write(p)
}

func (x *syncBuffer) String() string {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.buf.String()
}

func newTestLogger(w *syncBuffer) *logiface.Logger[logiface.Event] {
	return stumpy.L.New(
		stumpy.L.WithStumpy(
			stumpy.WithWriter(w),
			stumpy.WithTimeField(``),
		),
		stumpy.L.WithLevel(logiface.LevelDebug),
	).Logger()
}

// recorder collects values appended from callbacks.
type recorder[T any] struct {
	mu     sync.Mutex
	values []T
}

func (x *recorder[T]) add(v T) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.values = append(x.values, v)
}

func (x *recorder[T]) get() []T {
	x.mu.Lock()
	defer x.mu.Unlock()
	return append([]T(nil), x.values...)
}

func (x *recorder[T]) len() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.values)
}

// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package dispatcher

import (
	"bytes"
)

// Call queues fn to run on the worker goroutine, as soon as possible.
//
// Call is safe to use from any goroutine, including from the hook and other
// callbacks, and may be used before Start. It never blocks. If the call queue
// is full, it fails with ErrCapacityExceeded, and nothing is queued.
//
// Calls are run in the order their pushes complete.
func (d *Dispatcher) Call(fn func()) error {
	if fn == nil {
		return ErrInvalidArgument
	}
	if err := d.state.acceptErr(); err != nil {
		return err
	}
	return d.post(fn)
}

// CallWith is like Call, but passes a copy of blob to fn. The caller retains
// ownership of blob, which may be modified as soon as CallWith returns.
func (d *Dispatcher) CallWith(fn func(blob []byte), blob []byte) error {
	if fn == nil {
		return ErrInvalidArgument
	}
	if err := d.state.acceptErr(); err != nil {
		return err
	}
	blob, err := d.copyBlob(blob)
	if err != nil {
		return err
	}
	return d.post(bindBlob(fn, blob))
}

// post is the async-post path, shared with fired schedules.
func (d *Dispatcher) post(fn func()) error {
	if err := d.calls.push(fn); err != nil {
		d.logCapacityExceeded(categoryCall, "calls", d.calls.capacity())
		return err
	}
	d.stats.called.Add(1)
	d.raise(ReasonAsync)
	return nil
}

// copyBlob clones blob, enforcing the configured blob budget.
func (d *Dispatcher) copyBlob(blob []byte) ([]byte, error) {
	if d.maxBlobSize > 0 && len(blob) > d.maxBlobSize {
		d.logEvent(d.logger.Warning(), categoryCall).
			Int("size", len(blob)).
			Int("max_size", d.maxBlobSize).
			Log("blob exceeds budget")
		return nil, ErrAllocationFailure
	}
	return bytes.Clone(blob), nil
}

func bindBlob(fn func([]byte), blob []byte) func() {
	return func() { fn(blob) }
}

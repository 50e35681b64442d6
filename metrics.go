// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package dispatcher

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// Stats is a snapshot of the counters maintained by every Dispatcher.
type Stats struct {
	// Called is the number of calls accepted by Call / CallWith.
	Called uint64
	// Scheduled is the number of schedules accepted by Schedule / ScheduleWith.
	Scheduled uint64
	// Fired is the number of schedules whose timer expired, and that were
	// handed off to the call queue.
	Fired uint64
	// Cancelled is the number of schedules removed by ScheduleClear.
	Cancelled uint64
	// Dropped is the number of fired schedules that could not be handed off,
	// and whose callbacks will never run.
	Dropped uint64
	// Dispatched is the number of callbacks invoked by the worker.
	Dispatched uint64
	// Panics is the number of recovered callback or hook panics.
	Panics uint64
	// Wakes is the number of times the worker woke.
	Wakes uint64
}

type counters struct {
	called     atomic.Uint64
	scheduled  atomic.Uint64
	fired      atomic.Uint64
	cancelled  atomic.Uint64
	dropped    atomic.Uint64
	dispatched atomic.Uint64
	panics     atomic.Uint64
	wakes      atomic.Uint64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Called:     c.called.Load(),
		Scheduled:  c.scheduled.Load(),
		Fired:      c.fired.Load(),
		Cancelled:  c.cancelled.Load(),
		Dropped:    c.dropped.Load(),
		Dispatched: c.dispatched.Load(),
		Panics:     c.panics.Load(),
		Wakes:      c.wakes.Load(),
	}
}

// Metrics tracks optional runtime statistics for the dispatcher, enabled by
// WithMetrics.
//
// Thread Safety:
//   - All Metrics methods are thread-safe and can be called from any goroutine.
//   - Latency is recorded by the worker, after each callback.
//   - Queue depths are recorded by the worker, at the start of each wake.
type Metrics struct {
	// Latency tracks callback execution time.
	Latency LatencyMetrics

	// Queue tracks call queue and schedule table depths.
	Queue QueueMetrics
}

// LatencyMetrics tracks latency distribution with percentiles.
type LatencyMetrics struct {
	sampleIdx   int
	sampleCount int
	samples     [sampleSize]time.Duration

	// Computed percentiles (cached after Sample() call)
	P50 time.Duration
	P90 time.Duration
	P99 time.Duration
	Max time.Duration

	// Statistics
	Mean time.Duration
	Sum  time.Duration
	mu   sync.RWMutex
}

// sampleSize is the maximum number of latency samples to retain.
const sampleSize = 1000

// Record records a latency sample.
func (l *LatencyMetrics) Record(duration time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	// If buffer is full, subtract the old sample that we're replacing
	if l.sampleCount >= sampleSize {
		l.Sum -= l.samples[l.sampleIdx]
	}

	l.samples[l.sampleIdx] = duration
	l.Sum += duration
	l.sampleIdx++
	if l.sampleIdx >= sampleSize {
		l.sampleIdx = 0
	}
	if l.sampleCount < sampleSize {
		l.sampleCount++
	}
}

// Sample computes percentiles from collected samples, returning the number
// of samples used.
func (l *LatencyMetrics) Sample() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	count := l.sampleCount
	if count == 0 {
		return 0
	}

	sorted := slices.Clone(l.samples[:count])
	slices.Sort(sorted)

	l.P50 = sorted[percentileIndex(count, 50)]
	l.P90 = sorted[percentileIndex(count, 90)]
	l.P99 = sorted[percentileIndex(count, 99)]
	l.Max = sorted[count-1]
	l.Mean = l.Sum / time.Duration(count)

	return count
}

// percentileIndex computes the index for a given percentile (0-100).
func percentileIndex(n, p int) int {
	index := (p * n) / 100
	if index >= n {
		return n - 1
	}
	return index
}

// QueueMetrics tracks queue depth statistics.
type QueueMetrics struct {
	mu sync.RWMutex

	// Current depths
	CallsCurrent     int
	SchedulesCurrent int

	// Maximum observed depths
	CallsMax     int
	SchedulesMax int

	// Average depths (exponential moving average with alpha=0.1)
	CallsAvg     float64
	SchedulesAvg float64

	callsEMAInitialized     bool
	schedulesEMAInitialized bool
}

// UpdateCalls updates the call queue depth metrics.
func (q *QueueMetrics) UpdateCalls(depth int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	updateDepth(depth, &q.CallsCurrent, &q.CallsMax, &q.CallsAvg, &q.callsEMAInitialized)
}

// UpdateSchedules updates the schedule table depth metrics.
func (q *QueueMetrics) UpdateSchedules(depth int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	updateDepth(depth, &q.SchedulesCurrent, &q.SchedulesMax, &q.SchedulesAvg, &q.schedulesEMAInitialized)
}

func updateDepth(depth int, current, maximum *int, avg *float64, initialized *bool) {
	*current = depth
	if depth > *maximum {
		*maximum = depth
	}
	// Warmstart: initialize to first observed value for accuracy
	if !*initialized {
		*avg = float64(depth)
		*initialized = true
	} else {
		*avg = 0.9**avg + 0.1*float64(depth)
	}
}

// Snapshot returns a copy of the queue metrics, safe to read without locking.
func (q *QueueMetrics) Snapshot() QueueMetrics {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return QueueMetrics{
		CallsCurrent:     q.CallsCurrent,
		SchedulesCurrent: q.SchedulesCurrent,
		CallsMax:         q.CallsMax,
		SchedulesMax:     q.SchedulesMax,
		CallsAvg:         q.CallsAvg,
		SchedulesAvg:     q.SchedulesAvg,
	}
}

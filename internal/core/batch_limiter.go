package core

// batch_limiter.go bounds how many batches run at once.
//
// All batches share one failure report location, so by default only one
// batch runs at a time; a second upload waits up to maxWait for the running
// one to finish and is then turned away with ErrTooManyBatches.
//
// WaitForDrain is used during shutdown: it returns once every running batch
// has released its slot.

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrTooManyBatches is returned when no slot frees up within the wait time.
var ErrTooManyBatches = errors.New("too many batches in progress, please try again later")

// DefaultMaxConcurrentBatches keeps failure reports from interleaving.
const DefaultMaxConcurrentBatches = 1

// DefaultMaxWaitTime is how long Acquire waits for a slot.
const DefaultMaxWaitTime = 30 * time.Second

// BatchLimiter is a counting semaphore over batch runs.
type BatchLimiter struct {
	slots   chan struct{}
	maxWait time.Duration
	active  atomic.Int64
}

// NewBatchLimiter allows maxConcurrent simultaneous batches. Non-positive
// arguments fall back to the defaults.
func NewBatchLimiter(maxConcurrent int, maxWait time.Duration) *BatchLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentBatches
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}
	return &BatchLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire takes a slot, waiting at most maxWait. It returns ctx.Err() if ctx
// ends first. Every successful Acquire must be paired with Release.
func (l *BatchLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTooManyBatches
	}
}

// Release returns a slot taken by Acquire.
func (l *BatchLimiter) Release() {
	l.active.Add(-1)
	<-l.slots
}

// Active returns the number of running batches.
func (l *BatchLimiter) Active() int {
	return int(l.active.Load())
}

// WaitForDrain blocks until no batch is running or ctx ends. It does so by
// taking every slot and handing them back, so batches arriving meanwhile
// queue behind it.
func (l *BatchLimiter) WaitForDrain(ctx context.Context) error {
	taken := 0
	defer func() {
		for ; taken > 0; taken-- {
			<-l.slots
		}
	}()

	for taken < cap(l.slots) {
		select {
		case l.slots <- struct{}{}:
			taken++
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// BatchLimiterStatus is a point-in-time view of the limiter.
type BatchLimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status reports current usage for the health endpoint.
func (l *BatchLimiter) Status() BatchLimiterStatus {
	return BatchLimiterStatus{
		Active:        l.Active(),
		Available:     cap(l.slots) - len(l.slots),
		MaxConcurrent: cap(l.slots),
	}
}

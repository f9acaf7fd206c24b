package core

// submit_limiter.go bounds the number of submissions writing to the store at
// once. When every slot is taken a submission waits up to maxWait and then
// fails with ErrTooManySubmissions, which the service reports as WriteFailed.
//
// WaitForDrain lets graceful shutdown block until in-flight writes finish.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManySubmissions is returned when no write slot frees up within the wait time.
var ErrTooManySubmissions = errors.New("too many concurrent submissions, please try again later")

// DefaultMaxConcurrentSubmissions is the default limit for parallel writes.
const DefaultMaxConcurrentSubmissions = 20

// DefaultMaxWaitTime is how long to wait for a slot before giving up.
const DefaultMaxWaitTime = 5 * time.Second

// SubmitLimiter is a counting semaphore over store writes.
type SubmitLimiter struct {
	slots   chan struct{}
	maxWait time.Duration

	mu     sync.RWMutex
	active int
}

// NewSubmitLimiter allows at most maxConcurrent writes at once. Non-positive
// arguments fall back to the defaults.
func NewSubmitLimiter(maxConcurrent int, maxWait time.Duration) *SubmitLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentSubmissions
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}

	return &SubmitLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire takes a slot, waiting at most maxWait.
// The caller must call Release once the write completes.
func (l *SubmitLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return nil
	case <-timer.C:
		return ErrTooManySubmissions
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot taken by Acquire.
func (l *SubmitLimiter) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()
	<-l.slots
}

// ActiveCount returns the number of writes in flight.
func (l *SubmitLimiter) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// Available returns the number of free slots.
func (l *SubmitLimiter) Available() int {
	return cap(l.slots) - len(l.slots)
}

// WaitForDrain blocks until no write is in flight or ctx is done.
func (l *SubmitLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.ActiveCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// SubmitLimiterStatus is a point-in-time view of the limiter.
type SubmitLimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"maxConcurrent"`
}

// Status returns the current limiter state for the health endpoint.
func (l *SubmitLimiter) Status() SubmitLimiterStatus {
	return SubmitLimiterStatus{
		Active:        l.ActiveCount(),
		Available:     l.Available(),
		MaxConcurrent: cap(l.slots),
	}
}

// Package types provides core clock abstractions for time mocking
package types

import (
	"time"
)

// Clock provides an abstraction over time operations for testing.
// Every timed wait in the queue and pool goes through a Clock.
type Clock interface {
	// Now returns the current time
	Now() time.Time
	// Since returns the time elapsed since t
	Since(t time.Time) time.Duration
	// NewTimer creates a new Timer
	NewTimer(d time.Duration) Timer
}

// Timer provides timer operations
type Timer interface {
	C() <-chan time.Time
	Stop() bool
	Reset(d time.Duration) bool
}

// RealClock implements Clock using real time operations
type RealClock struct{}

// NewRealClock creates a new real clock
func NewRealClock() Clock {
	return &RealClock{}
}

func (c *RealClock) Now() time.Time {
	return time.Now()
}

func (c *RealClock) Since(t time.Time) time.Duration {
	return time.Since(t)
}

func (c *RealClock) NewTimer(d time.Duration) Timer {
	return &realTimer{timer: time.NewTimer(d)}
}

// realTimer wraps time.Timer
type realTimer struct {
	timer *time.Timer
}

func (t *realTimer) C() <-chan time.Time {
	return t.timer.C
}

func (t *realTimer) Stop() bool {
	return t.timer.Stop()
}

func (t *realTimer) Reset(d time.Duration) bool {
	return t.timer.Reset(d)
}

// OrRealClock returns c, or a RealClock when c is nil
func OrRealClock(c Clock) Clock {
	if c == nil {
		return NewRealClock()
	}
	return c
}

package testutils

import (
	"context"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/jzx17/gopool/pkg/types"
)

// NewMockClock creates a mock clock for testing
func NewMockClock(t testing.TB) *quartz.Mock {
	return quartz.NewMock(t)
}

// ClockWrapper wraps quartz.Mock to implement types.Clock
type ClockWrapper struct {
	*quartz.Mock
}

var _ types.Clock = (*ClockWrapper)(nil)

// NewClockWrapper creates a new ClockWrapper
func NewClockWrapper(mock *quartz.Mock) *ClockWrapper {
	return &ClockWrapper{Mock: mock}
}

// Now returns the current mock time
func (c *ClockWrapper) Now() time.Time {
	return c.Mock.Now()
}

// Since returns the mock time elapsed since t
func (c *ClockWrapper) Since(t time.Time) time.Duration {
	return c.Mock.Since(t)
}

// NewTimer creates a mock Timer
func (c *ClockWrapper) NewTimer(d time.Duration) types.Timer {
	return &TimerWrapper{timer: c.Mock.NewTimer(d)}
}

// TimerWrapper wraps quartz timer
type TimerWrapper struct {
	timer *quartz.Timer
}

func (t *TimerWrapper) C() <-chan time.Time {
	return t.timer.C
}

func (t *TimerWrapper) Stop() bool {
	return t.timer.Stop()
}

func (t *TimerWrapper) Reset(d time.Duration) bool {
	return t.timer.Reset(d)
}

// AdvanceAndWait advances the mock clock by d and waits until every timer
// due within d has fired
func AdvanceAndWait(t testing.TB, mock *quartz.Mock, d time.Duration) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	mock.Advance(d).MustWait(ctx)
}

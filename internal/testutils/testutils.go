// Package testutils provides simplified testing utilities and helper functions
package testutils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Default polling parameters for eventual assertions
const (
	EventuallyTimeout = 2 * time.Second
	EventuallyTick    = time.Millisecond
)

// Parker is implemented by anything that reports how many consumers are blocked on it
type Parker interface {
	Waiters() int
}

// RequireWaiters blocks until p reports exactly n parked consumers
func RequireWaiters(t testing.TB, p Parker, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return p.Waiters() == n
	}, EventuallyTimeout, EventuallyTick, "expected %d parked waiters", n)
}

// Receive waits for a value on ch and fails the test if none arrives in time
func Receive[T any](t testing.TB, ch <-chan T, timeout time.Duration) T {
	t.Helper()

	select {
	case v := <-ch:
		return v
	case <-time.After(timeout):
		require.FailNow(t, "timed out waiting for value", "timeout %v", timeout)
	}
	var zero T
	return zero
}

// AssertNotReceived asserts that nothing arrives on ch within d
func AssertNotReceived[T any](t testing.TB, ch <-chan T, d time.Duration) bool {
	t.Helper()

	select {
	case v := <-ch:
		return assert.Fail(t, "unexpected value received", "%v", v)
	case <-time.After(d):
		return true
	}
}

// Closed reports whether a done-style channel is closed without blocking
func Closed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

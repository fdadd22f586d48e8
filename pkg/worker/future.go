package worker

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jzx17/gopool/pkg/types"
)

// Future is the result handle of a submitted task. It is resolved exactly
// once, with either a value or an error, by the worker that runs the task,
// and can be read any number of times by any goroutine.
type Future[R any] struct {
	id    string
	done  chan struct{}
	once  sync.Once
	value R
	err   error
	clock types.Clock
}

// NewFuture creates an unresolved future
func NewFuture[R any]() *Future[R] {
	return newFuture[R](nil)
}

func newFuture[R any](clock types.Clock) *Future[R] {
	return &Future[R]{
		id:    uuid.NewString(),
		done:  make(chan struct{}),
		clock: types.OrRealClock(clock),
	}
}

// ID returns the identifier shared with the task that resolves this future
func (f *Future[R]) ID() string {
	return f.id
}

// Resolve stores the outcome. Only the first call has an effect; later calls
// return types.ErrAlreadyResolved.
func (f *Future[R]) Resolve(value R, err error) error {
	resolved := false
	f.once.Do(func() {
		f.value = value
		f.err = err
		resolved = true
		close(f.done)
	})
	if !resolved {
		return types.ErrAlreadyResolved
	}
	return nil
}

// Get blocks until the future is resolved and returns its outcome
func (f *Future[R]) Get() (R, error) {
	<-f.done
	return f.value, f.err
}

// GetWithContext is Get bounded by ctx
func (f *Future[R]) GetWithContext(ctx context.Context) (R, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}

// GetWithTimeout is Get bounded by timeout; it returns types.ErrTimeout on expiry
func (f *Future[R]) GetWithTimeout(timeout time.Duration) (R, error) {
	if value, err, ready := f.TryGet(); ready {
		return value, err
	}

	timer := f.clock.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-f.done:
		return f.value, f.err
	case <-timer.C():
		var zero R
		return zero, types.ErrTimeout
	}
}

// TryGet returns the outcome without blocking; ready is false while unresolved
func (f *Future[R]) TryGet() (value R, err error, ready bool) {
	select {
	case <-f.done:
		return f.value, f.err, true
	default:
		return value, nil, false
	}
}

// Wait blocks until the future is resolved
func (f *Future[R]) Wait() {
	<-f.done
}

// Done returns a channel closed once the future is resolved
func (f *Future[R]) Done() <-chan struct{} {
	return f.done
}

// IsReady reports whether the future has been resolved
func (f *Future[R]) IsReady() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

package queue

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/jzx17/gopool/pkg/types"
)

// compactThreshold is the minimum number of consumed head slots before the
// backing slice is compacted
const compactThreshold = 64

// Option configures a BlockingQueue
type Option func(*options)

type options struct {
	clock        types.Clock
	capacityHint int
}

// WithClock sets the clock used by timed waits
func WithClock(clock types.Clock) Option {
	return func(o *options) { o.clock = clock }
}

// WithCapacityHint preallocates room for n values. It is not a bound.
func WithCapacityHint(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.capacityHint = n
		}
	}
}

// waiter is a consumer parked on the queue. wake is buffered so a push
// never blocks while holding the lock.
type waiter struct {
	wake chan struct{}
}

// BlockingQueue is an unbounded multi-producer multi-consumer FIFO queue.
// All state, including the closed flag, is guarded by mu.
type BlockingQueue[T any] struct {
	mu      sync.Mutex
	items   []T
	head    int
	closed  bool
	waiters list.List // of *waiter, in arrival order

	clock types.Clock
}

// New creates an empty, open queue
func New[T any](opts ...Option) *BlockingQueue[T] {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	q := &BlockingQueue[T]{
		clock: types.OrRealClock(o.clock),
	}
	if o.capacityHint > 0 {
		q.items = make([]T, 0, o.capacityHint)
	}
	return q
}

// Push appends value at the tail and wakes one waiting consumer.
// It returns types.ErrClosed once Shutdown has been called.
func (q *BlockingQueue[T]) Push(value T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return types.ErrClosed
	}
	q.items = append(q.items, value)
	q.signalLocked(1)
	return nil
}

// Emplace builds a value and appends it. build runs under the queue lock
// and only while the queue is open; if it panics the queue is unchanged.
func (q *BlockingQueue[T]) Emplace(build func() T) error {
	if build == nil {
		return types.ErrNilTask
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return types.ErrClosed
	}
	value := build()
	q.items = append(q.items, value)
	q.signalLocked(1)
	return nil
}

// PushAll appends values in order as one atomic step. Either all values are
// enqueued or, after Shutdown, none are.
func (q *BlockingQueue[T]) PushAll(values ...T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return types.ErrClosed
	}
	if len(values) == 0 {
		return nil
	}
	q.items = append(q.items, values...)
	q.signalLocked(len(values))
	return nil
}

// TryPop removes and returns the head if present. It never blocks.
func (q *BlockingQueue[T]) TryPop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.lenLocked() == 0 {
		var zero T
		return zero, false
	}
	return q.popLocked(), true
}

// WaitAndPop blocks until a value is available or the queue is closed and
// empty. It returns false only in the closed-and-empty case.
func (q *BlockingQueue[T]) WaitAndPop() (T, bool) {
	value, err := q.wait(nil, nil)
	return value, err == nil
}

// WaitAndPopInto is WaitAndPop storing the value into out
func (q *BlockingQueue[T]) WaitAndPopInto(out *T) bool {
	value, ok := q.WaitAndPop()
	if ok {
		*out = value
	}
	return ok
}

// WaitFor is WaitAndPop bounded by timeout. It returns false both on timeout
// and when the queue is closed and empty; callers cannot tell which.
// The wait lasts at least timeout, with no upper bound.
func (q *BlockingQueue[T]) WaitFor(timeout time.Duration) (T, bool) {
	if value, ok, done := q.fastPop(); done {
		return value, ok
	}
	if timeout <= 0 {
		return q.TryPop()
	}

	// timer exists before the waiter is parked
	timer := q.clock.NewTimer(timeout)
	defer timer.Stop()

	value, err := q.wait(nil, timer.C())
	return value, err == nil
}

// WaitForInto is WaitFor storing the value into out
func (q *BlockingQueue[T]) WaitForInto(out *T, timeout time.Duration) bool {
	value, ok := q.WaitFor(timeout)
	if ok {
		*out = value
	}
	return ok
}

// Pop blocks until a value is available, the queue is closed and empty, or
// ctx is done. It returns types.ErrClosed in the closed-and-empty case and
// ctx.Err() on cancellation, so unlike WaitFor the outcomes are distinct.
func (q *BlockingQueue[T]) Pop(ctx context.Context) (T, error) {
	if ctx.Err() != nil {
		if value, ok := q.TryPop(); ok {
			return value, nil
		}
		var zero T
		return zero, ctx.Err()
	}
	return q.wait(ctx, nil)
}

// Shutdown closes the queue for insertion and wakes every waiting consumer.
// Buffered values stay retrievable. Calling it again is a no-op.
func (q *BlockingQueue[T]) Shutdown() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	q.signalLocked(q.waiters.Len())
}

// IsShutdown reports whether Shutdown has been called
func (q *BlockingQueue[T]) IsShutdown() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Len returns a snapshot of the number of buffered values
func (q *BlockingQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lenLocked()
}

// Empty reports whether the queue held no values at the time of the call
func (q *BlockingQueue[T]) Empty() bool {
	return q.Len() == 0
}

// Waiters returns the number of consumers currently parked
func (q *BlockingQueue[T]) Waiters() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.waiters.Len()
}

// fastPop serves the value or the closed result without parking.
// done is false when the caller has to wait.
func (q *BlockingQueue[T]) fastPop() (value T, ok bool, done bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.lenLocked() > 0 {
		return q.popLocked(), true, true
	}
	return value, false, q.closed
}

// wait parks the caller until the predicate "value available or closed"
// holds, or until ctx is done or expired fires. ctx may be nil. The
// predicate is re-checked under the lock after every wake, including the
// final one.
func (q *BlockingQueue[T]) wait(ctx context.Context, expired <-chan time.Time) (T, error) {
	var zero T
	var cancel <-chan struct{}
	if ctx != nil {
		cancel = ctx.Done()
	}

	q.mu.Lock()
	for {
		if q.lenLocked() > 0 {
			value := q.popLocked()
			q.mu.Unlock()
			return value, nil
		}
		if q.closed {
			q.mu.Unlock()
			return zero, types.ErrClosed
		}

		w := &waiter{wake: make(chan struct{}, 1)}
		elem := q.waiters.PushBack(w)
		q.mu.Unlock()

		var stopErr error
		select {
		case <-w.wake:
		case <-cancel:
			stopErr = ctx.Err()
		case <-expired:
			stopErr = types.ErrTimeout
		}

		q.mu.Lock()
		q.waiters.Remove(elem)

		if stopErr != nil {
			if q.lenLocked() > 0 {
				value := q.popLocked()
				q.mu.Unlock()
				return value, nil
			}
			closed := q.closed
			q.mu.Unlock()
			if closed {
				return zero, types.ErrClosed
			}
			return zero, stopErr
		}
	}
}

// signalLocked hands a wake token to up to n parked waiters, oldest first
func (q *BlockingQueue[T]) signalLocked(n int) {
	for ; n > 0; n-- {
		front := q.waiters.Front()
		if front == nil {
			return
		}
		q.waiters.Remove(front)
		front.Value.(*waiter).wake <- struct{}{}
	}
}

func (q *BlockingQueue[T]) lenLocked() int {
	return len(q.items) - q.head
}

// popLocked removes the head. The slot is cleared only after the value has
// been copied out.
func (q *BlockingQueue[T]) popLocked() T {
	value := q.items[q.head]

	var zero T
	q.items[q.head] = zero
	q.head++

	switch {
	case q.head == len(q.items):
		q.items = q.items[:0]
		q.head = 0
	case q.head >= compactThreshold && q.head*2 >= len(q.items):
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}
	return value
}

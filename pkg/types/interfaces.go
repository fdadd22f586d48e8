// Package types defines core interfaces and types shared by the queue and worker packages
package types

import (
	"context"
	"time"
)

// Queue defines the blocking FIFO queue interface
type Queue[T any] interface {
	// Push appends a value at the tail, returns ErrClosed after shutdown
	Push(value T) error

	// TryPop removes the head without blocking
	TryPop() (T, bool)

	// WaitAndPop blocks until a value is available or the queue is closed and empty
	WaitAndPop() (T, bool)

	// WaitFor is WaitAndPop bounded by a timeout
	WaitFor(timeout time.Duration) (T, bool)

	// Shutdown stops accepting values and wakes all waiters
	Shutdown()

	// IsShutdown reports whether Shutdown has been called
	IsShutdown() bool

	// Len returns the number of buffered values
	Len() int
}

// WorkerPool defines the worker pool interface
type WorkerPool interface {
	// SubmitTask enqueues a task for execution
	SubmitTask(task Task) error

	// WaitAll blocks until every task submitted before the call has finished
	WaitAll() error

	// Shutdown drains queued tasks and joins all workers
	Shutdown()

	// Close is Shutdown for use with defer and io.Closer
	Close() error

	// ThreadCount returns the fixed number of workers
	ThreadCount() int

	// IsShutdown reports whether shutdown has been requested
	IsShutdown() bool

	// Stats returns worker pool statistics
	Stats() PoolStats
}

// Task defines the task interface
type Task interface {
	// Execute executes the task
	Execute(ctx context.Context) error

	// ID returns the task ID (for tracking)
	ID() string
}

// PoolState defines the lifecycle state of a worker pool
type PoolState int32

const (
	// PoolRunning accepts and executes tasks
	PoolRunning PoolState = iota
	// PoolShuttingDown rejects new tasks and drains queued ones
	PoolShuttingDown
	// PoolStopped all workers have exited
	PoolStopped
)

// String returns the string representation of PoolState
func (s PoolState) String() string {
	switch s {
	case PoolRunning:
		return "Running"
	case PoolShuttingDown:
		return "ShuttingDown"
	case PoolStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// PoolStats defines basic statistics for worker pools
type PoolStats struct {
	// PoolSize is the size of the pool
	PoolSize int

	// ActiveWorkers is the number of workers currently executing a task
	ActiveWorkers int

	// QueueSize is the current number of tasks in the queue
	QueueSize int

	// TotalSubmitted counts accepted submissions
	TotalSubmitted int64

	// TotalCompleted counts tasks that returned without error
	TotalCompleted int64

	// TotalFailed counts tasks that returned an error or panicked
	TotalFailed int64

	// State is the pool lifecycle state
	State PoolState
}

// Pending returns the number of submitted tasks not yet finished
func (s PoolStats) Pending() int64 {
	return s.TotalSubmitted - s.TotalCompleted - s.TotalFailed
}

// ErrorHandler observes every failed task; it cannot change the outcome
type ErrorHandler func(error)

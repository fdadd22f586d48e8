package worker

import (
	"context"
	"fmt"
	"runtime"

	"github.com/google/uuid"
	"github.com/jzx17/gopool/pkg/types"
)

// BasicTask is the basic implementation of Task interface
type BasicTask struct {
	id string
	fn func(ctx context.Context) error
}

// NewBasicTask creates a new basic task
func NewBasicTask(fn func(ctx context.Context) error) *BasicTask {
	return NewBasicTaskWithID(uuid.NewString(), fn)
}

// NewBasicTaskWithID creates a basic task with custom ID
func NewBasicTaskWithID(id string, fn func(ctx context.Context) error) *BasicTask {
	return &BasicTask{
		id: id,
		fn: fn,
	}
}

// Execute executes the task
func (t *BasicTask) Execute(ctx context.Context) error {
	if t.fn == nil {
		return fmt.Errorf("task %s has no execution function", t.id)
	}
	return t.fn(ctx)
}

// ID returns the task ID
func (t *BasicTask) ID() string {
	return t.id
}

// futureTask pairs a callable with the future it resolves
type futureTask[R any] struct {
	fn     func(ctx context.Context) (R, error)
	future *Future[R]
}

func newFutureTask[R any](fn func(ctx context.Context) (R, error), clock types.Clock) *futureTask[R] {
	return &futureTask[R]{
		fn:     fn,
		future: newFuture[R](clock),
	}
}

// Execute runs the callable and resolves the future exactly once. A panic
// is recovered into a *types.TaskError and delivered through the future.
func (t *futureTask[R]) Execute(ctx context.Context) (err error) {
	var value R
	defer func() {
		if r := recover(); r != nil {
			err = recoverTaskPanic(t.ID(), r)
		}
		_ = t.future.Resolve(value, err)
	}()

	value, err = t.fn(ctx)
	return err
}

// ID returns the ID of the future
func (t *futureTask[R]) ID() string {
	return t.future.ID()
}

// recoverTaskPanic converts a recovered value into a TaskError with the stack attached
func recoverTaskPanic(taskID string, r interface{}) *types.TaskError {
	var buf [4096]byte
	n := runtime.Stack(buf[:], false)

	return types.NewPanicError(taskID, r).
		WithContext("stack_trace", string(buf[:n]))
}

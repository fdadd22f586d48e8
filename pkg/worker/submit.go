package worker

import (
	"context"

	"github.com/jzx17/gopool/pkg/types"
)

// Submit queues fn on the pool and returns the future it resolves. The
// future carries fn's value and error; a panic in fn arrives as a
// *types.TaskError. Arguments are bound by closure capture. After shutdown
// Submit returns types.ErrClosed and fn never runs.
func Submit[R any](p *FixedWorkerPool, fn func(ctx context.Context) (R, error)) (*Future[R], error) {
	if fn == nil {
		return nil, types.ErrNilTask
	}

	task := newFutureTask(fn, p.config.Clock)
	if err := p.SubmitTask(task); err != nil {
		return nil, err
	}
	return task.future, nil
}

// SubmitFunc is Submit for a callable that only produces a value
func SubmitFunc[R any](p *FixedWorkerPool, fn func() R) (*Future[R], error) {
	if fn == nil {
		return nil, types.ErrNilTask
	}
	return Submit(p, func(context.Context) (R, error) {
		return fn(), nil
	})
}

// Go is Submit for a callable without a result value
func Go(p *FixedWorkerPool, fn func(ctx context.Context) error) (*Future[struct{}], error) {
	if fn == nil {
		return nil, types.ErrNilTask
	}
	return Submit(p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
}

/*
Package worker provides a fixed-size worker pool built on queue.BlockingQueue,
with future-based task submission and graceful shutdown.

# Overview

A FixedWorkerPool owns N persistent worker goroutines, all pulling from one
shared unbounded FIFO queue of types.Task values. N is fixed when the pool
is created; PoolSize 0 selects DefaultPoolSize, the number of hardware
threads minus one, clamped to at least 1.

# Core Components

## FixedWorkerPool

- Workers start immediately in NewFixedWorkerPool
- SubmitTask, Submit, SubmitFunc and Go enqueue work
- WaitAll waits for everything submitted before the call, without stopping
- Shutdown drains queued tasks, then joins every worker

## Future

The result handle of a submitted callable. It is resolved exactly once by
the worker that runs the task and can be read any number of times:

	Get, GetWithContext, GetWithTimeout   blocking reads
	TryGet, IsReady, Done                 non-blocking inspection

## Worker

A single goroutine looping on WaitAndPop. When the queue reports closed and
drained it exits. Task errors and panics are recorded and never terminate
the worker.

# Lifecycle

	Running -> ShuttingDown -> Stopped

Submissions are accepted only while Running; afterwards every call fails
with types.ErrClosed, the same error the queue reports. Shutdown is
graceful: tasks already queued run to completion. Go has no destructors, so
owners defer Close:

	pool, err := worker.NewFixedWorkerPool(&worker.FixedWorkerPoolConfig{PoolSize: 4})
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	future, err := worker.Submit(pool, func(ctx context.Context) (int, error) {
		return 6 * 7, nil
	})
	if err != nil {
		log.Fatal(err)
	}
	answer, err := future.Get()

# Error Handling

- types.ErrClosed: submit after shutdown, returned synchronously
- types.ErrNilTask: nil task or callable
- task errors: delivered through the Future, counted in Stats
- panics: recovered into *types.TaskError with the stack trace in Context

# Ordering

Every accepted task is stamped with a sequence number. WaitAll takes the
sequence issued so far and returns once every task below it has finished
and its statistics are recorded. Workers are never held back, so a task may
submit a child task and wait for it while a WaitAll is pending. Tasks
submitted concurrently with WaitAll have no ordering guarantee, and calling
WaitAll from inside a task deadlocks because it waits on that task.
*/
package worker

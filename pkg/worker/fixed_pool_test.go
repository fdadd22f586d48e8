package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jzx17/gopool/internal/testutils"
	"github.com/jzx17/gopool/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPool(t *testing.T, size int) *FixedWorkerPool {
	t.Helper()

	pool, err := NewFixedWorkerPool(&FixedWorkerPoolConfig{PoolSize: size})
	require.NoError(t, err)
	t.Cleanup(pool.Shutdown)
	return pool
}

func TestNewFixedWorkerPool(t *testing.T) {
	tests := []struct {
		name         string
		config       *FixedWorkerPoolConfig
		expectError  bool
		expectedSize int
	}{
		{
			name:         "nil config should use default",
			config:       nil,
			expectedSize: DefaultPoolSize(),
		},
		{
			name:         "valid config",
			config:       &FixedWorkerPoolConfig{PoolSize: 5},
			expectedSize: 5,
		},
		{
			name:         "zero pool size should auto detect",
			config:       &FixedWorkerPoolConfig{PoolSize: 0},
			expectedSize: DefaultPoolSize(),
		},
		{
			name:        "negative pool size should error",
			config:      &FixedWorkerPoolConfig{PoolSize: -1},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool, err := NewFixedWorkerPool(tt.config)

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, pool)
				return
			}

			require.NoError(t, err)
			defer pool.Close()
			assert.Equal(t, tt.expectedSize, pool.ThreadCount())
			assert.Equal(t, types.PoolRunning, pool.State())
			assert.False(t, pool.IsShutdown())
		})
	}
}

func TestDefaultPoolSize(t *testing.T) {
	size := DefaultPoolSize()

	assert.GreaterOrEqual(t, size, 1)
	assert.Equal(t, size, DefaultFixedWorkerPoolConfig().PoolSize)
}

func TestFixedWorkerPool_SubmitReturnsValue(t *testing.T) {
	pool := newTestPool(t, 2)

	future, err := Submit(pool, func(ctx context.Context) (int, error) {
		return 6 * 7, nil
	})
	require.NoError(t, err)

	value, err := future.Get()
	assert.NoError(t, err)
	assert.Equal(t, 42, value)
}

func TestFixedWorkerPool_SubmitFunc(t *testing.T) {
	pool := newTestPool(t, 2)

	add := func(a, b int) int { return a + b }
	a, b := 3, 4

	future, err := SubmitFunc(pool, func() int { return add(a, b) })
	require.NoError(t, err)

	value, err := future.Get()
	assert.NoError(t, err)
	assert.Equal(t, 7, value)
}

func TestFixedWorkerPool_Go(t *testing.T) {
	pool := newTestPool(t, 1)

	var ran atomic.Bool
	future, err := Go(pool, func(ctx context.Context) error {
		ran.Store(true)
		return nil
	})
	require.NoError(t, err)

	_, err = future.Get()
	assert.NoError(t, err)
	assert.True(t, ran.Load())

	expectedErr := errors.New("void failure")
	future, err = Go(pool, func(ctx context.Context) error { return expectedErr })
	require.NoError(t, err)
	_, err = future.Get()
	assert.Equal(t, expectedErr, err)
}

func TestFixedWorkerPool_SubmitCapturesError(t *testing.T) {
	pool := newTestPool(t, 2)

	expectedErr := errors.New("division by zero")
	future, err := Submit(pool, func(ctx context.Context) (float64, error) {
		return 0, expectedErr
	})
	require.NoError(t, err)

	_, err = future.Get()
	assert.Equal(t, expectedErr, err)

	// the worker survived and keeps serving
	next, err := SubmitFunc(pool, func() string { return "still alive" })
	require.NoError(t, err)
	value, err := next.Get()
	assert.NoError(t, err)
	assert.Equal(t, "still alive", value)
}

func TestFixedWorkerPool_SubmitCapturesPanic(t *testing.T) {
	pool := newTestPool(t, 1)

	future, err := SubmitFunc(pool, func() int {
		var m map[string]int
		m["boom"] = 1
		return 0
	})
	require.NoError(t, err)

	_, err = future.Get()
	require.Error(t, err)
	assert.True(t, types.IsPanic(err))

	var taskErr *types.TaskError
	require.True(t, errors.As(err, &taskErr))
	assert.Equal(t, future.ID(), taskErr.TaskID)

	next, err := SubmitFunc(pool, func() int { return 1 })
	require.NoError(t, err)
	value, err := next.Get()
	assert.NoError(t, err)
	assert.Equal(t, 1, value)
}

func TestFixedWorkerPool_SubmitNil(t *testing.T) {
	pool := newTestPool(t, 1)

	assert.ErrorIs(t, pool.SubmitTask(nil), types.ErrNilTask)

	_, err := Submit[int](pool, nil)
	assert.ErrorIs(t, err, types.ErrNilTask)

	_, err = SubmitFunc[int](pool, nil)
	assert.ErrorIs(t, err, types.ErrNilTask)

	_, err = Go(pool, nil)
	assert.ErrorIs(t, err, types.ErrNilTask)
}

func TestFixedWorkerPool_SubmitAfterShutdown(t *testing.T) {
	pool := newTestPool(t, 2)
	pool.Shutdown()

	for i := 0; i < 5; i++ {
		err := pool.SubmitTask(NewBasicTask(func(ctx context.Context) error { return nil }))
		assert.ErrorIs(t, err, types.ErrClosed, "attempt %d", i)
	}

	var ran atomic.Bool
	future, err := SubmitFunc(pool, func() int {
		ran.Store(true)
		return 1
	})
	assert.ErrorIs(t, err, types.ErrClosed)
	assert.Nil(t, future)

	_, err = Go(pool, func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, types.ErrClosed)

	assert.ErrorIs(t, pool.WaitAll(), types.ErrClosed)
	assert.False(t, ran.Load())
	assert.Equal(t, int64(0), pool.Stats().TotalSubmitted)
}

func TestFixedWorkerPool_TaskExecution(t *testing.T) {
	pool := newTestPool(t, 2)

	var counter int64
	var wg sync.WaitGroup

	numTasks := 10
	wg.Add(numTasks)

	for i := 0; i < numTasks; i++ {
		task := NewBasicTask(func(ctx context.Context) error {
			atomic.AddInt64(&counter, 1)
			wg.Done()
			return nil
		})
		require.NoError(t, pool.SubmitTask(task))
	}

	wg.Wait()
	assert.Equal(t, int64(numTasks), atomic.LoadInt64(&counter))

	stats := pool.Stats()
	assert.Equal(t, 2, stats.PoolSize)
	assert.GreaterOrEqual(t, stats.ActiveWorkers, 0)
	assert.GreaterOrEqual(t, stats.QueueSize, 0)
}

func TestFixedWorkerPool_WaitAll(t *testing.T) {
	pool := newTestPool(t, 4)

	const numTasks = 200
	var counter int64
	for i := 0; i < numTasks; i++ {
		_, err := Go(pool, func(ctx context.Context) error {
			time.Sleep(time.Duration(i%3) * 100 * time.Microsecond)
			atomic.AddInt64(&counter, 1)
			return nil
		})
		require.NoError(t, err)
	}

	require.NoError(t, pool.WaitAll())
	assert.Equal(t, int64(numTasks), atomic.LoadInt64(&counter))

	stats := pool.Stats()
	assert.Equal(t, int64(numTasks), stats.TotalSubmitted)
	assert.Equal(t, int64(numTasks), stats.TotalCompleted)
	assert.Equal(t, int64(0), stats.Pending())
	assert.Equal(t, 0, stats.QueueSize)
	assert.False(t, pool.IsShutdown(), "WaitAll must not shut the pool down")
}

func TestFixedWorkerPool_WaitAllRepeated(t *testing.T) {
	pool := newTestPool(t, 3)

	var counter int64
	for round := 1; round <= 3; round++ {
		for i := 0; i < 50; i++ {
			require.NoError(t, pool.SubmitTask(NewBasicTask(func(ctx context.Context) error {
				atomic.AddInt64(&counter, 1)
				return nil
			})))
		}
		require.NoError(t, pool.WaitAll())
		assert.Equal(t, int64(round*50), atomic.LoadInt64(&counter))
	}
}

func TestFixedWorkerPool_WaitAllOnIdlePool(t *testing.T) {
	pool := newTestPool(t, 2)

	done := make(chan error, 1)
	go func() { done <- pool.WaitAll() }()

	assert.NoError(t, testutils.Receive(t, done, time.Second))
}

func TestFixedWorkerPool_WaitAllContext(t *testing.T) {
	pool := newTestPool(t, 1)

	release := make(chan struct{})
	_, err := Go(pool, func(ctx context.Context) error {
		<-release
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, pool.WaitAllContext(ctx), context.DeadlineExceeded)

	close(release)
	assert.NoError(t, pool.WaitAllContext(context.Background()))
}

func TestFixedWorkerPool_ShutdownDrainsQueuedTasks(t *testing.T) {
	pool := newTestPool(t, 1)

	release := make(chan struct{})
	_, err := Go(pool, func(ctx context.Context) error {
		<-release
		return nil
	})
	require.NoError(t, err)

	var futures []*Future[int]
	for i := 0; i < 20; i++ {
		i := i
		f, err := SubmitFunc(pool, func() int { return i })
		require.NoError(t, err)
		futures = append(futures, f)
	}

	shutdownDone := make(chan struct{})
	go func() {
		pool.Shutdown()
		close(shutdownDone)
	}()

	assert.Eventually(t, func() bool {
		return pool.State() == types.PoolShuttingDown
	}, time.Second, time.Millisecond)
	assert.True(t, pool.IsShutdown())
	assert.ErrorIs(t, pool.SubmitTask(NewBasicTask(func(ctx context.Context) error { return nil })), types.ErrClosed)
	testutils.AssertNotReceived(t, shutdownDone, 20*time.Millisecond)

	close(release)
	testutils.Receive(t, shutdownDone, 2*time.Second)

	assert.Equal(t, types.PoolStopped, pool.State())
	for i, f := range futures {
		value, err, ready := f.TryGet()
		require.True(t, ready, "queued task %d was not run before shutdown completed", i)
		assert.NoError(t, err)
		assert.Equal(t, i, value)
	}
	for _, ws := range pool.GetWorkerStats() {
		assert.Equal(t, WorkerStateStopped, ws.State)
	}
}

func TestFixedWorkerPool_ShutdownIdempotent(t *testing.T) {
	pool := newTestPool(t, 3)

	pool.Shutdown()
	assert.NotPanics(t, pool.Shutdown)
	assert.NoError(t, pool.Close())
	assert.Equal(t, types.PoolStopped, pool.State())
}

func TestFixedWorkerPool_ConcurrentShutdown(t *testing.T) {
	pool := newTestPool(t, 2)

	release := make(chan struct{})
	_, err := Go(pool, func(ctx context.Context) error {
		<-release
		return nil
	})
	require.NoError(t, err)

	const callers = 5
	states := make(chan types.PoolState, callers)
	for i := 0; i < callers; i++ {
		go func() {
			pool.Shutdown()
			states <- pool.State()
		}()
	}

	testutils.AssertNotReceived(t, states, 20*time.Millisecond)
	close(release)

	// every caller returns only after the workers have been joined
	for i := 0; i < callers; i++ {
		assert.Equal(t, types.PoolStopped, testutils.Receive(t, states, 2*time.Second))
	}
}

func TestFixedWorkerPool_ErrorHandlerAndStats(t *testing.T) {
	var handled int64
	pool, err := NewFixedWorkerPool(&FixedWorkerPoolConfig{
		PoolSize: 2,
		ErrorHandler: func(err error) {
			atomic.AddInt64(&handled, 1)
		},
	})
	require.NoError(t, err)
	defer pool.Close()

	for i := 0; i < 10; i++ {
		i := i
		require.NoError(t, pool.SubmitTask(NewBasicTask(func(ctx context.Context) error {
			if i%2 == 0 {
				return fmt.Errorf("task %d failed", i)
			}
			return nil
		})))
	}
	_, err = SubmitFunc(pool, func() int { panic("boom") })
	require.NoError(t, err)

	require.NoError(t, pool.WaitAll())

	stats := pool.Stats()
	assert.Equal(t, int64(11), stats.TotalSubmitted)
	assert.Equal(t, int64(5), stats.TotalCompleted)
	assert.Equal(t, int64(6), stats.TotalFailed)
	assert.Equal(t, int64(6), atomic.LoadInt64(&handled))

	var processed, failed int64
	for _, ws := range pool.GetWorkerStats() {
		processed += ws.TotalProcessed
		failed += ws.TotalFailed
	}
	assert.Equal(t, int64(5), processed)
	assert.Equal(t, int64(6), failed)
}

func TestFixedWorkerPool_ContextPassedToTasks(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "pool-ctx")

	pool, err := NewFixedWorkerPool(&FixedWorkerPoolConfig{PoolSize: 1, Context: ctx})
	require.NoError(t, err)
	defer pool.Close()

	future, err := Submit(pool, func(ctx context.Context) (interface{}, error) {
		return ctx.Value(key{}), nil
	})
	require.NoError(t, err)

	value, err := future.Get()
	assert.NoError(t, err)
	assert.Equal(t, "pool-ctx", value)
}

func TestFixedWorkerPool_Logging(t *testing.T) {
	var buf bytes.Buffer
	var mu sync.Mutex
	logger := slog.New(slog.NewTextHandler(&lockedWriter{w: &buf, mu: &mu}, &slog.HandlerOptions{Level: slog.LevelDebug}))

	pool, err := NewFixedWorkerPool(&FixedWorkerPoolConfig{PoolSize: 2, Logger: logger})
	require.NoError(t, err)

	_, err = SubmitFunc(pool, func() int { panic("logged panic") })
	require.NoError(t, err)
	pool.Shutdown()

	mu.Lock()
	defer mu.Unlock()
	out := buf.String()
	assert.Contains(t, out, "worker pool started")
	assert.Contains(t, out, "workers=2")
	assert.Contains(t, out, "task panicked")
	assert.Contains(t, out, "worker pool shutdown completed")
}

func TestFixedWorkerPool_QueueLength(t *testing.T) {
	pool := newTestPool(t, 1)

	release := make(chan struct{})
	_, err := Go(pool, func(ctx context.Context) error {
		<-release
		return nil
	})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return pool.Stats().ActiveWorkers == 1
	}, time.Second, time.Millisecond)

	for i := 0; i < 3; i++ {
		require.NoError(t, pool.SubmitTask(NewBasicTask(func(ctx context.Context) error { return nil })))
	}
	assert.Equal(t, 3, pool.QueueLength())
	assert.Equal(t, int64(4), pool.Stats().Pending())

	close(release)
	require.NoError(t, pool.WaitAll())
	assert.Equal(t, 0, pool.QueueLength())
}

type lockedWriter struct {
	w  *bytes.Buffer
	mu *sync.Mutex
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

func TestFixedWorkerPool_NestedSubmitDuringWaitAll(t *testing.T) {
	pool := newTestPool(t, 2)

	started := make(chan struct{})
	release := make(chan struct{})
	outer, err := Submit(pool, func(ctx context.Context) (int, error) {
		close(started)
		<-release

		inner, err := SubmitFunc(pool, func() int { return 7 })
		if err != nil {
			return 0, err
		}
		return inner.Get()
	})
	require.NoError(t, err)
	testutils.Receive(t, started, time.Second)

	waitDone := make(chan error, 1)
	go func() { waitDone <- pool.WaitAll() }()
	testutils.AssertNotReceived(t, waitDone, 20*time.Millisecond)

	// the child is queued while WaitAll is pending and the free worker runs it
	close(release)
	value, err := outer.GetWithTimeout(2 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, 7, value)

	assert.NoError(t, testutils.Receive(t, waitDone, 2*time.Second))
}

func TestFixedWorkerPool_WaitAllCoversSlowWorker(t *testing.T) {
	pool := newTestPool(t, 2)

	release := make(chan struct{})
	var slowDone atomic.Bool
	_, err := Go(pool, func(ctx context.Context) error {
		<-release
		slowDone.Store(true)
		return nil
	})
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		_, err := Go(pool, func(ctx context.Context) error { return nil })
		require.NoError(t, err)
	}

	waitDone := make(chan error, 1)
	go func() { waitDone <- pool.WaitAll() }()

	// the free worker drains every fast task; WaitAll still waits for the slow one
	assert.Eventually(t, func() bool {
		return pool.Stats().TotalCompleted == 10
	}, time.Second, time.Millisecond)
	testutils.AssertNotReceived(t, waitDone, 20*time.Millisecond)

	close(release)
	assert.NoError(t, testutils.Receive(t, waitDone, time.Second))
	assert.True(t, slowDone.Load())
	assert.Equal(t, int64(11), pool.Stats().TotalCompleted)
}

func TestFixedWorkerPool_WaitAllIgnoresLaterSubmissions(t *testing.T) {
	pool := newTestPool(t, 1)

	first, err := Go(pool, func(ctx context.Context) error { return nil })
	require.NoError(t, err)
	require.NoError(t, pool.WaitAll())
	assert.True(t, first.IsReady())

	release := make(chan struct{})
	defer close(release)
	_, err = Go(pool, func(ctx context.Context) error {
		<-release
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, pool.WaitAllContext(ctx), context.DeadlineExceeded)
}

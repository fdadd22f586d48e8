package worker

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jzx17/gopool/internal/logging"
	"github.com/jzx17/gopool/pkg/queue"
	"github.com/jzx17/gopool/pkg/types"
	"go.opentelemetry.io/otel/trace"
)

// FixedWorkerPoolConfig defines configuration for fixed worker pool
type FixedWorkerPoolConfig struct {
	// PoolSize is the number of workers. 0 selects DefaultPoolSize().
	PoolSize int

	// Context is handed to every task (optional, defaults to context.Background).
	// Cancelling it does not stop the pool.
	Context context.Context

	// Clock for time operations (optional, defaults to real clock)
	Clock types.Clock

	// ErrorHandler observes every failed task (optional)
	ErrorHandler types.ErrorHandler

	// Logger receives lifecycle and failure records (optional, defaults to discard)
	Logger *slog.Logger

	// TracerProvider opens one span per task (optional, defaults to no tracing)
	TracerProvider trace.TracerProvider
}

// DefaultPoolSize returns the number of hardware threads minus one, leaving
// one for the submitting goroutine, and never less than 1
func DefaultPoolSize() int {
	n := runtime.NumCPU() - 1
	if n < 1 {
		n = 1
	}
	return n
}

// DefaultFixedWorkerPoolConfig returns default configuration
func DefaultFixedWorkerPoolConfig() *FixedWorkerPoolConfig {
	return &FixedWorkerPoolConfig{
		PoolSize: DefaultPoolSize(),
		Context:  context.Background(),
		Clock:    types.NewRealClock(),
		Logger:   logging.Discard(),
	}
}

// FixedWorkerPool runs a fixed number of workers over one shared BlockingQueue.
// Workers start in NewFixedWorkerPool; call Close or Shutdown to release them.
type FixedWorkerPool struct {
	config  FixedWorkerPoolConfig
	workers []*Worker
	tasks   *queue.BlockingQueue[types.Task]

	// completion watermark of submitted tasks, drives WaitAll
	completed *watermark

	// state management
	state        int32 // types.PoolState
	shutdownOnce sync.Once

	// statistics
	totalSubmitted int64
	totalCompleted int64
	totalFailed    int64
}

var _ types.WorkerPool = (*FixedWorkerPool)(nil)

// NewFixedWorkerPool creates a worker pool and starts its workers
func NewFixedWorkerPool(config *FixedWorkerPoolConfig) (*FixedWorkerPool, error) {
	if config == nil {
		config = DefaultFixedWorkerPoolConfig()
	}

	// parameter validation
	if config.PoolSize < 0 {
		return nil, fmt.Errorf("pool size must not be negative, got %d", config.PoolSize)
	}

	cfg := *config
	if cfg.PoolSize == 0 {
		cfg.PoolSize = DefaultPoolSize()
	}
	if cfg.Context == nil {
		cfg.Context = context.Background()
	}
	cfg.Clock = types.OrRealClock(cfg.Clock)
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}

	pool := &FixedWorkerPool{
		config:    cfg,
		workers:   make([]*Worker, cfg.PoolSize),
		tasks:     queue.New[types.Task](queue.WithClock(cfg.Clock)),
		completed: newWatermark(),
		state:     int32(types.PoolRunning),
	}

	for i := range pool.workers {
		w := NewWorkerWithClock(i, pool.tasks, cfg.Clock)
		w.SetLogger(cfg.Logger)
		w.SetTracerProvider(cfg.TracerProvider)
		if cfg.ErrorHandler != nil {
			w.SetErrorHandler(cfg.ErrorHandler)
		}
		w.SetCompletionCallback(pool.onTaskComplete)
		pool.workers[i] = w
	}
	for _, w := range pool.workers {
		go w.Run(cfg.Context)
	}

	cfg.Logger.InfoContext(cfg.Context, "worker pool started", slog.Int("workers", cfg.PoolSize))
	return pool, nil
}

// onTaskComplete runs after the worker has updated its own statistics, so a
// released WaitAll observes final counters
func (p *FixedWorkerPool) onTaskComplete(task types.Task, _ time.Duration, failed bool) {
	if failed {
		atomic.AddInt64(&p.totalFailed, 1)
	} else {
		atomic.AddInt64(&p.totalCompleted, 1)
	}
	if st, ok := task.(*sequencedTask); ok {
		p.completed.complete(st.seq)
	}
}

// SubmitTask enqueues a task. It returns types.ErrClosed once shutdown has
// been requested and types.ErrNilTask for a nil task.
func (p *FixedWorkerPool) SubmitTask(task types.Task) error {
	if task == nil {
		return types.ErrNilTask
	}
	// counted before the push so Pending never goes negative
	atomic.AddInt64(&p.totalSubmitted, 1)
	seq := p.completed.reserve()
	if err := p.enqueue(&sequencedTask{Task: task, seq: seq}); err != nil {
		// a rejected sequence must not hold back WaitAll
		p.completed.complete(seq)
		atomic.AddInt64(&p.totalSubmitted, -1)
		return err
	}
	return nil
}

func (p *FixedWorkerPool) enqueue(task types.Task) error {
	if p.State() != types.PoolRunning {
		return types.ErrClosed
	}
	return p.tasks.Push(task)
}

// WaitAll blocks until every task submitted before the call has finished,
// without stopping the pool. Each accepted task carries a sequence number
// and WaitAll waits for every sequence issued before the call to complete,
// so no worker is held back and tasks submitted meanwhile, including tasks
// submitted by running tasks, keep flowing. Tasks submitted concurrently
// with WaitAll are not covered. Calling WaitAll from inside a task waits on
// that task itself and deadlocks.
func (p *FixedWorkerPool) WaitAll() error {
	if p.State() != types.PoolRunning {
		return types.ErrClosed
	}
	<-p.completed.snapshot()
	return nil
}

// WaitAllContext is WaitAll bounded by ctx
func (p *FixedWorkerPool) WaitAllContext(ctx context.Context) error {
	if p.State() != types.PoolRunning {
		return types.ErrClosed
	}
	select {
	case <-p.completed.snapshot():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting tasks, lets the workers finish every queued task,
// and waits for them to exit. Repeated and concurrent calls are safe; every
// caller returns after the workers have stopped.
func (p *FixedWorkerPool) Shutdown() {
	p.shutdownOnce.Do(func() {
		ctx := p.config.Context
		logger := p.config.Logger

		atomic.StoreInt32(&p.state, int32(types.PoolShuttingDown))
		logger.InfoContext(ctx, "worker pool shutting down", slog.Int("queued", p.tasks.Len()))

		p.tasks.Shutdown()
		for _, w := range p.workers {
			<-w.Done()
		}

		atomic.StoreInt32(&p.state, int32(types.PoolStopped))
		logger.InfoContext(ctx, "worker pool shutdown completed",
			slog.Int64("completed", atomic.LoadInt64(&p.totalCompleted)),
			slog.Int64("failed", atomic.LoadInt64(&p.totalFailed)))
	})
}

// Close shuts the pool down; it always returns nil
func (p *FixedWorkerPool) Close() error {
	p.Shutdown()
	return nil
}

// ThreadCount returns the fixed number of workers
func (p *FixedWorkerPool) ThreadCount() int {
	return len(p.workers)
}

// IsShutdown reports whether shutdown has been requested
func (p *FixedWorkerPool) IsShutdown() bool {
	return p.State() != types.PoolRunning
}

// State returns the lifecycle state
func (p *FixedWorkerPool) State() types.PoolState {
	return types.PoolState(atomic.LoadInt32(&p.state))
}

// QueueLength gets the current queue length
func (p *FixedWorkerPool) QueueLength() int {
	return p.tasks.Len()
}

// Stats gets basic worker pool statistics
func (p *FixedWorkerPool) Stats() types.PoolStats {
	var activeWorkers int
	for _, w := range p.workers {
		if w.State() == WorkerStateWorking {
			activeWorkers++
		}
	}

	return types.PoolStats{
		PoolSize:       len(p.workers),
		ActiveWorkers:  activeWorkers,
		QueueSize:      p.tasks.Len(),
		TotalSubmitted: atomic.LoadInt64(&p.totalSubmitted),
		TotalCompleted: atomic.LoadInt64(&p.totalCompleted),
		TotalFailed:    atomic.LoadInt64(&p.totalFailed),
		State:          p.State(),
	}
}

// GetWorkerStats gets statistics of all Workers
func (p *FixedWorkerPool) GetWorkerStats() []WorkerStats {
	stats := make([]WorkerStats, len(p.workers))
	for i, w := range p.workers {
		stats[i] = w.Stats()
	}
	return stats
}

package worker

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jzx17/gopool/internal/logging"
	"github.com/jzx17/gopool/pkg/queue"
	"github.com/jzx17/gopool/pkg/types"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// tracerName is the instrumentation scope of task spans
const tracerName = "github.com/jzx17/gopool/pkg/worker"

// WorkerState defines the state of a Worker
type WorkerState int32

const (
	// WorkerStateIdle represents idle worker state
	WorkerStateIdle WorkerState = iota
	// WorkerStateWorking represents working worker state
	WorkerStateWorking
	// WorkerStateStopped represents stopped worker state
	WorkerStateStopped
)

// String returns the string representation of WorkerState
func (ws WorkerState) String() string {
	switch ws {
	case WorkerStateIdle:
		return "idle"
	case WorkerStateWorking:
		return "working"
	case WorkerStateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Worker is a single persistent goroutine pulling tasks from a shared queue
type Worker struct {
	id    int
	state int32 // atomic state
	tasks *queue.BlockingQueue[types.Task]
	done  chan struct{}

	// statistics
	totalProcessed int64
	totalFailed    int64
	lastTaskTime   int64 // Unix nanosecond timestamp

	// error handling
	errorHandler types.ErrorHandler

	// pool callback for syncing statistics, invoked after the worker's own
	// statistics are updated
	completionCallback func(task types.Task, d time.Duration, failed bool)

	clock  types.Clock
	logger *slog.Logger
	tracer trace.Tracer

	mu sync.RWMutex
}

// NewWorker creates a new Worker with default real clock
func NewWorker(id int, tasks *queue.BlockingQueue[types.Task]) *Worker {
	return NewWorkerWithClock(id, tasks, types.NewRealClock())
}

// NewWorkerWithClock creates a new Worker with specified clock
func NewWorkerWithClock(id int, tasks *queue.BlockingQueue[types.Task], clock types.Clock) *Worker {
	return &Worker{
		id:     id,
		state:  int32(WorkerStateIdle),
		tasks:  tasks,
		done:   make(chan struct{}),
		clock:  types.OrRealClock(clock),
		logger: logging.Discard(),
		tracer: noop.NewTracerProvider().Tracer(tracerName),
	}
}

// ID returns the Worker ID
func (w *Worker) ID() int {
	return w.id
}

// State returns the current Worker state
func (w *Worker) State() WorkerState {
	return WorkerState(atomic.LoadInt32(&w.state))
}

// SetErrorHandler sets the error handler
func (w *Worker) SetErrorHandler(handler types.ErrorHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.errorHandler = handler
}

// SetCompletionCallback sets the task completion callback
func (w *Worker) SetCompletionCallback(callback func(task types.Task, d time.Duration, failed bool)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.completionCallback = callback
}

// SetLogger sets the logger, nil restores the discard logger
func (w *Worker) SetLogger(logger *slog.Logger) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if logger == nil {
		logger = logging.Discard()
	}
	w.logger = logger.With(slog.Int("worker_id", w.id))
}

// SetTracerProvider makes the worker open one span per task; nil disables tracing
func (w *Worker) SetTracerProvider(tp trace.TracerProvider) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if tp == nil {
		tp = noop.NewTracerProvider()
	}
	w.tracer = tp.Tracer(tracerName)
}

// Run executes tasks until the queue is closed and drained. ctx is handed to
// every task; cancelling it does not stop the loop.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)
	defer atomic.StoreInt32(&w.state, int32(WorkerStateStopped))

	for {
		task, ok := w.tasks.WaitAndPop()
		if !ok {
			w.getLogger().DebugContext(ctx, "worker queue closed and drained")
			return
		}
		w.processTask(ctx, task)
	}
}

// processTask processes a single task
func (w *Worker) processTask(ctx context.Context, task types.Task) {
	atomic.StoreInt32(&w.state, int32(WorkerStateWorking))
	defer atomic.StoreInt32(&w.state, int32(WorkerStateIdle))

	ctx, span := w.getTracer().Start(ctx, "gopool.task",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("gopool.task.id", task.ID()),
			attribute.Int("gopool.worker.id", w.id),
		))

	startTime := w.clock.Now()
	err := w.executeTask(ctx, task)
	executionTime := w.clock.Since(startTime)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()

	failed := err != nil
	atomic.StoreInt64(&w.lastTaskTime, startTime.UnixNano())
	if failed {
		atomic.AddInt64(&w.totalFailed, 1)
		w.handleError(ctx, err, task)
	} else {
		atomic.AddInt64(&w.totalProcessed, 1)
	}

	w.mu.RLock()
	callback := w.completionCallback
	w.mu.RUnlock()

	if callback != nil {
		callback(task, executionTime, failed)
	}
}

// executeTask executes a task with panic recovery support
func (w *Worker) executeTask(ctx context.Context, task types.Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recoverTaskPanic(task.ID(), r).WithContext("worker_id", w.id)
		}
	}()

	return task.Execute(ctx)
}

// handleError logs the failure and forwards it to the error handler
func (w *Worker) handleError(ctx context.Context, err error, task types.Task) {
	w.mu.RLock()
	handler := w.errorHandler
	logger := w.logger
	w.mu.RUnlock()

	if types.IsPanic(err) {
		logger.WarnContext(ctx, "task panicked", slog.String("task_id", task.ID()), slog.Any("error", err))
	} else {
		logger.DebugContext(ctx, "task failed", slog.String("task_id", task.ID()), slog.Any("error", err))
	}

	if handler != nil {
		handler(err)
	}
}

func (w *Worker) getTracer() trace.Tracer {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.tracer
}

func (w *Worker) getLogger() *slog.Logger {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.logger
}

// Done returns a channel closed when Run has returned
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// Stats gets Worker statistics
func (w *Worker) Stats() WorkerStats {
	var last time.Time
	if ns := atomic.LoadInt64(&w.lastTaskTime); ns != 0 {
		last = time.Unix(0, ns)
	}

	return WorkerStats{
		ID:             w.id,
		State:          w.State(),
		TotalProcessed: atomic.LoadInt64(&w.totalProcessed),
		TotalFailed:    atomic.LoadInt64(&w.totalFailed),
		LastTaskTime:   last,
	}
}

// WorkerStats defines Worker statistics
type WorkerStats struct {
	ID             int
	State          WorkerState
	TotalProcessed int64
	TotalFailed    int64
	LastTaskTime   time.Time
}

// IsActive checks if Worker is active
func (ws WorkerStats) IsActive() bool {
	return ws.State == WorkerStateWorking
}

// IsIdle checks if Worker is idle
func (ws WorkerStats) IsIdle() bool {
	return ws.State == WorkerStateIdle
}

// GetSuccessRate gets the success rate
func (ws WorkerStats) GetSuccessRate() float64 {
	total := ws.TotalProcessed + ws.TotalFailed
	if total == 0 {
		return 0
	}
	return float64(ws.TotalProcessed) / float64(total)
}

// GetErrorRate gets the error rate
func (ws WorkerStats) GetErrorRate() float64 {
	total := ws.TotalProcessed + ws.TotalFailed
	if total == 0 {
		return 0
	}
	return float64(ws.TotalFailed) / float64(total)
}

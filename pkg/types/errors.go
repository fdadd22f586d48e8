// Package types defines error types
package types

import (
	"errors"
	"fmt"
)

// Predefined errors
var (
	// ErrClosed indicates a push or submit after shutdown
	ErrClosed = errors.New("queue is closed")

	// ErrNilTask indicates a nil task or nil function was submitted
	ErrNilTask = errors.New("task cannot be nil")

	// ErrTimeout indicates operation timeout
	ErrTimeout = errors.New("operation timeout")

	// ErrAlreadyResolved indicates a result handle was resolved twice
	ErrAlreadyResolved = errors.New("result already resolved")
)

// TaskError represents a failure raised while a task was executing.
// Panics are converted into a TaskError carrying the recovered value.
type TaskError struct {
	// TaskID identifies the failed task
	TaskID string

	// Cause is the underlying error
	Cause error

	// Panic is the recovered panic value, nil if the task returned an error
	Panic interface{}

	// Context contains error context information
	Context map[string]interface{}
}

// Error implements the error interface
func (e *TaskError) Error() string {
	if e.Panic != nil {
		return fmt.Sprintf("task %s panicked: %v", e.TaskID, e.Cause)
	}
	return fmt.Sprintf("task %s failed: %v", e.TaskID, e.Cause)
}

// Unwrap returns the underlying error
func (e *TaskError) Unwrap() error {
	return e.Cause
}

// Is checks if the error is a specific error
func (e *TaskError) Is(target error) bool {
	return errors.Is(e.Cause, target)
}

// NewTaskError creates a new task error
func NewTaskError(taskID string, cause error) *TaskError {
	return &TaskError{
		TaskID:  taskID,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewPanicError converts a recovered panic value into a TaskError
func NewPanicError(taskID string, recovered interface{}) *TaskError {
	var cause error
	switch v := recovered.(type) {
	case error:
		cause = v
	case string:
		cause = fmt.Errorf("panic: %s", v)
	default:
		cause = fmt.Errorf("panic: %v", v)
	}

	e := NewTaskError(taskID, cause)
	e.Panic = recovered
	return e
}

// WithContext adds error context
func (e *TaskError) WithContext(key string, value interface{}) *TaskError {
	e.Context[key] = value
	return e
}

// IsPanic reports whether err carries a recovered task panic
func IsPanic(err error) bool {
	var taskErr *TaskError
	if errors.As(err, &taskErr) {
		return taskErr.Panic != nil
	}
	return false
}

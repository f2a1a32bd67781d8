package flipbook

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned by the scheduler and the playback manager.
var (
	// ErrSchedulerClosed is the panic value of Driver.Next once the driver
	// has been closed.
	ErrSchedulerClosed = errors.New("flipbook: scheduler closed")

	// ErrNoScenes is returned when a playback manager is used before Setup.
	ErrNoScenes = errors.New("flipbook: no scenes")

	// ErrSlideNotFound is returned by GoTo for an unknown slide id.
	ErrSlideNotFound = errors.New("flipbook: slide not found")
)

// errTaskStopped unwinds a routine whose coroutine is being stopped. It never
// escapes the task body.
var errTaskStopped = errors.New("flipbook: task stopped")

// CircularDependencyError is raised when a reactive cell is asked to evaluate
// while it is already being evaluated further up the stack. It is panicked
// from Get and is never swallowed by a derivation's failure recovery.
type CircularDependencyError struct {
	// Cells lists the names of the cells on the evaluation stack, outermost
	// first, ending with the cell whose read closed the cycle.
	Cells []string
	// Stack is the goroutine stack at the closing read.
	Stack []byte
}

func (e *CircularDependencyError) Error() string {
	return "flipbook: circular dependency: " + strings.Join(e.Cells, " -> ")
}

// TaskPanic wraps a panic raised inside a task routine. Driver.Next returns it
// as an error after tearing the scheduler down.
type TaskPanic struct {
	Task  string
	Value any
	Stack []byte
}

func (e *TaskPanic) Error() string {
	return fmt.Sprintf("flipbook: task %q panicked: %v", e.Task, e.Value)
}

// Unwrap exposes the panic value when it is an error, so callers can match a
// CircularDependencyError with errors.As.
func (e *TaskPanic) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// SceneError reports a scene whose tick failed. The scene is torn down and
// marked finished; playback continues with the next scene.
type SceneError struct {
	Scene string
	Err   error
}

func (e *SceneError) Error() string {
	return fmt.Sprintf("flipbook: scene %q: %v", e.Scene, e.Err)
}

func (e *SceneError) Unwrap() error { return e.Err }

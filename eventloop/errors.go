package eventloop

import (
	"errors"
	"fmt"
)

// Error taxonomy, grounded on Swind-go-task-runner's sentinel-error style
// (plain errors.New values compared with errors.Is) crossed with
// joeycumines-go-utilpkg/eventloop's typed-error-with-Unwrap shape for the
// one case (a recovered panic) that needs to carry a cause.

var (
	// ErrUnsupportedOperation is returned by an operation not implemented
	// by a concrete loop or Selector.
	ErrUnsupportedOperation = errors.New("eventloop: unsupported operation")

	// ErrCancelled is the failure a Scheduled task's Future receives when
	// cancelled before it runs.
	ErrCancelled = errors.New("eventloop: task cancelled")

	// ErrShutdown is returned when submission or resolution is attempted
	// on a loop past its open window, or when tasks/promises are drained
	// at loop termination.
	ErrShutdown = errors.New("eventloop: loop shut down")

	// ErrShutdownFailed indicates a loop drained cleanly but its Selector
	// failed to close, or a group shutdown otherwise could not complete
	// cleanly.
	ErrShutdownFailed = errors.New("eventloop: group shutdown failed")

	// ErrAlreadyClosed is returned by closeGently on a non-open loop.
	ErrAlreadyClosed = errors.New("eventloop: loop already closing or closed")
)

// PanicError wraps a value recovered from a panicking task, preserving it
// through errors.Is/errors.As via Unwrap when the panic value was itself
// an error.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return "eventloop: task panicked: " + errorString(e.Value)
}

func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

func errorString(v any) string {
	if err, ok := v.(error); ok {
		return err.Error()
	}
	return fmt.Sprintf("%v", v)
}

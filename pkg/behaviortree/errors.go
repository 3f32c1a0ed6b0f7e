package behaviortree

import (
	"errors"
	"fmt"
)

// Sentinel errors for execution.
var (
	// ErrNilContext indicates Run() was called with a nil context.
	ErrNilContext = errors.New("context cannot be nil")

	// ErrNilRoot indicates Run() was called without a root node.
	ErrNilRoot = errors.New("root node cannot be nil")

	// ErrTreeRunning indicates Run() was called on a root that is already
	// running. A tree instance supports one evaluation in flight.
	ErrTreeRunning = errors.New("tree is already running")

	// ErrInvalidTransition indicates a node was asked to move between two
	// states the state machine does not connect.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrPanicWithoutCause is the payload substituted for Panic(nil).
	ErrPanicWithoutCause = errors.New("panic without cause")
)

// PanicError captures a Go panic recovered from a node's Execute.
// It includes the stack trace for debugging.
type PanicError struct {
	// NodeID is the path of the node that panicked.
	NodeID string
	// Label is the node's label.
	Label string
	// Value is the value passed to panic().
	Value any
	// Stack is the full stack trace at the point of panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("node %s (%s) panicked: %v", e.NodeID, e.Label, e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// CancellationError reports that a caller stopped waiting for a tree.
// The tree itself is not preempted; its in-flight leaf still completes.
type CancellationError struct {
	// NodeID is the root path of the abandoned run.
	NodeID string
	// Cause is the underlying cancellation cause (context.Canceled or context.DeadlineExceeded).
	Cause error
}

// Error implements the error interface.
func (e *CancellationError) Error() string {
	return fmt.Sprintf("stopped waiting for %s: %v", e.NodeID, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *CancellationError) Unwrap() error {
	return e.Cause
}

// TransitionError describes a rejected state change.
type TransitionError struct {
	NodeID string
	From   State
	To     State
}

// Error implements the error interface.
func (e *TransitionError) Error() string {
	return fmt.Sprintf("node %s: cannot move from %s to %s", e.NodeID, e.From, e.To)
}

// Unwrap returns ErrInvalidTransition for errors.Is support.
func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

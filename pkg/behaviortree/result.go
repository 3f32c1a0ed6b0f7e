package behaviortree

import "fmt"

// Outcome classifies a node's Result.
type Outcome int

const (
	// OutcomeSuccess continues or resolves tree logic.
	OutcomeSuccess Outcome = iota

	// OutcomeFailure is an ordinary branch rejection. It drives
	// selector/sequence control flow and is not an error.
	OutcomeFailure

	// OutcomePanic signals a violated precondition. Combinators never
	// absorb it; it unwinds to the root callback.
	OutcomePanic
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	case OutcomePanic:
		return "panic"
	default:
		return "unknown"
	}
}

// Result is the single value a node reports through its completion callback.
// Err is set only when Outcome is OutcomePanic.
type Result struct {
	Outcome Outcome
	Err     error
}

// Success returns a successful result.
func Success() Result {
	return Result{Outcome: OutcomeSuccess}
}

// Failure returns a failed result.
func Failure() Result {
	return Result{Outcome: OutcomeFailure}
}

// Panic returns a result carrying err as its payload.
// A nil err is replaced with ErrPanicWithoutCause so the payload is never nil.
func Panic(err error) Result {
	if err == nil {
		err = ErrPanicWithoutCause
	}
	return Result{Outcome: OutcomePanic, Err: err}
}

// IsSuccess reports whether the result is a success.
func (r Result) IsSuccess() bool { return r.Outcome == OutcomeSuccess }

// IsFailure reports whether the result is an ordinary failure.
func (r Result) IsFailure() bool { return r.Outcome == OutcomeFailure }

// IsPanic reports whether the result is a panic.
func (r Result) IsPanic() bool { return r.Outcome == OutcomePanic }

// String implements fmt.Stringer.
func (r Result) String() string {
	if r.Outcome == OutcomePanic {
		return fmt.Sprintf("panic(%v)", r.Err)
	}
	return r.Outcome.String()
}

// terminalState maps a result to the state its node settles in.
func (r Result) terminalState() State {
	switch r.Outcome {
	case OutcomeSuccess:
		return StateSucceeded
	case OutcomeFailure:
		return StateFailed
	default:
		return StatePanicked
	}
}

// State is the run state of a single node.
//
// Every node starts Idle. Execution moves it to Running and the completion
// callback settles it in Succeeded, Failed or Panicked. Cancel moves an
// Idle node straight to Canceled, and a Canceled node never runs again
// until Reset.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateSucceeded
	StateFailed
	StatePanicked
	StateCanceled
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	case StatePanicked:
		return "panicked"
	case StateCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether s is one of the four terminal states.
func (s State) IsTerminal() bool {
	switch s {
	case StateSucceeded, StateFailed, StatePanicked, StateCanceled:
		return true
	}
	return false
}

// canTransition reports whether from -> to is a legal move.
// Re-execution from Succeeded, Failed or Panicked is allowed; Canceled only
// leaves through Reset, which is handled separately.
func canTransition(from, to State) bool {
	switch to {
	case StateRunning:
		return from == StateIdle || from == StateSucceeded || from == StateFailed || from == StatePanicked
	case StateCanceled:
		return from == StateIdle
	case StateSucceeded, StateFailed, StatePanicked:
		return from == StateRunning
	}
	return false
}

package behaviortree

import "sync/atomic"

// Node is the capability set every tree element satisfies.
// F is the caller's shared context ("frame") type, usually a pointer. The
// engine passes it to every Execute and never retains it.
//
// Implementations embed Base[F], which owns the node's state and supplies
// leaf defaults for State, Cancel and Children:
//
//	type Beep struct {
//	    behaviortree.Base[*Robot]
//	}
//
//	func (b *Beep) Label() string { return "Beep" }
//
//	func (b *Beep) Execute(ctx behaviortree.Context, r *Robot, done func(behaviortree.Result)) {
//	    r.Speaker.Beep()
//	    done(behaviortree.Success())
//	}
//
// Execute must call done exactly once. The engine guards every node
// boundary, so a second call is dropped, but it is still a defect in the
// node. Execute must not change the node's own state; the enclosing
// combinator (or Run, for the root) does that around the call.
type Node[F any] interface {
	// Label names the node in diagnostics.
	Label() string

	// State returns a point-in-time read of the node's run state.
	State() State

	// Execute runs the node and reports its result through done.
	Execute(ctx Context, frame F, done func(Result))

	// Cancel marks an idle node (and its idle descendants) as Canceled.
	// It cannot stop a node that is already running.
	Cancel()

	// Children returns the owned children in execution order.
	// Leaves return nil.
	Children() []Node[F]

	base() *Base[F]
}

// Base holds the state shared by every node. Embed it by value.
type Base[F any] struct {
	label string
	state atomic.Int32

	// cancelRequested is set when Cancel reaches a running combinator;
	// it stops the combinator from starting further children.
	cancelRequested atomic.Bool
}

// Label returns the label set at construction, or "Node".
func (b *Base[F]) Label() string {
	if b.label == "" {
		return "Node"
	}
	return b.label
}

// State returns the node's current state.
func (b *Base[F]) State() State {
	return State(b.state.Load())
}

// Cancel moves an idle node to Canceled. It is a no-op in any other state.
func (b *Base[F]) Cancel() {
	b.transition(StateCanceled)
}

// Children returns nil; combinators override it.
func (b *Base[F]) Children() []Node[F] {
	return nil
}

func (b *Base[F]) base() *Base[F] {
	return b
}

// transition moves the node to `to` if the state machine allows it and
// returns the state it moved from.
func (b *Base[F]) transition(to State) (State, bool) {
	for {
		from := State(b.state.Load())
		if !canTransition(from, to) {
			return from, false
		}
		if b.state.CompareAndSwap(int32(from), int32(to)) {
			return from, true
		}
	}
}

// reset returns a non-running node to Idle and clears any cancel request.
func (b *Base[F]) reset() bool {
	for {
		from := State(b.state.Load())
		if from == StateRunning {
			return false
		}
		if b.state.CompareAndSwap(int32(from), int32(StateIdle)) {
			b.cancelRequested.Store(false)
			return true
		}
	}
}

package behaviortree

import (
	"strconv"

	"github.com/randalmurphal/behaviortree/pkg/behaviortree/observability"
)

// Selector is the first-success (OR) combinator. It runs children in
// order until one succeeds, then cancels the idle children after it.
// A selector whose children all fail, or that has no children, fails.
type Selector[F any] struct {
	Base[F]
	children []Node[F]
}

// NewSelector creates a selector over children, which are fixed from here on.
// An empty label defaults to "Selector".
func NewSelector[F any](label string, children ...Node[F]) *Selector[F] {
	if label == "" {
		label = "Selector"
	}
	s := &Selector[F]{children: children}
	s.label = label
	return s
}

// Children returns the selector's children in execution order.
func (s *Selector[F]) Children() []Node[F] {
	return s.children
}

// Cancel cancels an idle selector, or asks a running one to stop before its
// next child. Either way every idle child is canceled.
func (s *Selector[F]) Cancel() {
	cancelComposite(&s.Base, s.children)
}

// Execute runs the children until one succeeds.
func (s *Selector[F]) Execute(ctx Context, frame F, done func(Result)) {
	runChildren(ctx, &s.Base, frame, s.children, OutcomeFailure, Failure(), done)
}

// Sequence is the first-failure (AND) combinator. It runs children in
// order until one fails, then cancels the idle children after it.
// A sequence succeeds only if it has at least one child and all succeed;
// an empty sequence fails.
type Sequence[F any] struct {
	Base[F]
	children []Node[F]
}

// NewSequence creates a sequence over children, which are fixed from here on.
// An empty label defaults to "Sequence".
func NewSequence[F any](label string, children ...Node[F]) *Sequence[F] {
	if label == "" {
		label = "Sequence"
	}
	s := &Sequence[F]{children: children}
	s.label = label
	return s
}

// Children returns the sequence's children in execution order.
func (s *Sequence[F]) Children() []Node[F] {
	return s.children
}

// Cancel behaves like Selector.Cancel.
func (s *Sequence[F]) Cancel() {
	cancelComposite(&s.Base, s.children)
}

// Execute runs the children until one fails.
func (s *Sequence[F]) Execute(ctx Context, frame F, done func(Result)) {
	exhausted := Success()
	if len(s.children) == 0 {
		exhausted = Failure()
	}
	runChildren(ctx, &s.Base, frame, s.children, OutcomeSuccess, exhausted, done)
}

// runChildren drives children strictly one after another. A child whose
// outcome is advanceOn moves on to the next child; any other outcome
// cancels the remaining idle children and is reported as-is. Running off
// the end reports exhausted.
//
// Before each child starts, a cancel request on the parent, a done ctx or
// a child already Canceled aborts the branch: remaining idle children are
// canceled and the parent reports Failure.
func runChildren[F any](ctx Context, parent *Base[F], frame F, children []Node[F], advanceOn Outcome, exhausted Result, done func(Result)) {
	var step func(i int)
	step = func(i int) {
		if i >= len(children) {
			done(exhausted)
			return
		}

		child := children[i]
		if reason := abortReason(ctx, parent, child); reason != "" {
			cfg := asExecutionContext(ctx).run
			observability.LogBranchAborted(cfg.logger, ctx.NodeID(), parent.Label(), reason)
			cancelRemaining(ctx, children[i:])
			done(Failure())
			return
		}

		executeNode(ctx, child, childID(ctx.NodeID(), i), frame, func(r Result) {
			if r.Outcome == advanceOn {
				step(i + 1)
				return
			}
			cancelRemaining(ctx, children[i+1:])
			done(r)
		})
	}
	step(0)
}

func abortReason[F any](ctx Context, parent *Base[F], child Node[F]) string {
	switch {
	case parent.cancelRequested.Load():
		return "cancel requested"
	case ctx.Err() != nil:
		return "context done: " + ctx.Err().Error()
	case child.State() == StateCanceled:
		return "next child canceled"
	}
	return ""
}

// cancelRemaining cancels every idle node in nodes, recording each one
// that actually moved to Canceled.
func cancelRemaining[F any](ctx Context, nodes []Node[F]) {
	cfg := asExecutionContext(ctx).run
	for _, n := range nodes {
		if n.State() != StateIdle {
			continue
		}
		n.Cancel()
		if n.State() == StateCanceled {
			observability.LogNodeCanceled(cfg.logger, n.Label())
			cfg.metrics.RecordCancellation(ctx, n.Label())
		}
	}
}

func cancelComposite[F any](b *Base[F], children []Node[F]) {
	if from, ok := b.transition(StateCanceled); !ok && from == StateRunning {
		b.cancelRequested.Store(true)
	}
	for _, c := range children {
		if c.State() == StateIdle {
			c.Cancel()
		}
	}
}

func childID(parentID string, index int) string {
	if parentID == "" {
		parentID = rootID
	}
	return parentID + "." + strconv.Itoa(index)
}

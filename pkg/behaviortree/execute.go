package behaviortree

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/randalmurphal/behaviortree/pkg/behaviortree/observability"
	"github.com/randalmurphal/behaviortree/pkg/behaviortree/snapshot"
)

// Run evaluates the tree rooted at root and reports the root's result
// through done, exactly once.
//
// Run moves the root to Running and settles it in the terminal state
// matching the result, the same way a combinator handles its children.
// done may be called before Run returns (all-synchronous trees) or later,
// from whichever goroutine completes the last leaf.
//
// Preconditions:
//   - ctx and root must be non-nil; Run reports Panic(ErrNilContext) or
//     Panic(ErrNilRoot).
//   - root must not already be running; Run reports Panic(ErrTreeRunning).
//   - a Canceled root is not executed; Run reports Failure.
//   - re-running a finished tree does not reset its children. Call Reset
//     first to start from a clean slate.
//
// Example:
//
//	ctx := behaviortree.NewContext(context.Background())
//	behaviortree.Run(ctx, root, frame, func(r behaviortree.Result) {
//	    fmt.Println(r)
//	    fmt.Println(behaviortree.Render(root, false))
//	})
func Run[F any](ctx Context, root Node[F], frame F, done func(Result), opts ...RunOption) {
	if ctx == nil {
		done(Panic(ErrNilContext))
		return
	}
	if root == nil {
		done(Panic(ErrNilRoot))
		return
	}

	cfg := defaultRunConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	cfg.finalize(ctx.RunID())
	if cfg.treeName == "" {
		cfg.treeName = root.Label()
	}
	cfg.baseLogger = ctx.Logger()
	cfg.records = func() []snapshot.NodeRecord { return Records(root) }
	cfg.dump = func() string { return Render(root, false) }

	if root.State() == StateRunning {
		observability.LogRunRejected(cfg.logger, cfg.runID, ErrTreeRunning)
		done(Panic(ErrTreeRunning))
		return
	}

	ec := &executionContext{
		Context: ctx,
		logger:  ctx.Logger(),
		runID:   cfg.runID,
		run:     cfg,
	}
	if ec.logger == nil {
		ec.logger = slog.Default()
		cfg.baseLogger = ec.logger
	}

	observability.LogRunStart(cfg.logger, cfg.runID, cfg.treeName)
	spanCtx, runSpan := cfg.spans.StartRunSpan(ctx, cfg.treeName, cfg.runID)
	runCtx := ec.withParent(spanCtx)
	start := time.Now()

	defer unwrapLatePanic()
	executeNode(runCtx, root, rootID, frame, func(r Result) {
		duration := time.Since(start)
		durationMs := float64(duration.Milliseconds())
		cfg.metrics.RecordRun(spanCtx, r.Outcome.String(), duration)
		cfg.spans.EndSpanWithOutcome(runSpan, r.Outcome.String(), r.Err)
		if r.IsPanic() {
			observability.LogRunPanic(cfg.logger, cfg.runID, r.Err, durationMs)
		} else {
			observability.LogRunComplete(cfg.logger, cfg.runID, r.Outcome.String(), durationMs, int(cfg.nodesExecuted.Load()))
		}
		done(r)
	})
}

// RunSync evaluates the tree and blocks until the root reports.
//
// If ctx is done first, RunSync stops waiting and returns a
// *CancellationError. Combinators stop starting new children once ctx is
// done, but a leaf already in flight is not preempted and the tree settles
// in the background.
func RunSync[F any](ctx Context, root Node[F], frame F, opts ...RunOption) (Result, error) {
	if ctx == nil {
		return Result{}, ErrNilContext
	}

	results := make(chan Result, 1)
	Run(ctx, root, frame, func(r Result) { results <- r }, opts...)

	select {
	case r := <-results:
		return r, nil
	case <-ctx.Done():
		select {
		case r := <-results:
			return r, nil
		default:
		}
		return Result{}, &CancellationError{NodeID: rootID, Cause: ctx.Err()}
	}
}

// executeNode runs n as the node at nodeID. It owns every state change of
// n: Running on entry and the terminal state matching the reported result.
// It also guarantees done is called exactly once.
func executeNode[F any](ctx Context, n Node[F], nodeID string, frame F, done func(Result)) {
	ec := asExecutionContext(ctx)
	cfg := ec.run
	b := n.base()
	label := n.Label()

	started := false
	if n.State() != StateCanceled {
		from, ok := b.transition(StateRunning)
		if !ok && from != StateCanceled {
			done(Panic(&TransitionError{NodeID: nodeID, From: from, To: StateRunning}))
			return
		}
		// A Cancel landing between the read and the transition leaves the
		// node Canceled; that is an aborted branch, not a bad transition.
		started = ok
	}
	if !started {
		observability.LogBranchAborted(cfg.logger, nodeID, label, "node canceled before execution")
		done(Failure())
		return
	}
	b.cancelRequested.Store(false)

	nodeCtx := ec.withNode(nodeID, label)
	spanCtx, span := cfg.spans.StartNodeSpan(nodeCtx, nodeID, label)
	nodeCtx = nodeCtx.withParent(spanCtx)

	observability.LogNodeStart(cfg.logger, nodeID, label)
	start := time.Now()

	var fired atomic.Bool
	finish := func(r Result) {
		if !fired.CompareAndSwap(false, true) {
			observability.LogDuplicateCallback(cfg.logger, nodeID, label, r.Outcome.String())
			cfg.metrics.RecordDuplicateCallback(spanCtx, label)
			return
		}
		if r.IsPanic() && r.Err == nil {
			r = Panic(nil)
		}
		b.transition(r.terminalState())
		cfg.nodesExecuted.Add(1)

		duration := time.Since(start)
		cfg.metrics.RecordNodeExecution(spanCtx, label, r.Outcome.String(), duration)
		cfg.spans.EndSpanWithOutcome(span, r.Outcome.String(), r.Err)
		observability.LogNodeComplete(cfg.logger, nodeID, label, r.Outcome.String(), float64(duration.Milliseconds()))
		saveSnapshot(nodeCtx, cfg, nodeID)

		done(r)
	}

	defer func() {
		v := recover()
		if v == nil {
			return
		}
		// A panic raised after some node reported is not a result of any
		// node on this stack. Enclosing frames pass it through untouched,
		// otherwise a parent would report it while its next child runs.
		if late, ok := v.(*latePanic); ok {
			panic(late)
		}
		if fired.Load() {
			panic(&latePanic{value: v})
		}
		observability.LogRecoveredPanic(cfg.logger, nodeID, label, v)
		finish(Panic(&PanicError{
			NodeID: nodeID,
			Label:  label,
			Value:  v,
			Stack:  string(debug.Stack()),
		}))
	}()

	n.Execute(nodeCtx, frame, finish)
}

// latePanic carries a panic raised by a node after it had already reported.
type latePanic struct {
	value any
}

func (p *latePanic) Error() string {
	return fmt.Sprintf("panic after node reported: %v", p.value)
}

// unwrapLatePanic re-raises a late panic with its original value once it
// has left the outermost node.
func unwrapLatePanic() {
	v := recover()
	if v == nil {
		return
	}
	if late, ok := v.(*latePanic); ok {
		panic(late.value)
	}
	panic(v)
}

// saveSnapshot persists the state of the whole tree after nodeID completed.
// Failures are logged and never reach the tree.
func saveSnapshot(ctx Context, cfg *runConfig, nodeID string) {
	if cfg.snapshots == nil || cfg.records == nil {
		return
	}

	seq := int(cfg.sequence.Add(1))
	snap := snapshot.New(cfg.runID, nodeID, seq, cfg.records()).WithDump(cfg.dump())

	info, err := cfg.snapshots.Save(snap)
	if err != nil {
		observability.LogSnapshotError(cfg.logger, nodeID, "save", err)
		return
	}
	cfg.metrics.RecordSnapshot(ctx, info.Size)
	observability.LogSnapshot(cfg.logger, nodeID, int(info.Size))
}

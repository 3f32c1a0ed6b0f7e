/*
Package behaviortree provides an asynchronous behavior tree engine.

# Overview

A behavior tree is built from leaves that do work or check conditions and
combinators that decide which leaves run. Every node reports exactly one
Result: Success, Failure or Panic. Failure is ordinary control flow; Panic
marks a violated precondition and unwinds straight to the root.

  - Selector runs children until one succeeds (OR)
  - Sequence runs children until one fails (AND)
  - Condition evaluates a predicate over the frame
  - Action performs a side effect and may finish later, on any goroutine

Once a combinator resolves, it cancels the children it never started.
Each node tracks its State, and Render draws the tree with one icon per
state for debugging.

# Basic Usage

The frame is the caller's shared mutable value, handed to every node:

	type Frame struct {
	    Hour   int
	    Output func(string)
	}

	say := func(msg string) *behaviortree.Action[*Frame] {
	    return behaviortree.NewTask("Say: "+msg, func(_ behaviortree.Context, f *Frame) behaviortree.Result {
	        f.Output(msg)
	        return behaviortree.Success()
	    })
	}
	morning := func(f *Frame) bool { return f.Hour < 12 }

	root := behaviortree.NewSelector[*Frame]("Greetings",
	    behaviortree.NewSequence[*Frame]("",
	        behaviortree.NewCondition("Morning?", morning),
	        say("Good morning"),
	    ),
	    say("Hello"),
	)

	ctx := behaviortree.NewContext(context.Background())
	result, err := behaviortree.RunSync(ctx, root, &Frame{Hour: 9, Output: fmt.Println})

Run is the callback form; it never blocks on leaves:

	behaviortree.Run(ctx, root, frame, func(r behaviortree.Result) {
	    fmt.Println(r)
	})

# Cancellation

Cancel marks an idle node (and its idle descendants) as Canceled; it never
runs afterwards. A running node cannot be preempted: canceling a running
combinator stops it before its next child and it reports Failure. A done
context has the same effect at the next child boundary. RunSync stops
waiting when ctx is done and returns a *CancellationError.

# Re-running

Nodes keep their state after a run. Running a finished tree again re-enters
nodes from their terminal states, except Canceled nodes, which stay
canceled. Call Reset first to start from a clean slate.

# Diagnostics

	fmt.Println(behaviortree.Render(root, false))

	Greetings ✅
	  ➥Sequence ✅
	    ➥Morning? ✅
	    ➥Say: Good morning ✅
	  ➥Say: Hello 🔶

With runningPathOnly set, only running nodes show their children, which
leaves just the active path expanded.

# Observability

	result, err := behaviortree.RunSync(ctx, root, frame,
	    behaviortree.WithObservabilityLogger(logger),
	    behaviortree.WithMetrics(true),
	    behaviortree.WithTracing(true),
	    behaviortree.WithSnapshots(snapshot.NewMemoryStore()))

Logs carry run_id, node_id and label. OpenTelemetry spans nest as
behaviortree.run > behaviortree.node, following the tree.

# Error Handling

	if result.IsPanic() {
	    var pe *behaviortree.PanicError
	    if errors.As(result.Err, &pe) {
	        log.Printf("node %s panicked: %v\n%s", pe.NodeID, pe.Value, pe.Stack)
	    }
	}

A Go panic inside Execute is recovered and reported as Panic(*PanicError).
A node that calls done twice has the second call dropped and logged.

# Thread Safety

  - Node state reads and Cancel are safe from any goroutine
  - One run per tree instance at a time; Run rejects a running root
  - The frame has no locking; nodes run one at a time, so leaves need none

# Subpackages

  - config: YAML/JSON run configuration
  - observability: Logging, metrics, and tracing helpers
  - snapshot: Per-node state snapshots (memory, SQLite)
*/
package behaviortree

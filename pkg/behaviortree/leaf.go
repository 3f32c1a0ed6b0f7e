package behaviortree

// ConditionFunc is a predicate over the frame. It is evaluated every time
// the condition executes, never at construction, so it observes values
// written by earlier nodes in the same run.
type ConditionFunc[F any] func(frame F) bool

// ActionFunc performs a side effect and reports through done, possibly
// later and from another goroutine.
//
// Example:
//
//	func computeHour(ctx behaviortree.Context, f *Frame, done func(behaviortree.Result)) {
//	    time.AfterFunc(time.Second, func() {
//	        f.SetHour(time.Now().Hour())
//	        done(behaviortree.Success())
//	    })
//	}
type ActionFunc[F any] func(ctx Context, frame F, done func(Result))

// TaskFunc is the synchronous form of ActionFunc.
type TaskFunc[F any] func(ctx Context, frame F) Result

// Condition is a synchronous predicate leaf: Success when the predicate
// holds, Failure otherwise.
type Condition[F any] struct {
	Base[F]
	predicate ConditionFunc[F]
}

// NewCondition creates a condition leaf. An empty label defaults to "Condition".
func NewCondition[F any](label string, predicate ConditionFunc[F]) *Condition[F] {
	if label == "" {
		label = "Condition"
	}
	c := &Condition[F]{predicate: predicate}
	c.label = label
	return c
}

// Execute evaluates the predicate against frame.
func (c *Condition[F]) Execute(_ Context, frame F, done func(Result)) {
	if c.predicate(frame) {
		done(Success())
		return
	}
	done(Failure())
}

// Action is a side-effecting leaf that may complete asynchronously.
type Action[F any] struct {
	Base[F]
	fn ActionFunc[F]
}

// NewAction creates an action leaf. An empty label defaults to "Action".
func NewAction[F any](label string, fn ActionFunc[F]) *Action[F] {
	if label == "" {
		label = "Action"
	}
	a := &Action[F]{fn: fn}
	a.label = label
	return a
}

// NewTask creates an action leaf from a synchronous function.
func NewTask[F any](label string, fn TaskFunc[F]) *Action[F] {
	return NewAction(label, func(ctx Context, frame F, done func(Result)) {
		done(fn(ctx, frame))
	})
}

// Execute runs the action function.
func (a *Action[F]) Execute(ctx Context, frame F, done func(Result)) {
	a.fn(ctx, frame, done)
}

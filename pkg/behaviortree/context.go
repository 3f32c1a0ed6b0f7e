package behaviortree

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/randalmurphal/behaviortree/pkg/behaviortree/observability"
)

// Context provides execution context to nodes.
// It extends context.Context with run metadata and a logger.
//
// Context is immutable after creation. The engine derives a context for
// each node with its NodeID set and the logger enriched.
type Context interface {
	context.Context

	// Logger returns the configured logger, enriched with run and node context.
	// Never returns nil - defaults to slog.Default() if not configured.
	Logger() *slog.Logger

	// RunID returns the unique identifier for this execution run.
	// Auto-generated if not configured.
	RunID() string

	// NodeID returns the dotted path of the node being executed
	// ("root", "root.0", "root.0.2"). Empty before execution starts.
	NodeID() string
}

// executionContext is the internal implementation of Context.
type executionContext struct {
	context.Context

	logger *slog.Logger
	runID  string
	nodeID string

	// run is the per-run configuration; nil outside Run.
	run *runConfig
}

// Logger returns the configured logger.
func (c *executionContext) Logger() *slog.Logger {
	return c.logger
}

// RunID returns the run identifier.
func (c *executionContext) RunID() string {
	return c.runID
}

// NodeID returns the current node path.
func (c *executionContext) NodeID() string {
	return c.nodeID
}

// ContextOption configures a Context.
type ContextOption func(*executionContext)

// WithLogger sets the logger for the context.
// The logger will be enriched with run_id, node_id and label during execution.
func WithLogger(logger *slog.Logger) ContextOption {
	return func(c *executionContext) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithContextRunID sets the run identifier for the context.
// If not set, a UUID will be auto-generated.
func WithContextRunID(id string) ContextOption {
	return func(c *executionContext) {
		c.runID = id
	}
}

// NewContext creates an execution context from a standard context.
//
// Example:
//
//	ctx := behaviortree.NewContext(context.Background(),
//	    behaviortree.WithLogger(myLogger),
//	    behaviortree.WithContextRunID("run-123"))
func NewContext(ctx context.Context, opts ...ContextOption) Context {
	ec := &executionContext{
		Context: ctx,
		logger:  slog.Default(),
		runID:   uuid.New().String(),
	}

	for _, opt := range opts {
		opt(ec)
	}

	return ec
}

// asExecutionContext returns ctx as the internal type, adopting a foreign
// Context implementation with a default run configuration.
func asExecutionContext(ctx Context) *executionContext {
	if ec, ok := ctx.(*executionContext); ok && ec.run != nil {
		return ec
	}
	cfg := defaultRunConfig()
	cfg.finalize(ctx.RunID())
	logger := ctx.Logger()
	if logger == nil {
		logger = slog.Default()
	}
	return &executionContext{
		Context: ctx,
		logger:  logger,
		runID:   ctx.RunID(),
		nodeID:  ctx.NodeID(),
		run:     cfg,
	}
}

// withNode returns a derived context for the node at nodeID.
// The logger is enriched from the run-level logger, not the parent's,
// so fields do not accumulate down the tree.
func (c *executionContext) withNode(nodeID, label string) *executionContext {
	base := c.logger
	if c.run != nil && c.run.baseLogger != nil {
		base = c.run.baseLogger
	}
	return &executionContext{
		Context: c.Context,
		logger:  observability.EnrichLogger(base, c.runID, nodeID, label),
		runID:   c.runID,
		nodeID:  nodeID,
		run:     c.run,
	}
}

// withParent returns a copy of c wrapping parent, used to carry span context.
func (c *executionContext) withParent(parent context.Context) *executionContext {
	cp := *c
	cp.Context = parent
	return &cp
}

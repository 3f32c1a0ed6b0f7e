package behaviortree

import (
	"log/slog"
	"sync/atomic"

	"github.com/randalmurphal/behaviortree/pkg/behaviortree/observability"
	"github.com/randalmurphal/behaviortree/pkg/behaviortree/snapshot"
)

// rootID is the node path of a tree's root.
const rootID = "root"

// runConfig holds configuration for a single tree evaluation.
type runConfig struct {
	runID    string
	treeName string

	// logger receives engine events; nil disables them.
	logger *slog.Logger
	// baseLogger is the context logger that per-node loggers derive from.
	baseLogger *slog.Logger

	metricsEnabled bool
	tracingEnabled bool
	metrics        observability.MetricsRecorder
	spans          observability.SpanManager

	snapshots snapshot.Store
	sequence  atomic.Int64
	records   func() []snapshot.NodeRecord
	dump      func() string

	nodesExecuted atomic.Int64
}

// defaultRunConfig returns the default execution configuration.
func defaultRunConfig() *runConfig {
	return &runConfig{
		metrics: observability.NoopMetrics{},
		spans:   observability.NoopSpanManager{},
	}
}

// finalize resolves options that depend on each other.
func (c *runConfig) finalize(contextRunID string) {
	if c.runID == "" {
		c.runID = contextRunID
	}
	if c.metricsEnabled {
		c.metrics = observability.NewMetricsRecorder()
	}
	if c.tracingEnabled {
		c.spans = observability.NewSpanManager()
	}
}

// RunOption configures execution behavior.
type RunOption func(*runConfig)

// WithObservabilityLogger enables structured engine logs: run start and
// completion, node start and completion, cancellations, dropped duplicate
// callbacks, recovered panics and snapshot activity.
//
// Example:
//
//	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
//	behaviortree.Run(ctx, root, frame, done,
//	    behaviortree.WithObservabilityLogger(logger))
func WithObservabilityLogger(logger *slog.Logger) RunOption {
	return func(c *runConfig) {
		c.logger = logger
	}
}

// WithMetrics enables OpenTelemetry metrics through the global meter provider.
func WithMetrics(enabled bool) RunOption {
	return func(c *runConfig) {
		c.metricsEnabled = enabled
	}
}

// WithTracing enables OpenTelemetry spans through the global tracer provider:
// one behaviortree.run span per run with a behaviortree.node span per node.
func WithTracing(enabled bool) RunOption {
	return func(c *runConfig) {
		c.tracingEnabled = enabled
	}
}

// WithRunID overrides the run identifier taken from the Context.
func WithRunID(id string) RunOption {
	return func(c *runConfig) {
		c.runID = id
	}
}

// WithTreeName names the tree in logs and spans. Defaults to the root's label.
func WithTreeName(name string) RunOption {
	return func(c *runConfig) {
		c.treeName = name
	}
}

// WithSnapshots records a snapshot of every node's state into store each
// time a node completes. Snapshot failures are logged and never affect the
// tree's result.
func WithSnapshots(store snapshot.Store) RunOption {
	return func(c *runConfig) {
		c.snapshots = store
	}
}

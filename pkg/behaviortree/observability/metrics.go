package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records behavior tree metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordNodeExecution records a completed node with its outcome and duration.
	RecordNodeExecution(ctx context.Context, label, outcome string, duration time.Duration)

	// RecordCancellation records a node canceled before it ran.
	RecordCancellation(ctx context.Context, label string)

	// RecordDuplicateCallback records a dropped second completion callback.
	RecordDuplicateCallback(ctx context.Context, label string)

	// RecordRun records a finished tree run.
	RecordRun(ctx context.Context, outcome string, duration time.Duration)

	// RecordSnapshot records a saved snapshot.
	RecordSnapshot(ctx context.Context, sizeBytes int64)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	nodeExecutions     metric.Int64Counter
	nodeLatency        metric.Float64Histogram
	nodePanics         metric.Int64Counter
	nodeCancellations  metric.Int64Counter
	duplicateCallbacks metric.Int64Counter
	treeRuns           metric.Int64Counter
	treeLatency        metric.Float64Histogram
	snapshotSize       metric.Int64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("behaviortree")

	nodeExecutions, err := meter.Int64Counter("behaviortree.node.executions",
		metric.WithDescription("Number of completed node executions"),
	)
	if err != nil {
		return nil, err
	}

	nodeLatency, err := meter.Float64Histogram("behaviortree.node.latency_ms",
		metric.WithDescription("Node execution latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	nodePanics, err := meter.Int64Counter("behaviortree.node.panics",
		metric.WithDescription("Number of node executions that reported a panic"),
	)
	if err != nil {
		return nil, err
	}

	nodeCancellations, err := meter.Int64Counter("behaviortree.node.cancellations",
		metric.WithDescription("Number of nodes canceled before running"),
	)
	if err != nil {
		return nil, err
	}

	duplicateCallbacks, err := meter.Int64Counter("behaviortree.node.duplicate_callbacks",
		metric.WithDescription("Number of dropped duplicate completion callbacks"),
	)
	if err != nil {
		return nil, err
	}

	treeRuns, err := meter.Int64Counter("behaviortree.tree.runs",
		metric.WithDescription("Number of tree runs"),
	)
	if err != nil {
		return nil, err
	}

	treeLatency, err := meter.Float64Histogram("behaviortree.tree.latency_ms",
		metric.WithDescription("Tree run latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	snapshotSize, err := meter.Int64Histogram("behaviortree.snapshot.size_bytes",
		metric.WithDescription("Snapshot size in bytes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		nodeExecutions:     nodeExecutions,
		nodeLatency:        nodeLatency,
		nodePanics:         nodePanics,
		nodeCancellations:  nodeCancellations,
		duplicateCallbacks: duplicateCallbacks,
		treeRuns:           treeRuns,
		treeLatency:        treeLatency,
		snapshotSize:       snapshotSize,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before the first call:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordNodeExecution records a node execution.
func (m *otelMetrics) RecordNodeExecution(ctx context.Context, label, outcome string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("label", label),
		attribute.String("outcome", outcome),
	)

	m.nodeExecutions.Add(ctx, 1, attrs)
	m.nodeLatency.Record(ctx, float64(duration.Milliseconds()), attrs)

	if outcome == "panic" {
		m.nodePanics.Add(ctx, 1, metric.WithAttributes(attribute.String("label", label)))
	}
}

// RecordCancellation records a canceled node.
func (m *otelMetrics) RecordCancellation(ctx context.Context, label string) {
	m.nodeCancellations.Add(ctx, 1, metric.WithAttributes(attribute.String("label", label)))
}

// RecordDuplicateCallback records a dropped callback.
func (m *otelMetrics) RecordDuplicateCallback(ctx context.Context, label string) {
	m.duplicateCallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("label", label)))
}

// RecordRun records a tree run.
func (m *otelMetrics) RecordRun(ctx context.Context, outcome string, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.treeRuns.Add(ctx, 1, attrs)
	m.treeLatency.Record(ctx, float64(duration.Milliseconds()), attrs)
}

// RecordSnapshot records a snapshot save.
func (m *otelMetrics) RecordSnapshot(ctx context.Context, sizeBytes int64) {
	m.snapshotSize.Record(ctx, sizeBytes)
}

package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer is the behavior tree tracer instance.
// Uses the global OTel tracer provider.
var tracer = otel.Tracer("behaviortree")

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartRunSpan starts a span for an entire tree run.
	StartRunSpan(ctx context.Context, treeName, runID string) (context.Context, trace.Span)

	// StartNodeSpan starts a span for one node execution.
	// Spans nest the way nodes do, so the active path reads as a span chain.
	StartNodeSpan(ctx context.Context, nodeID, label string) (context.Context, trace.Span)

	// EndSpanWithOutcome records the outcome and completes the span.
	// A non-nil err (a panic payload) marks the span as failed.
	EndSpanWithOutcome(span trace.Span, outcome string, err error)
}

// otelSpanManager implements SpanManager using OpenTelemetry.
type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
//
// The span manager uses the global OTel tracer provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetTracerProvider(yourProvider)
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

func (m *otelSpanManager) StartRunSpan(ctx context.Context, treeName, runID string) (context.Context, trace.Span) {
	return StartRunSpan(ctx, treeName, runID)
}

func (m *otelSpanManager) StartNodeSpan(ctx context.Context, nodeID, label string) (context.Context, trace.Span) {
	return StartNodeSpan(ctx, nodeID, label)
}

func (m *otelSpanManager) EndSpanWithOutcome(span trace.Span, outcome string, err error) {
	EndSpanWithOutcome(span, outcome, err)
}

// StartRunSpan starts a behaviortree.run span using the global tracer.
func StartRunSpan(ctx context.Context, treeName, runID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "behaviortree.run",
		trace.WithAttributes(
			attribute.String("tree.name", treeName),
			attribute.String("run.id", runID),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartNodeSpan starts a behaviortree.node span using the global tracer.
func StartNodeSpan(ctx context.Context, nodeID, label string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "behaviortree.node",
		trace.WithAttributes(
			attribute.String("node.id", nodeID),
			attribute.String("node.label", label),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithOutcome completes a span, recording the outcome and any error.
func EndSpanWithOutcome(span trace.Span, outcome string, err error) {
	if span == nil {
		return
	}
	span.SetAttributes(attribute.String("outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

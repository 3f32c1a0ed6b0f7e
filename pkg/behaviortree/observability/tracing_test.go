package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// setupTracingTest creates a test tracer provider with an in-memory span recorder.
func setupTracingTest(t *testing.T) (*tracetest.InMemoryExporter, func()) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	originalProvider := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	tracer = otel.Tracer("behaviortree")

	cleanup := func() {
		otel.SetTracerProvider(originalProvider)
		if err := tp.Shutdown(context.Background()); err != nil {
			t.Logf("Error shutting down tracer provider: %v", err)
		}
	}

	return exporter, cleanup
}

func attrValue(attrs []attribute.KeyValue, key string) string {
	for _, a := range attrs {
		if string(a.Key) == key {
			return a.Value.Emit()
		}
	}
	return ""
}

func TestStartRunSpan(t *testing.T) {
	exporter, cleanup := setupTracingTest(t)
	defer cleanup()

	_, span := StartRunSpan(context.Background(), "greeter", "run-123")
	require.NotNil(t, span)
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "behaviortree.run", spans[0].Name)
	assert.Equal(t, "greeter", attrValue(spans[0].Attributes, "tree.name"))
	assert.Equal(t, "run-123", attrValue(spans[0].Attributes, "run.id"))
}

func TestStartNodeSpan_NestsUnderParent(t *testing.T) {
	exporter, cleanup := setupTracingTest(t)
	defer cleanup()

	ctx, runSpan := StartRunSpan(context.Background(), "greeter", "run-1")
	_, nodeSpan := StartNodeSpan(ctx, "root.1", "CheckHour")
	nodeSpan.End()
	runSpan.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)

	node := spans[0]
	assert.Equal(t, "behaviortree.node", node.Name)
	assert.Equal(t, "root.1", attrValue(node.Attributes, "node.id"))
	assert.Equal(t, "CheckHour", attrValue(node.Attributes, "node.label"))
	assert.Equal(t, spans[1].SpanContext.SpanID(), node.Parent.SpanID())
}

func TestEndSpanWithOutcome(t *testing.T) {
	t.Run("success sets ok status", func(t *testing.T) {
		exporter, cleanup := setupTracingTest(t)
		defer cleanup()

		_, span := StartNodeSpan(context.Background(), "root", "Sequence")
		EndSpanWithOutcome(span, "success", nil)

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		assert.Equal(t, codes.Ok, spans[0].Status.Code)
		assert.Equal(t, "success", attrValue(spans[0].Attributes, "outcome"))
	})

	t.Run("panic payload sets error status", func(t *testing.T) {
		exporter, cleanup := setupTracingTest(t)
		defer cleanup()

		_, span := StartNodeSpan(context.Background(), "root", "CheckHour")
		EndSpanWithOutcome(span, "panic", errors.New("hour out of range"))

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		assert.Equal(t, codes.Error, spans[0].Status.Code)
		assert.Equal(t, "hour out of range", spans[0].Status.Description)
		assert.NotEmpty(t, spans[0].Events, "error recorded as span event")
	})

	t.Run("nil span does not panic", func(t *testing.T) {
		assert.NotPanics(t, func() { EndSpanWithOutcome(nil, "success", nil) })
	})
}

func TestSpanManager_Delegates(t *testing.T) {
	exporter, cleanup := setupTracingTest(t)
	defer cleanup()

	sm := NewSpanManager()
	ctx, run := sm.StartRunSpan(context.Background(), "greeter", "run-1")
	_, node := sm.StartNodeSpan(ctx, "root", "Sequence")
	sm.EndSpanWithOutcome(node, "failure", nil)
	sm.EndSpanWithOutcome(run, "failure", nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "behaviortree.node", spans[0].Name)
	assert.Equal(t, "behaviortree.run", spans[1].Name)
}

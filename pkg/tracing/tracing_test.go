package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestStartSpan_WithoutTracer(t *testing.T) {
	SetTracer(nil)
	ctx, span := StartSpan(context.Background(), "test")
	defer span.End()

	assert.NotNil(t, ctx)
	assert.Empty(t, GetTraceID(ctx))
}

func TestStartSpan_WithTracer(t *testing.T) {
	provider := sdktrace.NewTracerProvider()
	defer func() { _ = provider.Shutdown(context.Background()) }()
	SetTracer(provider.Tracer("test"))
	defer SetTracer(nil)

	ctx, span := StartSpan(context.Background(), "test")
	defer span.End()

	assert.Len(t, GetTraceID(ctx), 32)
}

func TestNewOTLPExporter_RejectsUnknownProtocol(t *testing.T) {
	_, err := NewOTLPExporter(context.Background(), OTLPConfig{Protocol: "udp"})
	assert.ErrorContains(t, err, "unsupported OTLP protocol")
}

package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestInit_EmptyEndpoint_ReturnsNoOpProvider(t *testing.T) {
	shutdown, err := Init(context.Background(), "test-svc", "", true, 0.1)
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	assert.NoError(t, shutdown(context.Background()))
	assert.NoError(t, shutdown(context.Background()))
}

func TestTracer_ReturnsNonNil(t *testing.T) {
	shutdown, err := Init(context.Background(), "test-svc", "", true, 1)
	require.NoError(t, err)
	defer shutdown(context.Background())

	assert.NotNil(t, Tracer("test-tracer"))
}

func TestSamplerFor(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), samplerFor(0).Description())
	assert.Equal(t, sdktrace.AlwaysSample().Description(), samplerFor(1).Description())
	assert.Equal(t, sdktrace.TraceIDRatioBased(0.25).Description(), samplerFor(0.25).Description())
}

func TestStartEventSpan_EndWithError(t *testing.T) {
	shutdown, err := Init(context.Background(), "test-svc", "", true, 1)
	require.NoError(t, err)
	defer shutdown(context.Background())

	ctx, span := StartEventSpan(context.Background(), "SupportReceived", 84532, "0xabc", 3)
	require.NotNil(t, ctx)
	End(span, errors.New("boom"))
	End(span, nil)
}

package tracing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetTracer(t *testing.T) {
	t.Setenv("JAEGER_DISABLED", "true")

	tracer, err := GetTracer("bazaar-test")
	require.NoError(t, err)
	require.NotNil(t, tracer)

	same, err := GetTracer("bazaar-test")
	require.NoError(t, err)
	require.Equal(t, tracer, same)

	require.NoError(t, CloseAll())
	require.Empty(t, catalog.tracerByService)
}

func TestGetTracer_BadEnv(t *testing.T) {
	t.Setenv("JAEGER_SAMPLER_PARAM", "abc")

	_, err := GetTracer("bazaar-bad")
	require.Error(t, err)
	require.Contains(t, err.Error(), "error parsing jaeger configuration from environment")
}

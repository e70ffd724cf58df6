package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitTracingDisabled(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{ServiceName: "mentorbridge-test", Enabled: false})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))

	span, ctx := StartServiceSpan(context.Background(), "MatchService", "RequestMatch")
	assert.NotNil(t, ctx)
	span.SetError(errors.New("boom"))
	span.End()
}

func TestInitTracingNoneExporter(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{
		ServiceName:  "mentorbridge-test",
		Enabled:      true,
		Exporter:     "none",
		SamplerRatio: 1,
	})
	require.NoError(t, err)
	defer func() { _ = shutdown(context.Background()) }()

	span, _ := NewSpan(context.Background(), "unit")
	assert.NotEmpty(t, span.TraceID())
	span.End()
}

func TestTrackQueryObserves(t *testing.T) {
	TrackQuery("observability_test", "users")()
	assert.GreaterOrEqual(t, testutil.CollectAndCount(DatabaseQueryLatency), 1)
}

func TestOutcome(t *testing.T) {
	code := func(error) string { return "DUPLICATE_MATCH" }
	assert.Equal(t, "ok", Outcome(nil, code))
	assert.Equal(t, "DUPLICATE_MATCH", Outcome(errors.New("x"), code))
}

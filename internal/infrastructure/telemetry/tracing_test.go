package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/storehub/backend/internal/infrastructure/config"
)

func installRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return rec
}

func TestStartSpan(t *testing.T) {
	rec := installRecorder(t)

	ctx, span := StartSpan(context.Background(), "sale", "create", SpanAttrSaleNumber, 42, 7, "skipped")
	assert.NotEmpty(t, TraceID(ctx))
	AddEvent(span, "stock_decremented", SpanAttrProductID, "p-1")
	RecordError(span, errors.New("boom"))
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	s := ended[0]
	assert.Equal(t, "sale.create", s.Name())
	assert.Equal(t, codes.Error, s.Status().Code)
	require.Len(t, s.Attributes(), 1)
	assert.Equal(t, int64(42), s.Attributes()[0].Value.AsInt64())
	require.Len(t, s.Events(), 2)
	assert.Equal(t, "stock_decremented", s.Events()[0].Name)
}

func TestTraceID_NoSpan(t *testing.T) {
	assert.Empty(t, TraceID(context.Background()))
}

func TestWithProfilingLabels_RunsCallback(t *testing.T) {
	called := 0
	WithProfilingLabels(context.Background(), map[string]string{"route": "/x", "organization_id": ""}, func(context.Context) { called++ })
	WithProfilingLabels(context.Background(), nil, func(context.Context) { called++ })
	assert.Equal(t, 2, called)
}

func TestSetup_Disabled(t *testing.T) {
	p, err := Setup(context.Background(), config.TelemetryConfig{ServiceName: "storehub"}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, p.TracingEnabled())
	assert.False(t, p.MetricsEnabled())
	assert.False(t, p.LogsEnabled())
	assert.NotNil(t, p.Meter("noop"))

	p.EnableSpanProfiles()
	assert.False(t, p.SpanProfilesEnabled())
	assert.False(t, p.ZapCore(zapcore.InfoLevel).Enabled(zapcore.ErrorLevel))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestSamplerFor(t *testing.T) {
	assert.Contains(t, samplerFor(1).Description(), "AlwaysOnSampler")
	assert.Contains(t, samplerFor(0).Description(), "AlwaysOffSampler")
	assert.Contains(t, samplerFor(0.25).Description(), "TraceIDRatioBased")
}

func TestStartProfiler(t *testing.T) {
	p, err := StartProfiler(config.TelemetryConfig{}, nil)
	require.NoError(t, err)
	assert.False(t, p.Running())
	assert.NoError(t, p.Stop())
	assert.NoError(t, p.Stop())

	_, err = StartProfiler(config.TelemetryConfig{ProfilingEnabled: true}, nil)
	assert.ErrorContains(t, err, "pyroscope_url")
}

package infrastructure

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"vizpipe/internal/config"
	"vizpipe/pkg/contracts"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInitializeOTel_PrometheusEndpoint(t *testing.T) {
	providers, err := InitializeOTel(DefaultOTelConfig(), quietLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	require.NotNil(t, providers.PrometheusHTTP)
	require.NotNil(t, providers.MeterProvider)

	metrics, err := NewPipelineMetrics(providers.Meter)
	require.NoError(t, err)
	metrics.RecordOperation(context.Background(), "series", 15*time.Millisecond, 42, nil)

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "pipeline_operations_total")
	assert.Contains(t, rec.Body.String(), "pipeline_records_processed_total")
}

func TestInitializeOTel_RepeatedInit(t *testing.T) {
	for i := 0; i < 2; i++ {
		providers, err := InitializeOTel(nil, quietLogger())
		require.NoError(t, err)
		require.NoError(t, providers.Shutdown(context.Background()))
	}
}

func TestInitializeOTel_Disabled(t *testing.T) {
	providers, err := InitializeOTel(&OTelConfig{ServiceName: "test"}, quietLogger())
	require.NoError(t, err)

	assert.Nil(t, providers.MeterProvider)
	assert.Nil(t, providers.PrometheusHTTP)
	assert.NotNil(t, providers.Meter, "disabled metrics fall back to a no-op meter")
	assert.NotNil(t, providers.Tracer)
}

func TestInitializeOTel_UnsupportedExporter(t *testing.T) {
	_, err := InitializeOTel(&OTelConfig{EnableMetrics: true, MetricExporter: "statsd"}, quietLogger())
	assert.Error(t, err)

	_, err = InitializeOTel(&OTelConfig{EnableTracing: true, TraceExporter: "zipkin"}, quietLogger())
	assert.Error(t, err)
}

func TestOTelConfigFrom(t *testing.T) {
	tel := config.Default().Telemetry
	tel.SampleRatio = 0.5

	cfg := OTelConfigFrom(tel)
	assert.Equal(t, "vizpipe", cfg.ServiceName)
	assert.Equal(t, 0.5, cfg.SampleRatio)
	assert.Equal(t, contracts.Version, cfg.ServiceVersion)
}

func TestPipelineMetrics_NilSafe(t *testing.T) {
	var m *PipelineMetrics
	ctx := context.Background()

	assert.NotPanics(t, func() {
		m.RecordOperation(ctx, "join", time.Second, 1, errors.New("boom"))
		m.RecordJoin(ctx, 1, 2)
		m.RecordDatasetLoad(ctx, "ratings", time.Second)
		m.RecordHTTPRequest(ctx, "GET", "/api/series", 200, time.Millisecond)
		m.SessionOpened(ctx)
		m.SessionClosed(ctx)
		m.RecordMessage(ctx, "hover")
	})
}

func TestPipelineMetrics_NoopMeter(t *testing.T) {
	m, err := NewPipelineMetrics(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		m.RecordOperation(context.Background(), "choropleth", time.Millisecond, 50, errors.New("failed"))
		m.RecordJoin(context.Background(), 3, 1)
	})
}

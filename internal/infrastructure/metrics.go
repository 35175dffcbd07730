package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// PipelineMetrics holds the application metrics
type PipelineMetrics struct {
	// HTTP metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	// Pipeline metrics
	OperationsTotal     metric.Int64Counter
	OperationDuration   metric.Float64Histogram
	OperationErrors     metric.Int64Counter
	RecordsProcessed    metric.Int64Counter
	JoinRowsSkipped     metric.Int64Counter
	JoinTargetsMissing  metric.Int64Counter
	DatasetLoadDuration metric.Float64Histogram

	// WebSocket metrics
	WebSocketSessions metric.Int64UpDownCounter
	WebSocketMessages metric.Int64Counter
}

// NewPipelineMetrics creates the instruments on meter
func NewPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	m := &PipelineMetrics{}
	var err error

	if m.HTTPRequestsTotal, err = meter.Int64Counter("http_requests_total",
		metric.WithDescription("Total number of HTTP requests")); err != nil {
		return nil, err
	}
	if m.HTTPRequestDuration, err = meter.Float64Histogram("http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if m.HTTPActiveRequests, err = meter.Int64UpDownCounter("http_active_requests",
		metric.WithDescription("Number of active HTTP requests")); err != nil {
		return nil, err
	}
	if m.OperationsTotal, err = meter.Int64Counter("pipeline_operations_total",
		metric.WithDescription("Total number of pipeline operations")); err != nil {
		return nil, err
	}
	if m.OperationDuration, err = meter.Float64Histogram("pipeline_operation_duration_seconds",
		metric.WithDescription("Pipeline operation duration in seconds"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if m.OperationErrors, err = meter.Int64Counter("pipeline_operation_errors_total",
		metric.WithDescription("Total number of failed pipeline operations")); err != nil {
		return nil, err
	}
	if m.RecordsProcessed, err = meter.Int64Counter("pipeline_records_processed_total",
		metric.WithDescription("Total number of records read by pipeline operations")); err != nil {
		return nil, err
	}
	if m.JoinRowsSkipped, err = meter.Int64Counter("join_rows_skipped_total",
		metric.WithDescription("Join source rows skipped for an unparsable key or value")); err != nil {
		return nil, err
	}
	if m.JoinTargetsMissing, err = meter.Int64Counter("join_targets_unmatched_total",
		metric.WithDescription("Join targets left without a value")); err != nil {
		return nil, err
	}
	if m.DatasetLoadDuration, err = meter.Float64Histogram("dataset_load_duration_seconds",
		metric.WithDescription("Dataset load duration in seconds"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if m.WebSocketSessions, err = meter.Int64UpDownCounter("websocket_sessions_active",
		metric.WithDescription("Number of open drill-down sessions")); err != nil {
		return nil, err
	}
	if m.WebSocketMessages, err = meter.Int64Counter("websocket_messages_total",
		metric.WithDescription("Total number of drill-down messages handled")); err != nil {
		return nil, err
	}

	return m, nil
}

// RecordOperation records one pipeline operation
func (m *PipelineMetrics) RecordOperation(ctx context.Context, operation string, duration time.Duration, records int, err error) {
	if m == nil {
		return
	}

	attrs := []attribute.KeyValue{attribute.String("operation", operation)}
	status := attribute.String("status", "success")
	if err != nil {
		status = attribute.String("status", "failure")
	}

	m.OperationsTotal.Add(ctx, 1, metric.WithAttributes(append(attrs, status)...))
	m.OperationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(append(attrs, status)...))
	m.RecordsProcessed.Add(ctx, int64(records), metric.WithAttributes(attrs...))
	if err != nil {
		m.OperationErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.AddEvent("pipeline.metrics_recorded",
			trace.WithAttributes(
				attribute.String("operation", operation),
				attribute.Bool("success", err == nil),
				attribute.Float64("duration_seconds", duration.Seconds()),
			),
		)
	}
}

// RecordJoin records the skipped rows and unmatched targets of a join
func (m *PipelineMetrics) RecordJoin(ctx context.Context, skipped, unmatched int) {
	if m == nil {
		return
	}
	m.JoinRowsSkipped.Add(ctx, int64(skipped))
	m.JoinTargetsMissing.Add(ctx, int64(unmatched))
}

// RecordDatasetLoad records how long loading a dataset took
func (m *PipelineMetrics) RecordDatasetLoad(ctx context.Context, dataset string, duration time.Duration) {
	if m == nil {
		return
	}
	m.DatasetLoadDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(attribute.String("dataset", dataset)))
}

// RecordHTTPRequest records one HTTP request
func (m *PipelineMetrics) RecordHTTPRequest(ctx context.Context, method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status", status),
	)
	m.HTTPRequestsTotal.Add(ctx, 1, attrs)
	m.HTTPRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// SessionOpened and SessionClosed track open WebSocket sessions
func (m *PipelineMetrics) SessionOpened(ctx context.Context) {
	if m != nil {
		m.WebSocketSessions.Add(ctx, 1)
	}
}

func (m *PipelineMetrics) SessionClosed(ctx context.Context) {
	if m != nil {
		m.WebSocketSessions.Add(ctx, -1)
	}
}

// RecordMessage counts one WebSocket message by type
func (m *PipelineMetrics) RecordMessage(ctx context.Context, msgType string) {
	if m != nil {
		m.WebSocketMessages.Add(ctx, 1, metric.WithAttributes(attribute.String("type", msgType)))
	}
}

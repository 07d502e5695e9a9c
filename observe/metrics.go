package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records client-side metrics for backend calls.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Context: record methods run on the call path and must return promptly.
// - Errors: recording is best-effort and must not panic.
type Metrics interface {
	// RecordCall records a completed backend call with duration and error status.
	RecordCall(ctx context.Context, meta CallMeta, duration time.Duration, err error)

	// RecordRejection records a call that was rejected before reaching the
	// backend, tagged with the stage that rejected it.
	RecordRejection(ctx context.Context, meta CallMeta, stage string)
}

// callMetrics feeds four instruments: a call counter, an error counter,
// a rejection counter, and a duration histogram. Calls and rejections
// are disjoint; a rejected call never reaches the call counter.
type callMetrics struct {
	calls      metric.Int64Counter
	errors     metric.Int64Counter
	rejections metric.Int64Counter
	durationMs metric.Float64Histogram
}

func newMetrics(meter metric.Meter) (*callMetrics, error) {
	var (
		m   callMetrics
		err error
	)
	if m.calls, err = meter.Int64Counter("engram.client.calls",
		metric.WithDescription("Total number of backend calls"),
		metric.WithUnit("{call}")); err != nil {
		return nil, err
	}
	if m.errors, err = meter.Int64Counter("engram.client.errors",
		metric.WithDescription("Total number of backend call errors"),
		metric.WithUnit("{error}")); err != nil {
		return nil, err
	}
	if m.rejections, err = meter.Int64Counter("engram.client.rejections",
		metric.WithDescription("Total number of calls rejected before reaching the backend"),
		metric.WithUnit("{call}")); err != nil {
		return nil, err
	}
	if m.durationMs, err = meter.Float64Histogram("engram.client.duration_ms",
		metric.WithDescription("Backend call duration in milliseconds"),
		metric.WithUnit("ms")); err != nil {
		return nil, err
	}
	return &m, nil
}

// callAttributes builds the common attribute set for a call.
func callAttributes(meta CallMeta) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("engram.call", meta.CallName()),
		attribute.String("engram.operation", meta.Operation),
	}
	if meta.Service != "" {
		attrs = append(attrs, attribute.String("engram.service", meta.Service))
	}
	return attrs
}

func (m *callMetrics) RecordCall(ctx context.Context, meta CallMeta, duration time.Duration, err error) {
	opt := metric.WithAttributes(callAttributes(meta)...)

	m.calls.Add(ctx, 1, opt)
	if err != nil {
		m.errors.Add(ctx, 1, opt)
	}
	// Sub-millisecond calls keep their fraction instead of rounding to 0.
	m.durationMs.Record(ctx, duration.Seconds()*1000, opt)
}

// RecordRejection counts a call turned away by the resilience layer.
// The stage attribute names the gate that rejected it.
func (m *callMetrics) RecordRejection(ctx context.Context, meta CallMeta, stage string) {
	attrs := append(callAttributes(meta), attribute.String("engram.reject_stage", stage))
	m.rejections.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// noopMetrics is a metrics implementation that does nothing.
type noopMetrics struct{}

func (m *noopMetrics) RecordCall(ctx context.Context, meta CallMeta, duration time.Duration, err error) {
}

func (m *noopMetrics) RecordRejection(ctx context.Context, meta CallMeta, stage string) {}

package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// CallMeta identifies one client call to the Engram backend for
// telemetry purposes.
type CallMeta struct {
	Service   string // Backend service group, e.g. "memories" (may be empty)
	Operation string // Operation name, e.g. "store" (required)
	TenantID  string // Tenant the call runs under (optional)
	RequestID string // Client-generated request ID (optional)
}

// SpanName returns the deterministic span name for this call.
// Format: engram.<service>.<operation> or engram.<operation>
func (m CallMeta) SpanName() string {
	return "engram." + m.CallName()
}

// CallName returns the fully qualified operation identifier,
// constructed from service and operation.
func (m CallMeta) CallName() string {
	if m.Service != "" {
		return m.Service + "." + m.Operation
	}
	return m.Operation
}

// Validate checks that the metadata names an operation.
func (m CallMeta) Validate() error {
	if m.Operation == "" {
		return ErrMissingOperation
	}
	return nil
}

// attributes returns the span attributes for this call. Empty optional
// fields are omitted rather than recorded as "".
func (m CallMeta) attributes() []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 6)
	attrs = append(attrs,
		attribute.String("engram.call", m.CallName()),
		attribute.String("engram.operation", m.Operation),
		attribute.Bool("engram.error", false),
	)
	if m.Service != "" {
		attrs = append(attrs, attribute.String("engram.service", m.Service))
	}
	if m.TenantID != "" {
		attrs = append(attrs, attribute.String("engram.tenant_id", m.TenantID))
	}
	if m.RequestID != "" {
		attrs = append(attrs, attribute.String("engram.request_id", m.RequestID))
	}
	return attrs
}

// Tracer wraps OpenTelemetry tracing with call-specific span management.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Context: StartSpan derives the returned context from its argument.
// - Errors: EndSpan records the error on the span and never panics.
type Tracer interface {
	// StartSpan starts a new span for a backend call.
	StartSpan(ctx context.Context, meta CallMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

// callTracer emits client-kind spans named after the call.
type callTracer struct {
	tracer trace.Tracer
}

func newTracer(t trace.Tracer) Tracer {
	return &callTracer{tracer: t}
}

func (t *callTracer) StartSpan(ctx context.Context, meta CallMeta) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(meta.attributes()...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// EndSpan finishes the span. A non-nil err flips engram.error to true
// and records the error on the span alongside the error status.
func (t *callTracer) EndSpan(span trace.Span, err error) {
	if err == nil {
		span.SetStatus(codes.Ok, "")
		span.End()
		return
	}
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(attribute.Bool("engram.error", true))
	span.RecordError(err)
	span.End()
}

// noopTracer satisfies Tracer with spans that record nothing.
type noopTracer struct {
	noop trace.Tracer
}

func newNoopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta CallMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, err error) {
	span.End()
}

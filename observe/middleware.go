package observe

import (
	"context"
	"errors"
	"time"

	"github.com/engramhq/engram-go/resilience"
)

// CallFunc is the unit of work Middleware observes: one backend call.
type CallFunc func(ctx context.Context) error

// RejectStage classifies an error from the resilience layer by the gate
// that rejected the call. Returns "" when err is not a rejection.
func RejectStage(err error) string {
	switch {
	case errors.Is(err, resilience.ErrRateLimitExceeded):
		return "rate_limit"
	case errors.Is(err, resilience.ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, resilience.ErrQueueFull):
		return "queue_full"
	case errors.Is(err, resilience.ErrTimeout):
		return "queue_timeout"
	case errors.Is(err, resilience.ErrDraining):
		return "draining"
	}
	return ""
}

// Middleware wraps backend calls with observability (tracing, metrics, logging).
//
// Contract:
//   - Concurrency: Observe is safe for concurrent use.
//   - Context: the span context flows into the observed function.
//   - Errors: the observed function's error is recorded, then returned unchanged.
//   - Rejections from the resilience layer are counted separately from call errors.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware assembles a Middleware from its three signal sinks.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// Observe runs fn with tracing, metrics, and logging around it.
func (m *Middleware) Observe(ctx context.Context, meta CallMeta, fn CallFunc) error {
	ctx, span := m.tracer.StartSpan(ctx, meta)

	start := time.Now()
	err := fn(ctx)
	duration := time.Since(start)

	m.tracer.EndSpan(span, err)

	callLogger := m.logger.WithCall(meta)

	// Rejections never reached the backend; count them by stage instead
	// of folding them into call durations.
	if stage := RejectStage(err); stage != "" {
		m.metrics.RecordRejection(ctx, meta, stage)
		callLogger.Warn(ctx, "call rejected", Field{Key: "stage", Value: stage})
		return err
	}

	m.metrics.RecordCall(ctx, meta, duration, err)

	fields := []Field{
		{Key: "duration_ms", Value: float64(duration.Milliseconds())},
	}
	if err != nil {
		fields = append(fields, Field{Key: "error", Value: err.Error()})
		callLogger.Error(ctx, "call failed", fields...)
	} else {
		callLogger.Info(ctx, "call completed", fields...)
	}

	return err
}

// MiddlewareFromObserver builds a Middleware on an Observer's tracer,
// meter, and logger.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	tracer := newTracer(obs.Tracer())

	metrics, err := newMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewMiddleware(tracer, metrics, obs.Logger()), nil
}

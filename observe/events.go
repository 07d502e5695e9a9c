package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/engramhq/engram-go/resilience"
)

// CircuitEvents forwards circuit breaker transitions to logs and metrics.
// Register it through resilience.CircuitBreakerConfig.Observers.
//
// Transition callbacks run while the breaker lock is held, so the
// handlers do nothing beyond bumping a counter and emitting one log line.
type CircuitEvents struct {
	logger      Logger
	transitions metric.Int64Counter
}

// NewCircuitEvents creates a CircuitEvents recording to the given observer.
func NewCircuitEvents(obs Observer) (*CircuitEvents, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	transitions, err := obs.Meter().Int64Counter(
		"engram.client.circuit.transitions",
		metric.WithDescription("Circuit breaker state transitions"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, err
	}

	return &CircuitEvents{
		logger:      obs.Logger(),
		transitions: transitions,
	}, nil
}

// CircuitOpened records an open transition with the failure count that
// tripped the breaker.
func (e *CircuitEvents) CircuitOpened(failures int) {
	ctx := context.Background()
	e.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("engram.circuit.state", "open"),
	))
	e.logger.Warn(ctx, "circuit opened", Field{Key: "failures", Value: failures})
}

// CircuitClosed records a transition back to closed.
func (e *CircuitEvents) CircuitClosed() {
	ctx := context.Background()
	e.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("engram.circuit.state", "closed"),
	))
	e.logger.Info(ctx, "circuit closed")
}

// Ensure CircuitEvents implements resilience.CircuitObserver
var _ resilience.CircuitObserver = (*CircuitEvents)(nil)

package health

import (
	"context"
	"fmt"

	"github.com/engramhq/engram-go/resilience"
)

// MetricsProvider supplies a point-in-time snapshot of the resilience
// pipeline. *resilience.Executor and *engram.Client both satisfy it.
type MetricsProvider interface {
	Metrics() resilience.Metrics
}

// GateCheckerConfig configures the admission gate health checker.
type GateCheckerConfig struct {
	// QueueCapacity is the admission queue capacity used to judge
	// saturation. When zero the queue check is skipped.
	QueueCapacity int

	// QueueWarning is the queue fill ratio that triggers degraded status.
	// Value should be between 0 and 1. Default: 0.8 (80%)
	QueueWarning float64

	// TokenFloor triggers degraded status when the available rate limit
	// tokens fall below it. Default: 1
	TokenFloor float64
}

// GateChecker reports the health of the resilience pipeline guarding a
// client. An open circuit means the backend is effectively unreachable
// and reports unhealthy; a probing circuit, a saturated admission queue,
// or an exhausted token bucket report degraded.
type GateChecker struct {
	config   GateCheckerConfig
	provider MetricsProvider
}

// NewGateChecker creates a new admission gate health checker.
func NewGateChecker(provider MetricsProvider, config GateCheckerConfig) *GateChecker {
	if config.QueueWarning <= 0 || config.QueueWarning >= 1 {
		config.QueueWarning = 0.8
	}
	if config.TokenFloor <= 0 {
		config.TokenFloor = 1
	}

	return &GateChecker{config: config, provider: provider}
}

// Name returns the name of this checker.
func (g *GateChecker) Name() string {
	return "gate"
}

// Check reads the resilience snapshot and maps it to a health status.
func (g *GateChecker) Check(ctx context.Context) Result {
	// Check context first
	select {
	case <-ctx.Done():
		return Unhealthy("context cancelled", ctx.Err())
	default:
	}

	m := g.provider.Metrics()

	details := map[string]any{
		"circuit_state":    m.CircuitBreaker.State.String(),
		"circuit_failures": m.CircuitBreaker.Failures,
		"circuit_opens":    m.CircuitBreaker.TotalOpens,
		"tokens_available": m.RateLimiter.TokensAvailable,
		"active_calls":     m.Concurrency.Active,
		"queued_calls":     m.Queue.Total,
	}

	switch m.CircuitBreaker.State {
	case resilience.StateOpen:
		return Unhealthy(
			fmt.Sprintf("circuit open after %d failures", m.CircuitBreaker.Failures),
			ErrCheckFailed,
		).WithDetails(details)
	case resilience.StateHalfOpen:
		return Degraded("circuit probing for recovery").WithDetails(details)
	}

	if g.config.QueueCapacity > 0 {
		fillRatio := float64(m.Queue.Total) / float64(g.config.QueueCapacity)
		if fillRatio >= g.config.QueueWarning {
			return Degraded(
				fmt.Sprintf("admission queue %.0f%% full", fillRatio*100),
			).WithDetails(details)
		}
	}

	if m.RateLimiter.TokensAvailable < g.config.TokenFloor {
		return Degraded(
			fmt.Sprintf("rate limit tokens exhausted: %.1f available", m.RateLimiter.TokensAvailable),
		).WithDetails(details)
	}

	return Healthy("admission gate clear").WithDetails(details)
}

// Ensure GateChecker implements Checker.
var _ Checker = (*GateChecker)(nil)

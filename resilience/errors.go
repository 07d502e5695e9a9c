package resilience

import "errors"

// Sentinel errors for resilience rejections. Every rejection kind is
// distinguishable with errors.Is so callers can branch on it.
var (
	// ErrRateLimitExceeded is returned when the token bucket has no permits.
	ErrRateLimitExceeded = errors.New("resilience: rate limit exceeded")

	// ErrCircuitOpen is returned when the circuit breaker is open, or when
	// all half-open trial slots are taken.
	ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

	// ErrQueueFull is returned when no execution slot is free and the
	// admission queue is at capacity.
	ErrQueueFull = errors.New("resilience: admission queue is full")

	// ErrTimeout is returned when a queued call's wait deadline elapsed
	// before an execution slot was granted.
	ErrTimeout = errors.New("resilience: timed out waiting for execution slot")

	// ErrDraining is returned for calls issued after shutdown began.
	ErrDraining = errors.New("resilience: executor is shutting down")
)

package resilience

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Operation is the unit of work guarded by an Executor. The executor has
// no knowledge of what the operation does; it only observes the error.
type Operation func(ctx context.Context) error

// Config configures an Executor.
type Config struct {
	RateLimiter    RateLimiterConfig
	Concurrency    ConcurrencyConfig
	CircuitBreaker CircuitBreakerConfig
}

// Validate checks for values the constructors cannot repair. Zero values
// are filled with defaults by New; negative values are rejected.
func (c Config) Validate() error {
	if c.RateLimiter.Rate < 0 {
		return fmt.Errorf("refill rate must not be negative, got: %f", c.RateLimiter.Rate)
	}
	if c.RateLimiter.Burst < 0 {
		return fmt.Errorf("burst must not be negative, got: %d", c.RateLimiter.Burst)
	}
	if c.Concurrency.MaxConcurrent < 0 {
		return fmt.Errorf("max concurrent must not be negative, got: %d", c.Concurrency.MaxConcurrent)
	}
	if c.Concurrency.QueueSize < 0 {
		return fmt.Errorf("queue size must not be negative, got: %d", c.Concurrency.QueueSize)
	}
	if c.Concurrency.WaitTimeout < 0 {
		return fmt.Errorf("wait timeout must not be negative, got: %v", c.Concurrency.WaitTimeout)
	}
	if c.CircuitBreaker.FailureThreshold < 0 {
		return fmt.Errorf("failure threshold must not be negative, got: %d", c.CircuitBreaker.FailureThreshold)
	}
	if c.CircuitBreaker.SuccessThreshold < 0 {
		return fmt.Errorf("success threshold must not be negative, got: %d", c.CircuitBreaker.SuccessThreshold)
	}
	if c.CircuitBreaker.OpenTimeout < 0 {
		return fmt.Errorf("open timeout must not be negative, got: %v", c.CircuitBreaker.OpenTimeout)
	}
	if c.CircuitBreaker.HalfOpenMax < 0 {
		return fmt.Errorf("half-open max must not be negative, got: %d", c.CircuitBreaker.HalfOpenMax)
	}
	return nil
}

// Executor runs operations through the full resilience pipeline: rate
// limiter, circuit breaker, then admission queue. All callers of one
// Executor share its state; a client must not reach the backend except
// through Execute or Do.
type Executor struct {
	limiter *RateLimiter
	breaker *CircuitBreaker
	queue   *AdmissionQueue

	draining   atomic.Bool
	shutdownMu sync.Mutex
	drained    bool
}

// New creates an Executor. It returns an error when config holds values
// outside their documented range.
func New(config Config) (*Executor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Executor{
		limiter: NewRateLimiter(config.RateLimiter),
		breaker: NewCircuitBreaker(config.CircuitBreaker),
		queue:   NewAdmissionQueue(config.Concurrency),
	}, nil
}

// callOptions are per-call knobs applied by CallOption values.
type callOptions struct {
	priority Priority
	wait     time.Duration
}

// CallOption adjusts a single Execute or Do call.
type CallOption func(*callOptions)

// WithPriority sets the admission priority for one call.
// The default is PriorityNormal.
func WithPriority(p Priority) CallOption {
	return func(o *callOptions) {
		o.priority = p
	}
}

// WithWaitTimeout caps how long one call may wait for an execution slot,
// overriding the configured WaitTimeout.
func WithWaitTimeout(d time.Duration) CallOption {
	return func(o *callOptions) {
		o.wait = d
	}
}

// Execute runs op once the pipeline admits it. Stages are checked in
// order and each rejection is distinguishable by its sentinel:
// ErrDraining after Shutdown has begun, ErrRateLimitExceeded with no
// token left, ErrCircuitOpen from the breaker, and ErrQueueFull or
// ErrTimeout from the admission queue. Rejections never count as breaker
// failures; only the admitted operation's own outcome does. The
// operation's error is returned unchanged.
func (e *Executor) Execute(ctx context.Context, op Operation, opts ...CallOption) error {
	call := callOptions{priority: PriorityNormal}
	for _, opt := range opts {
		opt(&call)
	}

	if e.draining.Load() {
		return ErrDraining
	}
	if !e.limiter.Allow() {
		return ErrRateLimitExceeded
	}

	t, err := e.breaker.admit()
	if err != nil {
		return err
	}
	if err := e.queue.Admit(ctx, call.priority, call.wait); err != nil {
		// The breaker admitted but the call never ran; give back any
		// half-open trial slot without recording an outcome.
		e.breaker.cancel(t)
		return err
	}
	defer e.queue.Release()

	if err := op(ctx); err != nil {
		e.breaker.failure(t)
		return err
	}
	e.breaker.success(t)
	return nil
}

// Do runs op through the executor and returns its value. On any
// rejection or operation error the zero value of T is returned with the
// error.
func Do[T any](ctx context.Context, e *Executor, op func(ctx context.Context) (T, error), opts ...CallOption) (T, error) {
	var out T
	err := e.Execute(ctx, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	}, opts...)
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// Shutdown stops admission of new calls and waits for in-flight and
// queued work to finish. Waiters already parked keep draining through
// the slots naturally; when ctx expires first they are rejected with
// ErrDraining and the context error is returned. After a completed
// shutdown further calls return nil.
func (e *Executor) Shutdown(ctx context.Context) error {
	e.draining.Store(true)

	e.shutdownMu.Lock()
	defer e.shutdownMu.Unlock()
	if e.drained {
		return nil
	}
	if err := e.queue.Drain(ctx); err != nil {
		return err
	}
	e.drained = true
	return nil
}

// Metrics returns a point-in-time snapshot of all pipeline stages. It is
// safe to call concurrently with in-flight operations and never blocks
// beyond brief internal locking.
func (e *Executor) Metrics() Metrics {
	adm := e.queue.Metrics()

	return Metrics{
		RateLimiter: RateLimiterMetrics{
			TokensAvailable: e.limiter.Tokens(),
		},
		Concurrency: ConcurrencyMetrics{
			Active:     adm.Active,
			Waiting:    adm.Waiting,
			MaxReached: adm.MaxReached,
		},
		Queue: QueueMetrics{
			Total:      adm.Waiting,
			ByPriority: adm.WaitingByPriority,
		},
		CircuitBreaker: e.breaker.Metrics(),
	}
}

// Metrics is a snapshot of executor state.
type Metrics struct {
	RateLimiter    RateLimiterMetrics
	Concurrency    ConcurrencyMetrics
	Queue          QueueMetrics
	CircuitBreaker CircuitBreakerMetrics
}

// RateLimiterMetrics contains token bucket statistics.
type RateLimiterMetrics struct {
	TokensAvailable float64
}

// ConcurrencyMetrics contains execution slot statistics.
type ConcurrencyMetrics struct {
	Active     int
	Waiting    int
	MaxReached int
}

// QueueMetrics contains waiting-call statistics.
type QueueMetrics struct {
	Total      int
	ByPriority map[Priority]int
}

package resilience

import (
	"context"
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed means the circuit is operating normally.
	StateClosed State = iota
	// StateOpen means the circuit is rejecting all calls.
	StateOpen
	// StateHalfOpen means the circuit is probing for recovery.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitObserver receives circuit transition events. Observers are
// notified synchronously at the transition point, while the breaker lock
// is held; they must not call back into the breaker.
type CircuitObserver interface {
	// CircuitOpened is called when the circuit opens or reopens.
	// failures is the consecutive failure count at that moment.
	CircuitOpened(failures int)

	// CircuitClosed is called when the circuit returns to closed.
	CircuitClosed()
}

// ObserverFuncs adapts plain functions to the CircuitObserver interface.
// Nil fields are skipped.
type ObserverFuncs struct {
	OnOpen  func(failures int)
	OnClose func()
}

func (f ObserverFuncs) CircuitOpened(failures int) {
	if f.OnOpen != nil {
		f.OnOpen(failures)
	}
}

func (f ObserverFuncs) CircuitClosed() {
	if f.OnClose != nil {
		f.OnClose()
	}
}

// CircuitBreakerConfig configures the circuit breaker.
type CircuitBreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that opens
	// the circuit.
	// Default: 5
	FailureThreshold int

	// SuccessThreshold is the number of half-open trial successes that
	// closes the circuit.
	// Default: 1
	SuccessThreshold int

	// OpenTimeout is how long the circuit stays open before the next
	// admission attempt may probe for recovery.
	// Default: 30 seconds
	OpenTimeout time.Duration

	// HalfOpenMax is the maximum number of trial calls allowed in flight
	// concurrently while half-open.
	// Default: 1
	HalfOpenMax int

	// Observers are notified of open and close transitions.
	Observers []CircuitObserver
}

// CircuitBreaker is a three-state failure isolator. Consecutive failures
// open it; after OpenTimeout it admits a bounded number of concurrent
// trial calls, and enough trial successes close it again.
//
// Outcomes are tagged with the breaker episode that admitted them, so a
// result that arrives after the state has moved on is discarded rather
// than corrupting the counters of the new episode.
type CircuitBreaker struct {
	config CircuitBreakerConfig

	mu                sync.Mutex
	state             State
	gen               uint64
	failures          int
	halfOpenSuccesses int
	halfOpenInFlight  int
	totalOpens        uint64
	openedAt          time.Time
}

// NewCircuitBreaker creates a circuit breaker in the closed state.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	// Apply defaults
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 5
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = 1
	}
	if config.OpenTimeout <= 0 {
		config.OpenTimeout = 30 * time.Second
	}
	if config.HalfOpenMax <= 0 {
		config.HalfOpenMax = 1
	}

	return &CircuitBreaker{
		config: config,
		state:  StateClosed,
	}
}

// ticket binds an admitted call to the breaker episode that admitted it.
type ticket struct {
	gen   uint64
	trial bool
}

// admit decides whether a call may proceed. In the half-open state an
// admission reserves a trial slot that must be returned through success,
// failure, or cancel.
func (cb *CircuitBreaker) admit() (ticket, error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.currentStateLocked() {
	case StateOpen:
		return ticket{}, ErrCircuitOpen
	case StateHalfOpen:
		if cb.halfOpenInFlight >= cb.config.HalfOpenMax {
			return ticket{}, ErrCircuitOpen
		}
		cb.halfOpenInFlight++
		return ticket{gen: cb.gen, trial: true}, nil
	default:
		return ticket{gen: cb.gen}, nil
	}
}

// success records a successful outcome for an admitted call.
func (cb *CircuitBreaker) success(t ticket) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if t.gen != cb.gen {
		return // outcome from a superseded episode
	}

	if t.trial {
		cb.halfOpenInFlight--
		cb.halfOpenSuccesses++
		if cb.halfOpenSuccesses >= cb.config.SuccessThreshold {
			cb.transitionLocked(StateClosed)
		}
		return
	}

	cb.failures = 0
}

// failure records a failed outcome for an admitted call.
func (cb *CircuitBreaker) failure(t ticket) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if t.gen != cb.gen {
		return
	}

	cb.failures++

	if t.trial {
		// A failed recovery probe reopens immediately.
		cb.transitionLocked(StateOpen)
		return
	}

	if cb.failures >= cb.config.FailureThreshold {
		cb.transitionLocked(StateOpen)
	}
}

// cancel returns an admission without recording an outcome. Used when a
// later admission stage rejects the call before it executes.
func (cb *CircuitBreaker) cancel(t ticket) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if t.gen != cb.gen {
		return
	}
	if t.trial {
		cb.halfOpenInFlight--
	}
}

// Execute runs the operation through the circuit breaker alone. The
// operation's own error is returned unchanged after bookkeeping.
func (cb *CircuitBreaker) Execute(ctx context.Context, op func(context.Context) error) error {
	t, err := cb.admit()
	if err != nil {
		return err
	}

	err = op(ctx)
	if err != nil {
		cb.failure(t)
		return err
	}
	cb.success(t)
	return nil
}

// State returns the current circuit state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.currentStateLocked()
}

// Reset forces the circuit closed and discards outstanding outcomes.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state != StateClosed {
		cb.transitionLocked(StateClosed)
		return
	}

	cb.gen++
	cb.failures = 0
	cb.halfOpenSuccesses = 0
	cb.halfOpenInFlight = 0
}

// currentStateLocked performs the lazy open-to-half-open transition once
// the open timeout has elapsed.
func (cb *CircuitBreaker) currentStateLocked() State {
	if cb.state == StateOpen && time.Since(cb.openedAt) >= cb.config.OpenTimeout {
		cb.transitionLocked(StateHalfOpen)
	}
	return cb.state
}

// transitionLocked moves to a new state, starting a new episode.
// Outstanding tickets from the previous episode become stale.
func (cb *CircuitBreaker) transitionLocked(to State) {
	cb.state = to
	cb.gen++
	cb.halfOpenSuccesses = 0
	cb.halfOpenInFlight = 0

	switch to {
	case StateOpen:
		cb.openedAt = time.Now()
		cb.totalOpens++
		for _, o := range cb.config.Observers {
			o.CircuitOpened(cb.failures)
		}
	case StateClosed:
		cb.failures = 0
		for _, o := range cb.config.Observers {
			o.CircuitClosed()
		}
	}
}

// Metrics returns current circuit breaker statistics.
func (cb *CircuitBreaker) Metrics() CircuitBreakerMetrics {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return CircuitBreakerMetrics{
		State:      cb.currentStateLocked(),
		Failures:   cb.failures,
		TotalOpens: cb.totalOpens,
	}
}

// CircuitBreakerMetrics contains circuit breaker statistics.
type CircuitBreakerMetrics struct {
	State      State
	Failures   int
	TotalOpens uint64
}

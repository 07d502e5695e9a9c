// Package resilience guards calls to the Engram backend.
//
// Every request issued by the client passes through one shared Executor,
// which applies three gates in order:
//
//   - Rate Limiter: a token bucket that rejects calls beyond the
//     configured request rate, with a burst allowance.
//
//   - Circuit Breaker: stops calls to a failing backend after a run of
//     consecutive failures and probes for recovery with trial calls.
//
//   - Admission Queue: bounds concurrent executions and parks overflow
//     callers in priority order until a slot frees or a deadline passes.
//
// Every rejection is fail-fast and carries its own sentinel error, so
// callers can branch on the cause. The layer never retries and never
// interrupts an operation that has begun executing.
//
// # Usage
//
//	exec, err := resilience.New(resilience.Config{
//	    RateLimiter: resilience.RateLimiterConfig{
//	        Rate:  100,
//	        Burst: 20,
//	    },
//	    Concurrency: resilience.ConcurrencyConfig{
//	        MaxConcurrent: 16,
//	        QueueSize:     64,
//	        WaitTimeout:   30 * time.Second,
//	    },
//	    CircuitBreaker: resilience.CircuitBreakerConfig{
//	        FailureThreshold: 5,
//	        OpenTimeout:      30 * time.Second,
//	    },
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	err = exec.Execute(ctx, func(ctx context.Context) error {
//	    return callBackend(ctx)
//	}, resilience.WithPriority(resilience.PriorityHigh))
package resilience

package resilience

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	e, err := New(Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if e.limiter == nil {
		t.Error("limiter not set")
	}
	if e.breaker == nil {
		t.Error("breaker not set")
	}
	if e.queue == nil {
		t.Error("queue not set")
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{"negative rate", Config{RateLimiter: RateLimiterConfig{Rate: -1}}},
		{"negative burst", Config{RateLimiter: RateLimiterConfig{Burst: -1}}},
		{"negative max concurrent", Config{Concurrency: ConcurrencyConfig{MaxConcurrent: -1}}},
		{"negative queue size", Config{Concurrency: ConcurrencyConfig{QueueSize: -1}}},
		{"negative wait timeout", Config{Concurrency: ConcurrencyConfig{WaitTimeout: -time.Second}}},
		{"negative failure threshold", Config{CircuitBreaker: CircuitBreakerConfig{FailureThreshold: -1}}},
		{"negative success threshold", Config{CircuitBreaker: CircuitBreakerConfig{SuccessThreshold: -1}}},
		{"negative open timeout", Config{CircuitBreaker: CircuitBreakerConfig{OpenTimeout: -time.Second}}},
		{"negative half-open max", Config{CircuitBreaker: CircuitBreakerConfig{HalfOpenMax: -1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.config); err == nil {
				t.Error("New() error = nil, want validation error")
			}
		})
	}
}

func TestExecutor_Execute(t *testing.T) {
	e, err := New(Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	executed := false
	err = e.Execute(context.Background(), func(ctx context.Context) error {
		executed = true
		return nil
	})

	if err != nil {
		t.Errorf("Execute() error = %v", err)
	}
	if !executed {
		t.Error("Operation was not executed")
	}
}

func TestExecutor_RateLimitRejection(t *testing.T) {
	e, err := New(Config{
		RateLimiter: RateLimiterConfig{
			Rate:  0.01, // Effectively no refill during the test
			Burst: 1,
		},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// First should succeed
	if err := e.Execute(context.Background(), func(ctx context.Context) error {
		return nil
	}); err != nil {
		t.Errorf("First Execute() error = %v", err)
	}

	// Second should be rate limited without running the operation
	err = e.Execute(context.Background(), func(ctx context.Context) error {
		t.Error("Should not be called when rate limited")
		return nil
	})
	if err != ErrRateLimitExceeded {
		t.Errorf("Second Execute() error = %v, want ErrRateLimitExceeded", err)
	}
}

func TestExecutor_CircuitOpenRejection(t *testing.T) {
	e, err := New(Config{
		RateLimiter: RateLimiterConfig{Rate: 1000, Burst: 100},
		CircuitBreaker: CircuitBreakerConfig{
			FailureThreshold: 2,
			OpenTimeout:      time.Hour,
		},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	testErr := errors.New("backend down")

	// Trip the breaker
	for i := 0; i < 2; i++ {
		_ = e.Execute(context.Background(), func(ctx context.Context) error {
			return testErr
		})
	}

	// Should be blocked before reaching the operation
	err = e.Execute(context.Background(), func(ctx context.Context) error {
		t.Error("Should not be called when circuit is open")
		return nil
	})
	if err != ErrCircuitOpen {
		t.Errorf("Execute() error = %v, want ErrCircuitOpen", err)
	}
}

func TestExecutor_QueueFullRejection(t *testing.T) {
	e, err := New(Config{
		RateLimiter: RateLimiterConfig{Rate: 1000, Burst: 100},
		Concurrency: ConcurrencyConfig{MaxConcurrent: 1},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	started := make(chan struct{})
	done := make(chan struct{})

	go func() {
		_ = e.Execute(context.Background(), func(ctx context.Context) error {
			close(started)
			<-done
			return nil
		})
	}()

	<-started

	// No free slot and no queue capacity
	err = e.Execute(context.Background(), func(ctx context.Context) error {
		return nil
	})

	close(done)

	if err != ErrQueueFull {
		t.Errorf("Execute() error = %v, want ErrQueueFull", err)
	}
}

func TestExecutor_WaitTimeout(t *testing.T) {
	e, err := New(Config{
		RateLimiter: RateLimiterConfig{Rate: 1000, Burst: 100},
		Concurrency: ConcurrencyConfig{MaxConcurrent: 1, QueueSize: 4},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	started := make(chan struct{})
	done := make(chan struct{})
	defer close(done)

	go func() {
		_ = e.Execute(context.Background(), func(ctx context.Context) error {
			close(started)
			<-done
			return nil
		})
	}()

	<-started

	err = e.Execute(context.Background(), func(ctx context.Context) error {
		return nil
	}, WithWaitTimeout(10*time.Millisecond))

	if err != ErrTimeout {
		t.Errorf("Execute() error = %v, want ErrTimeout", err)
	}
}

func TestExecutor_RejectionsDoNotCountAsFailures(t *testing.T) {
	e, err := New(Config{
		RateLimiter: RateLimiterConfig{Rate: 1000, Burst: 100},
		Concurrency: ConcurrencyConfig{MaxConcurrent: 1},
		CircuitBreaker: CircuitBreakerConfig{
			FailureThreshold: 1,
			OpenTimeout:      time.Hour,
		},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	started := make(chan struct{})
	done := make(chan struct{})

	go func() {
		_ = e.Execute(context.Background(), func(ctx context.Context) error {
			close(started)
			<-done
			return nil
		})
	}()

	<-started

	// Queue rejections with a one-failure threshold: if these fed the
	// breaker, the circuit would trip
	for i := 0; i < 3; i++ {
		if err := e.Execute(context.Background(), func(ctx context.Context) error {
			return nil
		}); err != ErrQueueFull {
			t.Errorf("Execute() error = %v, want ErrQueueFull", err)
		}
	}

	close(done)

	m := e.Metrics()
	if m.CircuitBreaker.State != StateClosed {
		t.Errorf("CircuitBreaker.State = %v, want closed", m.CircuitBreaker.State)
	}
	if m.CircuitBreaker.Failures != 0 {
		t.Errorf("CircuitBreaker.Failures = %d, want 0", m.CircuitBreaker.Failures)
	}
}

func TestExecutor_QueueRejectionReleasesTrialSlot(t *testing.T) {
	e, err := New(Config{
		RateLimiter: RateLimiterConfig{Rate: 1000, Burst: 100},
		Concurrency: ConcurrencyConfig{MaxConcurrent: 1},
		CircuitBreaker: CircuitBreakerConfig{
			FailureThreshold: 1,
			HalfOpenMax:      2,
			OpenTimeout:      10 * time.Millisecond,
		},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// Trip the breaker, then wait for half-open
	_ = e.Execute(context.Background(), func(ctx context.Context) error {
		return errors.New("backend down")
	})
	time.Sleep(20 * time.Millisecond)

	started := make(chan struct{})
	done := make(chan struct{})
	trialErr := make(chan error, 1)

	// First trial occupies the only execution slot
	go func() {
		trialErr <- e.Execute(context.Background(), func(ctx context.Context) error {
			close(started)
			<-done
			return nil
		})
	}()

	<-started

	// Each of these is admitted as the second trial, then bounced by the
	// full queue. If the trial reservation leaked, the second attempt
	// would see ErrCircuitOpen instead.
	for i := 0; i < 3; i++ {
		if err := e.Execute(context.Background(), func(ctx context.Context) error {
			return nil
		}); err != ErrQueueFull {
			t.Errorf("Execute() #%d error = %v, want ErrQueueFull", i, err)
		}
	}

	close(done)
	if err := <-trialErr; err != nil {
		t.Errorf("Trial Execute() error = %v", err)
	}

	if m := e.Metrics(); m.CircuitBreaker.State != StateClosed {
		t.Errorf("CircuitBreaker.State = %v, want closed", m.CircuitBreaker.State)
	}
}

func TestExecutor_OperationErrorPassthrough(t *testing.T) {
	e, err := New(Config{
		RateLimiter: RateLimiterConfig{Rate: 1000, Burst: 100},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	testErr := errors.New("backend error")

	err = e.Execute(context.Background(), func(ctx context.Context) error {
		return testErr
	})

	if err != testErr {
		t.Errorf("Execute() error = %v, want %v", err, testErr)
	}
	if m := e.Metrics(); m.CircuitBreaker.Failures != 1 {
		t.Errorf("CircuitBreaker.Failures = %d, want 1", m.CircuitBreaker.Failures)
	}
}

func TestExecutor_ConcurrencyBound(t *testing.T) {
	e, err := New(Config{
		RateLimiter: RateLimiterConfig{Rate: 1000, Burst: 100},
		Concurrency: ConcurrencyConfig{
			MaxConcurrent: 16,
			QueueSize:     100,
			WaitTimeout:   60 * time.Second,
		},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	var (
		wg         sync.WaitGroup
		currActive int32
		maxActive  int32
		succeeded  int32
	)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			err := e.Execute(context.Background(), func(ctx context.Context) error {
				curr := atomic.AddInt32(&currActive, 1)
				defer atomic.AddInt32(&currActive, -1)

				// Track max concurrent
				for {
					max := atomic.LoadInt32(&maxActive)
					if curr <= max || atomic.CompareAndSwapInt32(&maxActive, max, curr) {
						break
					}
				}

				time.Sleep(2 * time.Millisecond)
				return nil
			})

			if err != nil {
				t.Errorf("Execute() error = %v", err)
				return
			}
			atomic.AddInt32(&succeeded, 1)
		}()
	}

	wg.Wait()

	if n := atomic.LoadInt32(&succeeded); n != 50 {
		t.Errorf("succeeded = %d, want 50", n)
	}
	if max := atomic.LoadInt32(&maxActive); max > 16 {
		t.Errorf("Max concurrent = %d, want <= 16", max)
	}
	if m := e.Metrics(); m.Concurrency.MaxReached > 16 {
		t.Errorf("MaxReached = %d, want <= 16", m.Concurrency.MaxReached)
	}
}

func TestExecutor_Shutdown(t *testing.T) {
	e, err := New(Config{
		RateLimiter: RateLimiterConfig{Rate: 1000, Burst: 100},
		Concurrency: ConcurrencyConfig{MaxConcurrent: 2},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	started := make(chan struct{})
	done := make(chan struct{})

	go func() {
		_ = e.Execute(context.Background(), func(ctx context.Context) error {
			close(started)
			<-done
			return nil
		})
	}()

	<-started
	time.AfterFunc(20*time.Millisecond, func() { close(done) })

	start := time.Now()
	if err := e.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 10*time.Millisecond {
		t.Errorf("Shutdown() returned after %v, want to wait for in-flight work", elapsed)
	}

	// New calls after shutdown are turned away
	err = e.Execute(context.Background(), func(ctx context.Context) error {
		t.Error("Should not be called after shutdown")
		return nil
	})
	if err != ErrDraining {
		t.Errorf("Execute() after shutdown = %v, want ErrDraining", err)
	}

	// A second shutdown is a no-op
	if err := e.Shutdown(context.Background()); err != nil {
		t.Errorf("Second Shutdown() error = %v", err)
	}
}

func TestExecutor_ShutdownTimeout(t *testing.T) {
	e, err := New(Config{
		RateLimiter: RateLimiterConfig{Rate: 1000, Burst: 100},
		Concurrency: ConcurrencyConfig{MaxConcurrent: 1, QueueSize: 4},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	started := make(chan struct{})
	done := make(chan struct{})
	defer close(done)

	// In-flight operation that outlives the shutdown deadline
	go func() {
		_ = e.Execute(context.Background(), func(ctx context.Context) error {
			close(started)
			<-done
			return nil
		})
	}()
	<-started

	// A parked waiter behind it
	parked := make(chan error, 1)
	go func() {
		parked <- e.Execute(context.Background(), func(ctx context.Context) error {
			return nil
		}, WithWaitTimeout(10*time.Second))
	}()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if e.Metrics().Queue.Total == 1 {
			break
		}
		time.Sleep(time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	if err := e.Shutdown(ctx); err != context.DeadlineExceeded {
		t.Errorf("Shutdown() error = %v, want context.DeadlineExceeded", err)
	}
	if err := <-parked; err != ErrDraining {
		t.Errorf("Parked Execute() error = %v, want ErrDraining", err)
	}
}

func TestExecutor_Metrics(t *testing.T) {
	e, err := New(Config{
		RateLimiter: RateLimiterConfig{Rate: 0.01, Burst: 10},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	for i := 0; i < 3; i++ {
		_ = e.Execute(context.Background(), func(ctx context.Context) error {
			return nil
		})
	}

	m := e.Metrics()

	if m.RateLimiter.TokensAvailable < 6.9 || m.RateLimiter.TokensAvailable > 7.1 {
		t.Errorf("TokensAvailable = %f, want ~7", m.RateLimiter.TokensAvailable)
	}
	if m.Concurrency.Active != 0 {
		t.Errorf("Concurrency.Active = %d, want 0", m.Concurrency.Active)
	}
	if m.Queue.Total != 0 {
		t.Errorf("Queue.Total = %d, want 0", m.Queue.Total)
	}
	if m.CircuitBreaker.State != StateClosed {
		t.Errorf("CircuitBreaker.State = %v, want closed", m.CircuitBreaker.State)
	}
}

func TestExecutor_MetricsConcurrent(t *testing.T) {
	e, err := New(Config{
		RateLimiter: RateLimiterConfig{Rate: 100000, Burst: 100000},
		Concurrency: ConcurrencyConfig{MaxConcurrent: 8, QueueSize: 100},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = e.Execute(context.Background(), func(ctx context.Context) error {
				time.Sleep(time.Millisecond)
				return nil
			})
		}()
	}

	// Metrics reads race with in-flight operations; they must neither
	// block nor observe impossible values
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				m := e.Metrics()
				if m.Concurrency.Active > 8 {
					t.Errorf("Active = %d, want <= 8", m.Concurrency.Active)
				}
				if m.RateLimiter.TokensAvailable < 0 {
					t.Errorf("TokensAvailable = %f, want >= 0", m.RateLimiter.TokensAvailable)
				}
			}
		}()
	}

	wg.Wait()
}

func TestDo(t *testing.T) {
	e, err := New(Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	got, err := Do(context.Background(), e, func(ctx context.Context) (string, error) {
		return "result", nil
	})
	if err != nil {
		t.Errorf("Do() error = %v", err)
	}
	if got != "result" {
		t.Errorf("Do() = %q, want %q", got, "result")
	}
}

func TestDo_Error(t *testing.T) {
	e, err := New(Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	testErr := errors.New("backend error")

	got, err := Do(context.Background(), e, func(ctx context.Context) (int, error) {
		return 42, testErr
	})
	if err != testErr {
		t.Errorf("Do() error = %v, want %v", err, testErr)
	}
	if got != 0 {
		t.Errorf("Do() = %d, want zero value on error", got)
	}
}

func TestDo_Priority(t *testing.T) {
	e, err := New(Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	got, err := Do(context.Background(), e, func(ctx context.Context) (int, error) {
		return 7, nil
	}, WithPriority(PriorityHigh))
	if err != nil {
		t.Errorf("Do() error = %v", err)
	}
	if got != 7 {
		t.Errorf("Do() = %d, want 7", got)
	}
}

package health

import (
	"context"
	"slices"
	"sync"
	"time"
)

const defaultCheckTimeout = 10 * time.Second

// RegistryConfig configures the health registry.
type RegistryConfig struct {
	// Timeout bounds one whole CheckAll run.
	// Default: 10 seconds
	Timeout time.Duration

	// Parallel runs health checks concurrently when true.
	// Default: true
	Parallel bool
}

// Registry holds named health checkers and runs them as one composite
// check. Checkers keep their registration order in reports.
type Registry struct {
	timeout  time.Duration
	parallel bool

	mu       sync.RWMutex
	checkers map[string]Checker
	names    []string // registration order
}

// NewRegistry creates a health registry. With no config, checks run in
// parallel under the default timeout.
func NewRegistry(config ...RegistryConfig) *Registry {
	r := &Registry{
		timeout:  defaultCheckTimeout,
		parallel: true,
		checkers: make(map[string]Checker),
	}
	if len(config) > 0 {
		r.parallel = config[0].Parallel
		if config[0].Timeout > 0 {
			r.timeout = config[0].Timeout
		}
	}
	return r
}

// Register adds a health checker under the given name. Registering an
// existing name replaces its checker.
func (r *Registry) Register(name string, checker Checker) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.checkers[name]; !exists {
		r.names = append(r.names, name)
	}
	r.checkers[name] = checker
}

// Unregister removes a health checker from the registry.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.checkers, name)
	r.names = slices.DeleteFunc(r.names, func(n string) bool { return n == name })
}

// CheckerNames returns the registered names in registration order.
func (r *Registry) CheckerNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.names)
}

// namedChecker pairs a checker with its registration name for a
// point-in-time snapshot of the registry.
type namedChecker struct {
	name    string
	checker Checker
}

func (r *Registry) snapshot() []namedChecker {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := make([]namedChecker, 0, len(r.names))
	for _, name := range r.names {
		snap = append(snap, namedChecker{name: name, checker: r.checkers[name]})
	}
	return snap
}

// Check runs a single named health check, bounded by the registry
// timeout. Unknown names return ErrCheckerNotFound.
func (r *Registry) Check(ctx context.Context, name string) (Result, error) {
	r.mu.RLock()
	checker, ok := r.checkers[name]
	r.mu.RUnlock()

	if !ok {
		return Result{}, ErrCheckerNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.run(ctx, checker), nil
}

// CheckAll runs every registered check and returns results keyed by
// name. The whole run shares one timeout; checks still pending when it
// fires report ErrCheckTimeout.
func (r *Registry) CheckAll(ctx context.Context) map[string]Result {
	snap := r.snapshot()
	results := make(map[string]Result, len(snap))
	if len(snap) == 0 {
		return results
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if !r.parallel {
		for _, nc := range snap {
			results[nc.name] = r.run(ctx, nc.checker)
		}
		return results
	}

	// Each goroutine owns one slot, so no lock is needed on the way in.
	out := make([]Result, len(snap))
	var wg sync.WaitGroup
	for i, nc := range snap {
		wg.Add(1)
		go func(i int, c Checker) {
			defer wg.Done()
			out[i] = r.run(ctx, c)
		}(i, nc.checker)
	}
	wg.Wait()

	for i, nc := range snap {
		results[nc.name] = out[i]
	}
	return results
}

// OverallStatus folds a result set into one status: any unhealthy check
// makes the whole set unhealthy, otherwise any degraded check makes it
// degraded. An empty set is healthy.
func (r *Registry) OverallStatus(results map[string]Result) Status {
	worst := StatusHealthy
	for _, result := range results {
		switch result.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			worst = StatusDegraded
		}
	}
	return worst
}

// run executes one check, stamping duration and timestamp. A checker
// that outlives ctx is abandoned and reported as timed out; the
// goroutine drains into a buffered channel so it never leaks blocked.
func (r *Registry) run(ctx context.Context, checker Checker) Result {
	start := time.Now()
	done := make(chan Result, 1)

	go func() {
		done <- checker.Check(ctx)
	}()

	select {
	case result := <-done:
		result.Duration = time.Since(start)
		if result.Timestamp.IsZero() {
			result.Timestamp = start
		}
		return result
	case <-ctx.Done():
		return Result{
			Status:    StatusUnhealthy,
			Message:   "no answer within the registry timeout",
			Error:     ErrCheckTimeout,
			Duration:  time.Since(start),
			Timestamp: start,
		}
	}
}

// Checker folds the whole registry into a single Checker, so one
// registry can nest under another as the component "aggregate".
func (r *Registry) Checker() Checker {
	return &compositeChecker{reg: r}
}

type compositeChecker struct {
	reg *Registry
}

func (c *compositeChecker) Name() string { return "aggregate" }

func (c *compositeChecker) Check(ctx context.Context) Result {
	results := c.reg.CheckAll(ctx)
	status := c.reg.OverallStatus(results)

	details := make(map[string]any, len(results))
	for name, result := range results {
		details[name] = map[string]any{
			"status":   result.Status.String(),
			"message":  result.Message,
			"duration": result.Duration.String(),
		}
	}

	message := "all checks passed"
	switch status {
	case StatusDegraded:
		message = "some checks degraded"
	case StatusUnhealthy:
		message = "some checks failed"
	}

	return Result{
		Status:    status,
		Message:   message,
		Details:   details,
		Timestamp: time.Now(),
	}
}

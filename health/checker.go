package health

import (
	"context"
	"time"
)

// Status grades a component: Healthy, Degraded (usable but impaired,
// for example a saturated admission gate), or Unhealthy.
type Status int

const (
	StatusHealthy Status = iota
	StatusDegraded
	StatusUnhealthy
)

var statusNames = [...]string{"healthy", "degraded", "unhealthy"}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "unknown"
	}
	return statusNames[s]
}

// Result is the outcome of one health check.
type Result struct {
	Status    Status
	Message   string
	Details   map[string]any // checker-specific observations, serialized into the health document
	Duration  time.Duration
	Timestamp time.Time
	Error     error // non-nil for unhealthy results with a cause
}

// Healthy builds a passing result stamped with the current time.
func Healthy(message string) Result {
	return Result{Status: StatusHealthy, Message: message, Timestamp: time.Now()}
}

// Degraded builds an impaired-but-usable result.
func Degraded(message string) Result {
	return Result{Status: StatusDegraded, Message: message, Timestamp: time.Now()}
}

// Unhealthy builds a failing result carrying its cause.
func Unhealthy(message string, err error) Result {
	return Result{Status: StatusUnhealthy, Message: message, Error: err, Timestamp: time.Now()}
}

// WithDetails returns a copy of the result with details attached.
func (r Result) WithDetails(details map[string]any) Result {
	r.Details = details
	return r
}

// WithDuration returns a copy of the result with the elapsed time set.
func (r Result) WithDuration(d time.Duration) Result {
	r.Duration = d
	return r
}

// Checker probes one component.
type Checker interface {
	// Name identifies this checker within a Registry.
	Name() string

	// Check probes the component. It should respect ctx deadlines and
	// report timeouts as unhealthy rather than blocking.
	Check(ctx context.Context) Result
}

// CheckFunc adapts a plain function into a named Checker.
type CheckFunc struct {
	name string
	fn   func(context.Context) Result
}

// NewCheckFunc wraps fn as a Checker with the given name.
func NewCheckFunc(name string, fn func(context.Context) Result) *CheckFunc {
	return &CheckFunc{name: name, fn: fn}
}

func (f *CheckFunc) Name() string { return f.name }

func (f *CheckFunc) Check(ctx context.Context) Result { return f.fn(ctx) }

var _ Checker = (*CheckFunc)(nil)

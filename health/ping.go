package health

import (
	"context"
	"time"
)

// Pinger is anything that can verify connectivity to its backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingChecker adapts a Pinger into a Checker. It reports healthy when
// the ping succeeds and unhealthy with the ping error otherwise.
type PingChecker struct {
	name   string
	pinger Pinger
}

// NewPingChecker creates a checker that pings the given component.
func NewPingChecker(name string, pinger Pinger) *PingChecker {
	return &PingChecker{name: name, pinger: pinger}
}

// Name returns the name of this checker.
func (p *PingChecker) Name() string {
	return p.name
}

// Check pings the component.
func (p *PingChecker) Check(ctx context.Context) Result {
	start := time.Now()

	if err := p.pinger.Ping(ctx); err != nil {
		return Unhealthy("ping failed", err).WithDuration(time.Since(start))
	}
	return Healthy("ping ok").WithDuration(time.Since(start))
}

// Ensure PingChecker implements Checker.
var _ Checker = (*PingChecker)(nil)

// Package health reports the health of an Engram client to the app
// embedding it.
//
// A Checker is any component that can report its health status. The
// Status type represents the health state: Healthy, Degraded, or
// Unhealthy. Two checkers cover the client itself: GateChecker reads
// the resilience pipeline snapshot (an open circuit is unhealthy; a
// probing circuit, a saturated admission queue, or an exhausted token
// bucket is degraded), and PingChecker wraps anything with a
// Ping(ctx) error method, such as the client.
//
// # Basic Usage
//
//	gate := health.NewGateChecker(client, health.GateCheckerConfig{
//	    QueueCapacity: 64,
//	})
//
//	result := gate.Check(ctx)
//	if result.Status == health.StatusUnhealthy {
//	    log.Printf("Engram unreachable: %s", result.Message)
//	}
//
// # Combining Checks
//
// Use Registry to combine multiple health checks into a single
// composite check:
//
//	reg := health.NewRegistry()
//	reg.Register("gate", gate)
//	reg.Register("engram", health.NewPingChecker("engram", client))
//
//	// Check all components
//	results := reg.CheckAll(ctx)
//	overall := reg.OverallStatus(results)
//
// # HTTP Endpoints
//
// The package provides HTTP handlers an embedding app can mount:
//
//	// Terse readiness probe
//	http.Handle("/readyz", health.ReadinessHandler(reg))
//
//	// Full JSON health document
//	http.Handle("/health", health.Handler(reg))
package health

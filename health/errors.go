package health

import "errors"

var (
	// ErrCheckFailed is carried by Results from checkers that observed
	// a failing component, such as an open circuit breaker.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrCheckTimeout is carried by Results for checks the Registry cut
	// off at its per-check timeout.
	ErrCheckTimeout = errors.New("health: check timed out")

	// ErrCheckerNotFound is returned by Registry.Check for names that
	// were never registered.
	ErrCheckerNotFound = errors.New("health: no such checker")
)

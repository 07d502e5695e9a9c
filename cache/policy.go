package cache

import "time"

// Policy decides which read operations are cached and for how long.
type Policy struct {
	// DefaultTTL applies to operations without a PerOperation entry.
	// If zero, those operations are not cached.
	DefaultTTL time.Duration

	// MaxTTL caps every TTL, overrides included. Zero means no cap.
	MaxTTL time.Duration

	// PerOperation overrides the default TTL per operation name.
	// An explicit zero entry disables caching for that operation.
	PerOperation map[string]time.Duration
}

// DefaultPolicy caches reads for 5 minutes with a 1 hour cap.
func DefaultPolicy() Policy {
	return Policy{
		DefaultTTL: 5 * time.Minute,
		MaxTTL:     1 * time.Hour,
	}
}

// NoCachePolicy disables caching for every operation.
func NoCachePolicy() Policy {
	return Policy{
		DefaultTTL: 0,
		MaxTTL:     0,
	}
}

// ShouldCache reports whether the policy caches anything at all. A
// false result lets callers skip building cache machinery entirely.
func (p Policy) ShouldCache() bool {
	if p.DefaultTTL > 0 {
		return true
	}
	for _, ttl := range p.PerOperation {
		if ttl > 0 {
			return true
		}
	}
	return false
}

// TTLFor returns the TTL for an operation, applying the per-operation
// override, the default, and clamping. A zero return disables caching.
func (p Policy) TTLFor(operation string) time.Duration {
	if ttl, ok := p.PerOperation[operation]; ok {
		if ttl <= 0 {
			return 0
		}
		return p.clamp(ttl)
	}
	return p.EffectiveTTL(0)
}

// EffectiveTTL resolves a caller-supplied override against the policy.
// Overrides of zero or less fall back to DefaultTTL; the result is
// clamped to MaxTTL.
func (p Policy) EffectiveTTL(override time.Duration) time.Duration {
	ttl := override
	if ttl <= 0 {
		ttl = p.DefaultTTL
	}
	return p.clamp(ttl)
}

func (p Policy) clamp(ttl time.Duration) time.Duration {
	if p.MaxTTL > 0 && ttl > p.MaxTTL {
		return p.MaxTTL
	}
	return ttl
}

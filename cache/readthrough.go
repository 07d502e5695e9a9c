package cache

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// FillFunc fetches a response from the backend on a cache miss.
type FillFunc func(ctx context.Context) ([]byte, error)

// ReadThrough caches read responses keyed by tenant, operation, and
// request parameters.
type ReadThrough struct {
	cache   Cache
	keyer   Keyer
	policy  Policy
	sfGroup singleflight.Group // collapses concurrent fills per key
}

// NewReadThrough creates a read-through cache.
// If keyer is nil, DefaultKeyer is used.
func NewReadThrough(c Cache, keyer Keyer, policy Policy) (*ReadThrough, error) {
	if c == nil {
		return nil, ErrNilCache
	}
	if keyer == nil {
		keyer = NewDefaultKeyer()
	}
	return &ReadThrough{
		cache:  c,
		keyer:  keyer,
		policy: policy,
	}, nil
}

// GetOrFill returns the cached response for the call, filling the cache on
// a miss. Concurrent misses for the same key share a single fill.
// Fill errors are returned unchanged and are never cached.
func (r *ReadThrough) GetOrFill(ctx context.Context, tenantID, operation string, params any, fill FillFunc) ([]byte, error) {
	ttl := r.policy.TTLFor(operation)
	if ttl <= 0 {
		return fill(ctx)
	}

	key, err := r.keyer.Key(tenantID, operation, params)
	if err != nil {
		// Key generation failed - fill without caching
		return fill(ctx)
	}

	if cached, ok := r.cache.Get(ctx, key); ok {
		return cached, nil
	}

	v, err, _ := r.sfGroup.Do(key, func() (any, error) {
		// A collapsed caller may arrive just after the winner stored the
		// value; re-check before filling.
		if cached, ok := r.cache.Get(ctx, key); ok {
			return cached, nil
		}

		result, err := fill(ctx)
		if err != nil {
			// Don't cache errors
			return nil, err
		}

		_ = r.cache.Set(ctx, key, result, ttl)
		return result, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]byte), nil
}

// Invalidate removes the cached response for a single call.
func (r *ReadThrough) Invalidate(ctx context.Context, tenantID, operation string, params any) error {
	key, err := r.keyer.Key(tenantID, operation, params)
	if err != nil {
		return err
	}
	return r.cache.Delete(ctx, key)
}

// Clear removes all cached responses. Call when credentials or the active
// tenant change.
func (r *ReadThrough) Clear(ctx context.Context) error {
	return r.cache.Clear(ctx)
}

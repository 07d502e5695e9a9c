package cache

import (
	"context"
	"errors"
	"strings"
	"time"
)

// MaxKeyLength bounds cache keys; DefaultKeyer output stays well under
// it unless tenant or operation names are abused.
const MaxKeyLength = 512

var (
	// ErrNilCache reports a nil Cache where a live one is required.
	ErrNilCache = errors.New("cache: nil cache")

	// ErrInvalidKey reports an empty, blank, or control-character key.
	ErrInvalidKey = errors.New("cache: malformed key")

	// ErrKeyTooLong reports a key over MaxKeyLength bytes.
	ErrKeyTooLong = errors.New("cache: key too long")
)

// Cache stores response bytes for read operations.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Context: operations honor ctx where the backing store can block.
// - Errors: Get reports a miss as (nil, false), never as an error.
type Cache interface {
	// Get returns the cached bytes for key, or (nil, false) on a miss.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores value under key for ttl. A ttl of zero or less stores
	// nothing.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete drops key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Clear removes all cached values. Used when credentials or the
	// active tenant change.
	Clear(ctx context.Context) error
}

// ValidateKey rejects keys that would be ambiguous or unsafe in a
// shared store: blank keys, keys with line breaks, and keys over
// MaxKeyLength.
func ValidateKey(key string) error {
	switch {
	case strings.TrimSpace(key) == "":
		return ErrInvalidKey
	case strings.ContainsAny(key, "\n\r"):
		return ErrInvalidKey
	case len(key) > MaxKeyLength:
		return ErrKeyTooLong
	}
	return nil
}

package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Keyer generates deterministic cache keys from call parameters.
//
// Contract:
// - Determinism: equal inputs yield byte-equal keys, across processes and runs.
// - Concurrency: safe for concurrent use.
type Keyer interface {
	// Key generates a cache key from the tenant, operation name, and
	// request parameters.
	Key(tenantID, operation string, params any) (string, error)
}

// DefaultKeyer hashes the canonical JSON form of the parameters.
// encoding/json sorts map keys and emits struct fields in declaration
// order, so equal parameters always marshal to equal bytes.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the stateless default Keyer.
func NewDefaultKeyer() *DefaultKeyer {
	return &DefaultKeyer{}
}

// Key builds a key of the form engram:<tenantID>:<operation>:<hash>,
// where hash is the first 16 hex characters of SHA-256 over the
// canonical JSON of params.
func (k *DefaultKeyer) Key(tenantID, operation string, params any) (string, error) {
	canonical, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("cache: canonicalize params: %w", err)
	}

	sum := sha256.Sum256(canonical)
	key := fmt.Sprintf("engram:%s:%s:%s", tenantID, operation, hex.EncodeToString(sum[:8]))
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	return key, nil
}

var _ Keyer = (*DefaultKeyer)(nil)

// Package cache provides read caching for Engram API responses.
//
// It provides a Cache interface with memory implementation, SHA-256-based
// key derivation scoped by tenant and operation, per-operation TTL
// policies, and a read-through helper that never caches errors.
package cache

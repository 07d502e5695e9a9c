// Package observe provides observability primitives for Engram client calls.
//
// It is a pure instrumentation library: no execution, no transport, no I/O
// beyond exporter setup. Consumers wire the observer into the engram client
// or use Middleware directly around backend calls.
package observe

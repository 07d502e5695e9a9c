// Package auth supplies credentials for Engram API requests.
//
// A TokenSource produces bearer tokens: StaticTokenSource for raw API keys
// and ServiceTokenSource for short-lived signed service tokens. Transport
// injects the token and tenant headers into outgoing HTTP requests, and
// WithTenant/WithActor attach per-call overrides to a context.
package auth

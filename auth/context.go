package auth

import (
	"context"
)

// Context keys for per-call credential overrides.
type contextKey int

const (
	tenantKey contextKey = iota
	actorKey
)

// WithTenant returns a new context that routes requests to the given
// tenant, overriding the client's configured tenant for calls made with
// this context.
func WithTenant(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantKey, tenantID)
}

// TenantFromContext retrieves the tenant override from the context.
// The second return value reports whether an override is present.
func TenantFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(tenantKey).(string)
	return id, ok
}

// WithActor returns a new context that tags requests with the given actor,
// typically the agent or user on whose behalf the call is made.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext retrieves the actor tag from the context.
// The second return value reports whether a tag is present.
func ActorFromContext(ctx context.Context) (string, bool) {
	actor, ok := ctx.Value(actorKey).(string)
	return actor, ok
}

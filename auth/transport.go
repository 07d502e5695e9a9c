package auth

import "net/http"

// Header names used on outgoing requests.
const (
	// TenantHeader routes a request to a tenant.
	TenantHeader = "X-Engram-Tenant"

	// ActorHeader tags a request with the acting agent or user.
	ActorHeader = "X-Engram-Actor"
)

// Transport is an http.RoundTripper that attaches Engram credentials to
// outgoing requests: a bearer token from the configured TokenSource, the
// tenant header, and the actor header when the request context carries one.
//
// Usage:
//
//	client := &http.Client{Transport: &auth.Transport{
//		Source:   source,
//		TenantID: "tenant-a",
//	}}
type Transport struct {
	// Base is the underlying round tripper.
	// If nil, http.DefaultTransport is used.
	Base http.RoundTripper

	// Source supplies the bearer credential for each request.
	Source TokenSource

	// TenantID is sent in the tenant header unless the request context
	// carries a WithTenant override.
	TenantID string
}

// RoundTrip attaches credential headers and delegates to the base
// transport. The original request is not mutated.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Source == nil {
		return nil, ErrNoCredentials
	}

	token, err := t.Source.Token(req.Context())
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, ErrEmptyToken
	}

	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+token)

	tenant := t.TenantID
	if override, ok := TenantFromContext(req.Context()); ok {
		tenant = override
	}
	if tenant != "" {
		clone.Header.Set(TenantHeader, tenant)
	}

	if actor, ok := ActorFromContext(req.Context()); ok && actor != "" {
		clone.Header.Set(ActorHeader, actor)
	}

	return t.base().RoundTrip(clone)
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// Ensure Transport implements http.RoundTripper
var _ http.RoundTripper = (*Transport)(nil)

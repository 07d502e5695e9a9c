package engram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/engramhq/engram-go/observe"
	"github.com/engramhq/engram-go/resilience"
)

// PoliciesService manages governance policies. Policies gate what
// agents may store and recall, so reads are hot: Get is served through
// the client's read cache when Config.CachePolicy allows it, and Put
// invalidates the cached entry.
type PoliciesService struct {
	client *Client
}

// Policy is a governance rule evaluated by the backend.
type Policy struct {
	Name      string   `json:"name"`
	Effect    string   `json:"effect"`
	Actions   []string `json:"actions"`
	Resources []string `json:"resources,omitempty"`

	// Conditions are backend-evaluated match expressions.
	Conditions map[string]string `json:"conditions,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// PolicyList holds all policies for the tenant.
type PolicyList struct {
	Items []Policy `json:"items"`
}

// Get fetches a policy by name. Policy reads run at high priority and
// are cached per tenant under the "policies.get" operation key.
func (s *PoliciesService) Get(ctx context.Context, name string) (*Policy, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name", ErrMissingField)
	}
	c := s.client
	data, err := c.readCache.GetOrFill(ctx, c.tenantFor(ctx), "policies.get", name,
		func(ctx context.Context) ([]byte, error) {
			var policy Policy
			err := c.call(ctx,
				observe.CallMeta{Service: "policies", Operation: "get"},
				apiRequest{
					method: http.MethodGet,
					path:   "/v1/policies/" + url.PathEscape(name),
					out:    &policy,
				},
				resilience.WithPriority(resilience.PriorityHigh))
			if err != nil {
				return nil, err
			}
			return json.Marshal(policy)
		})
	if err != nil {
		return nil, err
	}
	var policy Policy
	if err := json.Unmarshal(data, &policy); err != nil {
		return nil, fmt.Errorf("engram: decode cached policy: %w", err)
	}
	return &policy, nil
}

// Put creates or replaces a policy and invalidates its cached entry.
func (s *PoliciesService) Put(ctx context.Context, policy Policy) (*Policy, error) {
	if policy.Name == "" {
		return nil, fmt.Errorf("%w: name", ErrMissingField)
	}
	if policy.Effect == "" {
		return nil, fmt.Errorf("%w: effect", ErrMissingField)
	}
	c := s.client
	var updated Policy
	err := c.call(ctx,
		observe.CallMeta{Service: "policies", Operation: "put"},
		apiRequest{
			method: http.MethodPut,
			path:   "/v1/policies/" + url.PathEscape(policy.Name),
			body:   policy,
			out:    &updated,
		},
		resilience.WithPriority(resilience.PriorityHigh))
	if err != nil {
		return nil, err
	}
	if err := c.readCache.Invalidate(ctx, c.tenantFor(ctx), "policies.get", policy.Name); err != nil {
		return nil, err
	}
	return &updated, nil
}

// List returns all policies for the tenant.
func (s *PoliciesService) List(ctx context.Context) (*PolicyList, error) {
	var list PolicyList
	err := s.client.call(ctx,
		observe.CallMeta{Service: "policies", Operation: "list"},
		apiRequest{
			method: http.MethodGet,
			path:   "/v1/policies",
			out:    &list,
		},
		resilience.WithPriority(resilience.PriorityLow))
	if err != nil {
		return nil, err
	}
	return &list, nil
}

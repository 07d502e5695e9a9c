package engram

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/engramhq/engram-go/auth"
	"github.com/engramhq/engram-go/cache"
	"github.com/engramhq/engram-go/observe"
	"github.com/engramhq/engram-go/resilience"
)

// Version is the client library version reported in the User-Agent
// header and in telemetry resource attributes.
const Version = "0.1.0"

// DefaultTimeout bounds a single HTTP request when Config.Timeout is
// unset.
const DefaultTimeout = 30 * time.Second

// Config configures a Client.
type Config struct {
	// BaseURL is the root URL of the Engram backend, for example
	// "https://api.engram.dev". Required.
	BaseURL string

	// APIKey is a static bearer token. Ignored when Credentials is
	// set. One of the two is required.
	APIKey string

	// Credentials supplies bearer tokens for each request. Takes
	// precedence over APIKey.
	Credentials auth.TokenSource

	// TenantID is the default tenant for all calls. Individual calls
	// may override it with auth.WithTenant.
	TenantID string

	// UserAgent overrides the User-Agent header.
	// Default: "engram-go/<Version>"
	UserAgent string

	// HTTPClient is the underlying HTTP client. The client is copied,
	// never mutated. Default: a client with DefaultTimeout.
	HTTPClient *http.Client

	// Timeout bounds a single HTTP request when HTTPClient is unset.
	// Default: 30s
	Timeout time.Duration

	// Resilience configures the admission gate in front of all calls.
	// The zero value applies the gate's own defaults.
	Resilience resilience.Config

	// Observer receives traces, metrics, and logs for every call. When
	// set, the Client assumes ownership and shuts it down in Shutdown.
	// Default: a disabled observer.
	Observer observe.Observer

	// CachePolicy controls read-through caching of cacheable reads.
	// The zero value disables caching; see DefaultCachePolicy.
	CachePolicy cache.Policy
}

// DefaultCachePolicy returns a conservative read cache policy: policy
// documents are cached for five minutes, everything else bypasses the
// cache.
func DefaultCachePolicy() cache.Policy {
	return cache.Policy{
		MaxTTL: time.Hour,
		PerOperation: map[string]time.Duration{
			"policies.get": 5 * time.Minute,
		},
	}
}

// applyDefaults fills in zero-valued optional fields.
func (c *Config) applyDefaults() {
	if c.UserAgent == "" {
		c.UserAgent = "engram-go/" + Version
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
}

// validate checks required fields.
func (c *Config) validate() error {
	if c.BaseURL == "" {
		return ErrMissingBaseURL
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ErrInvalidBaseURL
	}
	if c.APIKey == "" && c.Credentials == nil {
		return ErrMissingCredentials
	}
	return nil
}

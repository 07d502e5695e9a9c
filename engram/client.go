package engram

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/engramhq/engram-go/auth"
	"github.com/engramhq/engram-go/cache"
	"github.com/engramhq/engram-go/observe"
	"github.com/engramhq/engram-go/resilience"
)

// Client is the entry point to the Engram backend. Every call passes
// through an admission gate (rate limiter, concurrency cap, circuit
// breaker) and an observation middleware before reaching the wire.
//
// A Client is safe for concurrent use. Create one per backend and share
// it; each Client maintains its own gate state and read cache.
type Client struct {
	baseURL    string
	tenantID   string
	userAgent  string
	httpClient *http.Client
	executor   *resilience.Executor
	middleware *observe.Middleware
	observer   observe.Observer
	readCache  *cache.ReadThrough

	// Conversations manages conversation threads and their messages.
	Conversations *ConversationsService

	// Memories stores and searches vector memories.
	Memories *MemoriesService

	// Facts manages subject-predicate-object facts.
	Facts *FactsService

	// Sessions manages agent sessions.
	Sessions *SessionsService

	// Policies manages governance policies.
	Policies *PoliciesService

	// Messages exchanges agent-to-agent messages.
	Messages *MessagesService
}

// New creates a Client from cfg.
func New(cfg Config) (*Client, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	source := cfg.Credentials
	if source == nil {
		source = auth.NewStaticTokenSource(cfg.APIKey)
	}

	obs := cfg.Observer
	if obs == nil {
		var err error
		obs, err = observe.NewObserver(context.Background(), observe.Config{
			ServiceName: "engram-go",
			Version:     Version,
		})
		if err != nil {
			return nil, err
		}
	}

	events, err := observe.NewCircuitEvents(obs)
	if err != nil {
		return nil, err
	}
	cfg.Resilience.CircuitBreaker.Observers = append(
		[]resilience.CircuitObserver{events},
		cfg.Resilience.CircuitBreaker.Observers...,
	)

	executor, err := resilience.New(cfg.Resilience)
	if err != nil {
		return nil, err
	}

	middleware, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		return nil, err
	}

	readCache, err := cache.NewReadThrough(cache.NewMemoryCache(), nil, cfg.CachePolicy)
	if err != nil {
		return nil, err
	}

	base := cfg.HTTPClient
	if base == nil {
		base = &http.Client{Timeout: cfg.Timeout}
	}
	// Copy so the caller's client is never mutated.
	httpClient := *base
	httpClient.Transport = &auth.Transport{
		Base:     base.Transport,
		Source:   source,
		TenantID: cfg.TenantID,
	}

	c := &Client{
		baseURL:    cfg.BaseURL,
		tenantID:   cfg.TenantID,
		userAgent:  cfg.UserAgent,
		httpClient: &httpClient,
		executor:   executor,
		middleware: middleware,
		observer:   obs,
		readCache:  readCache,
	}
	c.Conversations = &ConversationsService{client: c}
	c.Memories = &MemoriesService{client: c}
	c.Facts = &FactsService{client: c}
	c.Sessions = &SessionsService{client: c}
	c.Policies = &PoliciesService{client: c}
	c.Messages = &MessagesService{client: c}
	return c, nil
}

// call runs one API exchange through the observation middleware and the
// admission gate. Gate rejections never reach the wire but are still
// recorded by the middleware.
func (c *Client) call(ctx context.Context, meta observe.CallMeta, r apiRequest, opts ...resilience.CallOption) error {
	meta.RequestID = uuid.NewString()
	meta.TenantID = c.tenantFor(ctx)
	return c.middleware.Observe(ctx, meta, func(ctx context.Context) error {
		return c.executor.Execute(ctx, func(ctx context.Context) error {
			return c.send(ctx, r, meta.RequestID)
		}, opts...)
	})
}

// tenantFor resolves the effective tenant for a call.
func (c *Client) tenantFor(ctx context.Context) string {
	if id, ok := auth.TenantFromContext(ctx); ok {
		return id
	}
	return c.tenantID
}

// Ping verifies connectivity and credentials. It runs at high priority
// so probes are admitted ahead of queued bulk work.
func (c *Client) Ping(ctx context.Context) error {
	return c.call(ctx, observe.CallMeta{Operation: "ping"},
		apiRequest{method: http.MethodGet, path: "/v1/ping"},
		resilience.WithPriority(resilience.PriorityHigh))
}

// Metrics returns a snapshot of the admission gate. Client satisfies
// health.MetricsProvider, so it can back a health.GateChecker directly.
func (c *Client) Metrics() resilience.Metrics {
	return c.executor.Metrics()
}

// ClearCache drops all read-through cache entries.
func (c *Client) ClearCache(ctx context.Context) error {
	return c.readCache.Clear(ctx)
}

// Shutdown drains in-flight calls and flushes telemetry. Calls started
// after shutdown begins fail with resilience.ErrDraining. The observer
// is shut down regardless of who supplied it.
func (c *Client) Shutdown(ctx context.Context) error {
	return errors.Join(c.executor.Shutdown(ctx), c.observer.Shutdown(ctx))
}

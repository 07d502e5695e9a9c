// Package engram is the client for the Engram memory platform.
//
// A Client exposes service handles for conversations, vector memories,
// facts, sessions, governance policies, and agent-to-agent messages.
// Every call passes through one shared admission gate (rate limiter,
// circuit breaker, bounded priority queue) and is traced, measured, and
// logged through the observe package. Authentication headers are
// attached by an auth.Transport; policy reads go through a per-tenant
// read cache.
//
// # Usage
//
//	client, err := engram.New(engram.Config{
//	    BaseURL:  "https://api.engram.dev",
//	    APIKey:   os.Getenv("ENGRAM_API_KEY"),
//	    TenantID: "tenant-a",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Shutdown(context.Background())
//
//	mem, err := client.Memories.Store(ctx, engram.StoreMemoryRequest{
//	    Text: "the user prefers concise answers",
//	})
//
// Configuration may also come from the environment:
//
//	_ = engram.LoadDotEnv()
//	cfg, err := engram.ConfigFromEnv(ctx)
//
// # Tenancy
//
// Config.TenantID sets the default tenant for every call. A single call
// can act on another tenant through the request context:
//
//	ctx := auth.WithTenant(ctx, "tenant-b")
//	conv, err := client.Conversations.Get(ctx, id)
//
// # Priorities and shedding
//
// Calls compete for admission when the backend is saturated. List walks
// run at low priority, interactive reads and writes at normal priority,
// and policy reads and pings at high priority. Rejections surface as
// resilience sentinel errors (resilience.ErrRateLimitExceeded,
// resilience.ErrCircuitOpen, resilience.ErrQueueFull) without reaching
// the wire. The client never retries; retry policy belongs to the
// caller.
package engram

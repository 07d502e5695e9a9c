package observe

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/engramhq/engram-go/resilience"
)

// benchObserver builds an Observer for benchmarks and registers its
// shutdown as cleanup.
func benchObserver(b *testing.B, cfg Config) Observer {
	b.Helper()
	cfg.ServiceName = "bench"
	obs, err := NewObserver(context.Background(), cfg)
	if err != nil {
		b.Fatalf("NewObserver() error = %v", err)
	}
	b.Cleanup(func() { _ = obs.Shutdown(context.Background()) })
	return obs
}

// BenchmarkLogger measures the JSON line logger: a plain line, the
// call-scoped path, and a line dropped by the level filter.
func BenchmarkLogger(b *testing.B) {
	ctx := context.Background()

	b.Run("info", func(b *testing.B) {
		logger := NewLoggerWithWriter("info", io.Discard)
		for i := 0; i < b.N; i++ {
			logger.Info(ctx, "benchmark message", Field{Key: "iteration", Value: i})
		}
	})
	b.Run("bound call", func(b *testing.B) {
		logger := NewLoggerWithWriter("info", io.Discard)
		meta := CallMeta{Service: "memories", Operation: "store", TenantID: "tenant-1"}
		for i := 0; i < b.N; i++ {
			logger.WithCall(meta).Info(ctx, "backend call", Field{Key: "status", Value: 200})
		}
	})
	b.Run("filtered", func(b *testing.B) {
		logger := NewLoggerWithWriter("error", io.Discard)
		for i := 0; i < b.N; i++ {
			logger.Debug(ctx, "filtered")
		}
	})
}

// BenchmarkCallMeta_Names measures span and call name generation.
func BenchmarkCallMeta_Names(b *testing.B) {
	meta := CallMeta{Service: "memories", Operation: "store"}

	for i := 0; i < b.N; i++ {
		_ = meta.SpanName()
		_ = meta.CallName()
	}
}

// BenchmarkRejectStage measures rejection classification for both a
// gate error and a plain error.
func BenchmarkRejectStage(b *testing.B) {
	gateErr := fmt.Errorf("call: %w", resilience.ErrRateLimitExceeded)
	plainErr := fmt.Errorf("backend unavailable")

	for i := 0; i < b.N; i++ {
		_ = RejectStage(gateErr)
		_ = RejectStage(plainErr)
	}
}

// BenchmarkMetrics_RecordCall measures recording one call outcome.
func BenchmarkMetrics_RecordCall(b *testing.B) {
	obs := benchObserver(b, Config{Metrics: MetricsConfig{Enabled: true, Exporter: "none"}})
	metrics, err := newMetrics(obs.Meter())
	if err != nil {
		b.Fatalf("newMetrics() error = %v", err)
	}

	ctx := context.Background()
	meta := CallMeta{Service: "memories", Operation: "store"}
	callErr := fmt.Errorf("benchmark error")

	b.Run("ok", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			metrics.RecordCall(ctx, meta, 100*time.Millisecond, nil)
		}
	})
	b.Run("error", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			metrics.RecordCall(ctx, meta, 100*time.Millisecond, callErr)
		}
	})
}

// BenchmarkMiddleware_Observe measures the full per-call envelope.
func BenchmarkMiddleware_Observe(b *testing.B) {
	ctx := context.Background()
	meta := CallMeta{Service: "memories", Operation: "store"}
	fn := func(ctx context.Context) error { return nil }

	b.Run("tracing and metrics", func(b *testing.B) {
		obs := benchObserver(b, Config{
			Tracing: TracingConfig{Enabled: true, Exporter: "none"},
			Metrics: MetricsConfig{Enabled: true, Exporter: "none"},
		})
		mw, err := MiddlewareFromObserver(obs)
		if err != nil {
			b.Fatalf("MiddlewareFromObserver() error = %v", err)
		}
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_ = mw.Observe(ctx, meta, fn)
		}
	})
	b.Run("with logging", func(b *testing.B) {
		obs := benchObserver(b, Config{
			Tracing: TracingConfig{Enabled: true, Exporter: "none"},
			Metrics: MetricsConfig{Enabled: true, Exporter: "none"},
		})
		metrics, err := newMetrics(obs.Meter())
		if err != nil {
			b.Fatalf("newMetrics() error = %v", err)
		}
		mw := NewMiddleware(newTracer(obs.Tracer()), metrics, NewLoggerWithWriter("info", io.Discard))
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_ = mw.Observe(ctx, meta, fn)
		}
	})
}

// BenchmarkConcurrent_Logger measures contention on the shared writer lock.
func BenchmarkConcurrent_Logger(b *testing.B) {
	logger := NewLoggerWithWriter("info", io.Discard)
	ctx := context.Background()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			logger.Info(ctx, "concurrent message", Field{Key: "status", Value: 200})
		}
	})
}

// BenchmarkConcurrent_Middleware measures parallel calls through one middleware.
func BenchmarkConcurrent_Middleware(b *testing.B) {
	obs := benchObserver(b, Config{
		Tracing: TracingConfig{Enabled: true, Exporter: "none"},
		Metrics: MetricsConfig{Enabled: true, Exporter: "none"},
	})
	mw, err := MiddlewareFromObserver(obs)
	if err != nil {
		b.Fatalf("MiddlewareFromObserver() error = %v", err)
	}

	ctx := context.Background()
	fn := func(ctx context.Context) error { return nil }

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			meta := CallMeta{Service: "memories", Operation: fmt.Sprintf("op_%d", i%8)}
			_ = mw.Observe(ctx, meta, fn)
			i++
		}
	})
}

// BenchmarkConfig_Validate measures configuration validation.
func BenchmarkConfig_Validate(b *testing.B) {
	cfg := Config{
		ServiceName: "engram-go",
		Version:     "0.1.0",
		Tracing:     TracingConfig{Enabled: true, Exporter: "otlp", SamplePct: 0.5},
		Metrics:     MetricsConfig{Enabled: true, Exporter: "prometheus"},
		Logging:     LoggingConfig{Enabled: true, Level: "info"},
	}

	for i := 0; i < b.N; i++ {
		_ = cfg.Validate()
	}
}

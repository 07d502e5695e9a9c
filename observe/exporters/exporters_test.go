package exporters

import (
	"context"
	"strings"
	"testing"
)

// clearOTLPEnv blanks the endpoint environment variables for the test,
// restoring them afterwards.
func clearOTLPEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"OTEL_EXPORTER_OTLP_ENDPOINT",
		"OTEL_EXPORTER_OTLP_TRACES_ENDPOINT",
		"OTEL_EXPORTER_OTLP_METRICS_ENDPOINT",
	} {
		t.Setenv(name, "")
	}
}

func TestNewTracingExporter(t *testing.T) {
	clearOTLPEnv(t)

	tests := []struct {
		name     string
		exporter string
		endpoint string
		wantErr  string // substring, "" means success
	}{
		{"stdout", "stdout", "", ""},
		{"none", "none", "", ""},
		{"empty name", "", "", ""},
		{"otlp with explicit endpoint", "otlp", "localhost:4317", ""},
		{"otlp without endpoint", "otlp", "", "endpoint not configured"},
		{"unknown name", "jaeger", "", "unknown exporter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp, err := NewTracingExporter(context.Background(), tt.exporter, tt.endpoint)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("NewTracingExporter(%q) error = %v, want containing %q", tt.exporter, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewTracingExporter(%q) error = %v", tt.exporter, err)
			}
			if exp == nil {
				t.Errorf("NewTracingExporter(%q) = nil, want exporter", tt.exporter)
			}
		})
	}
}

func TestNewTracingExporter_EnvFallback(t *testing.T) {
	clearOTLPEnv(t)
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "http://collector:4317")

	exp, err := NewTracingExporter(context.Background(), "otlp", "")
	if err != nil {
		t.Fatalf("NewTracingExporter() error = %v", err)
	}
	if exp == nil {
		t.Error("NewTracingExporter() = nil, want exporter from env endpoint")
	}
}

func TestNewMetricsReader(t *testing.T) {
	clearOTLPEnv(t)

	tests := []struct {
		name     string
		exporter string
		endpoint string
		wantErr  string
	}{
		{"stdout", "stdout", "", ""},
		{"none", "none", "", ""},
		{"empty name", "", "", ""},
		{"otlp with explicit endpoint", "otlp", "localhost:4317", ""},
		{"otlp without endpoint", "otlp", "", "endpoint not configured"},
		{"unknown name", "statsd", "", "unknown metrics exporter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader, err := NewMetricsReader(context.Background(), tt.exporter, tt.endpoint)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("NewMetricsReader(%q) error = %v, want containing %q", tt.exporter, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewMetricsReader(%q) error = %v", tt.exporter, err)
			}
			if reader == nil {
				t.Errorf("NewMetricsReader(%q) = nil, want reader", tt.exporter)
			}
		})
	}
}

// Prometheus registers collectors with the default registry, so build
// it exactly once per binary.
func TestNewMetricsReader_Prometheus(t *testing.T) {
	reader, err := NewMetricsReader(context.Background(), "prometheus", "")
	if err != nil {
		t.Fatalf("NewMetricsReader(prometheus) error = %v", err)
	}
	if reader == nil {
		t.Error("NewMetricsReader(prometheus) = nil, want reader")
	}
}

func TestEndpointFrom(t *testing.T) {
	clearOTLPEnv(t)
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://primary:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "http://traces:4317")

	tests := []struct {
		name     string
		explicit string
		envVars  []string
		want     string
	}{
		{"explicit wins", "http://cfg:4317", []string{"OTEL_EXPORTER_OTLP_ENDPOINT"}, "http://cfg:4317"},
		{"first env var wins", "", []string{"OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"}, "http://primary:4317"},
		{"skips empty env var", "", []string{"OTEL_EXPORTER_OTLP_METRICS_ENDPOINT", "OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"}, "http://traces:4317"},
		{"nothing set", "", []string{"OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := endpointFrom(tt.explicit, tt.envVars...); got != tt.want {
				t.Errorf("endpointFrom(%q, %v) = %q, want %q", tt.explicit, tt.envVars, got, tt.want)
			}
		})
	}
}

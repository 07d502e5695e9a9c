package observe

import "errors"

// Sentinels returned by Config.Validate and NewObserver. Callers match
// them with errors.Is; the wrapped message names the offending field.
var (
	// ErrMissingServiceName reports an empty Config.ServiceName.
	ErrMissingServiceName = errors.New("observe: ServiceName is empty")

	// ErrInvalidSamplePct reports a Tracing.SamplePct outside [0, 1].
	ErrInvalidSamplePct = errors.New("observe: sample fraction outside [0, 1]")

	// ErrInvalidTracingExporter reports a tracing exporter name not in
	// ValidTracingExporters.
	ErrInvalidTracingExporter = errors.New("observe: unknown tracing exporter")

	// ErrInvalidMetricsExporter reports a metrics exporter name not in
	// ValidMetricsExporters.
	ErrInvalidMetricsExporter = errors.New("observe: unknown metrics exporter")

	// ErrInvalidLogLevel reports a log level not in ValidLogLevels.
	ErrInvalidLogLevel = errors.New("observe: unknown log level")
)

// Sentinels surfaced after construction.
var (
	// ErrNilObserver reports a nil *Observer where a live one is required.
	ErrNilObserver = errors.New("observe: nil observer")

	// ErrMissingOperation reports a CallMeta with no Operation set.
	ErrMissingOperation = errors.New("observe: operation name is empty")
)

// Bounds for TracingConfig.SamplePct.
const (
	MinSamplePct = 0.0
	MaxSamplePct = 1.0
)

// Exporter and level names Config.Validate accepts. The empty string
// leaves the signal at its default; "none" disables it.
var (
	ValidTracingExporters = []string{"otlp", "stdout", "none", ""}
	ValidMetricsExporters = []string{"otlp", "prometheus", "stdout", "none", ""}
	ValidLogLevels        = []string{"debug", "info", "warn", "error", ""}
)

// RedactedFields lists field keys whose values are replaced with
// [REDACTED] in log output. Memory content, search queries, and
// credentials must never reach log aggregation.
var RedactedFields = []string{
	"authorization", "password", "secret", "credential",
	"token", "api_key", "apiKey",
	"content", "query",
}

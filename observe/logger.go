package observe

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"
)

// LogLevel orders log severities. Lines below the configured level are
// dropped before any formatting work happens.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = map[LogLevel]string{
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
}

// ParseLogLevel maps a level name to its LogLevel. Unknown names fall
// back to LevelInfo rather than erroring; names are validated up front
// by Config.Validate.
func ParseLogLevel(s string) LogLevel {
	for level, name := range levelNames {
		if name == s {
			return level
		}
	}
	return LevelInfo
}

func (l LogLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "info"
}

// redacted is the lookup form of RedactedFields.
var redacted = func() map[string]bool {
	m := make(map[string]bool, len(RedactedFields))
	for _, k := range RedactedFields {
		m[k] = true
	}
	return m
}()

// jsonLogger writes one JSON object per line. A mutex serializes
// writes so concurrent calls never interleave bytes on the writer.
type jsonLogger struct {
	level LogLevel
	mu    *sync.Mutex
	out   io.Writer
	bound map[string]any // call attributes attached via WithCall
}

// NewLogger returns a JSON line logger writing to stderr.
func NewLogger(level string) Logger {
	return NewLoggerWithWriter(level, os.Stderr)
}

// NewLoggerWithWriter returns a JSON line logger writing to w.
func NewLoggerWithWriter(level string, w io.Writer) Logger {
	return &jsonLogger{
		level: ParseLogLevel(level),
		mu:    &sync.Mutex{},
		out:   w,
	}
}

// WithCall returns a logger whose entries carry the call identity.
// The returned logger shares the parent's writer and lock.
func (l *jsonLogger) WithCall(meta CallMeta) Logger {
	bound := make(map[string]any, len(l.bound)+5)
	for k, v := range l.bound {
		bound[k] = v
	}

	bound["engram.call"] = meta.CallName()
	bound["engram.operation"] = meta.Operation
	if meta.Service != "" {
		bound["engram.service"] = meta.Service
	}
	if meta.TenantID != "" {
		bound["engram.tenant_id"] = meta.TenantID
	}
	if meta.RequestID != "" {
		bound["engram.request_id"] = meta.RequestID
	}

	return &jsonLogger{
		level: l.level,
		mu:    l.mu,
		out:   l.out,
		bound: bound,
	}
}

func (l *jsonLogger) Info(ctx context.Context, msg string, fields ...Field) {
	l.emit(LevelInfo, msg, fields)
}

func (l *jsonLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.emit(LevelWarn, msg, fields)
}

func (l *jsonLogger) Error(ctx context.Context, msg string, fields ...Field) {
	l.emit(LevelError, msg, fields)
}

func (l *jsonLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.emit(LevelDebug, msg, fields)
}

func (l *jsonLogger) emit(level LogLevel, msg string, fields []Field) {
	if level < l.level {
		return
	}

	entry := make(map[string]any, len(l.bound)+len(fields)+3)
	entry["timestamp"] = time.Now().UTC().Format(time.RFC3339Nano)
	entry["level"] = level.String()
	entry["msg"] = msg
	for k, v := range l.bound {
		entry[k] = v
	}
	for _, f := range fields {
		if redacted[f.Key] {
			entry[f.Key] = "[REDACTED]"
		} else {
			entry[f.Key] = f.Value
		}
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return // drop entries that cannot marshal
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.out.Write(data)
	l.out.Write([]byte("\n"))
}

// nopLogger discards everything.
type nopLogger struct{}

func (nopLogger) Info(context.Context, string, ...Field)  {}
func (nopLogger) Warn(context.Context, string, ...Field)  {}
func (nopLogger) Error(context.Context, string, ...Field) {}
func (nopLogger) Debug(context.Context, string, ...Field) {}
func (nopLogger) WithCall(CallMeta) Logger                { return nopLogger{} }

var _ Logger = (*jsonLogger)(nil)
var _ Logger = nopLogger{}

package secret

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Sentinel errors for secret resolution.
var (
	ErrNotFound      = errors.New("secret: not found")
	ErrEmptyValue    = errors.New("secret: empty value")
	ErrUnknownSource = errors.New("secret: unknown source")
)

// Source resolves secrets by reference.
//
// Implementations must be safe for concurrent use and must not log secret
// values.
type Source interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

// EnvSource resolves references against the process environment.
type EnvSource struct{}

// Resolve returns the value of the environment variable named by ref.
// Missing and empty variables are errors; a credential that silently
// resolves to "" is a misconfiguration.
func (EnvSource) Resolve(_ context.Context, ref string) (string, error) {
	value, ok := os.LookupEnv(ref)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	if value == "" {
		return "", fmt.Errorf("%w: %s", ErrEmptyValue, ref)
	}
	return value, nil
}

// ParseSecretRef parses a reference of the form:
//
//	secretref:<source>:<ref>
func ParseSecretRef(value string) (source string, ref string, ok bool) {
	rest, found := strings.CutPrefix(value, "secretref:")
	if !found {
		return "", "", false
	}
	source, ref, found = strings.Cut(rest, ":")
	if !found || source == "" || ref == "" {
		return "", "", false
	}
	return source, ref, true
}

// Resolve resolves a configuration value.
//
// Values of the form secretref:env:NAME are resolved through src (nil src
// uses EnvSource). All other values pass through ExpandEnvStrict.
func Resolve(ctx context.Context, src Source, value string) (string, error) {
	source, ref, ok := ParseSecretRef(value)
	if !ok {
		return ExpandEnvStrict(value)
	}
	if source != "env" {
		return "", fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}
	if src == nil {
		src = EnvSource{}
	}
	return src.Resolve(ctx, ref)
}

// Ensure EnvSource implements Source
var _ Source = EnvSource{}

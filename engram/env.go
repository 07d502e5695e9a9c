package engram

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/engramhq/engram-go/secret"
)

// LoadDotEnv loads environment variables from the named files, or from
// ".env" in the working directory when none are given. Variables
// already set in the environment keep their values. A missing default
// ".env" is not an error.
func LoadDotEnv(paths ...string) error {
	err := godotenv.Load(paths...)
	if err != nil && len(paths) == 0 && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// ConfigFromEnv builds a Config from the process environment.
//
// Recognized variables:
//
//	ENGRAM_BASE_URL        backend root URL
//	ENGRAM_API_KEY         static bearer token
//	ENGRAM_TENANT_ID       default tenant
//	ENGRAM_TIMEOUT         per-request timeout, e.g. "10s"
//	ENGRAM_RATE_LIMIT      client-side requests per second
//	ENGRAM_RATE_BURST      rate limiter burst size
//	ENGRAM_MAX_CONCURRENT  in-flight request cap
//	ENGRAM_QUEUE_SIZE      admission queue capacity
//
// ENGRAM_BASE_URL, ENGRAM_API_KEY, and ENGRAM_TENANT_ID may use ${VAR}
// expansion or secretref:env:NAME references; see the secret package.
// Unset variables leave the corresponding Config fields zero, so the
// result can be amended before calling New.
func ConfigFromEnv(ctx context.Context) (Config, error) {
	var cfg Config

	for _, v := range []struct {
		name string
		dst  *string
	}{
		{"ENGRAM_BASE_URL", &cfg.BaseURL},
		{"ENGRAM_API_KEY", &cfg.APIKey},
		{"ENGRAM_TENANT_ID", &cfg.TenantID},
	} {
		raw := os.Getenv(v.name)
		if raw == "" {
			continue
		}
		resolved, err := secret.Resolve(ctx, nil, raw)
		if err != nil {
			return Config{}, fmt.Errorf("engram: %s: %w", v.name, err)
		}
		*v.dst = resolved
	}

	if raw := os.Getenv("ENGRAM_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("engram: ENGRAM_TIMEOUT: %w", err)
		}
		cfg.Timeout = d
	}
	if raw := os.Getenv("ENGRAM_RATE_LIMIT"); raw != "" {
		rate, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Config{}, fmt.Errorf("engram: ENGRAM_RATE_LIMIT: %w", err)
		}
		cfg.Resilience.RateLimiter.Rate = rate
	}
	for _, v := range []struct {
		name string
		dst  *int
	}{
		{"ENGRAM_RATE_BURST", &cfg.Resilience.RateLimiter.Burst},
		{"ENGRAM_MAX_CONCURRENT", &cfg.Resilience.Concurrency.MaxConcurrent},
		{"ENGRAM_QUEUE_SIZE", &cfg.Resilience.Concurrency.QueueSize},
	} {
		raw := os.Getenv(v.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("engram: %s: %w", v.name, err)
		}
		*v.dst = n
	}

	return cfg, nil
}

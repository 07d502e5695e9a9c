package resilience

import (
	"sync"
	"time"
)

// Defaults applied by NewRateLimiter when a config field is zero.
const (
	defaultRate  = 100
	defaultBurst = 10
)

// RateLimiterConfig configures the token bucket rate limiter.
type RateLimiterConfig struct {
	// Rate is the number of permits refilled per second.
	// Default: 100
	Rate float64

	// Burst is the bucket capacity, the maximum permits that can
	// accumulate.
	// Default: 10
	Burst int
}

// RateLimiter is a token bucket. Permits accrue continuously at Rate
// per second up to Burst, and each admitted call consumes one. The
// bucket never blocks: a caller without a permit is turned away on the
// spot.
type RateLimiter struct {
	rate     float64
	capacity float64

	mu     sync.Mutex
	tokens float64
	last   time.Time
}

// NewRateLimiter creates a rate limiter with a full bucket.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	rate := config.Rate
	if rate <= 0 {
		rate = defaultRate
	}
	burst := config.Burst
	if burst <= 0 {
		burst = defaultBurst
	}

	return &RateLimiter{
		rate:     rate,
		capacity: float64(burst),
		tokens:   float64(burst),
		last:     time.Now(),
	}
}

// Allow reports whether one call is admitted, consuming a permit if so.
func (rl *RateLimiter) Allow() bool {
	return rl.AllowN(1)
}

// AllowN reports whether n calls are admitted together, consuming n
// permits if so. A rejection leaves the balance untouched apart from
// refill bookkeeping, so rejected callers cannot drain the bucket.
func (rl *RateLimiter) AllowN(n int) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refill(time.Now())

	need := float64(n)
	if rl.tokens < need {
		return false
	}
	rl.tokens -= need
	return true
}

// refill credits permits for the time elapsed since the previous
// refill. Callers must hold mu.
func (rl *RateLimiter) refill(now time.Time) {
	elapsed := now.Sub(rl.last)
	rl.last = now
	rl.tokens = min(rl.tokens+elapsed.Seconds()*rl.rate, rl.capacity)
}

// Tokens returns the number of permits currently available.
func (rl *RateLimiter) Tokens() float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refill(time.Now())
	return rl.tokens
}

// Reset refills the bucket to capacity.
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.tokens = rl.capacity
	rl.last = time.Now()
}

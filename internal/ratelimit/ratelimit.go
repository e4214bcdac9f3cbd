// Package ratelimit throttles search requests per caller at the transport boundary.
package ratelimit

import (
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

// AnonymousKey is the shared bucket for requests without a caller identity
const AnonymousKey = "anonymous"

// Config holds per-caller rate limiting configuration.
type Config struct {
	// RequestsPerSecond is the sustained rate limit.
	RequestsPerSecond float64
	// BurstSize is the maximum burst size.
	BurstSize int
	// MaxCallers bounds how many caller buckets are remembered.
	MaxCallers int
}

// DefaultConfig allows roughly one search per 300ms per caller, with a
// small burst for typeahead.
var DefaultConfig = Config{
	RequestsPerSecond: 1.0 / 0.3,
	BurstSize:         5,
	MaxCallers:        10000,
}

// Limiter hands out one token bucket per caller.
// Buckets for callers not seen recently are evicted and start full again.
type Limiter struct {
	mu       sync.Mutex
	limiters *lru.Cache[string, *rate.Limiter]
	limit    rate.Limit
	burst    int
}

// New creates a Limiter. Zero fields fall back to DefaultConfig.
func New(cfg Config) (*Limiter, error) {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultConfig.RequestsPerSecond
	}
	if cfg.BurstSize <= 0 {
		cfg.BurstSize = DefaultConfig.BurstSize
	}
	if cfg.MaxCallers <= 0 {
		cfg.MaxCallers = DefaultConfig.MaxCallers
	}

	limiters, err := lru.New[string, *rate.Limiter](cfg.MaxCallers)
	if err != nil {
		return nil, fmt.Errorf("failed to create limiter registry: %w", err)
	}

	return &Limiter{
		limiters: limiters,
		limit:    rate.Limit(cfg.RequestsPerSecond),
		burst:    cfg.BurstSize,
	}, nil
}

// Allow reports whether callerID may search now, consuming a token if so
func (l *Limiter) Allow(callerID string) bool {
	return l.AllowAt(callerID, time.Now())
}

// AllowAt is Allow at an explicit instant
func (l *Limiter) AllowAt(callerID string, now time.Time) bool {
	return l.bucket(callerID).AllowN(now, 1)
}

// RetryAfter estimates how long callerID must wait for the next token.
// It does not consume a token.
func (l *Limiter) RetryAfter(callerID string) time.Duration {
	return l.RetryAfterAt(callerID, time.Now())
}

// RetryAfterAt is RetryAfter at an explicit instant
func (l *Limiter) RetryAfterAt(callerID string, now time.Time) time.Duration {
	tokens := l.bucket(callerID).TokensAt(now)
	if tokens >= 1 {
		return 0
	}
	return time.Duration((1 - tokens) / float64(l.limit) * float64(time.Second))
}

func (l *Limiter) bucket(callerID string) *rate.Limiter {
	if callerID == "" {
		callerID = AnonymousKey
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if limiter, ok := l.limiters.Get(callerID); ok {
		return limiter
	}
	limiter := rate.NewLimiter(l.limit, l.burst)
	l.limiters.Add(callerID, limiter)
	return limiter
}

package ratelimit

import (
	"math"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

const (
	idleTTL         = time.Hour
	cleanupInterval = 10 * time.Minute
)

// bucket tracks rate limit state for a single key
type bucket struct {
	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
}

// Limiter implements token bucket rate limiting per key.
// Idle keys are forgotten after an hour.
type Limiter struct {
	buckets    *cache.Cache
	mu         sync.Mutex
	maxTokens  float64 // Maximum tokens in bucket
	refillRate float64 // Tokens added per second
	now        func() time.Time
}

type Option func(*Limiter)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// New allows requestsPerMinute sustained, with bursts up to burst.
// A burst below one falls back to requestsPerMinute.
func New(requestsPerMinute, burst int, opts ...Option) *Limiter {
	if burst < 1 {
		burst = requestsPerMinute
	}

	l := &Limiter{
		buckets:    cache.New(idleTTL, cleanupInterval),
		maxTokens:  float64(burst),
		refillRate: float64(requestsPerMinute) / 60.0,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow takes one token for key, reporting the wait until the next one otherwise
func (l *Limiter) Allow(key string) (bool, time.Duration) {
	now := l.now()

	l.mu.Lock()
	var b *bucket
	if item, found := l.buckets.Get(key); found {
		b = item.(*bucket)
	} else {
		b = &bucket{tokens: l.maxTokens, lastRefill: now}
	}
	l.buckets.SetDefault(key, b)
	l.mu.Unlock()

	b.mu.Lock()
	defer b.mu.Unlock()

	// Refill tokens based on elapsed time
	elapsed := now.Sub(b.lastRefill).Seconds()
	b.tokens = math.Min(l.maxTokens, b.tokens+elapsed*l.refillRate)
	b.lastRefill = now

	if b.tokens >= 1.0 {
		b.tokens -= 1.0
		return true, 0
	}

	if l.refillRate <= 0 {
		return false, time.Minute
	}
	wait := (1.0 - b.tokens) / l.refillRate
	return false, time.Duration(wait * float64(time.Second))
}

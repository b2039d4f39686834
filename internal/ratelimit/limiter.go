// Package ratelimit implements the Rate-Limit Coordinator: a process-wide
// set of token-bucket limiters keyed by operation class, each embedding a
// circuit breaker so a class that is failing outright trips open
// independent of token availability.
//
// Grounded on redditdl's core/concurrency/limiters.py
// (ConcurrentRateLimiter/MultiLimiter: same constants, same backoff
// formula) and structurally on this module's own pkg/httpclient/manager.go
// (CircuitBreakerManager: named-instance registry, GetOrCreate,
// UpdateConfig, GetAllStats) — Coordinator mirrors that manager shape
// applied to TokenBucket instead of CircuitBreaker.
package ratelimit

import (
	"math"
	"sync"
	"time"

	"github.com/jmylchreest/mediapull/internal/models"
)

// ClassConfig tunes one limiter class.
type ClassConfig struct {
	RefillRate        float64 // tokens per second
	Burst             float64
	MaxConcurrent     int
	BaseBackoffFactor float64
	MaxBackoff        time.Duration
}

// DefaultClassConfigs returns the four built-in classes and their
// tuned defaults below.
func DefaultClassConfigs() map[models.LimiterClass]ClassConfig {
	return map[models.LimiterClass]ClassConfig{
		models.LimiterAPI: {
			RefillRate: 1.4, Burst: 3, MaxConcurrent: 5,
			BaseBackoffFactor: 2.0, MaxBackoff: 30 * time.Second,
		},
		models.LimiterPublic: {
			RefillRate: 0.16, Burst: 2, MaxConcurrent: 3,
			BaseBackoffFactor: 3.0, MaxBackoff: 60 * time.Second,
		},
		models.LimiterDownloads: {
			RefillRate: 2.0, Burst: 10, MaxConcurrent: 15,
			BaseBackoffFactor: 1.5, MaxBackoff: 20 * time.Second,
		},
		models.LimiterDatabase: {
			RefillRate: 10.0, Burst: 50, MaxConcurrent: 20,
			BaseBackoffFactor: 1.2, MaxBackoff: 5 * time.Second,
		},
	}
}

// TokenBucket is a single class's live limiter: a token bucket gated by a
// concurrency semaphore, with exponential backoff on repeated starvation.
type TokenBucket struct {
	mu    sync.Mutex
	cfg   ClassConfig
	sem   chan struct{}
	state models.RateLimitState
}

// NewTokenBucket creates a TokenBucket for cfg, starting with a full
// bucket.
func NewTokenBucket(class models.LimiterClass, cfg ClassConfig) *TokenBucket {
	return &TokenBucket{
		cfg: cfg,
		sem: make(chan struct{}, cfg.MaxConcurrent),
		state: models.RateLimitState{
			Class:        class,
			Tokens:       cfg.Burst,
			LastRefill:   time.Now(),
			BurstCeiling: cfg.Burst,
			RefillRate:   cfg.RefillRate,
		},
	}
}

// Acquire blocks until a token is available for this class, honoring the
// concurrency semaphore and any active backoff. Implements the
// five-step refill/backoff algorithm exactly.
func (b *TokenBucket) Acquire() {
	b.sem <- struct{}{}
	defer func() { <-b.sem }()

	for {
		b.mu.Lock()
		now := time.Now()

		if now.Before(b.state.BackoffUntil) {
			wait := b.state.BackoffUntil.Sub(now)
			b.state.TotalWaitTime += wait
			b.mu.Unlock()
			time.Sleep(wait)
			continue
		}

		elapsed := now.Sub(b.state.LastRefill).Seconds()
		b.state.Tokens = math.Min(b.state.BurstCeiling, b.state.Tokens+elapsed*b.state.RefillRate)
		b.state.LastRefill = now

		if b.state.Tokens >= 1 {
			b.state.Tokens--
			b.state.ViolationCount = 0
			b.state.TotalRequests++
			b.mu.Unlock()
			return
		}

		b.state.ViolationCount++
		b.state.TotalViolations++
		backoff := time.Duration(math.Min(
			float64(b.cfg.MaxBackoff),
			math.Pow(b.cfg.BaseBackoffFactor, float64(b.state.ViolationCount))*0.1,
		) * float64(time.Second))
		b.state.BackoffUntil = now.Add(backoff)
		wait := backoff
		b.state.TotalWaitTime += wait
		b.mu.Unlock()
		time.Sleep(wait)
	}
}

// State returns a snapshot of the bucket's current state.
func (b *TokenBucket) State() models.RateLimitState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Reset clears violation/backoff state and refills to the burst ceiling.
func (b *TokenBucket) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state.Tokens = b.state.BurstCeiling
	b.state.ViolationCount = 0
	b.state.BackoffUntil = time.Time{}
}

package ratelimit

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/jmylchreest/mediapull/internal/models"
	"github.com/jmylchreest/mediapull/pkg/httpclient"
)

// Coordinator is the process-wide named-limiter registry. Mirrors
// pkg/httpclient.CircuitBreakerManager's shape (lazy GetOrCreate, runtime
// UpdateConfig, aggregated GetAllStats) applied to TokenBucket instead of
// CircuitBreaker. Each class also embeds a CircuitBreaker
// (pkg/httpclient.CircuitBreaker, shared with every other outbound
// client in the module) so a class failing outright trips open
// independent of token availability.
type Coordinator struct {
	mu       sync.RWMutex
	buckets  map[models.LimiterClass]*TokenBucket
	breakers map[models.LimiterClass]*httpclient.CircuitBreaker
	configs  map[models.LimiterClass]ClassConfig
	logger   *slog.Logger
}

// NewCoordinator creates a Coordinator preloaded with the four default
// classes. logger may be nil.
func NewCoordinator(logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Coordinator{
		buckets:  make(map[models.LimiterClass]*TokenBucket),
		breakers: make(map[models.LimiterClass]*httpclient.CircuitBreaker),
		configs:  DefaultClassConfigs(),
		logger:   logger,
	}
	for class, cfg := range c.configs {
		c.buckets[class] = NewTokenBucket(class, cfg)
		c.breakers[class] = httpclient.NewCircuitBreaker(
			httpclient.DefaultCircuitThreshold,
			httpclient.DefaultCircuitTimeout,
			httpclient.DefaultCircuitHalfOpenMax,
		)
	}
	return c
}

// getOrCreate returns the bucket/breaker pair for class, creating one
// with a conservative fallback config (1 token/s, burst 1) if class is
// unrecognized.
func (c *Coordinator) getOrCreate(class models.LimiterClass) (*TokenBucket, *httpclient.CircuitBreaker) {
	c.mu.RLock()
	bucket, ok := c.buckets[class]
	breaker := c.breakers[class]
	c.mu.RUnlock()
	if ok {
		return bucket, breaker
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if bucket, ok := c.buckets[class]; ok {
		return bucket, c.breakers[class]
	}
	cfg := ClassConfig{RefillRate: 1.0, Burst: 1, MaxConcurrent: 1, BaseBackoffFactor: 2.0, MaxBackoff: 30 * 1e9}
	bucket = NewTokenBucket(class, cfg)
	breaker = httpclient.NewCircuitBreaker(httpclient.DefaultCircuitThreshold, httpclient.DefaultCircuitTimeout, httpclient.DefaultCircuitHalfOpenMax)
	c.configs[class] = cfg
	c.buckets[class] = bucket
	c.breakers[class] = breaker
	return bucket, breaker
}

// Acquire blocks for a token in class, first checking the class's
// circuit breaker. Implements core.RateLimiter so the pipeline Executor
// Dependencies can hold a Coordinator directly.
func (c *Coordinator) Acquire(class string) error {
	bucket, breaker := c.getOrCreate(models.LimiterClass(class))
	if !breaker.Allow() {
		return fmt.Errorf("ratelimit: class %s circuit open", class)
	}
	bucket.Acquire()
	breaker.RecordSuccess()
	return nil
}

// RecordFailure tells the class's circuit breaker about a non-rate-limit
// failure (e.g. a 5xx from downstream), so repeated outright failures
// trip the breaker independent of token availability.
func (c *Coordinator) RecordFailure(class models.LimiterClass) {
	_, breaker := c.getOrCreate(class)
	breaker.RecordFailure()
}

// UpdateConfig replaces the tunables for class, preserving its live
// bucket state (tokens, violation count).
func (c *Coordinator) UpdateConfig(class models.LimiterClass, cfg ClassConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.configs[class] = cfg
	if bucket, ok := c.buckets[class]; ok {
		bucket.mu.Lock()
		bucket.cfg = cfg
		bucket.state.BurstCeiling = cfg.Burst
		bucket.state.RefillRate = cfg.RefillRate
		bucket.mu.Unlock()
	}
}

// GetAllStats returns a snapshot of every class's live state.
func (c *Coordinator) GetAllStats() map[models.LimiterClass]models.RateLimitState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[models.LimiterClass]models.RateLimitState, len(c.buckets))
	for class, bucket := range c.buckets {
		out[class] = bucket.State()
	}
	return out
}

// ResetAll resets every class's violation/backoff state.
func (c *Coordinator) ResetAll() {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, bucket := range c.buckets {
		bucket.Reset()
	}
}

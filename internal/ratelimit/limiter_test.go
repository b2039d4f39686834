package ratelimit

import (
	"testing"
	"time"

	"github.com/jmylchreest/mediapull/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucketAcquireDrainsThenBlocks(t *testing.T) {
	cfg := ClassConfig{RefillRate: 2, Burst: 2, MaxConcurrent: 4, BaseBackoffFactor: 2.0, MaxBackoff: time.Second}
	b := NewTokenBucket(models.LimiterDownloads, cfg)

	start := time.Now()
	b.Acquire()
	b.Acquire()
	assert.Less(t, time.Since(start), 50*time.Millisecond, "burst tokens should not block")

	b.Acquire()
	assert.GreaterOrEqual(t, time.Since(start), 400*time.Millisecond, "third acquire should wait for refill")
}

func TestTokenBucketAcquireAccumulatesTotalWaitTime(t *testing.T) {
	cfg := ClassConfig{RefillRate: 2, Burst: 1, MaxConcurrent: 1, BaseBackoffFactor: 2.0, MaxBackoff: time.Second}
	b := NewTokenBucket(models.LimiterDownloads, cfg)

	b.Acquire()
	assert.Zero(t, b.State().TotalWaitTime, "first acquire drains the burst token without waiting")

	b.Acquire()
	assert.Greater(t, b.State().TotalWaitTime, time.Duration(0), "second acquire should have waited for refill")
}

func TestTokenBucketReset(t *testing.T) {
	cfg := ClassConfig{RefillRate: 0.01, Burst: 1, MaxConcurrent: 1, BaseBackoffFactor: 2.0, MaxBackoff: time.Second}
	b := NewTokenBucket(models.LimiterPublic, cfg)
	b.Acquire()

	state := b.State()
	assert.Less(t, state.Tokens, 1.0)

	b.Reset()
	state = b.State()
	assert.Equal(t, state.BurstCeiling, state.Tokens)
	assert.Equal(t, 0, state.ViolationCount)
}

func TestDefaultClassConfigsHasFourClasses(t *testing.T) {
	cfgs := DefaultClassConfigs()
	require.Len(t, cfgs, 4)
	for _, class := range []models.LimiterClass{models.LimiterAPI, models.LimiterPublic, models.LimiterDownloads, models.LimiterDatabase} {
		_, ok := cfgs[class]
		assert.True(t, ok, "missing class config for %s", class)
	}
}

func TestCoordinatorAcquireImplementsRateLimiterInterface(t *testing.T) {
	c := NewCoordinator(nil)
	err := c.Acquire(string(models.LimiterDatabase))
	require.NoError(t, err)

	stats := c.GetAllStats()
	dbState, ok := stats[models.LimiterDatabase]
	require.True(t, ok)
	assert.Equal(t, int64(1), dbState.TotalRequests)
}

func TestCoordinatorUpdateConfigPreservesLiveState(t *testing.T) {
	c := NewCoordinator(nil)
	require.NoError(t, c.Acquire(string(models.LimiterAPI)))

	c.UpdateConfig(models.LimiterAPI, ClassConfig{RefillRate: 5, Burst: 9, MaxConcurrent: 1, BaseBackoffFactor: 2.0, MaxBackoff: time.Second})

	stats := c.GetAllStats()
	assert.Equal(t, 9.0, stats[models.LimiterAPI].BurstCeiling)
}

func TestCoordinatorUnknownClassGetsFallbackConfig(t *testing.T) {
	c := NewCoordinator(nil)
	err := c.Acquire("custom-scraper-class")
	require.NoError(t, err)
}

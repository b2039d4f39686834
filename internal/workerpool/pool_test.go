package workerpool

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jmylchreest/mediapull/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsyncPoolSubmitRunsTask(t *testing.T) {
	cfg := Config{
		MinWorkers: 2, MaxWorkers: 4,
		TargetCPUPercent: 90, TargetMemPercent: 90,
		ScaleUpThreshold: 80, ScaleDownThreshold: 20,
		ScaleInterval: time.Hour, QueueSizeLimit: 10,
		SubmitTimeout: time.Second,
	}
	pool := NewAsyncPool(models.PoolAsync, cfg, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)
	defer pool.Stop()

	var ran int32
	err := pool.Submit(func() { atomic.AddInt32(&ran, 1) })
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&ran))

	metrics := pool.Metrics()
	assert.Equal(t, int64(1), metrics.Completed)
}

func TestAsyncPoolSubmitTimeoutWhenQueueFull(t *testing.T) {
	cfg := Config{
		MinWorkers: 1, MaxWorkers: 1,
		TargetCPUPercent: 90, TargetMemPercent: 90,
		ScaleUpThreshold: 80, ScaleDownThreshold: 20,
		ScaleInterval: time.Hour, QueueSizeLimit: 0,
		SubmitTimeout: 10 * time.Millisecond,
	}
	pool := NewAsyncPool(models.PoolAsync, cfg, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)
	defer pool.Stop()

	blocker := make(chan struct{})
	go pool.Submit(func() { <-blocker })
	time.Sleep(5 * time.Millisecond)

	err := pool.Submit(func() {})
	assert.ErrorIs(t, err, ErrQueueFull)
	close(blocker)
}

func TestThreadPoolSubmit(t *testing.T) {
	tp := NewThreadPool()
	tp.Start()
	defer tp.Stop()

	var ran int32
	err := tp.Submit(func() { atomic.AddInt32(&ran, 1) })
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&ran))
}

func TestManagerSubmitToUnknownPool(t *testing.T) {
	m := NewManager(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)
	defer m.Stop()

	err := m.SubmitTo(models.PoolName("bogus"), func() {})
	assert.Error(t, err)
}

func TestManagerAllMetricsCoversEveryPool(t *testing.T) {
	m := NewManager(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)
	defer m.Stop()

	metrics := m.AllMetrics()
	for _, name := range []models.PoolName{models.PoolAsync, models.PoolDownloads, models.PoolProcessing, models.PoolThread} {
		_, ok := metrics[name]
		assert.True(t, ok, "missing metrics for pool %s", name)
	}
}

// Package workerpool implements the adaptive worker pools
// describes: a scaling pool of goroutines consuming a bounded task queue,
// plus a fixed-size pool for blocking work.
//
// Grounded on redditdl's core/concurrency/pools.py
// (AsyncWorkerPool/WorkerPoolManager): same scale-up/scale-down thresholds,
// same CPU/memory gating, same named-pool set (async/downloads/processing/
// thread), expressed with goroutines and channels instead of asyncio
// tasks and a queue.
package workerpool

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/mediapull/internal/models"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

// ErrQueueFull is returned by Submit when the task queue is at capacity
// and stays full past the submit timeout.
var ErrQueueFull = errors.New("workerpool: task queue full")

// Config tunes one AsyncPool's scaling behavior.
type Config struct {
	MinWorkers         int
	MaxWorkers         int
	TargetCPUPercent   float64
	TargetMemPercent   float64
	ScaleUpThreshold   float64
	ScaleDownThreshold float64
	ScaleInterval      time.Duration
	QueueSizeLimit     int
	SubmitTimeout      time.Duration
}

// DefaultConfigs returns the three named async pools' defaults, carried
// over from redditdl's WorkerPoolManager.start.
func DefaultConfigs() map[models.PoolName]Config {
	return map[models.PoolName]Config{
		models.PoolAsync: {
			MinWorkers: 3, MaxWorkers: 15,
			TargetCPUPercent: 70, TargetMemPercent: 80,
			ScaleUpThreshold: 70, ScaleDownThreshold: 20,
			ScaleInterval: 30 * time.Second, QueueSizeLimit: 1000,
			SubmitTimeout: 5 * time.Second,
		},
		models.PoolDownloads: {
			MinWorkers: 5, MaxWorkers: 20,
			TargetCPUPercent: 60, TargetMemPercent: 80,
			ScaleUpThreshold: 80, ScaleDownThreshold: 30,
			ScaleInterval: 30 * time.Second, QueueSizeLimit: 1000,
			SubmitTimeout: 5 * time.Second,
		},
		models.PoolProcessing: {
			MinWorkers: 2, MaxWorkers: 8,
			TargetCPUPercent: 85, TargetMemPercent: 80,
			ScaleUpThreshold: 90, ScaleDownThreshold: 40,
			ScaleInterval: 30 * time.Second, QueueSizeLimit: 1000,
			SubmitTimeout: 5 * time.Second,
		},
	}
}

type task struct {
	fn   func()
	done chan struct{}
}

// AsyncPool is an adaptive goroutine pool: a fixed queue feeds a worker
// count that scales between Config.MinWorkers and MaxWorkers based on
// queue utilization and host CPU/memory pressure, sampled every
// ScaleInterval.
type AsyncPool struct {
	name   models.PoolName
	cfg    Config
	logger *slog.Logger

	queue chan task

	mu          sync.Mutex
	workerCount int
	cancelFns   []context.CancelFunc
	taskTimes   []time.Duration
	metrics     models.PoolMetrics

	startOnce sync.Once
	stopOnce  sync.Once
	stopCh    chan struct{}
	wg        sync.WaitGroup
}

// NewAsyncPool creates a pool for name using cfg. Call Start before
// Submit.
func NewAsyncPool(name models.PoolName, cfg Config, logger *slog.Logger) *AsyncPool {
	if logger == nil {
		logger = slog.Default()
	}
	return &AsyncPool{
		name:   name,
		cfg:    cfg,
		logger: logger,
		queue:  make(chan task, cfg.QueueSizeLimit),
		stopCh: make(chan struct{}),
		metrics: models.PoolMetrics{
			Name:          name,
			LastScaleTime: time.Now(),
		},
	}
}

// Start launches the minimum worker count plus the scaling monitor.
func (p *AsyncPool) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		for i := 0; i < p.cfg.MinWorkers; i++ {
			p.addWorker(ctx)
		}
		p.wg.Add(1)
		go p.monitorLoop(ctx)
		p.logger.Info("worker pool started", "pool", p.name, "workers", p.cfg.MinWorkers)
	})
}

// Stop signals every worker to exit and waits for in-flight tasks to
// drain.
func (p *AsyncPool) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
		p.mu.Lock()
		for _, cancel := range p.cancelFns {
			cancel()
		}
		p.mu.Unlock()
		p.wg.Wait()
	})
}

// Submit enqueues fn and blocks until a worker has run it. Implements
// core.Pool so stage Dependencies can hold an AsyncPool directly.
func (p *AsyncPool) Submit(fn func()) error {
	t := task{fn: fn, done: make(chan struct{})}
	timer := time.NewTimer(p.cfg.SubmitTimeout)
	defer timer.Stop()

	select {
	case p.queue <- t:
	case <-timer.C:
		return ErrQueueFull
	}

	<-t.done
	return nil
}

func (p *AsyncPool) addWorker(ctx context.Context) {
	p.mu.Lock()
	if p.workerCount >= p.cfg.MaxWorkers {
		p.mu.Unlock()
		return
	}
	workerCtx, cancel := context.WithCancel(ctx)
	p.cancelFns = append(p.cancelFns, cancel)
	p.workerCount++
	p.metrics.ActiveWorkers = p.workerCount
	p.mu.Unlock()

	p.wg.Add(1)
	go p.workerLoop(workerCtx)
}

func (p *AsyncPool) removeWorker() {
	p.mu.Lock()
	if p.workerCount <= p.cfg.MinWorkers || len(p.cancelFns) == 0 {
		p.mu.Unlock()
		return
	}
	cancel := p.cancelFns[len(p.cancelFns)-1]
	p.cancelFns = p.cancelFns[:len(p.cancelFns)-1]
	p.workerCount--
	p.metrics.ActiveWorkers = p.workerCount
	p.mu.Unlock()
	cancel()
}

func (p *AsyncPool) workerLoop(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case t := <-p.queue:
			start := time.Now()
			func() {
				defer func() {
					if r := recover(); r != nil {
						p.recordFailure()
						p.logger.Warn("task panicked in worker pool", "pool", p.name, "recover", r)
					}
				}()
				t.fn()
				p.recordSuccess()
			}()
			close(t.done)
			p.recordTaskTime(time.Since(start))
		}
	}
}

func (p *AsyncPool) recordSuccess() {
	p.mu.Lock()
	p.metrics.Completed++
	p.mu.Unlock()
}

func (p *AsyncPool) recordFailure() {
	p.mu.Lock()
	p.metrics.Failed++
	p.mu.Unlock()
}

func (p *AsyncPool) recordTaskTime(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.taskTimes = append(p.taskTimes, d)
	if len(p.taskTimes) > 100 {
		p.taskTimes = p.taskTimes[len(p.taskTimes)-100:]
	}
	var total time.Duration
	for _, t := range p.taskTimes {
		total += t
	}
	p.metrics.AvgTaskTime = total / time.Duration(len(p.taskTimes))
}

func (p *AsyncPool) monitorLoop(ctx context.Context) {
	defer p.wg.Done()
	ticker := time.NewTicker(p.cfg.ScaleInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.updateResourceMetrics(ctx)
			p.scale(ctx)
		}
	}
}

func (p *AsyncPool) updateResourceMetrics(ctx context.Context) {
	p.mu.Lock()
	p.metrics.QueuedTasks = len(p.queue)
	p.mu.Unlock()

	cpuPercents, err := cpu.PercentWithContext(ctx, 0, false)
	memInfo, memErr := mem.VirtualMemoryWithContext(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err == nil && len(cpuPercents) > 0 {
		p.metrics.CPUPercent = cpuPercents[0]
	}
	if memErr == nil && memInfo != nil {
		p.metrics.MemPercent = memInfo.UsedPercent
	}
}

func (p *AsyncPool) scale(ctx context.Context) {
	p.mu.Lock()
	queueSize := p.metrics.QueuedTasks
	cpuPct := p.metrics.CPUPercent
	memPct := p.metrics.MemPercent
	workers := p.workerCount
	p.mu.Unlock()

	queueUtilization := float64(queueSize) / float64(p.cfg.QueueSizeLimit) * 100

	shouldScaleUp := queueUtilization > p.cfg.ScaleUpThreshold ||
		(queueSize > 0 && cpuPct < p.cfg.TargetCPUPercent)
	shouldScaleDown := queueUtilization < p.cfg.ScaleDownThreshold &&
		queueSize == 0 && workers > p.cfg.MinWorkers

	if memPct > p.cfg.TargetMemPercent {
		shouldScaleUp = false
	}

	switch {
	case shouldScaleUp:
		p.addWorker(ctx)
		p.mu.Lock()
		p.metrics.LastScaleTime = time.Now()
		p.mu.Unlock()
	case shouldScaleDown:
		p.removeWorker()
		p.mu.Lock()
		p.metrics.LastScaleTime = time.Now()
		p.mu.Unlock()
	}
}

// Metrics returns a snapshot of the pool's live state.
func (p *AsyncPool) Metrics() models.PoolMetrics {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.metrics
}

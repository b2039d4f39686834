package workerpool

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jmylchreest/mediapull/internal/models"
)

// Manager owns the four named pools (async, downloads, processing,
// thread) and starts/stops them together. Grounded on
// redditdl's WorkerPoolManager.
type Manager struct {
	mu     sync.RWMutex
	pools  map[models.PoolName]*AsyncPool
	thread *ThreadPool
	logger *slog.Logger
}

// NewManager builds a Manager with the three default async pools plus a
// fixed thread pool, none yet started.
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		pools:  make(map[models.PoolName]*AsyncPool),
		thread: NewThreadPool(),
		logger: logger,
	}
	for name, cfg := range DefaultConfigs() {
		m.pools[name] = NewAsyncPool(name, cfg, logger)
	}
	return m
}

// Start launches every pool.
func (m *Manager) Start(ctx context.Context) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, pool := range m.pools {
		pool.Start(ctx)
	}
	m.thread.Start()
	m.logger.Info("worker pool manager started", "pools", len(m.pools)+1)
}

// Stop shuts down every pool and waits for drain.
func (m *Manager) Stop() {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, pool := range m.pools {
		pool.Stop()
	}
	m.thread.Stop()
}

// Pool returns the named async pool, or nil if unknown.
func (m *Manager) Pool(name models.PoolName) *AsyncPool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pools[name]
}

// Thread returns the fixed thread pool.
func (m *Manager) Thread() *ThreadPool {
	return m.thread
}

// SubmitTo runs fn on the named pool (or the thread pool for
// models.PoolThread).
func (m *Manager) SubmitTo(name models.PoolName, fn func()) error {
	if name == models.PoolThread {
		return m.thread.Submit(fn)
	}
	pool := m.Pool(name)
	if pool == nil {
		return fmt.Errorf("workerpool: unknown pool %q", name)
	}
	return pool.Submit(fn)
}

// AllMetrics returns a snapshot of every pool's metrics, keyed by name.
func (m *Manager) AllMetrics() map[models.PoolName]models.PoolMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[models.PoolName]models.PoolMetrics, len(m.pools)+1)
	for name, pool := range m.pools {
		out[name] = pool.Metrics()
	}
	out[models.PoolThread] = m.thread.Metrics()
	return out
}

// namedPool adapts one of the Manager's pools to core.Pool for stage
// Dependencies that only need a single pool, not the whole Manager.
type namedPool struct {
	manager *Manager
	name    models.PoolName
}

// PoolFor returns a core.Pool-shaped adapter bound to one named pool.
func (m *Manager) PoolFor(name models.PoolName) *namedPool {
	return &namedPool{manager: m, name: name}
}

func (p *namedPool) Submit(fn func()) error {
	return p.manager.SubmitTo(p.name, fn)
}

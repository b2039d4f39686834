package models

import "time"

// PoolName identifies one of the Worker Pool Manager's named pools.
type PoolName string

const (
	PoolAsync      PoolName = "async"
	PoolDownloads  PoolName = "downloads"
	PoolProcessing PoolName = "processing"
	PoolThread     PoolName = "thread"
)

// PoolMetrics is the live state of one adaptive pool, updated on the
// pool's monitor cadence. Lives with the Worker Pool Manager.
type PoolMetrics struct {
	Name          PoolName
	ActiveWorkers int
	QueuedTasks   int
	Completed     int64
	Failed        int64
	AvgTaskTime   time.Duration
	CPUPercent    float64
	MemPercent    float64
	LastScaleTime time.Time
}

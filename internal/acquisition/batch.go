package acquisition

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jmylchreest/mediapull/internal/corerr"
	"github.com/jmylchreest/mediapull/internal/events"
	"github.com/jmylchreest/mediapull/internal/models"
)

// Scraper is the narrow capability the Acquisition Engine needs from a
// transport implementation: fetch posts for a resolved target. The
// public and authenticated scrapers both implement this.
type Scraper interface {
	FetchPosts(ctx context.Context, target *models.TargetInfo, limit int) ([]*models.PostRecord, error)
	Authenticated() bool
}

// Pool is the narrow capability BatchProcessor needs from the Worker
// Pool Manager: run fn on one of its workers, blocking until it
// completes. Satisfied by *workerpool.AsyncPool and the
// *workerpool.Manager.PoolFor adapter.
type Pool interface {
	Submit(fn func()) error
}

// BatchConfig tunes BatchProcessor.ProcessTargets. Field names and
// defaults are documented per field below.
type BatchConfig struct {
	MaxConcurrent    int // default 3, range 1-20
	RateLimitDelay   time.Duration
	RetryAttempts    int
	RetryDelay       time.Duration
	TimeoutPerTarget time.Duration // default 300s
	FailFast         bool
	PostLimit        int // default 20
}

// DefaultBatchConfig returns the documented default knobs.
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		MaxConcurrent:    3,
		RateLimitDelay:   time.Second,
		RetryAttempts:    3,
		RetryDelay:       2 * time.Second,
		TimeoutPerTarget: 300 * time.Second,
		PostLimit:        20,
	}
}

// TargetResult is the outcome of processing a single target.
type TargetResult struct {
	Target   *models.TargetInfo
	Posts    []*models.PostRecord
	Success  bool
	Error    error
	Duration time.Duration
	Metadata map[string]any
}

// BatchProcessor runs a set of resolved targets through a Scraper with
// bounded concurrency, per-target timeout, retryable-only retry, and
// per-target error isolation. Grounded on redditdl's
// BatchTargetProcessor.
type BatchProcessor struct {
	cfg     BatchConfig
	scraper Scraper
	pool    Pool
	bus     models.EventBus
}

// NewBatchProcessor creates a BatchProcessor. pool may be nil, in which
// case each target is fetched on its own goroutine instead of being
// dispatched through a worker pool; bus may also be nil.
func NewBatchProcessor(cfg BatchConfig, scraper Scraper, pool Pool, bus models.EventBus) *BatchProcessor {
	return &BatchProcessor{cfg: cfg, scraper: scraper, pool: pool, bus: bus}
}

// ProcessTargets runs every target, returning one TargetResult per
// target in input order. A target's failure never prevents others from
// completing unless FailFast is set. Dispatch onto the worker pool is
// bounded by an additional semaphore sized to MaxConcurrent, so a large
// batch never monopolizes the pool's workers.
func (b *BatchProcessor) ProcessTargets(ctx context.Context, targets []*models.TargetInfo) []TargetResult {
	results := make([]TargetResult, len(targets))
	sem := make(chan struct{}, max(1, b.cfg.MaxConcurrent))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	var failFastOnce sync.Once

	for i, target := range targets {
		if runCtx.Err() != nil {
			break
		}

		sem <- struct{}{}
		wg.Add(1)

		dispatch := func(i int, target *models.TargetInfo) {
			defer wg.Done()
			defer func() { <-sem }()

			result := b.processOne(runCtx, target)
			results[i] = result

			if !result.Success && b.cfg.FailFast {
				failFastOnce.Do(cancel)
			}
		}

		if b.pool != nil {
			i, target := i, target
			go func() {
				if err := b.pool.Submit(func() { dispatch(i, target) }); err != nil {
					dispatch(i, target)
				}
			}()
		} else {
			go dispatch(i, target)
		}

		if b.cfg.RateLimitDelay > 0 && i < len(targets)-1 {
			time.Sleep(b.cfg.RateLimitDelay)
		}
	}

	wg.Wait()
	return results
}

func (b *BatchProcessor) processOne(ctx context.Context, target *models.TargetInfo) TargetResult {
	start := time.Now()

	if target.RequiresAuthenticatedScraper() && !b.scraper.Authenticated() {
		err := corerr.Validation(fmt.Sprintf("target %q requires an authenticated scraper", target.Original), nil)
		return TargetResult{Target: target, Success: false, Error: err, Duration: time.Since(start)}
	}

	var posts []*models.PostRecord
	var err error

	attempts := 1 + max(0, b.cfg.RetryAttempts)
	for attempt := 0; attempt < attempts; attempt++ {
		posts, err = b.fetchWithTimeout(ctx, target)
		if err == nil {
			break
		}
		if !isRetryable(err) {
			break
		}
		if attempt < attempts-1 && b.cfg.RetryDelay > 0 {
			time.Sleep(b.cfg.RetryDelay)
		}
	}

	if err != nil {
		return TargetResult{Target: target, Success: false, Error: err, Duration: time.Since(start)}
	}

	result := TargetResult{Target: target, Posts: posts, Success: true, Duration: time.Since(start)}
	b.emitDiscovered(target, posts)
	return result
}

func (b *BatchProcessor) fetchWithTimeout(ctx context.Context, target *models.TargetInfo) ([]*models.PostRecord, error) {
	timeout := b.cfg.TimeoutPerTarget
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	posts, err := b.scraper.FetchPosts(tctx, target, b.cfg.PostLimit)
	if tctx.Err() == context.DeadlineExceeded {
		return nil, corerr.Network(fmt.Sprintf("target %q timed out", target.Original), tctx.Err())
	}
	return posts, err
}

func (b *BatchProcessor) emitDiscovered(target *models.TargetInfo, posts []*models.PostRecord) {
	if b.bus == nil || len(posts) == 0 {
		return
	}
	preview := make([]string, 0, 3)
	for i := 0; i < len(posts) && i < 3; i++ {
		preview = append(preview, posts[i].Title)
	}
	b.bus.Emit(events.PostDiscovered{
		Source:  target.Value,
		Target:  target.Original,
		Type:    string(target.Variant),
		Count:   len(posts),
		Preview: preview,
	})
}

func isRetryable(err error) bool {
	rec := corerr.AsErrorRecord(err)
	if rec == nil {
		return false
	}
	return corerr.NewRecoveryManager().StrategyFor(rec) == corerr.StrategyRetry
}

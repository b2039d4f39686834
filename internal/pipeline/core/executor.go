package core

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/jmylchreest/mediapull/internal/corerr"
	"github.com/jmylchreest/mediapull/internal/events"
	"github.com/jmylchreest/mediapull/internal/models"
)

// activeExecutions guards against re-entrant runs of the same session,
// keyed by session id rather than by a single fixed proxy id (an
// earlier Orchestrator only ever ran one proxy-generation pipeline at a
// time).
var (
	activeExecutions   = make(map[models.ULID]bool)
	activeExecutionsMu sync.Mutex
)

// namedStage pairs a Stage with the hooks registered against its name.
type namedStage struct {
	stage     Stage
	preHooks  []Hook
	postHooks []Hook
}

// Executor runs an ordered list of Stages against a shared models.Context,
// honoring stage validation, named hooks, an error-handling policy, and
// recovery-manager-driven single retries. Renamed from an earlier
// Orchestrator and generalized from one fixed proxy-generation pipeline
// to an arbitrary ordered stage list with three configurable
// error_handling policies.
type Executor struct {
	mu       sync.Mutex
	stages   []*namedStage
	policy   ErrorHandlingPolicy
	recovery *corerr.RecoveryManager
	bus      *events.Bus
	logger   *slog.Logger

	globalPreHooks  []Hook
	globalPostHooks []Hook

	progressReporter ProgressReporter
}

// NewExecutor creates an Executor with the given error-handling policy.
// bus and logger may be nil; logger defaults to slog.Default(), bus
// defaults to an unconnected events.Bus (no subscribers).
func NewExecutor(policy ErrorHandlingPolicy, bus *events.Bus, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	if bus == nil {
		bus = events.NewBus(logger)
	}
	return &Executor{
		policy:   policy,
		recovery: corerr.NewRecoveryManager(),
		bus:      bus,
		logger:   logger,
	}
}

// SetProgressReporter installs a progress reporter stages can query via
// pctx.Metadata (stages opt in; the Executor itself only uses it for
// stage-boundary 0%/100% reporting).
func (e *Executor) SetProgressReporter(r ProgressReporter) {
	e.progressReporter = r
}

// AddStage appends a stage, or inserts it at position if >= 0.
func (e *Executor) AddStage(s Stage, position int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ns := &namedStage{stage: s}
	if position < 0 || position >= len(e.stages) {
		e.stages = append(e.stages, ns)
		return
	}
	e.stages = append(e.stages[:position], append([]*namedStage{ns}, e.stages[position:]...)...)
}

// RemoveStage removes the named stage. Returns ErrStageNotFound if absent.
func (e *Executor) RemoveStage(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, ns := range e.stages {
		if ns.stage.Name() == name {
			e.stages = append(e.stages[:i], e.stages[i+1:]...)
			return nil
		}
	}
	return ErrStageNotFound
}

// Reorder reorders stages to match names exactly. Returns
// ErrStageNotFound if names references a stage that isn't registered, or
// ErrInvalidConfiguration if the lengths don't match.
func (e *Executor) Reorder(names []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(names) != len(e.stages) {
		return ErrInvalidConfiguration
	}
	byName := make(map[string]*namedStage, len(e.stages))
	for _, ns := range e.stages {
		byName[ns.stage.Name()] = ns
	}
	reordered := make([]*namedStage, len(names))
	for i, name := range names {
		ns, ok := byName[name]
		if !ok {
			return ErrStageNotFound
		}
		reordered[i] = ns
	}
	e.stages = reordered
	return nil
}

// AddGlobalHook registers a hook run before (pre=true) or after (pre=false)
// every stage invocation, in addition to any per-stage hooks.
func (e *Executor) AddGlobalHook(pre bool, hook Hook) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if pre {
		e.globalPreHooks = append(e.globalPreHooks, hook)
	} else {
		e.globalPostHooks = append(e.globalPostHooks, hook)
	}
}

// AddStageHook registers a hook against a specific stage name, run
// before (pre=true) or after (pre=false) that stage only.
func (e *Executor) AddStageHook(stageName string, pre bool, hook Hook) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, ns := range e.stages {
		if ns.stage.Name() == stageName {
			if pre {
				ns.preHooks = append(ns.preHooks, hook)
			} else {
				ns.postHooks = append(ns.postHooks, hook)
			}
			return nil
		}
	}
	return ErrStageNotFound
}

// Execute runs the five-step validate/hook/stage/recover/policy algorithm against pctx.
func (e *Executor) Execute(ctx context.Context, pctx *models.Context) (*models.ExecutionMetrics, error) {
	if !e.acquire(pctx.SessionID) {
		return nil, ErrAlreadyRunning
	}
	defer e.release(pctx.SessionID)

	start := time.Now()
	metrics := &models.ExecutionMetrics{StageResults: pctx.StageResults}

	e.mu.Lock()
	stages := append([]*namedStage{}, e.stages...)
	globalPre := append([]Hook{}, e.globalPreHooks...)
	globalPost := append([]Hook{}, e.globalPostHooks...)
	e.mu.Unlock()

	e.runHooks(ctx, pctx, globalPre)

	if err := e.validateStages(stages); err != nil {
		metrics.Errors = append(metrics.Errors, err)
		metrics.Duration = time.Since(start)
		return metrics, err
	}

	for i, ns := range stages {
		select {
		case <-ctx.Done():
			metrics.Duration = time.Since(start)
			return metrics, ctx.Err()
		default:
		}

		e.runHooks(ctx, pctx, ns.preHooks)

		result, stageErr := e.executeStage(ctx, pctx, ns.stage)
		pctx.RecordStageResult(ns.stage.ID(), result)

		e.runHooks(ctx, pctx, ns.postHooks)

		if stageErr == nil {
			if i < len(stages)-1 {
				runtime.GC()
			}
			continue
		}

		rec := corerr.AsErrorRecord(stageErr)
		metrics.Errors = append(metrics.Errors, stageErr)

		if e.recovery.IsFatal(rec) {
			metrics.Duration = time.Since(start)
			metrics.Success = false
			return metrics, stageErr
		}

		switch e.policy {
		case PolicyContinue:
			continue
		case PolicySkipRest:
			for _, skipped := range stages[i+1:] {
				metrics.SkippedStages = append(metrics.SkippedStages, skipped.stage.Name())
			}
			metrics.Duration = time.Since(start)
			metrics.Success = false
			return metrics, nil
		default: // PolicyHalt
			metrics.Duration = time.Since(start)
			metrics.Success = false
			return metrics, stageErr
		}
	}

	e.runHooks(ctx, pctx, globalPost)

	metrics.Success = true
	for _, r := range pctx.StageResults {
		if !r.Success {
			metrics.Success = false
			break
		}
	}
	metrics.Duration = time.Since(start)
	return metrics, nil
}

// validateStages checks for duplicate names and per-stage config errors.
func (e *Executor) validateStages(stages []*namedStage) error {
	seen := make(map[string]bool, len(stages))
	var errs []error
	for _, ns := range stages {
		name := ns.stage.Name()
		if seen[name] {
			errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicateStageName, name))
			continue
		}
		seen[name] = true
		if cfgErrs := ns.stage.ValidateConfig(); len(cfgErrs) > 0 {
			errs = append(errs, cfgErrs...)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrInvalidConfiguration, errs)
}

// executeStage runs one stage's PreProcess/Process/PostProcess, applying
// one recovery-driven retry on a non-fatal Process failure, and emits the
// stage lifecycle events.
func (e *Executor) executeStage(ctx context.Context, pctx *models.Context, stage Stage) (*models.StageResult, error) {
	start := time.Now()
	e.bus.EmitFor(pctx.SessionID, "", events.StageStarted{Name: stage.Name()})

	if err := stage.PreProcess(ctx, pctx); err != nil {
		e.logger.Warn("stage pre-process hook failed", slog.String("stage", stage.Name()), slog.Any("error", err))
	}

	result, err := stage.Process(ctx, pctx)
	if err != nil {
		outcome := e.recovery.Recover(err)
		if outcome.Strategy == "retry" {
			result, err = stage.Process(ctx, pctx)
		}
	}

	if ppErr := stage.PostProcess(ctx, pctx, result); ppErr != nil {
		e.logger.Warn("stage post-process hook failed", slog.String("stage", stage.Name()), slog.Any("error", ppErr))
	}

	duration := time.Since(start)

	if err != nil {
		wrapped := NewStageError(stage.ID(), stage.Name(), err)
		e.bus.EmitFor(pctx.SessionID, "", events.StageFailed{
			Name:     stage.Name(),
			Duration: duration,
			Error:    wrapped,
		})
		e.bus.EmitFor(pctx.SessionID, "", events.ErrorOccurred{
			Kind:        string(corerr.AsErrorRecord(err).Kind),
			Message:     err.Error(),
			Stage:       stage.Name(),
			Recoverable: !e.recovery.IsFatal(corerr.AsErrorRecord(err)),
		})
		if result == nil {
			result = models.NewStageResult(stage.Name())
		}
		result.AddError(wrapped)
		result.Duration = duration
		return result, wrapped
	}

	if result == nil {
		result = models.NewStageResult(stage.Name())
	}
	result.Duration = duration
	e.bus.EmitFor(pctx.SessionID, "", events.StageCompleted{
		Name:      stage.Name(),
		Duration:  duration,
		Processed: result.ProcessedCount,
		Succeeded: result.ProcessedCount - result.ErrorCount,
		Failed:    result.ErrorCount,
		Data:      result.Data,
	})
	return result, nil
}

// runHooks invokes each hook, synchronously unless Async is set. A hook
// error is logged and never aborts execution.
func (e *Executor) runHooks(ctx context.Context, pctx *models.Context, hooks []Hook) {
	for _, h := range hooks {
		if h.Async {
			go func(h Hook) {
				if err := h.Fn(ctx, pctx); err != nil {
					e.logger.Warn("async hook failed", slog.String("hook", h.Name), slog.Any("error", err))
				}
			}(h)
			continue
		}
		if err := h.Fn(ctx, pctx); err != nil {
			e.logger.Warn("hook failed", slog.String("hook", h.Name), slog.Any("error", err))
		}
	}
}

func (e *Executor) acquire(sessionID models.ULID) bool {
	activeExecutionsMu.Lock()
	defer activeExecutionsMu.Unlock()
	if activeExecutions[sessionID] {
		return false
	}
	activeExecutions[sessionID] = true
	return true
}

func (e *Executor) release(sessionID models.ULID) {
	activeExecutionsMu.Lock()
	defer activeExecutionsMu.Unlock()
	delete(activeExecutions, sessionID)
}

// Stages returns the currently registered stages, in order. Test accessor.
func (e *Executor) Stages() []Stage {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Stage, len(e.stages))
	for i, ns := range e.stages {
		out[i] = ns.stage
	}
	return out
}

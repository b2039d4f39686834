// Package core provides the pipeline orchestration framework: the Stage
// contract and the Executor that runs an ordered list of them against a
// shared models.Context.
package core

import (
	"context"

	"github.com/jmylchreest/mediapull/internal/models"
)

// Stage is one ordered transformation the Executor runs against a shared
// models.Context. Implementations must be safe to re-run: ValidateConfig
// is called on every stage before any stage executes, and Process may be
// re-invoked once by the recovery manager after a non-fatal failure.
type Stage interface {
	ID() string
	Name() string

	// ValidateConfig reports configuration problems without mutating
	// anything. A non-empty result on any stage aborts the run with a
	// configuration error before any stage runs.
	ValidateConfig() []error

	// PreProcess runs before Process. Its error return is treated as a
	// hook failure: logged, never aborting.
	PreProcess(ctx context.Context, pctx *models.Context) error

	// Process does the stage's work and returns its result. An error
	// return is wrapped with stage context and handed to the recovery
	// manager.
	Process(ctx context.Context, pctx *models.Context) (*models.StageResult, error)

	// PostProcess runs after Process, whether or not it succeeded.
	PostProcess(ctx context.Context, pctx *models.Context, result *models.StageResult) error
}

// ProgressReporter is implemented by stages (or their collaborators) that
// want to surface fine-grained progress beyond stage-level events.
type ProgressReporter interface {
	ReportProgress(stageID string, progress float64, message string)
	ReportItemProgress(stageID string, current, total int, item string)
}

// ErrorHandlingPolicy selects what the Executor does when a stage fails
// and the recovery manager does not resolve it.
type ErrorHandlingPolicy string

const (
	// PolicyHalt stops the run and propagates a failure carrying the
	// stage errors.
	PolicyHalt ErrorHandlingPolicy = "halt"
	// PolicyContinue proceeds to the next stage despite the failure.
	PolicyContinue ErrorHandlingPolicy = "continue"
	// PolicySkipRest marks remaining stages unexecuted and finishes
	// cleanly.
	PolicySkipRest ErrorHandlingPolicy = "skip-rest"
)

// HookFunc is a named pre/post callback, global or per-stage. A non-nil
// return is logged as a hook failure and never aborts execution.
type HookFunc func(ctx context.Context, pctx *models.Context) error

// Hook pairs a HookFunc with a name (for logging) and a delivery mode.
type Hook struct {
	Name  string
	Async bool
	Fn    HookFunc
}

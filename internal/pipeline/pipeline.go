// Package pipeline provides a composable pipeline architecture for
// acquiring, filtering, processing, organizing, and exporting posts.
// Each stage implements the Stage interface and operates on a shared
// models.Context.
//
// The pipeline is organized into several sub-packages:
//   - core: Executor, Stage interface, Factory/Builder
//   - shared: utilities shared between stages
//   - stages/*: individual stage implementations
package pipeline

import (
	"github.com/jmylchreest/mediapull/internal/pipeline/core"
)

// Re-export core types for convenience.
type (
	// Stage is a single step in the pipeline.
	Stage = core.Stage

	// Executor runs stages in sequence against a shared Context.
	Executor = core.Executor

	// ExecutorFactory creates Executors.
	ExecutorFactory = core.ExecutorFactory

	// Factory creates Executors from registered stage constructors.
	Factory = core.Factory

	// Dependencies bundles stage dependencies.
	Dependencies = core.Dependencies

	// Builder provides fluent factory construction.
	Builder = core.Builder

	// ProgressReporter allows progress tracking.
	ProgressReporter = core.ProgressReporter

	// StageConstructor creates stages from dependencies.
	StageConstructor = core.StageConstructor

	// ErrorHandlingPolicy selects halt/continue/skip-rest behavior.
	ErrorHandlingPolicy = core.ErrorHandlingPolicy

	// Hook is a named pre/post callback.
	Hook = core.Hook
)

// Re-export error-handling policies.
const (
	PolicyHalt     = core.PolicyHalt
	PolicyContinue = core.PolicyContinue
	PolicySkipRest = core.PolicySkipRest
)

// Re-export errors.
var (
	ErrNoTargets            = core.ErrNoTargets
	ErrNoPosts              = core.ErrNoPosts
	ErrAlreadyRunning       = core.ErrAlreadyRunning
	ErrStageNotFound        = core.ErrStageNotFound
	ErrDuplicateStageName   = core.ErrDuplicateStageName
	ErrInvalidConfiguration = core.ErrInvalidConfiguration
)

// NewBuilder creates a new pipeline builder.
func NewBuilder() *Builder {
	return core.NewBuilder()
}

// NewFactory creates a new pipeline factory with the given dependencies
// and error-handling policy.
func NewFactory(deps *Dependencies, policy ErrorHandlingPolicy) *Factory {
	return core.NewFactory(deps, policy)
}

// Stage IDs for the five standard stages, set by their packages.
const (
	StageIDAcquisition  = "acquisition"
	StageIDFiltering    = "filtering"
	StageIDProcessing   = "processing"
	StageIDOrganization = "organization"
	StageIDExport       = "export"
)

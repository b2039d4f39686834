package core

import (
	"log/slog"

	"github.com/jmylchreest/mediapull/internal/events"
	"github.com/jmylchreest/mediapull/internal/storage"
)

// RateLimiter is the narrow capability a stage needs from the Rate-Limit
// Coordinator: acquire a token for a class before an outbound operation.
type RateLimiter interface {
	Acquire(class string) error
}

// Pool is the narrow capability a stage needs from the Worker Pool
// Manager: submit work for concurrent execution.
type Pool interface {
	Submit(fn func()) error
}

// Dependencies bundles the process-wide collaborators every stage
// constructor needs. Renamed and regeneralized from an earlier
// Dependencies bundle (which held channel/EPG/filter/data-mapping gorm
// repositories specific to an IPTV proxy-generation pipeline) to this
// domain's collaborators: rate limiting, worker pools, content-handler
// and exporter registries, session state, and the sandboxed output
// directory.
type Dependencies struct {
	RateLimiter RateLimiter
	Pools       map[string]Pool
	Sandbox     *storage.Sandbox
	EventBus    *events.Bus
	Logger      *slog.Logger

	// HandlerRegistry, ExporterRegistry, and StateStore are held as
	// `any` here to avoid a hard compile dependency from core onto
	// handlers/exporters/statestore; stage constructors type-assert to
	// the concrete type they need. This mirrors an earlier
	// StageConstructor pattern of handing each stage exactly the
	// collaborators it asked for, without core needing to import every
	// leaf package.
	HandlerRegistry  any
	ExporterRegistry any
	StateStore       any
}

// StageConstructor builds a Stage from the shared Dependencies.
type StageConstructor func(deps *Dependencies) Stage

// Factory assembles an Executor from registered stage constructors.
// Grounded on an earlier pipeline factory's Factory / RegisterStage /
// Create shape, generalized from building a single Orchestrator per
// proxy target to building an Executor per acquisition session.
type Factory struct {
	deps              *Dependencies
	stageConstructors []StageConstructor
	policy            ErrorHandlingPolicy
}

// NewFactory creates a Factory bound to deps and an error-handling
// policy. deps.Logger defaults to slog.Default() if nil.
func NewFactory(deps *Dependencies, policy ErrorHandlingPolicy) *Factory {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Factory{deps: deps, stageConstructors: make([]StageConstructor, 0), policy: policy}
}

// RegisterStage appends a stage constructor; stages execute in
// registration order.
func (f *Factory) RegisterStage(constructor StageConstructor) {
	f.stageConstructors = append(f.stageConstructors, constructor)
}

// Create builds an Executor with every registered stage constructed
// against the Factory's Dependencies.
func (f *Factory) Create() (*Executor, error) {
	exec := NewExecutor(f.policy, f.deps.EventBus, f.deps.Logger)
	for _, constructor := range f.stageConstructors {
		exec.AddStage(constructor(f.deps), -1)
	}
	return exec, nil
}

// ExecutorFactory is the capability callers depend on instead of the
// concrete Factory type, matching an earlier OrchestratorFactory pattern.
type ExecutorFactory interface {
	Create() (*Executor, error)
}

var _ ExecutorFactory = (*Factory)(nil)

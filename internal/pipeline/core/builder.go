package core

import (
	"log/slog"

	"github.com/jmylchreest/mediapull/internal/events"
	"github.com/jmylchreest/mediapull/internal/storage"
)

// Builder provides a fluent interface for constructing a Factory.
// Generalized from an earlier repository-style Builder to this
// domain's Dependencies.
type Builder struct {
	deps   Dependencies
	policy ErrorHandlingPolicy
}

// NewBuilder creates a new pipeline Builder defaulting to the halt
// error-handling policy.
func NewBuilder() *Builder {
	return &Builder{policy: PolicyHalt}
}

// WithRateLimiter sets the Rate-Limit Coordinator handle.
func (b *Builder) WithRateLimiter(rl RateLimiter) *Builder {
	b.deps.RateLimiter = rl
	return b
}

// WithPools sets the named worker pools.
func (b *Builder) WithPools(pools map[string]Pool) *Builder {
	b.deps.Pools = pools
	return b
}

// WithSandbox sets the storage sandbox.
func (b *Builder) WithSandbox(sandbox *storage.Sandbox) *Builder {
	b.deps.Sandbox = sandbox
	return b
}

// WithEventBus sets the event bus.
func (b *Builder) WithEventBus(bus *events.Bus) *Builder {
	b.deps.EventBus = bus
	return b
}

// WithLogger sets the logger.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.deps.Logger = logger
	return b
}

// WithHandlerRegistry sets the content-handler registry.
func (b *Builder) WithHandlerRegistry(registry any) *Builder {
	b.deps.HandlerRegistry = registry
	return b
}

// WithExporterRegistry sets the exporter registry.
func (b *Builder) WithExporterRegistry(registry any) *Builder {
	b.deps.ExporterRegistry = registry
	return b
}

// WithStateStore sets the session state store.
func (b *Builder) WithStateStore(store any) *Builder {
	b.deps.StateStore = store
	return b
}

// WithErrorHandlingPolicy sets the Executor's error-handling policy.
func (b *Builder) WithErrorHandlingPolicy(policy ErrorHandlingPolicy) *Builder {
	b.policy = policy
	return b
}

// Build creates a Factory with the configured Dependencies. Does not
// register stages — callers use Factory.RegisterStage for that.
func (b *Builder) Build() (*Factory, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}
	deps := b.deps
	return NewFactory(&deps, b.policy), nil
}

// validate checks that all required dependencies are set.
func (b *Builder) validate() error {
	if b.deps.Sandbox == nil {
		return NewConfigurationError("sandbox", "storage sandbox is required")
	}
	if b.deps.RateLimiter == nil {
		return NewConfigurationError("rateLimiter", "rate-limit coordinator is required")
	}
	return nil
}

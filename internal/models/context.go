package models

import "time"

// EventBus is the narrow publish capability a pipeline Context needs.
// internal/events.Bus satisfies this structurally.
type EventBus interface {
	Emit(event any)
	EmitAsync(event any)
}

// SessionState is the narrow session-tracking capability a pipeline
// Context needs. internal/statestore.Store satisfies this structurally.
type SessionState interface {
	UpdateStatus(sessionID ULID, status SessionStatus, endTime *time.Time) error
	SetMetadata(sessionID ULID, key string, value any) error
}

// Context is the shared mutable state a Stage operates on. Created at
// pipeline start, destroyed at pipeline end; stages receive it by
// reference. Posts is mutated only by stages; StageResults is write-once
// per stage name.
type Context struct {
	SessionID ULID
	Targets   []*TargetInfo
	Posts     []*PostRecord

	// ConfigSnapshot is an opaque, read-only view of the run's
	// configuration, typed by the caller (normally *config.Config).
	ConfigSnapshot any

	EventBus     EventBus
	SessionState SessionState

	StageResults map[string]*StageResult
	Artifacts    map[string][]Artifact

	StartTime time.Time
	Metadata  map[string]any
}

// NewContext creates an empty Context for a new run.
func NewContext(sessionID ULID, targets []*TargetInfo) *Context {
	return &Context{
		SessionID:    sessionID,
		Targets:      targets,
		StageResults: make(map[string]*StageResult),
		Artifacts:    make(map[string][]Artifact),
		StartTime:    time.Now().UTC(),
		Metadata:     make(map[string]any),
	}
}

// AddArtifact records an artifact produced by a stage.
func (c *Context) AddArtifact(stageID string, artifact Artifact) {
	c.Artifacts[stageID] = append(c.Artifacts[stageID], artifact)
}

// GetArtifacts returns all artifacts produced by a stage.
func (c *Context) GetArtifacts(stageID string) []Artifact {
	return c.Artifacts[stageID]
}

// GetArtifactsByType returns all artifacts of a specific type across
// every stage.
func (c *Context) GetArtifactsByType(artifactType ArtifactType) []Artifact {
	var result []Artifact
	for _, artifacts := range c.Artifacts {
		for _, a := range artifacts {
			if a.Type == artifactType {
				result = append(result, a)
			}
		}
	}
	return result
}

// RecordStageResult stores a stage's result. Panics on a duplicate stage
// name, enforcing the write-once invariant; callers that retry a stage
// must do so before recording, never after.
func (c *Context) RecordStageResult(name string, result *StageResult) {
	if _, exists := c.StageResults[name]; exists {
		panic("models: duplicate StageResult for stage " + name)
	}
	c.StageResults[name] = result
}

// SetMetadata stores a value in the Context's free-form metadata map.
func (c *Context) SetMetadata(key string, value any) {
	c.Metadata[key] = value
}

// GetMetadata retrieves a value from the Context's metadata map.
func (c *Context) GetMetadata(key string) (any, bool) {
	v, ok := c.Metadata[key]
	return v, ok
}

package shared

import (
	"context"

	"github.com/jmylchreest/mediapull/internal/models"
)

// BaseStage provides common functionality for pipeline stages. Embed
// this in stage implementations to get default ValidateConfig/
// PreProcess/PostProcess behaviors; override whichever a concrete stage
// actually needs.
type BaseStage struct {
	id   string
	name string
}

// NewBaseStage creates a new BaseStage.
func NewBaseStage(id, name string) BaseStage {
	return BaseStage{
		id:   id,
		name: name,
	}
}

// ID returns the stage identifier.
func (b *BaseStage) ID() string {
	return b.id
}

// Name returns the human-readable stage name.
func (b *BaseStage) Name() string {
	return b.name
}

// ValidateConfig provides a default no-op validation.
func (b *BaseStage) ValidateConfig() []error {
	return nil
}

// PreProcess provides a default no-op pre-process hook.
func (b *BaseStage) PreProcess(ctx context.Context, pctx *models.Context) error {
	return nil
}

// PostProcess provides a default no-op post-process hook.
func (b *BaseStage) PostProcess(ctx context.Context, pctx *models.Context, result *models.StageResult) error {
	return nil
}

// NewResult creates a new StageResult for the given stage name.
func NewResult(stageName string) *models.StageResult {
	return models.NewStageResult(stageName)
}

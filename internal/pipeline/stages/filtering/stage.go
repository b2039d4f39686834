package filtering

import (
	"context"

	"github.com/jmylchreest/mediapull/internal/models"
	"github.com/jmylchreest/mediapull/internal/pipeline/core"
	"github.com/jmylchreest/mediapull/internal/pipeline/shared"
)

const (
	// StageID is the unique identifier for this stage.
	StageID = "filtering"
	// StageName is the human-readable name for this stage.
	StageName = "Filter"
)

// Stage runs a Chain against every post in the Context, replacing
// Context.Posts with the surviving subset and recording one
// FilterDecision per post in its StageResult data under the
// "decisions" key.
type Stage struct {
	shared.BaseStage
	chain *Chain
}

// NewStage creates a filtering Stage bound to chain.
func NewStage(chain *Chain) *Stage {
	return &Stage{
		BaseStage: shared.NewBaseStage(StageID, StageName),
		chain:     chain,
	}
}

// NewConstructor adapts NewStage to core.StageConstructor. chain is
// built once by the caller from configuration and reused across runs.
func NewConstructor(chain *Chain) core.StageConstructor {
	return func(deps *core.Dependencies) core.Stage {
		return NewStage(chain)
	}
}

func (s *Stage) ValidateConfig() []error {
	return s.chain.ValidateConfig()
}

func (s *Stage) Process(ctx context.Context, pctx *models.Context) (*models.StageResult, error) {
	result := shared.NewResult(StageName)

	before := len(pctx.Posts)
	decisions := make([]models.FilterDecision, 0, before)
	survivors := make([]*models.PostRecord, 0, before)

	for _, post := range pctx.Posts {
		decision := s.chain.Evaluate(post)
		decisions = append(decisions, decision)
		if decision.Passed {
			survivors = append(survivors, post)
		}
	}

	pctx.Posts = survivors

	result.Data["decisions"] = decisions
	result.ProcessedCount = before
	result.Success = true

	pctx.AddArtifact(StageID, models.NewArtifact(models.ArtifactTypePosts, models.ProcessingStageFiltered, StageID).
		WithRecordCount(len(survivors)))

	return result, nil
}

// Package processing wraps internal/handlers' Registry as the
// Processing core.Stage: classify each post, dispatch to the
// highest-priority matching ContentHandler, and fold its
// HandlerResult back into the post record. Grounded on
// redditdl's redditdl/pipeline/stages/processing.py
// (ProcessingStage: detect -> dispatch -> per-post error isolation).
package processing

import (
	"context"
	"fmt"
	"path"

	"github.com/jmylchreest/mediapull/internal/corerr"
	"github.com/jmylchreest/mediapull/internal/handlers"
	"github.com/jmylchreest/mediapull/internal/models"
	"github.com/jmylchreest/mediapull/internal/pipeline/core"
	"github.com/jmylchreest/mediapull/internal/pipeline/shared"
)

const (
	StageID   = "processing"
	StageName = "Processing"
)

// Stage dispatches each Context.Posts entry to a matching
// ContentHandler, annotating it with OutputPaths/Embedded/SidecarCreated.
type Stage struct {
	shared.BaseStage
	registry *handlers.Registry
	recovery *corerr.RecoveryManager
}

// NewStage creates a processing Stage bound to registry. recovery
// defaults to corerr.NewRecoveryManager() if nil.
func NewStage(registry *handlers.Registry, recovery *corerr.RecoveryManager) *Stage {
	if recovery == nil {
		recovery = corerr.NewRecoveryManager()
	}
	return &Stage{
		BaseStage: shared.NewBaseStage(StageID, StageName),
		registry:  registry,
		recovery:  recovery,
	}
}

// NewConstructor adapts NewStage to core.StageConstructor, pulling the
// Registry out of Dependencies.HandlerRegistry.
func NewConstructor() core.StageConstructor {
	return func(deps *core.Dependencies) core.Stage {
		registry, _ := deps.HandlerRegistry.(*handlers.Registry)
		return NewStage(registry, nil)
	}
}

func (s *Stage) ValidateConfig() []error {
	if s.registry == nil {
		return []error{fmt.Errorf("processing: no handler registry configured")}
	}
	return nil
}

func (s *Stage) Process(ctx context.Context, pctx *models.Context) (*models.StageResult, error) {
	result := shared.NewResult(StageName)

	var handled, skipped, failed int
	for _, post := range pctx.Posts {
		contentType := handlers.Detect(post)
		post.Type = contentType

		handler := s.registry.Resolve(post, contentType)
		if handler == nil {
			skipped++
			continue
		}

		outcome, hr, err := s.dispatch(ctx, handler, post)
		if err != nil {
			failed++
			result.AddWarning(fmt.Sprintf("post %s: handler %s failed: %v", post.ID, handler.Name(), err))
			continue
		}
		if !outcome {
			failed++
			result.AddWarning(fmt.Sprintf("post %s: handler %s did not succeed: %v", post.ID, handler.Name(), hr.Error))
			continue
		}

		post.OutputPaths = hr.FilesCreated
		post.Embedded = hr.EmbeddedMetadata
		post.SidecarCreated = hr.SidecarCreated
		handled++

		pctx.AddArtifact(StageID, models.NewArtifact(models.ArtifactTypeMedia, models.ProcessingStageProcessed, StageID).
			WithRecordCount(len(hr.FilesCreated)))
	}

	result.ProcessedCount = handled
	result.Data["handled"] = handled
	result.Data["skipped"] = skipped
	result.Data["failed"] = failed
	result.Success = true
	return result, nil
}

// dispatch calls handler.Process, and on error consults the recovery
// manager for exactly one retry ("a recovered retry
// is counted as success").
func (s *Stage) dispatch(ctx context.Context, handler handlers.ContentHandler, post *models.PostRecord) (bool, *models.HandlerResult, error) {
	outputDir := path.Join("posts", post.ID)

	hr, err := handler.Process(ctx, post, outputDir)
	if err == nil {
		return hr.Success, hr, nil
	}

	outcome := s.recovery.Recover(err)
	if outcome.Strategy != corerr.StrategyRetry {
		return false, nil, err
	}

	hr, retryErr := handler.Process(ctx, post, outputDir)
	if retryErr != nil {
		return false, nil, retryErr
	}
	return hr.Success, hr, nil
}

// Package acquisition wraps internal/acquisition's Resolver and
// BatchProcessor as the first core.Stage in the pipeline, turning
// Context.Targets' raw strings into resolved PostRecords.
package acquisition

import (
	"context"
	"fmt"

	"github.com/jmylchreest/mediapull/internal/acquisition"
	"github.com/jmylchreest/mediapull/internal/corerr"
	"github.com/jmylchreest/mediapull/internal/models"
	"github.com/jmylchreest/mediapull/internal/pipeline/core"
	"github.com/jmylchreest/mediapull/internal/pipeline/shared"
)

const (
	StageID   = "acquisition"
	StageName = "Acquisition"
)

// Stage resolves Context's raw target strings and populates Context.Posts.
type Stage struct {
	shared.BaseStage
	rawTargets []string
	resolver   *acquisition.Resolver
	batch      *acquisition.BatchProcessor
}

// Option configures a Stage at construction time.
type Option func(*Stage)

// WithRawTargets seeds the stage with the raw target strings (already
// merged from inline config, targets_file, and legacy target_user).
func WithRawTargets(targets []string) Option {
	return func(s *Stage) { s.rawTargets = targets }
}

// NewStage creates an acquisition Stage bound to resolver and batch.
func NewStage(resolver *acquisition.Resolver, batch *acquisition.BatchProcessor, opts ...Option) *Stage {
	s := &Stage{
		BaseStage: shared.NewBaseStage(StageID, StageName),
		resolver:  resolver,
		batch:     batch,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewConstructor adapts NewStage to core.StageConstructor. rawTargets is
// fixed at registration time from resolved configuration.
func NewConstructor(resolver *acquisition.Resolver, batch *acquisition.BatchProcessor, rawTargets []string) core.StageConstructor {
	return func(deps *core.Dependencies) core.Stage {
		return NewStage(resolver, batch, WithRawTargets(rawTargets))
	}
}

func (s *Stage) ValidateConfig() []error {
	if len(s.rawTargets) == 0 {
		return []error{fmt.Errorf("acquisition: at least one target must be specified")}
	}
	return nil
}

func (s *Stage) Process(ctx context.Context, pctx *models.Context) (*models.StageResult, error) {
	result := shared.NewResult(StageName)

	var targets []*models.TargetInfo
	for _, raw := range s.rawTargets {
		info, err := s.resolver.Resolve(raw)
		if err != nil {
			result.AddWarning(fmt.Sprintf("could not resolve target %q: %v", raw, err))
			continue
		}
		accessible, recs := s.resolver.ValidateAccessibility(info)
		if !accessible {
			result.AddWarning(fmt.Sprintf("target %q not accessible: %v", raw, recs))
			continue
		}
		targets = append(targets, info)
	}

	if len(targets) == 0 {
		return result, corerr.Validation("no valid targets could be resolved", nil)
	}

	pctx.Targets = targets
	results := s.batch.ProcessTargets(ctx, targets)

	var totalPosts int
	var succeeded, failed int
	for _, r := range results {
		if r.Success {
			pctx.Posts = append(pctx.Posts, r.Posts...)
			totalPosts += len(r.Posts)
			succeeded++
		} else {
			failed++
			result.AddWarning(fmt.Sprintf("target %q failed: %v", r.Target.Original, r.Error))
		}
	}

	result.ProcessedCount = totalPosts
	result.Data["targets_total"] = len(targets)
	result.Data["targets_successful"] = succeeded
	result.Data["targets_failed"] = failed
	result.Success = true

	if totalPosts == 0 {
		result.AddWarning("no posts were acquired from any target")
	}

	pctx.AddArtifact(StageID, models.NewArtifact(models.ArtifactTypePosts, models.ProcessingStageAcquired, StageID).
		WithRecordCount(totalPosts))

	return result, nil
}

// Package export wraps internal/exporters' Registry as the final
// core.Stage, writing Context.Posts through every configured output
// format. Grounded on redditdl's redditdl/pipeline/stages/
// export.py (ExportStage: resolve formats -> export each -> record
// per-format file paths as artifacts).
package export

import (
	"context"
	"fmt"

	"github.com/jmylchreest/mediapull/internal/exporters"
	"github.com/jmylchreest/mediapull/internal/models"
	"github.com/jmylchreest/mediapull/internal/pipeline/core"
	"github.com/jmylchreest/mediapull/internal/pipeline/shared"
)

const (
	StageID   = "export"
	StageName = "Export"
)

// FormatConfig pairs a registered exporter name with its Config.
type FormatConfig struct {
	Format string
	Config exporters.Config
}

// Stage exports Context.Posts through every configured format.
type Stage struct {
	shared.BaseStage
	registry *exporters.Registry
	formats  []FormatConfig
}

// NewStage creates an export Stage bound to registry, exporting to
// every entry in formats.
func NewStage(registry *exporters.Registry, formats []FormatConfig) *Stage {
	return &Stage{
		BaseStage: shared.NewBaseStage(StageID, StageName),
		registry:  registry,
		formats:   formats,
	}
}

// NewConstructor adapts NewStage to core.StageConstructor, pulling the
// Registry out of Dependencies.ExporterRegistry.
func NewConstructor(formats []FormatConfig) core.StageConstructor {
	return func(deps *core.Dependencies) core.Stage {
		registry, _ := deps.ExporterRegistry.(*exporters.Registry)
		return NewStage(registry, formats)
	}
}

func (s *Stage) ValidateConfig() []error {
	var errs []error
	if s.registry == nil {
		errs = append(errs, fmt.Errorf("export: no exporter registry configured"))
		return errs
	}
	if len(s.formats) == 0 {
		errs = append(errs, fmt.Errorf("export: at least one output format must be configured"))
	}
	for _, fc := range s.formats {
		e, ok := s.registry.Get(fc.Format)
		if !ok {
			errs = append(errs, fmt.Errorf("export: unknown format %q", fc.Format))
			continue
		}
		errs = append(errs, e.ValidateConfig(fc.Config)...)
	}
	return errs
}

func (s *Stage) Process(ctx context.Context, pctx *models.Context) (*models.StageResult, error) {
	result := shared.NewResult(StageName)

	for _, fc := range s.formats {
		e, ok := s.registry.Get(fc.Format)
		if !ok {
			result.AddWarning(fmt.Sprintf("format %q is not registered, skipping", fc.Format))
			continue
		}

		exportResult, err := e.Export(ctx, pctx.Posts, fc.Config)
		if err != nil {
			result.AddWarning(fmt.Sprintf("format %q failed: %v", fc.Format, err))
			continue
		}

		for _, path := range exportResult.FilesWritten {
			pctx.AddArtifact(StageID, models.NewArtifact(models.ArtifactTypeExport, models.ProcessingStageExported, StageID).
				WithRecordCount(exportResult.RecordCount).
				WithFilePath(path))
		}
		result.ProcessedCount += exportResult.RecordCount
	}

	result.Success = true
	return result, nil
}

// Package organization implements the Organization pipeline stage:
// grouping processed posts by a configured scheme and, when requested,
// moving their output files into the resulting directory layout.
// Grounded on redditdl's redditdl/pipeline/stages/
// organization.py, whose OrganizationStage carries the scheme/toggle
// configuration (organize_by, create_structure, move_files) but stubs
// every _organize_by_* method as a placeholder; this package builds
// the real file-moving behavior those stubs only counted toward.
package organization

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/jmylchreest/mediapull/internal/models"
	"github.com/jmylchreest/mediapull/internal/pipeline/core"
	"github.com/jmylchreest/mediapull/internal/pipeline/shared"
	"github.com/jmylchreest/mediapull/internal/storage"
)

const (
	StageID   = "organization"
	StageName = "Organization"

	SchemeNone      = "none"
	SchemeSubreddit = "subreddit"
	SchemeUser      = "user"
	SchemeDate      = "date"
	SchemeType      = "type"

	unsortedGroup = "unsorted"
	deletedAuthor = "[deleted]"
)

// Config tunes the Organization stage. Field names and defaults match
// organization.py's configuration options.
type Config struct {
	OrganizeBy      string
	CreateStructure bool
	MoveFiles       bool
}

// DefaultConfig disables organization, matching organization.py's
// "none" default.
func DefaultConfig() Config {
	return Config{OrganizeBy: SchemeNone}
}

func (c Config) validate() []error {
	switch c.OrganizeBy {
	case "", SchemeNone, SchemeSubreddit, SchemeUser, SchemeDate, SchemeType:
		return nil
	default:
		return []error{fmt.Errorf("organization: organize_by must be one of none, subreddit, user, date, type (got %q)", c.OrganizeBy)}
	}
}

// Stage groups Context.Posts by Config.OrganizeBy and, when
// Config.MoveFiles is set, relocates each post's OutputPaths into the
// resulting directory layout.
type Stage struct {
	shared.BaseStage
	cfg     Config
	sandbox *storage.Sandbox
}

// NewStage creates an organization Stage bound to cfg and sandbox.
func NewStage(cfg Config, sandbox *storage.Sandbox) *Stage {
	return &Stage{
		BaseStage: shared.NewBaseStage(StageID, StageName),
		cfg:       cfg,
		sandbox:   sandbox,
	}
}

// NewConstructor adapts NewStage to core.StageConstructor, pulling the
// Sandbox out of Dependencies.
func NewConstructor(cfg Config) core.StageConstructor {
	return func(deps *core.Dependencies) core.Stage {
		return NewStage(cfg, deps.Sandbox)
	}
}

func (s *Stage) ValidateConfig() []error {
	return s.cfg.validate()
}

func (s *Stage) Process(ctx context.Context, pctx *models.Context) (*models.StageResult, error) {
	result := shared.NewResult(StageName)

	if len(pctx.Posts) == 0 {
		result.AddWarning("no posts to organize")
		result.Success = true
		return result, nil
	}

	scheme := s.cfg.OrganizeBy
	if scheme == "" {
		scheme = SchemeNone
	}

	if scheme == SchemeNone || !s.cfg.CreateStructure {
		result.ProcessedCount = len(pctx.Posts)
		result.Data["organization_scheme"] = SchemeNone
		result.Data["files_organized"] = 0
		result.Success = true
		return result, nil
	}

	groups := make(map[string]int)
	organized := 0
	for _, post := range pctx.Posts {
		group := groupKey(scheme, post)
		groups[group]++

		if !s.cfg.MoveFiles || len(post.OutputPaths) == 0 {
			continue
		}
		moved, err := s.moveOutputs(scheme, group, post)
		if err != nil {
			result.AddWarning(fmt.Sprintf("post %s: could not relocate outputs: %v", post.ID, err))
			continue
		}
		if moved {
			organized++
		}
	}

	result.ProcessedCount = len(pctx.Posts)
	result.Data["organization_scheme"] = scheme
	result.Data["files_organized"] = organized
	result.Data["groups"] = groups
	result.Success = true

	pctx.AddArtifact(StageID, models.NewArtifact(models.ArtifactTypePosts, models.ProcessingStageOrganized, StageID).
		WithRecordCount(organized))

	return result, nil
}

// groupKey computes the directory-safe grouping value for post under
// scheme. Empty or unclassifiable values fall back to unsortedGroup
// rather than producing an empty path segment.
func groupKey(scheme string, post *models.PostRecord) string {
	var key string
	switch scheme {
	case SchemeSubreddit:
		key = post.Subreddit
	case SchemeUser:
		if post.Author != "" && post.Author != deletedAuthor {
			key = post.Author
		}
	case SchemeDate:
		if post.CreatedAtISO != "" {
			key, _, _ = strings.Cut(post.CreatedAtISO, "T")
		}
	case SchemeType:
		key = coarseType(post.Type)
	}
	if key = sanitizeSegment(key); key == "" {
		return unsortedGroup
	}
	return key
}

// coarseType collapses the content-handler's fine-grained PostType
// into the coarser image/video/text/other buckets organization.py's
// _organize_by_type placeholder named.
func coarseType(t models.PostType) string {
	switch t {
	case models.PostTypeImage, models.PostTypeGallery:
		return "images"
	case models.PostTypeVideo:
		return "videos"
	case models.PostTypeText:
		return "text"
	default:
		return "other"
	}
}

func sanitizeSegment(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}

// moveOutputs relocates every path in post.OutputPaths under
// <scheme>/<group>/<post-id>/<basename>, rewriting OutputPaths in
// place. Returns false (no error) if nothing needed moving.
func (s *Stage) moveOutputs(scheme, group string, post *models.PostRecord) (bool, error) {
	destDir := path.Join(scheme, group, post.ID)
	if err := s.sandbox.MkdirAll(destDir); err != nil {
		return false, err
	}

	moved := false
	rewritten := make([]string, 0, len(post.OutputPaths))
	for _, oldPath := range post.OutputPaths {
		newPath := path.Join(destDir, filepath.Base(oldPath))
		if newPath == oldPath {
			rewritten = append(rewritten, oldPath)
			continue
		}
		if err := s.sandbox.Rename(oldPath, newPath); err != nil {
			return moved, err
		}
		rewritten = append(rewritten, newPath)
		moved = true
	}
	post.OutputPaths = rewritten
	return moved, nil
}

package handlers

import (
	"context"
	"path"
	"time"

	"github.com/jmylchreest/mediapull/internal/corerr"
	"github.com/jmylchreest/mediapull/internal/models"
	"github.com/jmylchreest/mediapull/internal/storage"
)

// CrosspostHandler writes a small JSON sidecar recording the parent
// post's id rather than re-downloading the parent's media, since the
// parent post (if also acquired) already owns that download.
type CrosspostHandler struct {
	Sandbox *storage.Sandbox
}

func (h *CrosspostHandler) Name() string { return "crosspost" }

func (h *CrosspostHandler) SupportedTypes() []models.PostType {
	return []models.PostType{models.PostTypeCrosspost}
}

func (h *CrosspostHandler) Priority() int { return 10 }

func (h *CrosspostHandler) CanHandle(post *models.PostRecord, contentType models.PostType) bool {
	return contentType == models.PostTypeCrosspost && post.CrosspostParentID != ""
}

func (h *CrosspostHandler) Process(ctx context.Context, post *models.PostRecord, outputDir string) (*models.HandlerResult, error) {
	start := time.Now()

	if err := h.Sandbox.MkdirAll(outputDir); err != nil {
		return nil, corerr.Filesystem("could not create output directory", err)
	}

	relPath := path.Join(outputDir, post.ID+"-crosspost.json")
	body := []byte(`{"crosspost_parent_id":"` + post.CrosspostParentID + `"}`)
	if err := h.Sandbox.AtomicWrite(relPath, body); err != nil {
		return nil, corerr.Filesystem("could not write crosspost sidecar", err)
	}

	return &models.HandlerResult{
		Success:        true,
		FilesCreated:   []string{relPath},
		SidecarCreated: true,
		Duration:       time.Since(start),
	}, nil
}

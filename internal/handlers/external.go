package handlers

import (
	"context"
	"path"
	"time"

	"github.com/jmylchreest/mediapull/internal/corerr"
	"github.com/jmylchreest/mediapull/internal/models"
	"github.com/jmylchreest/mediapull/internal/storage"
)

// ExternalHandler records an unrecognized outbound link as a sidecar
// note rather than attempting a download, since external links point
// at arbitrary third-party sites this system has no handler for.
type ExternalHandler struct {
	Sandbox *storage.Sandbox
}

func (h *ExternalHandler) Name() string { return "external" }

func (h *ExternalHandler) SupportedTypes() []models.PostType {
	return []models.PostType{models.PostTypeExternal}
}

func (h *ExternalHandler) Priority() int { return 10 }

func (h *ExternalHandler) CanHandle(post *models.PostRecord, contentType models.PostType) bool {
	return contentType == models.PostTypeExternal
}

func (h *ExternalHandler) Process(ctx context.Context, post *models.PostRecord, outputDir string) (*models.HandlerResult, error) {
	start := time.Now()

	if err := h.Sandbox.MkdirAll(outputDir); err != nil {
		return nil, corerr.Filesystem("could not create output directory", err)
	}

	relPath := path.Join(outputDir, post.ID+"-link.txt")
	body := []byte(post.ResolveMediaURL() + "\n")
	if err := h.Sandbox.AtomicWrite(relPath, body); err != nil {
		return nil, corerr.Filesystem("could not write external-link sidecar", err)
	}

	return &models.HandlerResult{
		Success:        true,
		FilesCreated:   []string{relPath},
		SidecarCreated: true,
		Duration:       time.Since(start),
	}, nil
}

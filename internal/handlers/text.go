package handlers

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/jmylchreest/mediapull/internal/corerr"
	"github.com/jmylchreest/mediapull/internal/models"
	"github.com/jmylchreest/mediapull/internal/storage"
)

// TextHandler writes a self post's body to a plain-text sidecar file.
// Posts with empty selftext still produce a file (title only), since
// a self post with no body is a legitimate link-less post, not an
// error.
type TextHandler struct {
	Sandbox *storage.Sandbox
}

func (h *TextHandler) Name() string { return "text" }

func (h *TextHandler) SupportedTypes() []models.PostType {
	return []models.PostType{models.PostTypeText}
}

func (h *TextHandler) Priority() int { return 10 }

func (h *TextHandler) CanHandle(post *models.PostRecord, contentType models.PostType) bool {
	return contentType == models.PostTypeText
}

func (h *TextHandler) Process(ctx context.Context, post *models.PostRecord, outputDir string) (*models.HandlerResult, error) {
	start := time.Now()

	if err := h.Sandbox.MkdirAll(outputDir); err != nil {
		return nil, corerr.Filesystem("could not create output directory", err)
	}

	relPath := path.Join(outputDir, post.ID+".txt")
	body := fmt.Sprintf("%s\n\n%s\n", post.Title, post.SelfText)
	if err := h.Sandbox.AtomicWrite(relPath, []byte(body)); err != nil {
		return nil, corerr.Filesystem("could not write text sidecar", err)
	}

	return &models.HandlerResult{
		Success:        true,
		FilesCreated:   []string{relPath},
		SidecarCreated: true,
		Duration:       time.Since(start),
	}, nil
}

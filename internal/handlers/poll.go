package handlers

import (
	"context"
	"encoding/json"
	"path"
	"time"

	"github.com/jmylchreest/mediapull/internal/corerr"
	"github.com/jmylchreest/mediapull/internal/models"
	"github.com/jmylchreest/mediapull/internal/storage"
)

// PollHandler writes a poll's options and vote counts to a JSON
// sidecar, since a poll has no downloadable media of its own.
type PollHandler struct {
	Sandbox *storage.Sandbox
}

func (h *PollHandler) Name() string { return "poll" }

func (h *PollHandler) SupportedTypes() []models.PostType {
	return []models.PostType{models.PostTypePoll}
}

func (h *PollHandler) Priority() int { return 10 }

func (h *PollHandler) CanHandle(post *models.PostRecord, contentType models.PostType) bool {
	return contentType == models.PostTypePoll && post.Poll != nil
}

func (h *PollHandler) Process(ctx context.Context, post *models.PostRecord, outputDir string) (*models.HandlerResult, error) {
	start := time.Now()

	if err := h.Sandbox.MkdirAll(outputDir); err != nil {
		return nil, corerr.Filesystem("could not create output directory", err)
	}

	data, err := json.MarshalIndent(post.Poll, "", "  ")
	if err != nil {
		return nil, corerr.Processing("could not marshal poll payload", err)
	}

	relPath := path.Join(outputDir, post.ID+"-poll.json")
	if err := h.Sandbox.AtomicWrite(relPath, data); err != nil {
		return nil, corerr.Filesystem("could not write poll sidecar", err)
	}

	return &models.HandlerResult{
		Success:        true,
		FilesCreated:   []string{relPath},
		SidecarCreated: true,
		Duration:       time.Since(start),
	}, nil
}

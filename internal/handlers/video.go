package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/jmylchreest/mediapull/internal/models"
)

// VideoHandler downloads video posts, including Reddit-hosted
// (v.redd.it) DASH video where the audio track arrives as a separate
// stream; Reddit-hosted clips get an OperationsPerformed entry noting
// that audio muxing was not attempted, matching redditdl's documented limitation
// for its ffmpeg-less fallback path.
type VideoHandler struct {
	Fetcher *Fetcher
}

func (h *VideoHandler) Name() string { return "video" }

func (h *VideoHandler) SupportedTypes() []models.PostType {
	return []models.PostType{models.PostTypeVideo}
}

func (h *VideoHandler) Priority() int { return 10 }

func (h *VideoHandler) CanHandle(post *models.PostRecord, contentType models.PostType) bool {
	return contentType == models.PostTypeVideo && post.ResolveMediaURL() != ""
}

func (h *VideoHandler) Process(ctx context.Context, post *models.PostRecord, outputDir string) (*models.HandlerResult, error) {
	start := time.Now()
	mediaURL := post.ResolveMediaURL()
	filename := FilenameFromURL(mediaURL, post.ID+".mp4")

	relPath, size, err := h.Fetcher.Download(ctx, mediaURL, outputDir, filename)
	if err != nil {
		return nil, err
	}

	result := &models.HandlerResult{
		Success:      true,
		FilesCreated: []string{relPath},
		Duration:     time.Since(start),
	}
	result.OperationsPerformed = append(result.OperationsPerformed, fmt.Sprintf("downloaded %d bytes", size))
	if registrableHost(mediaURL) == "v.redd.it" {
		result.OperationsPerformed = append(result.OperationsPerformed, "video-only stream: audio track not muxed")
	}

	return result, nil
}

package handlers

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"time"

	_ "golang.org/x/image/webp"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/jmylchreest/mediapull/internal/models"
)

// ImageHandler downloads a single still image and, where the format
// decodes cleanly, records its pixel dimensions in OperationsPerformed
// for downstream export/reporting. Grounded on redditdl's
// ImageHandler (redditdl pipeline/stages/processing.py), reusing
// Fetcher instead of a bespoke aiohttp download loop.
type ImageHandler struct {
	Fetcher *Fetcher
}

func (h *ImageHandler) Name() string { return "image" }

func (h *ImageHandler) SupportedTypes() []models.PostType {
	return []models.PostType{models.PostTypeImage}
}

func (h *ImageHandler) Priority() int { return 10 }

func (h *ImageHandler) CanHandle(post *models.PostRecord, contentType models.PostType) bool {
	return contentType == models.PostTypeImage && post.ResolveMediaURL() != ""
}

func (h *ImageHandler) Process(ctx context.Context, post *models.PostRecord, outputDir string) (*models.HandlerResult, error) {
	start := time.Now()
	mediaURL := post.ResolveMediaURL()
	filename := FilenameFromURL(mediaURL, post.ID+".jpg")

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

	if data, readErr := h.Fetcher.Sandbox.ReadFile(relPath); readErr == nil {
		if cfg, format, decodeErr := image.DecodeConfig(bytes.NewReader(data)); decodeErr == nil {
			result.OperationsPerformed = append(result.OperationsPerformed, fmt.Sprintf("decoded %s %dx%d", format, cfg.Width, cfg.Height))
		}
	}

	return result, nil
}

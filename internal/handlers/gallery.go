package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/jmylchreest/mediapull/internal/models"
)

// GalleryHandler downloads every image in a multi-image post,
// isolating failures per item so one broken gallery link does not
// drop the rest. Grounded on redditdl's GalleryHandler, which
// downloads each gallery_urls entry independently and continues past
// individual failures.
type GalleryHandler struct {
	Fetcher *Fetcher
}

func (h *GalleryHandler) Name() string { return "gallery" }

func (h *GalleryHandler) SupportedTypes() []models.PostType {
	return []models.PostType{models.PostTypeGallery}
}

func (h *GalleryHandler) Priority() int { return 10 }

func (h *GalleryHandler) CanHandle(post *models.PostRecord, contentType models.PostType) bool {
	return contentType == models.PostTypeGallery && len(post.GalleryURLs) > 0
}

func (h *GalleryHandler) Process(ctx context.Context, post *models.PostRecord, outputDir string) (*models.HandlerResult, error) {
	start := time.Now()
	result := &models.HandlerResult{Success: true}

	var failures int
	for i, rawURL := range post.GalleryURLs {
		filename := FilenameFromURL(rawURL, fmt.Sprintf("%s-%02d.jpg", post.ID, i+1))
		relPath, size, err := h.Fetcher.Download(ctx, rawURL, outputDir, filename)
		if err != nil {
			failures++
			result.OperationsPerformed = append(result.OperationsPerformed, fmt.Sprintf("item %d failed: %v", i+1, err))
			continue
		}
		result.FilesCreated = append(result.FilesCreated, relPath)
		result.OperationsPerformed = append(result.OperationsPerformed, fmt.Sprintf("item %d: downloaded %d bytes", i+1, size))
	}

	result.Duration = time.Since(start)
	if len(result.FilesCreated) == 0 {
		result.Success = false
		result.Error = fmt.Errorf("gallery: all %d items failed to download", failures)
	}
	return result, nil
}

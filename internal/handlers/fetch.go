package handlers

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/jmylchreest/mediapull/internal/corerr"
	"github.com/jmylchreest/mediapull/internal/storage"
	"github.com/jmylchreest/mediapull/pkg/httpclient"
)

// LimiterClassDownloads is the Rate-Limit Coordinator class every
// media-fetching handler acquires a token from before an outbound
// request, per the rate-limit class defaults table.
const LimiterClassDownloads = "downloads"

// RateLimiter is the narrow capability image/video/gallery handlers
// need from the Rate-Limit Coordinator.
type RateLimiter interface {
	Acquire(class string) error
}

// Fetcher downloads a media asset through the shared HTTP client,
// gated by the downloads rate-limit class, and writes it atomically
// into a Sandbox. Grounded on pkg/httpclient's resilient Client
// (retry/circuit-breaker/decompression) reused here for outbound
// media fetches instead of EPG/playlist fetches.
type Fetcher struct {
	Client  *httpclient.Client
	Limiter RateLimiter
	Sandbox *storage.Sandbox
}

// NewFetcher creates a Fetcher with sane client defaults if client is nil.
func NewFetcher(client *httpclient.Client, limiter RateLimiter, sandbox *storage.Sandbox) *Fetcher {
	if client == nil {
		client = httpclient.NewWithDefaults()
	}
	return &Fetcher{Client: client, Limiter: limiter, Sandbox: sandbox}
}

// Download fetches mediaURL and writes it to outputDir/filename
// (sandbox-relative), returning the bytes written. A nil Limiter skips
// the rate-limit gate (used in tests).
func (f *Fetcher) Download(ctx context.Context, mediaURL, outputDir, filename string) (string, int64, error) {
	if f.Limiter != nil {
		if err := f.Limiter.Acquire(LimiterClassDownloads); err != nil {
			return "", 0, corerr.Network(fmt.Sprintf("rate limit acquire failed for %s", mediaURL), err)
		}
	}

	resp, err := f.Client.Get(ctx, mediaURL)
	if err != nil {
		return "", 0, corerr.Network("download failed: "+mediaURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, corerr.Network(fmt.Sprintf("download %s returned status %d", mediaURL, resp.StatusCode), nil)
	}

	if err := f.Sandbox.MkdirAll(outputDir); err != nil {
		return "", 0, corerr.Filesystem("could not create output directory", err)
	}

	relPath := path.Join(outputDir, filename)
	if err := f.Sandbox.AtomicWriteReader(relPath, resp.Body); err != nil {
		return "", 0, corerr.Filesystem("could not write downloaded file", err)
	}

	size, err := f.Sandbox.Size(relPath)
	if err != nil {
		size = 0
	}
	return relPath, size, nil
}

// FilenameFromURL derives a filesystem-safe filename from a media URL,
// falling back to fallback when the URL yields no usable base name.
func FilenameFromURL(rawURL, fallback string) string {
	clean := strippedQuery(rawURL)
	base := path.Base(clean)
	if base == "" || base == "." || base == "/" || !strings.Contains(base, ".") {
		return fallback
	}
	return base
}

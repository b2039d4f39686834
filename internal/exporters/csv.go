package exporters

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jmylchreest/mediapull/internal/models"
	"github.com/jmylchreest/mediapull/pkg/bytesize"
)

var csvColumns = []string{
	"id", "title", "author", "subreddit", "permalink", "url", "post_type",
	"score", "comment_count", "is_nsfw", "created_at_iso", "output_paths",
}

// CSVExporter writes a flat row-per-post CSV. It supports true
// streaming (rows are written as they are iterated, never buffered in
// full) and incremental appends to an existing file.
type CSVExporter struct{}

func (e *CSVExporter) Info() FormatInfo {
	return FormatInfo{Name: "csv", Extension: ".csv", SupportsStreaming: true, SupportsIncremental: true}
}

func (e *CSVExporter) ValidateConfig(cfg Config) []error {
	if cfg.Destination == "" {
		return []error{fmt.Errorf("csv exporter: destination is required")}
	}
	return nil
}

func (e *CSVExporter) EstimateOutputSize(posts []*models.PostRecord, cfg Config) bytesize.Size {
	const avgRowBytes = 200
	return bytesize.Size(len(posts)*avgRowBytes + 100)
}

func (e *CSVExporter) Export(ctx context.Context, posts []*models.PostRecord, cfg Config) (*Result, error) {
	appending := fileExists(cfg.Destination)

	flags := os.O_CREATE | os.O_WRONLY
	if appending {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	f, err := os.OpenFile(cfg.Destination, flags, 0644)
	if err != nil {
		return nil, fmt.Errorf("csv exporter: opening %s: %w", cfg.Destination, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if !appending {
		if err := w.Write(csvColumns); err != nil {
			return nil, fmt.Errorf("csv exporter: writing header: %w", err)
		}
	}

	for _, post := range posts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := w.Write(rowFor(post)); err != nil {
			return nil, fmt.Errorf("csv exporter: writing row for %s: %w", post.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("csv exporter: flush: %w", err)
	}

	info, statErr := f.Stat()
	var size int64
	if statErr == nil {
		size = info.Size()
	}

	return &Result{FilesWritten: []string{cfg.Destination}, RecordCount: len(posts), BytesWritten: size}, nil
}

func rowFor(post *models.PostRecord) []string {
	return []string{
		post.ID, post.Title, post.Author, post.Subreddit, post.Permalink,
		post.URL, string(post.Type),
		strconv.Itoa(post.Score), strconv.Itoa(post.CommentCount),
		strconv.FormatBool(post.IsNSFW), post.CreatedAtISO,
		strings.Join(post.OutputPaths, ";"),
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

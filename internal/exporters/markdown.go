package exporters

import (
	"context"
	"fmt"
	"os"
	"text/template"

	"github.com/jmylchreest/mediapull/internal/models"
	"github.com/jmylchreest/mediapull/pkg/bytesize"
)

var markdownTemplate = template.Must(template.New("export").Parse(
	`# Export

{{range .}}## {{.Title}}

- author: {{.Author}}
- subreddit: {{.Subreddit}}
- score: {{.Score}} ({{.CommentCount}} comments)
- type: {{.Type}}
- permalink: {{.Permalink}}
{{if .OutputPaths}}- files: {{range .OutputPaths}}{{.}} {{end}}
{{end}}
{{end}}`))

// MarkdownExporter renders one human-readable document per run: a
// whole-file rewrite, no streaming or incremental support.
type MarkdownExporter struct{}

func (e *MarkdownExporter) Info() FormatInfo {
	return FormatInfo{Name: "markdown", Extension: ".md"}
}

func (e *MarkdownExporter) ValidateConfig(cfg Config) []error {
	if cfg.Destination == "" {
		return []error{fmt.Errorf("markdown exporter: destination is required")}
	}
	return nil
}

func (e *MarkdownExporter) EstimateOutputSize(posts []*models.PostRecord, cfg Config) bytesize.Size {
	const avgEntryBytes = 250
	return bytesize.Size(len(posts)*avgEntryBytes + 64)
}

func (e *MarkdownExporter) Export(ctx context.Context, posts []*models.PostRecord, cfg Config) (*Result, error) {
	f, err := os.Create(cfg.Destination)
	if err != nil {
		return nil, fmt.Errorf("markdown exporter: creating %s: %w", cfg.Destination, err)
	}
	defer f.Close()

	if err := markdownTemplate.Execute(f, posts); err != nil {
		return nil, fmt.Errorf("markdown exporter: rendering template: %w", err)
	}

	info, statErr := f.Stat()
	var size int64
	if statErr == nil {
		size = info.Size()
	}

	return &Result{FilesWritten: []string{cfg.Destination}, RecordCount: len(posts), BytesWritten: size}, nil
}

// Package exporters implements the Exporter registry: named output
// formats that turn a completed acquisition run's posts into files on
// disk. Grounded on redditdl's redditdl/exporters/base.py
// (Exporter ABC: validate_config/estimate_output_size/export, plus the
// supports_streaming/supports_incremental capability flags) and on
// an earlier config-export format-registry pattern, generalized from
// config-file formats to post-archive formats.
package exporters

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jmylchreest/mediapull/internal/models"
	"github.com/jmylchreest/mediapull/pkg/bytesize"
)

// FormatInfo describes an exporter's capabilities, surfaced to callers
// deciding whether a format fits their run (e.g. whether incremental
// runs can append rather than rewrite).
type FormatInfo struct {
	Name                string
	Extension           string
	SupportsCompression bool
	// SupportsStreaming reports whether Export can write without
	// holding the full result set in memory.
	SupportsStreaming bool
	// SupportsIncremental reports whether repeated Export calls against
	// the same destination append/upsert rather than rewrite.
	SupportsIncremental bool
}

// Config carries the per-export options common to every format; an
// individual exporter interprets only the fields relevant to it.
type Config struct {
	Destination string
	Compress    bool
	// Pretty requests human-readable formatting where applicable
	// (json.go indentation; the other exporters ignore it).
	Pretty bool
}

// Result reports what an Export call actually wrote.
type Result struct {
	FilesWritten []string
	RecordCount  int
	BytesWritten int64
}

// Exporter writes a batch of posts to a named output format.
type Exporter interface {
	Info() FormatInfo
	ValidateConfig(cfg Config) []error
	// EstimateOutputSize gives a rough pre-export size estimate so
	// callers can warn before writing a very large archive.
	EstimateOutputSize(posts []*models.PostRecord, cfg Config) bytesize.Size
	Export(ctx context.Context, posts []*models.PostRecord, cfg Config) (*Result, error)
}

// Registry holds Exporters keyed by format name.
type Registry struct {
	mu        sync.RWMutex
	exporters map[string]Exporter
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{exporters: make(map[string]Exporter)}
}

// Register adds or replaces the exporter under its Info().Name.
func (r *Registry) Register(e Exporter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exporters[e.Info().Name] = e
}

// Get looks up an exporter by format name.
func (r *Registry) Get(name string) (Exporter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.exporters[name]
	return e, ok
}

// Names returns every registered format name, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.exporters))
	for name := range r.exporters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewDefaultRegistry returns a Registry with the four built-in
// exporters registered: json, csv, sqlite, markdown.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&JSONExporter{})
	r.Register(&CSVExporter{})
	r.Register(&SQLiteExporter{})
	r.Register(&MarkdownExporter{})
	return r
}

// ErrUnknownFormat is returned when a caller asks the registry for a
// format it does not have.
func ErrUnknownFormat(name string) error {
	return fmt.Errorf("exporters: unknown format %q", name)
}

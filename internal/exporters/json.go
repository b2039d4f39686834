package exporters

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/andybalholm/brotli"
	"github.com/dsnet/compress/bzip2"
	"github.com/ulikunitz/xz"

	"github.com/jmylchreest/mediapull/internal/models"
	"github.com/jmylchreest/mediapull/pkg/bytesize"
)

// JSONExporter writes the full post set as a single JSON array, in
// stable field order (struct field order, via encoding/json), with
// optional compression selected by the destination's extension: .br
// (brotli), .xz (LZMA2), .bz2 (bzip2), or gzip as the fallback. A
// whole-file rewrite on every call: neither streaming nor incremental.
type JSONExporter struct{}

func (e *JSONExporter) Info() FormatInfo {
	return FormatInfo{Name: "json", Extension: ".json", SupportsCompression: true}
}

func (e *JSONExporter) ValidateConfig(cfg Config) []error {
	if cfg.Destination == "" {
		return []error{fmt.Errorf("json exporter: destination is required")}
	}
	return nil
}

func (e *JSONExporter) EstimateOutputSize(posts []*models.PostRecord, cfg Config) bytesize.Size {
	// A rough per-post estimate; good enough for a pre-export warning,
	// not an exact accounting.
	const avgPostBytes = 800
	estimate := bytesize.Size(len(posts) * avgPostBytes)
	if cfg.Compress {
		estimate /= 3
	}
	return estimate
}

func (e *JSONExporter) Export(ctx context.Context, posts []*models.PostRecord, cfg Config) (*Result, error) {
	indent := ""
	if cfg.Pretty {
		indent = "  "
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", indent)
	if err := enc.Encode(posts); err != nil {
		return nil, fmt.Errorf("json exporter: encoding posts: %w", err)
	}

	dest := cfg.Destination
	var writer io.WriteCloser
	f, err := os.Create(dest)
	if err != nil {
		return nil, fmt.Errorf("json exporter: creating %s: %w", dest, err)
	}
	defer f.Close()
	writer = f

	var written int64
	if cfg.Compress {
		switch {
		case hasSuffix(dest, ".br"):
			bw := brotli.NewWriter(writer)
			n, werr := bw.Write(buf.Bytes())
			written = int64(n)
			if werr == nil {
				werr = bw.Close()
			}
			if werr != nil {
				return nil, fmt.Errorf("json exporter: brotli write: %w", werr)
			}
		case hasSuffix(dest, ".xz"):
			xw, xerr := xz.NewWriter(writer)
			if xerr != nil {
				return nil, fmt.Errorf("json exporter: xz writer: %w", xerr)
			}
			n, werr := xw.Write(buf.Bytes())
			written = int64(n)
			if werr == nil {
				werr = xw.Close()
			}
			if werr != nil {
				return nil, fmt.Errorf("json exporter: xz write: %w", werr)
			}
		case hasSuffix(dest, ".bz2"):
			bzw, bzerr := bzip2.NewWriter(writer, nil)
			if bzerr != nil {
				return nil, fmt.Errorf("json exporter: bzip2 writer: %w", bzerr)
			}
			n, werr := bzw.Write(buf.Bytes())
			written = int64(n)
			if werr == nil {
				werr = bzw.Close()
			}
			if werr != nil {
				return nil, fmt.Errorf("json exporter: bzip2 write: %w", werr)
			}
		default:
			gw := gzip.NewWriter(writer)
			n, werr := gw.Write(buf.Bytes())
			written = int64(n)
			if werr == nil {
				werr = gw.Close()
			}
			if werr != nil {
				return nil, fmt.Errorf("json exporter: gzip write: %w", werr)
			}
		}
	} else {
		n, werr := writer.Write(buf.Bytes())
		written = int64(n)
		if werr != nil {
			return nil, fmt.Errorf("json exporter: writing %s: %w", dest, werr)
		}
	}

	return &Result{FilesWritten: []string{dest}, RecordCount: len(posts), BytesWritten: written}, nil
}

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}

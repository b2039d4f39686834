package exporters

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/dsnet/compress/bzip2"
	"github.com/jmylchreest/mediapull/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

func samplePosts() []*models.PostRecord {
	return []*models.PostRecord{
		{ID: "1", Title: "hello", Subreddit: "golang", Score: 10, Type: models.PostTypeText},
		{ID: "2", Title: "world", Subreddit: "golang", Score: 5, Type: models.PostTypeImage, OutputPaths: []string{"posts/2/a.jpg"}},
	}
}

func TestRegistryHasFourBuiltins(t *testing.T) {
	r := NewDefaultRegistry()
	assert.Equal(t, []string{"csv", "json", "markdown", "sqlite"}, r.Names())
}

func TestJSONExportWritesArray(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.json")
	e := &JSONExporter{}
	result, err := e.Export(context.Background(), samplePosts(), Config{Destination: dest})
	require.NoError(t, err)
	assert.Equal(t, 2, result.RecordCount)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	var decoded []models.PostRecord
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Len(t, decoded, 2)
}

func TestJSONExportXZCompression(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.json.xz")
	e := &JSONExporter{}
	_, err := e.Export(context.Background(), samplePosts(), Config{Destination: dest, Compress: true})
	require.NoError(t, err)

	f, err := os.Open(dest)
	require.NoError(t, err)
	defer f.Close()

	xr, err := xz.NewReader(f)
	require.NoError(t, err)
	data, err := io.ReadAll(xr)
	require.NoError(t, err)

	var decoded []models.PostRecord
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Len(t, decoded, 2)
}

func TestJSONExportBzip2Compression(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.json.bz2")
	e := &JSONExporter{}
	_, err := e.Export(context.Background(), samplePosts(), Config{Destination: dest, Compress: true})
	require.NoError(t, err)

	f, err := os.Open(dest)
	require.NoError(t, err)
	defer f.Close()

	bzr, err := bzip2.NewReader(f, nil)
	require.NoError(t, err)
	data, err := io.ReadAll(bzr)
	require.NoError(t, err)

	var decoded []models.PostRecord
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Len(t, decoded, 2)
}

func TestCSVExportAppendsOnSecondCall(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.csv")
	e := &CSVExporter{}

	_, err := e.Export(context.Background(), samplePosts()[:1], Config{Destination: dest})
	require.NoError(t, err)
	_, err = e.Export(context.Background(), samplePosts()[1:], Config{Destination: dest})
	require.NoError(t, err)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
	assert.Contains(t, string(data), "world")
}

func TestMarkdownExportRendersTitles(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.md")
	e := &MarkdownExporter{}
	_, err := e.Export(context.Background(), samplePosts(), Config{Destination: dest})
	require.NoError(t, err)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(data), "## hello")
	assert.Contains(t, string(data), "## world")
}

func TestSQLiteExportUpsertsByID(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.db")
	e := &SQLiteExporter{}

	posts := samplePosts()
	_, err := e.Export(context.Background(), posts, Config{Destination: dest})
	require.NoError(t, err)

	posts[0].Score = 99
	result, err := e.Export(context.Background(), posts, Config{Destination: dest})
	require.NoError(t, err)
	assert.Equal(t, 2, result.RecordCount)
}

func TestValidateConfigRequiresDestination(t *testing.T) {
	for _, e := range []Exporter{&JSONExporter{}, &CSVExporter{}, &SQLiteExporter{}, &MarkdownExporter{}} {
		errs := e.ValidateConfig(Config{})
		assert.Len(t, errs, 1, e.Info().Name)
	}
}

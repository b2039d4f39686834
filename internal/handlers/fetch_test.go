package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jmylchreest/mediapull/internal/storage"
	"github.com/jmylchreest/mediapull/pkg/httpclient"
	"github.com/stretchr/testify/require"
)

func newTestSandbox(t *testing.T) *storage.Sandbox {
	t.Helper()
	sb, err := storage.NewSandbox(t.TempDir())
	require.NoError(t, err)
	return sb
}

func TestFetcherDownloadWritesFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("binary-payload"))
	}))
	defer srv.Close()

	sb := newTestSandbox(t)
	f := NewFetcher(httpclient.NewWithDefaults(), nil, sb)

	relPath, size, err := f.Download(t.Context(), srv.URL+"/pic.jpg", "posts/abc", "pic.jpg")
	require.NoError(t, err)
	require.EqualValues(t, len("binary-payload"), size)

	data, err := sb.ReadFile(relPath)
	require.NoError(t, err)
	require.Equal(t, "binary-payload", string(data))
}

func TestFilenameFromURLFallsBackWithoutExtension(t *testing.T) {
	require.Equal(t, "post1.jpg", FilenameFromURL("https://example.com/gallery/abc", "post1.jpg"))
	require.Equal(t, "photo.png", FilenameFromURL("https://example.com/photo.png?x=1", "fallback.jpg"))
}

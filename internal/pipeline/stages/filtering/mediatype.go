package filtering

import (
	"path"
	"slices"
	"strings"

	"github.com/jmylchreest/mediapull/internal/models"
)

// MediaTypeFilter passes posts whose detected PostType and resolved URL
// extension satisfy both the allow/block type sets and the allow/block
// extension sets.
type MediaTypeFilter struct {
	AllowTypes []models.PostType
	BlockTypes []models.PostType

	AllowExtensions []string
	BlockExtensions []string
}

func (f *MediaTypeFilter) Name() string { return "media_type" }

func (f *MediaTypeFilter) ValidateConfig() []error { return nil }

func extensionOf(rawURL string) string {
	ext := strings.ToLower(path.Ext(rawURL))
	return strings.TrimPrefix(ext, ".")
}

func (f *MediaTypeFilter) Pass(post *models.PostRecord) (bool, error) {
	if len(f.AllowTypes) > 0 && !slices.Contains(f.AllowTypes, post.Type) {
		return false, nil
	}
	if slices.Contains(f.BlockTypes, post.Type) {
		return false, nil
	}

	ext := extensionOf(post.ResolveMediaURL())
	if len(f.AllowExtensions) > 0 && !slices.Contains(f.AllowExtensions, ext) {
		return false, nil
	}
	if slices.Contains(f.BlockExtensions, ext) {
		return false, nil
	}
	return true, nil
}

package handlers

import (
	"testing"

	"github.com/jmylchreest/mediapull/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestDetectExplicitFlagsTakePriority(t *testing.T) {
	assert.Equal(t, models.PostTypeCrosspost, Detect(&models.PostRecord{CrosspostParentID: "abc", IsSelf: true}))
	assert.Equal(t, models.PostTypeGallery, Detect(&models.PostRecord{GalleryURLs: []string{"https://i.redd.it/a.jpg"}}))
	assert.Equal(t, models.PostTypePoll, Detect(&models.PostRecord{Poll: &models.Poll{}}))
	assert.Equal(t, models.PostTypeText, Detect(&models.PostRecord{IsSelf: true}))
}

func TestDetectByExtension(t *testing.T) {
	assert.Equal(t, models.PostTypeImage, Detect(&models.PostRecord{URL: "https://example.com/pic.PNG?x=1"}))
	assert.Equal(t, models.PostTypeVideo, Detect(&models.PostRecord{URL: "https://example.com/clip.webm"}))
}

func TestDetectByKnownHost(t *testing.T) {
	assert.Equal(t, models.PostTypeImage, Detect(&models.PostRecord{URL: "https://i.redd.it/noextension"}))
	assert.Equal(t, models.PostTypeVideo, Detect(&models.PostRecord{URL: "https://v.redd.it/abc123"}))
}

func TestDetectFallbackExternal(t *testing.T) {
	assert.Equal(t, models.PostTypeExternal, Detect(&models.PostRecord{URL: "https://news.example.com/article"}))
}

func TestDetectFallbackTextWhenNoURL(t *testing.T) {
	assert.Equal(t, models.PostTypeText, Detect(&models.PostRecord{}))
}

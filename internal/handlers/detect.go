package handlers

import (
	"net/url"
	"path"
	"strings"

	"github.com/jmylchreest/mediapull/internal/models"
)

// mediaExtensions lists the file extensions Detect recognizes as
// direct media links.
var mediaExtensions = map[string]models.PostType{
	".jpg":  models.PostTypeImage,
	".jpeg": models.PostTypeImage,
	".png":  models.PostTypeImage,
	".gif":  models.PostTypeImage,
	".webp": models.PostTypeImage,
	".mp4":  models.PostTypeVideo,
	".webm": models.PostTypeVideo,
	".mov":  models.PostTypeVideo,
	".avi":  models.PostTypeVideo,
	".mkv":  models.PostTypeVideo,
}

// knownMediaHosts maps registrable domains of well-known media hosts
// to the type they overwhelmingly serve, so posts that hotlink through
// a gallery CDN without a file extension still classify correctly.
var knownMediaHosts = map[string]models.PostType{
	"i.redd.it":      models.PostTypeImage,
	"i.imgur.com":    models.PostTypeImage,
	"imgur.com":      models.PostTypeImage,
	"v.redd.it":      models.PostTypeVideo,
	"redgifs.com":    models.PostTypeVideo,
	"gfycat.com":     models.PostTypeVideo,
	"streamable.com": models.PostTypeVideo,
}

// Detect classifies post into one of {image, video, gallery, text,
// poll, crosspost, external} using the deterministic three-step rule
// explicit flags first, then URL/extension
// patterns, then a type-appropriate fallback.
func Detect(post *models.PostRecord) models.PostType {
	switch {
	case post.CrosspostParentID != "":
		return models.PostTypeCrosspost
	case len(post.GalleryURLs) > 0:
		return models.PostTypeGallery
	case post.Poll != nil:
		return models.PostTypePoll
	case post.IsSelf:
		return models.PostTypeText
	case post.IsVideo:
		return models.PostTypeVideo
	}

	target := post.ResolveMediaURL()
	if target == "" {
		return models.PostTypeText
	}

	if ext := strings.ToLower(path.Ext(strippedQuery(target))); ext != "" {
		if t, ok := mediaExtensions[ext]; ok {
			return t
		}
	}

	if host := registrableHost(target); host != "" {
		if t, ok := knownMediaHosts[host]; ok {
			return t
		}
	}

	return models.PostTypeExternal
}

func strippedQuery(raw string) string {
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		return raw[:i]
	}
	return raw
}

// registrableHost returns the lowercase host of raw with a leading
// "www." stripped, or "" if raw does not parse as a URL with a host.
func registrableHost(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}

package models

import "time"

// PostType tags the kind of content a PostRecord carries, as classified
// by the content-handler dispatcher.
type PostType string

const (
	PostTypeImage     PostType = "image"
	PostTypeVideo     PostType = "video"
	PostTypeGallery   PostType = "gallery"
	PostTypeText      PostType = "text"
	PostTypePoll      PostType = "poll"
	PostTypeCrosspost PostType = "crosspost"
	PostTypeExternal  PostType = "external"
)

// Award is a single award entry attached to a post.
type Award struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// PollOption is a single answer option within a Poll payload.
type PollOption struct {
	Text  string `json:"text"`
	Votes int    `json:"votes"`
}

// Poll carries a post's poll payload, when present.
type Poll struct {
	Options        []PollOption `json:"options"`
	TotalVoteCount int          `json:"total_vote_count"`
	VotingEndTime  time.Time    `json:"voting_end_time,omitzero"`
}

// PostRecord is the unit of work that flows through the pipeline Context.
// Created by the Acquisition Engine, mutated only by handler annotations
// during Processing, and immutable afterward.
type PostRecord struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	Subreddit string `json:"source_group"`
	Permalink string `json:"permalink"`

	// URL is the post's primary link target as reported by the platform.
	URL string `json:"url"`
	// URLOverriddenByDest is the platform's resolved destination URL, used
	// as a MediaURL fallback when MediaURL itself is blank.
	URLOverriddenByDest string `json:"url_overridden_by_dest,omitempty"`
	// MediaURL is the direct media asset URL, when the platform supplies one.
	MediaURL string `json:"media_url,omitempty"`

	CreatedAtEpoch float64 `json:"created_at_epoch"`
	CreatedAtISO   string  `json:"created_at_iso"`

	IsVideo  bool `json:"is_video"`
	IsSelf   bool `json:"is_self"`
	IsNSFW   bool `json:"is_nsfw"`
	Spoiler  bool `json:"spoiler"`
	Archived bool `json:"archived"`
	Locked   bool `json:"locked"`
	Stickied bool `json:"stickied"`
	Edited   bool `json:"edited"`

	Score        int `json:"score"`
	CommentCount int `json:"comment_count"`

	SelfText    string   `json:"selftext,omitempty"`
	GalleryURLs []string `json:"gallery_urls,omitempty"`
	Poll        *Poll    `json:"poll,omitempty"`
	Awards      []Award  `json:"awards,omitempty"`

	Domain string   `json:"domain"`
	Type   PostType `json:"post_type"`

	// CrosspostParentID is the id of the post this one was crossposted
	// from, if any.
	CrosspostParentID string `json:"crosspost_parent_id,omitempty"`

	// OutputPaths and Embedded/SidecarCreated are handler annotations,
	// written once during Processing and left untouched afterward.
	OutputPaths    []string `json:"output_paths,omitempty"`
	Embedded       bool     `json:"embedded"`
	SidecarCreated bool     `json:"sidecar_created"`
}

// ResolveMediaURL returns the URL a content handler should download from,
// choosing by priority media_url > url_overridden_by_dest > url, skipping
// blanks.
func (p *PostRecord) ResolveMediaURL() string {
	switch {
	case p.MediaURL != "":
		return p.MediaURL
	case p.URLOverriddenByDest != "":
		return p.URLOverriddenByDest
	default:
		return p.URL
	}
}

// NormalizeCreatedAt ensures CreatedAtISO is well-formed, ending in "Z".
// Falls back to the current UTC second if CreatedAtISO is empty or
// unparseable and CreatedAtEpoch is zero.
func (p *PostRecord) NormalizeCreatedAt() {
	if p.CreatedAtISO != "" {
		if _, err := time.Parse(time.RFC3339, p.CreatedAtISO); err == nil {
			return
		}
	}
	var t time.Time
	if p.CreatedAtEpoch > 0 {
		t = time.Unix(int64(p.CreatedAtEpoch), 0).UTC()
	} else {
		t = time.Now().UTC().Truncate(time.Second)
		p.CreatedAtEpoch = float64(t.Unix())
	}
	p.CreatedAtISO = t.Format("2006-01-02T15:04:05Z")
}

package scraper

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmylchreest/mediapull/internal/models"
)

// listingEnvelope mirrors the Reddit "Listing" wire shape: a wrapper
// object whose data.children holds the individual "t3" post things.
type listingEnvelope struct {
	Data struct {
		Children []struct {
			Data json.RawMessage `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// rawPost mirrors the subset of a Reddit post "thing" this client
// reads. Field names match the upstream API verbatim.
type rawPost struct {
	ID                  string          `json:"id"`
	Title               string          `json:"title"`
	Author              string          `json:"author"`
	Subreddit           string          `json:"subreddit"`
	Permalink           string          `json:"permalink"`
	URL                 string          `json:"url"`
	URLOverriddenByDest string          `json:"url_overridden_by_dest"`
	CreatedUTC          float64         `json:"created_utc"`
	IsVideo             bool            `json:"is_video"`
	IsSelf              bool            `json:"is_self"`
	Over18              bool            `json:"over_18"`
	Spoiler             bool            `json:"spoiler"`
	Archived            bool            `json:"archived"`
	Locked              bool            `json:"locked"`
	Stickied            bool            `json:"stickied"`
	Edited              json.RawMessage `json:"edited"`
	Score               int             `json:"score"`
	NumComments         int             `json:"num_comments"`
	SelfText            string          `json:"selftext"`
	Domain              string          `json:"domain"`
	CrosspostParentID   string          `json:"crosspost_parent_id"`
	GalleryData         *struct {
		Items []struct {
			MediaID string `json:"media_id"`
		} `json:"items"`
	} `json:"gallery_data"`
	MediaMetadata map[string]struct {
		S struct {
			U string `json:"u"`
		} `json:"s"`
	} `json:"media_metadata"`
	Poll *struct {
		Options []struct {
			Text  string `json:"text"`
			Votes int    `json:"vote_count"`
		} `json:"options"`
		TotalVoteCount int   `json:"total_vote_count"`
		VotingEndTime  int64 `json:"voting_end_timestamp"`
	} `json:"poll_data"`
}

// DecodeListing parses a Reddit listing response body into PostRecords,
// capped at limit (0 means unlimited). Shared by the public and
// authenticated transports, which differ only in how they fetch the
// bytes this decodes.
func DecodeListing(body []byte, limit int) ([]*models.PostRecord, error) {
	var env listingEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}

	posts := make([]*models.PostRecord, 0, len(env.Data.Children))
	for _, child := range env.Data.Children {
		var rp rawPost
		if err := json.Unmarshal(child.Data, &rp); err != nil {
			continue
		}
		posts = append(posts, rp.toPostRecord())
		if limit > 0 && len(posts) >= limit {
			break
		}
	}
	return posts, nil
}

// DecodeSinglePost parses a permalink .json response, which wraps the
// post listing and its comment tree in a 2-element array. Only the
// first element's single post is extracted.
func DecodeSinglePost(body []byte) (*models.PostRecord, error) {
	var envelopes []listingEnvelope
	if err := json.Unmarshal(body, &envelopes); err != nil {
		return nil, fmt.Errorf("decode permalink response: %w", err)
	}
	if len(envelopes) == 0 || len(envelopes[0].Data.Children) == 0 {
		return nil, fmt.Errorf("permalink response contained no post")
	}
	var rp rawPost
	if err := json.Unmarshal(envelopes[0].Data.Children[0].Data, &rp); err != nil {
		return nil, fmt.Errorf("decode post: %w", err)
	}
	return rp.toPostRecord(), nil
}

func (rp *rawPost) toPostRecord() *models.PostRecord {
	createdAt := time.Unix(int64(rp.CreatedUTC), 0).UTC()

	post := &models.PostRecord{
		ID:                  rp.ID,
		Title:               strings.TrimSpace(rp.Title),
		Author:              orDeleted(rp.Author),
		Subreddit:           rp.Subreddit,
		Permalink:           rp.Permalink,
		URL:                 rp.URL,
		URLOverriddenByDest: rp.URLOverriddenByDest,
		CreatedAtEpoch:      rp.CreatedUTC,
		CreatedAtISO:        createdAt.Format(time.RFC3339),
		IsVideo:             rp.IsVideo,
		IsSelf:              rp.IsSelf,
		IsNSFW:              rp.Over18,
		Spoiler:             rp.Spoiler,
		Archived:            rp.Archived,
		Locked:              rp.Locked,
		Stickied:            rp.Stickied,
		Edited:              isEdited(rp.Edited),
		Score:               rp.Score,
		CommentCount:        rp.NumComments,
		SelfText:            strings.TrimSpace(rp.SelfText),
		Domain:              rp.Domain,
		CrosspostParentID:   rp.CrosspostParentID,
	}

	if rp.GalleryData != nil {
		for _, item := range rp.GalleryData.Items {
			if meta, ok := rp.MediaMetadata[item.MediaID]; ok && meta.S.U != "" {
				post.GalleryURLs = append(post.GalleryURLs, unescapeRedditURL(meta.S.U))
			}
		}
	}

	if rp.Poll != nil {
		options := make([]models.PollOption, 0, len(rp.Poll.Options))
		for _, o := range rp.Poll.Options {
			options = append(options, models.PollOption{Text: o.Text, Votes: o.Votes})
		}
		post.Poll = &models.Poll{
			Options:        options,
			TotalVoteCount: rp.Poll.TotalVoteCount,
		}
		if rp.Poll.VotingEndTime > 0 {
			post.Poll.VotingEndTime = time.Unix(rp.Poll.VotingEndTime, 0).UTC()
		}
	}

	return post
}

func orDeleted(author string) string {
	if author == "" {
		return "[deleted]"
	}
	return author
}

// isEdited reports whether the "edited" field (either `false` or a unix
// timestamp number, per the Reddit API's dual-typed quirk) is truthy.
func isEdited(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	s := strings.TrimSpace(string(raw))
	if s == "false" {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func unescapeRedditURL(u string) string {
	return strings.ReplaceAll(u, "&amp;", "&")
}

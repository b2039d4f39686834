package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleListing = `{
  "data": {
    "children": [
      {"data": {
        "id": "abc123",
        "title": "  A test post  ",
        "author": "testuser",
        "subreddit": "golang",
        "permalink": "/r/golang/comments/abc123/a_test_post/",
        "url": "https://example.com/image.jpg",
        "created_utc": 1640995200,
        "score": 42,
        "num_comments": 7,
        "edited": false
      }},
      {"data": {
        "id": "def456",
        "title": "Edited post",
        "created_utc": 1640995300,
        "edited": 1640995999
      }}
    ]
  }
}`

func TestDecodeListingExtractsPosts(t *testing.T) {
	posts, err := DecodeListing([]byte(sampleListing), 0)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	assert.Equal(t, "abc123", posts[0].ID)
	assert.Equal(t, "A test post", posts[0].Title)
	assert.Equal(t, "testuser", posts[0].Author)
	assert.Equal(t, "golang", posts[0].Subreddit)
	assert.Equal(t, 42, posts[0].Score)
	assert.False(t, posts[0].Edited)

	assert.True(t, posts[1].Edited)
}

func TestDecodeListingRespectsLimit(t *testing.T) {
	posts, err := DecodeListing([]byte(sampleListing), 1)
	require.NoError(t, err)
	assert.Len(t, posts, 1)
}

func TestDecodeListingDefaultsAuthorWhenDeleted(t *testing.T) {
	posts, err := DecodeListing([]byte(sampleListing), 0)
	require.NoError(t, err)
	assert.Equal(t, "[deleted]", posts[1].Author)
}

const samplePermalinkResponse = `[
  {"data": {"children": [{"data": {"id": "xyz789", "title": "Single post"}}]}},
  {"data": {"children": []}}
]`

func TestDecodeSinglePostExtractsFirstElement(t *testing.T) {
	post, err := DecodeSinglePost([]byte(samplePermalinkResponse))
	require.NoError(t, err)
	assert.Equal(t, "xyz789", post.ID)
	assert.Equal(t, "Single post", post.Title)
}

func TestDecodeSinglePostErrorsOnEmptyResponse(t *testing.T) {
	_, err := DecodeSinglePost([]byte(`[]`))
	assert.Error(t, err)
}

package scrapertest

import (
	"context"
	"testing"

	"github.com/jmylchreest/mediapull/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeFetchUserPostsReturnsFixture(t *testing.T) {
	f := New()
	f.ByUser["alice"] = []*models.PostRecord{{ID: "1"}, {ID: "2"}, {ID: "3"}}

	posts, err := f.FetchUserPosts(context.Background(), "alice", 2)

	require.NoError(t, err)
	assert.Len(t, posts, 2)
}

func TestFakeFetchSavedFailsWithoutAuth(t *testing.T) {
	f := New()
	_, err := f.FetchSaved(context.Background(), 10)
	assert.Error(t, err)
}

func TestFakeFetchURLUsesFixtureMap(t *testing.T) {
	f := New()
	f.ByURL["https://example.com/post"] = &models.PostRecord{ID: "abc"}

	post, err := f.FetchURL(context.Background(), "https://example.com/post")
	require.NoError(t, err)
	assert.Equal(t, "abc", post.ID)
}

func TestFakeFetchURLErrorsWhenUnregistered(t *testing.T) {
	f := New()
	_, err := f.FetchURL(context.Background(), "https://example.com/missing")
	assert.Error(t, err)
}

func TestFakeFailTargetsOverridesFixture(t *testing.T) {
	f := New()
	f.ByUser["alice"] = []*models.PostRecord{{ID: "1"}}
	f.FailTargets["alice"] = assert.AnError

	_, err := f.FetchUserPosts(context.Background(), "alice", 1)
	assert.ErrorIs(t, err, assert.AnError)
}

package scraper_test

import (
	"context"
	"testing"

	"github.com/jmylchreest/mediapull/internal/models"
	"github.com/jmylchreest/mediapull/internal/scraper"
	"github.com/jmylchreest/mediapull/internal/scraper/scrapertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func target(variant models.TargetVariant, value string) *models.TargetInfo {
	return &models.TargetInfo{Variant: variant, Value: value, Original: value}
}

func TestAdapterDispatchesUserVariant(t *testing.T) {
	fake := scrapertest.New()
	fake.ByUser["golang_fan"] = []*models.PostRecord{{ID: "p1"}, {ID: "p2"}}

	adapter := scraper.NewAdapter(fake)
	posts, err := adapter.FetchPosts(context.Background(), target(models.TargetUser, "golang_fan"), 10)

	require.NoError(t, err)
	assert.Len(t, posts, 2)
}

func TestAdapterDispatchesSubredditVariant(t *testing.T) {
	fake := scrapertest.New()
	fake.BySubreddit["golang"] = []*models.PostRecord{{ID: "p1"}, {ID: "p2"}, {ID: "p3"}}

	adapter := scraper.NewAdapter(fake)
	subreddit := target(models.TargetSubreddit, "golang")
	subreddit.Listing = models.ListingTop
	subreddit.Period = models.PeriodWeek

	posts, err := adapter.FetchPosts(context.Background(), subreddit, 2)

	require.NoError(t, err)
	assert.Len(t, posts, 2)
}

func TestAdapterRejectsSavedWithoutAuthentication(t *testing.T) {
	fake := scrapertest.New()
	adapter := scraper.NewAdapter(fake)

	_, err := adapter.FetchPosts(context.Background(), target(models.TargetSaved, ""), 5)

	assert.Error(t, err)
}

func TestAdapterDispatchesSavedWhenAuthenticated(t *testing.T) {
	fake := scrapertest.New()
	fake.RequiresAuth = true
	fake.Saved = []*models.PostRecord{{ID: "saved1"}}

	adapter := scraper.NewAdapter(fake)
	assert.True(t, adapter.Authenticated())

	posts, err := adapter.FetchPosts(context.Background(), target(models.TargetSaved, ""), 5)
	require.NoError(t, err)
	assert.Len(t, posts, 1)
}

func TestAdapterDispatchesURLVariantAsSinglePost(t *testing.T) {
	fake := scrapertest.New()
	fake.ByURL["https://reddit.com/r/golang/comments/abc/x"] = &models.PostRecord{ID: "abc"}

	adapter := scraper.NewAdapter(fake)
	posts, err := adapter.FetchPosts(context.Background(), target(models.TargetURL, "https://reddit.com/r/golang/comments/abc/x"), 1)

	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "abc", posts[0].ID)
}

func TestAdapterRejectsUnknownVariant(t *testing.T) {
	fake := scrapertest.New()
	adapter := scraper.NewAdapter(fake)

	_, err := adapter.FetchPosts(context.Background(), target(models.TargetUnknown, "???"), 1)

	assert.Error(t, err)
}

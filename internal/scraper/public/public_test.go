package public

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jmylchreest/mediapull/internal/models"
	"github.com/jmylchreest/mediapull/pkg/httpclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type allowAllLimiter struct{ calls []string }

func (l *allowAllLimiter) Acquire(class string) error {
	l.calls = append(l.calls, class)
	return nil
}

const subredditListingFixture = `{"data": {"children": [
  {"data": {"id": "p1", "title": "First", "subreddit": "golang"}},
  {"data": {"id": "p2", "title": "Second", "subreddit": "golang"}}
]}}`

func newTestScraper(t *testing.T, handler http.HandlerFunc) (*Scraper, *allowAllLimiter) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	limiter := &allowAllLimiter{}
	client := httpclient.NewWithDefaults()
	s := New(client, limiter, "mediapull-test/1.0")
	s.BaseURL = server.URL
	return s, limiter
}

func TestFetchSubredditPostsParsesListing(t *testing.T) {
	s, limiter := newTestScraper(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/r/golang/hot.json")
		w.Write([]byte(subredditListingFixture))
	})

	posts, err := s.FetchSubredditPosts(t.Context(), "golang", models.ListingHot, "", 0)

	require.NoError(t, err)
	assert.Len(t, posts, 2)
	assert.Equal(t, []string{LimiterClassPublic}, limiter.calls)
}

func TestFetchSubredditPostsSetsTimePeriodForTop(t *testing.T) {
	s, _ := newTestScraper(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "week", r.URL.Query().Get("t"))
		w.Write([]byte(subredditListingFixture))
	})

	_, err := s.FetchSubredditPosts(t.Context(), "golang", models.ListingTop, models.PeriodWeek, 0)
	require.NoError(t, err)
}

func TestFetchUserPostsRespectsLimit(t *testing.T) {
	s, _ := newTestScraper(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/user/someone/submitted.json")
		w.Write([]byte(subredditListingFixture))
	})

	posts, err := s.FetchUserPosts(t.Context(), "someone", 1)
	require.NoError(t, err)
	assert.Len(t, posts, 1)
}

func TestFetchSavedRequiresAuthentication(t *testing.T) {
	s := New(httpclient.NewWithDefaults(), &allowAllLimiter{}, "mediapull-test/1.0")
	_, err := s.FetchSaved(t.Context(), 10)
	assert.Error(t, err)
}

func TestFetchSubredditPostsTranslatesNotFound(t *testing.T) {
	s, _ := newTestScraper(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := s.FetchSubredditPosts(t.Context(), "doesnotexist", models.ListingHot, "", 0)
	assert.Error(t, err)
}

func TestRequiresAuthenticationAndScraperType(t *testing.T) {
	s := New(nil, &allowAllLimiter{}, "mediapull-test/1.0")
	assert.False(t, s.RequiresAuthentication())
	assert.Equal(t, "public", s.ScraperType())
}

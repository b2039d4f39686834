// Package public implements the unauthenticated Scraper transport,
// reading Reddit's public .json listing endpoints the way redditdl's
// YarsScraper does (no client credentials, no OAuth2, subject to the
// anonymous API's tighter rate limits). Acquires a "public" class token
// from the Rate-Limit Coordinator before every request.
package public

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jmylchreest/mediapull/internal/corerr"
	"github.com/jmylchreest/mediapull/internal/models"
	"github.com/jmylchreest/mediapull/internal/scraper"
	"github.com/jmylchreest/mediapull/pkg/httpclient"
)

const (
	// LimiterClassPublic is the Rate-Limit Coordinator class this
	// scraper acquires before every outbound request.
	LimiterClassPublic = "public"

	defaultBaseURL = "https://www.reddit.com"
)

// RateLimiter is the narrow capability this scraper needs from the
// Rate-Limit Coordinator.
type RateLimiter interface {
	Acquire(class string) error
}

// Scraper is the unauthenticated redditdl-equivalent of YarsScraper.
type Scraper struct {
	Client    *httpclient.Client
	Limiter   RateLimiter
	UserAgent string
	BaseURL   string
}

// New constructs a Scraper, defaulting client and baseURL when unset.
func New(client *httpclient.Client, limiter RateLimiter, userAgent string) *Scraper {
	if client == nil {
		cfg := httpclient.DefaultConfig()
		cfg.UserAgent = userAgent
		client = httpclient.New(cfg)
	}
	return &Scraper{Client: client, Limiter: limiter, UserAgent: userAgent, BaseURL: defaultBaseURL}
}

var _ scraper.Scraper = (*Scraper)(nil)

// RequiresAuthentication reports false: the public endpoints never
// require credentials.
func (s *Scraper) RequiresAuthentication() bool { return false }

// ScraperType identifies this transport for logging/diagnostics.
func (s *Scraper) ScraperType() string { return "public" }

// FetchUserPosts fetches a user's public post history.
func (s *Scraper) FetchUserPosts(ctx context.Context, name string, limit int) ([]*models.PostRecord, error) {
	return s.fetchListing(ctx, fmt.Sprintf("/user/%s/submitted.json", url.PathEscape(name)), nil, limit)
}

// FetchSubredditPosts fetches a subreddit listing.
func (s *Scraper) FetchSubredditPosts(ctx context.Context, name string, listing models.Listing, period models.Period, limit int) ([]*models.PostRecord, error) {
	if listing == "" {
		listing = models.ListingHot
	}
	path := fmt.Sprintf("/r/%s/%s.json", url.PathEscape(name), listing)
	params := url.Values{}
	if listing == models.ListingTop || listing == models.ListingControversial {
		if period == "" {
			period = models.PeriodDay
		}
		params.Set("t", string(period))
	}
	return s.fetchListing(ctx, path, params, limit)
}

// FetchSaved always fails: the public API exposes no saved-posts
// listing without authentication.
func (s *Scraper) FetchSaved(ctx context.Context, limit int) ([]*models.PostRecord, error) {
	return nil, corerr.Authentication("fetching saved posts requires an authenticated scraper", nil)
}

// FetchUpvoted always fails, for the same reason as FetchSaved.
func (s *Scraper) FetchUpvoted(ctx context.Context, limit int) ([]*models.PostRecord, error) {
	return nil, corerr.Authentication("fetching upvoted posts requires an authenticated scraper", nil)
}

// FetchURL fetches a single post's .json representation given its
// permalink or a full submission URL.
func (s *Scraper) FetchURL(ctx context.Context, rawURL string) (*models.PostRecord, error) {
	if err := s.Limiter.Acquire(LimiterClassPublic); err != nil {
		return nil, corerr.Network("rate limiter rejected request", err)
	}

	target := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		target = s.BaseURL + trimJSONSuffix(u.Path) + ".json"
	}

	body, err := s.get(ctx, target, nil)
	if err != nil {
		return nil, err
	}

	post, err := scraper.DecodeSinglePost(body)
	if err != nil {
		return nil, corerr.TargetNotFound(rawURL, err)
	}
	return post, nil
}

func (s *Scraper) fetchListing(ctx context.Context, path string, params url.Values, limit int) ([]*models.PostRecord, error) {
	if err := s.Limiter.Acquire(LimiterClassPublic); err != nil {
		return nil, corerr.Network("rate limiter rejected request", err)
	}
	if limit > 0 {
		if params == nil {
			params = url.Values{}
		}
		params.Set("limit", strconv.Itoa(limit))
	}
	body, err := s.get(ctx, s.BaseURL+path, params)
	if err != nil {
		return nil, err
	}
	return scraper.DecodeListing(body, limit)
}

func (s *Scraper) get(ctx context.Context, target string, params url.Values) ([]byte, error) {
	if len(params) > 0 {
		target = target + "?" + params.Encode()
	}
	resp, err := s.Client.Get(ctx, target)
	if err != nil {
		return nil, corerr.Network(fmt.Sprintf("GET %s", target), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, corerr.TargetNotFound(target, fmt.Errorf("404 from %s", target))
	}
	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized {
		return nil, corerr.Authentication(fmt.Sprintf("%s requires authentication", target), nil)
	}
	if resp.StatusCode >= 400 {
		return nil, corerr.Network(fmt.Sprintf("unexpected status %d from %s", resp.StatusCode, target), nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, corerr.Network("read response body", err)
	}
	return body, nil
}

func trimJSONSuffix(path string) string {
	if len(path) > 0 && path[len(path)-1] == '/' {
		return path[:len(path)-1]
	}
	return path
}

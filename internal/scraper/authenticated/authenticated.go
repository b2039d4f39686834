// Package authenticated implements the OAuth2-backed Scraper transport,
// the redditdl-equivalent of PrawScraper: it layers a client-credentials
// token (username/password "script app" grant) over the same public
// listing endpoints used unauthenticated, and additionally unlocks the
// two endpoints that require a logged-in identity, fetch_saved and
// fetch_upvoted.
package authenticated

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/jmylchreest/mediapull/internal/corerr"
	"github.com/jmylchreest/mediapull/internal/models"
	"github.com/jmylchreest/mediapull/internal/scraper"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	// LimiterClassAPI is the Rate-Limit Coordinator class this scraper
	// acquires before every outbound request, distinct from the public
	// transport's class because OAuth2 clients are granted a higher
	// quota by the upstream API.
	LimiterClassAPI = "api"

	tokenURL   = "https://www.reddit.com/api/v1/access_token"
	defaultAPI = "https://oauth.reddit.com"
)

// RateLimiter is the narrow capability this scraper needs from the
// Rate-Limit Coordinator.
type RateLimiter interface {
	Acquire(class string) error
}

// Credentials are the script-app OAuth2 client-credentials inputs.
type Credentials struct {
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
}

// Scraper is the OAuth2-authenticated redditdl-equivalent of PrawScraper.
type Scraper struct {
	limiter   RateLimiter
	userAgent string
	baseURL   string
	username  string

	oauth *http.Client
}

// New constructs an authenticated Scraper. The returned oauth2 HTTP
// client manages token acquisition and refresh transparently; this
// scraper still applies the Rate-Limit Coordinator on top of it.
func New(creds Credentials, limiter RateLimiter, userAgent string) *Scraper {
	cfg := clientcredentials.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		TokenURL:     tokenURL,
		EndpointParams: url.Values{
			"grant_type": {"password"},
			"username":   {creds.Username},
			"password":   {creds.Password},
		},
	}

	return &Scraper{
		limiter:   limiter,
		userAgent: userAgent,
		baseURL:   defaultAPI,
		username:  creds.Username,
		oauth:     cfg.Client(context.Background()),
	}
}

var _ scraper.Scraper = (*Scraper)(nil)

// RequiresAuthentication reports true: every request this transport
// makes carries a bearer token.
func (s *Scraper) RequiresAuthentication() bool { return true }

// ScraperType identifies this transport for logging/diagnostics.
func (s *Scraper) ScraperType() string { return "authenticated" }

func (s *Scraper) FetchUserPosts(ctx context.Context, name string, limit int) ([]*models.PostRecord, error) {
	return s.fetchListing(ctx, fmt.Sprintf("/user/%s/submitted", url.PathEscape(name)), nil, limit)
}

func (s *Scraper) FetchSubredditPosts(ctx context.Context, name string, listing models.Listing, period models.Period, limit int) ([]*models.PostRecord, error) {
	if listing == "" {
		listing = models.ListingHot
	}
	path := fmt.Sprintf("/r/%s/%s", url.PathEscape(name), listing)
	params := url.Values{}
	if listing == models.ListingTop || listing == models.ListingControversial {
		if period == "" {
			period = models.PeriodDay
		}
		params.Set("t", string(period))
	}
	return s.fetchListing(ctx, path, params, limit)
}

// FetchSaved fetches the authenticated user's saved posts.
func (s *Scraper) FetchSaved(ctx context.Context, limit int) ([]*models.PostRecord, error) {
	return s.fetchListing(ctx, fmt.Sprintf("/user/%s/saved", url.PathEscape(s.username)), nil, limit)
}

// FetchUpvoted fetches the authenticated user's upvoted posts.
func (s *Scraper) FetchUpvoted(ctx context.Context, limit int) ([]*models.PostRecord, error) {
	return s.fetchListing(ctx, fmt.Sprintf("/user/%s/upvoted", url.PathEscape(s.username)), nil, limit)
}

// FetchURL fetches a single post's representation given its permalink
// or a full submission URL.
func (s *Scraper) FetchURL(ctx context.Context, rawURL string) (*models.PostRecord, error) {
	if err := s.limiter.Acquire(LimiterClassAPI); err != nil {
		return nil, corerr.Network("rate limiter rejected request", err)
	}

	target := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		target = s.baseURL + u.Path
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
	if err := s.limiter.Acquire(LimiterClassAPI); err != nil {
		return nil, corerr.Network("rate limiter rejected request", err)
	}
	body, err := s.get(ctx, s.baseURL+path, params)
	if err != nil {
		return nil, err
	}
	return scraper.DecodeListing(body, limit)
}

func (s *Scraper) get(ctx context.Context, target string, params url.Values) ([]byte, error) {
	if len(params) > 0 {
		target = target + "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, corerr.Network(fmt.Sprintf("build request for %s", target), err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.oauth.Do(req)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return nil, corerr.Authentication("oauth2 token request failed", err)
		}
		return nil, corerr.Network(fmt.Sprintf("GET %s", target), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, corerr.TargetNotFound(target, fmt.Errorf("404 from %s", target))
	}
	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized {
		return nil, corerr.Authentication(fmt.Sprintf("%s rejected credentials", target), nil)
	}
	if resp.StatusCode >= 400 {
		return nil, corerr.Network(fmt.Sprintf("unexpected status %d from %s", resp.StatusCode, target), nil)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, corerr.Network("read response body", err)
	}
	return data, nil
}

// Package scraper defines the Scraper capability in
// full (per-variant fetch methods plus the requires_authentication/
// scraper_type properties) and an Adapter that narrows it down to the
// single FetchPosts method internal/acquisition.Scraper needs,
// dispatching on TargetInfo.Variant. The concrete transports live in
// the public and authenticated subpackages; scrapertest provides a
// deterministic double for tests that need a Scraper without a
// network.
package scraper

import (
	"context"
	"fmt"

	"github.com/jmylchreest/mediapull/internal/corerr"
	"github.com/jmylchreest/mediapull/internal/models"
)

// Scraper is the full network-client capability the core depends on.
// Implementations may return corerr-wrapped errors of kind
// Authentication, TargetNotFound, Network, or Processing.
type Scraper interface {
	FetchUserPosts(ctx context.Context, name string, limit int) ([]*models.PostRecord, error)
	FetchSubredditPosts(ctx context.Context, name string, listing models.Listing, period models.Period, limit int) ([]*models.PostRecord, error)
	FetchSaved(ctx context.Context, limit int) ([]*models.PostRecord, error)
	FetchUpvoted(ctx context.Context, limit int) ([]*models.PostRecord, error)
	FetchURL(ctx context.Context, rawURL string) (*models.PostRecord, error)
	RequiresAuthentication() bool
	ScraperType() string
}

// Adapter narrows a Scraper to internal/acquisition.Scraper's single
// FetchPosts method, dispatching on the target's resolved variant.
type Adapter struct {
	Scraper Scraper
}

// NewAdapter wraps s as an internal/acquisition.Scraper.
func NewAdapter(s Scraper) *Adapter {
	return &Adapter{Scraper: s}
}

// Authenticated implements internal/acquisition.Scraper.
func (a *Adapter) Authenticated() bool { return a.Scraper.RequiresAuthentication() }

// FetchPosts implements internal/acquisition.Scraper by routing to the
// per-variant method matching target.Variant.
func (a *Adapter) FetchPosts(ctx context.Context, target *models.TargetInfo, limit int) ([]*models.PostRecord, error) {
	switch target.Variant {
	case models.TargetUser:
		return a.Scraper.FetchUserPosts(ctx, target.Value, limit)
	case models.TargetSubreddit:
		return a.Scraper.FetchSubredditPosts(ctx, target.Value, target.Listing, target.Period, limit)
	case models.TargetSaved:
		return a.Scraper.FetchSaved(ctx, limit)
	case models.TargetUpvoted:
		return a.Scraper.FetchUpvoted(ctx, limit)
	case models.TargetURL:
		post, err := a.Scraper.FetchURL(ctx, target.Value)
		if err != nil {
			return nil, err
		}
		return []*models.PostRecord{post}, nil
	default:
		return nil, corerr.TargetNotFound(target.Original, fmt.Errorf("unresolvable target variant %q", target.Variant))
	}
}

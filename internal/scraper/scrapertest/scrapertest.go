// Package scrapertest provides a deterministic in-memory Scraper double
// for tests elsewhere in the module that need acquisition behavior
// without a network, grounded on the fixture-fake style _examples/
// packages use for their own repository/client test doubles.
package scrapertest

import (
	"context"
	"fmt"

	"github.com/jmylchreest/mediapull/internal/corerr"
	"github.com/jmylchreest/mediapull/internal/models"
	"github.com/jmylchreest/mediapull/internal/scraper"
)

// Fake is a Scraper double backed by fixed in-memory post sets, keyed
// by the name/url the real transport would have been called with.
type Fake struct {
	ByUser      map[string][]*models.PostRecord
	BySubreddit map[string][]*models.PostRecord
	ByURL       map[string]*models.PostRecord
	Saved       []*models.PostRecord
	Upvoted     []*models.PostRecord

	RequiresAuth bool
	Type         string

	// FailTargets maps a target value to the error FetchX should return
	// for it, letting tests exercise the recovery/audit paths.
	FailTargets map[string]error
}

// New returns an empty Fake ready for its maps to be populated.
func New() *Fake {
	return &Fake{
		ByUser:      make(map[string][]*models.PostRecord),
		BySubreddit: make(map[string][]*models.PostRecord),
		ByURL:       make(map[string]*models.PostRecord),
		FailTargets: make(map[string]error),
		Type:        "fake",
	}
}

var _ scraper.Scraper = (*Fake)(nil)

func (f *Fake) RequiresAuthentication() bool { return f.RequiresAuth }

func (f *Fake) ScraperType() string { return f.Type }

func (f *Fake) FetchUserPosts(ctx context.Context, name string, limit int) ([]*models.PostRecord, error) {
	if err, ok := f.FailTargets[name]; ok {
		return nil, err
	}
	return capped(f.ByUser[name], limit), nil
}

func (f *Fake) FetchSubredditPosts(ctx context.Context, name string, listing models.Listing, period models.Period, limit int) ([]*models.PostRecord, error) {
	if err, ok := f.FailTargets[name]; ok {
		return nil, err
	}
	return capped(f.BySubreddit[name], limit), nil
}

func (f *Fake) FetchSaved(ctx context.Context, limit int) ([]*models.PostRecord, error) {
	if !f.RequiresAuth {
		return nil, corerr.Authentication("fake scraper not configured for authenticated fetches", nil)
	}
	return capped(f.Saved, limit), nil
}

func (f *Fake) FetchUpvoted(ctx context.Context, limit int) ([]*models.PostRecord, error) {
	if !f.RequiresAuth {
		return nil, corerr.Authentication("fake scraper not configured for authenticated fetches", nil)
	}
	return capped(f.Upvoted, limit), nil
}

func (f *Fake) FetchURL(ctx context.Context, rawURL string) (*models.PostRecord, error) {
	if err, ok := f.FailTargets[rawURL]; ok {
		return nil, err
	}
	post, ok := f.ByURL[rawURL]
	if !ok {
		return nil, corerr.TargetNotFound(rawURL, fmt.Errorf("no fixture registered for %s", rawURL))
	}
	return post, nil
}

func capped(posts []*models.PostRecord, limit int) []*models.PostRecord {
	if limit <= 0 || len(posts) <= limit {
		return posts
	}
	return posts[:limit]
}

// Package acquisition implements the Acquisition Engine: resolving
// heterogeneous target strings into typed TargetInfo records and running
// the set through a bounded-concurrency batch processor with per-target
// timeout, retry, and error isolation.
//
// There is no per-variant handler registry here: every resolved target
// goes to a single Scraper (FetchPosts), which branches on
// TargetInfo.Variant itself. BatchProcessor is grounded on
// redditdl's pipeline/stages/acquisition.py (BatchTargetProcessor):
// same concurrency/timeout/retry/fail_fast knobs, same per-target error
// isolation.
package acquisition

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/jmylchreest/mediapull/internal/models"
)

// ResolverConfig carries the inherited defaults a resolved subreddit
// target's metadata is seeded with.
type ResolverConfig struct {
	DefaultListing models.Listing
	DefaultPeriod  models.Period
	HasAPIAuth     bool
}

// Resolver parses raw target strings into TargetInfo. Grounded on
// the six accepted target forms.
type Resolver struct {
	cfg ResolverConfig
}

// NewResolver creates a Resolver using cfg for inherited defaults.
func NewResolver(cfg ResolverConfig) *Resolver {
	if cfg.DefaultListing == "" {
		cfg.DefaultListing = models.ListingNew
	}
	return &Resolver{cfg: cfg}
}

// Resolve parses raw into a TargetInfo. Accepted forms: "u/<name>",
// "/u/<name>", "r/<name>", "/r/<name>", "saved", "upvoted", a bare name
// matching ^[A-Za-z0-9_]+$ (treated as a subreddit), or an absolute URL.
// Anything else resolves to TargetUnknown rather than erroring — callers
// decide whether an unknown target is fatal.
func (r *Resolver) Resolve(raw string) (*models.TargetInfo, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("acquisition: empty target string")
	}

	info := &models.TargetInfo{
		Original: raw,
		Listing:  r.cfg.DefaultListing,
		Period:   r.cfg.DefaultPeriod,
		Metadata: make(map[string]any),
	}

	lower := strings.ToLower(trimmed)
	switch lower {
	case "saved":
		info.Variant = models.TargetSaved
		info.Value = "saved"
		return info, nil
	case "upvoted":
		info.Variant = models.TargetUpvoted
		info.Value = "upvoted"
		return info, nil
	}

	if name, ok := stripPrefix(trimmed, "u/", "/u/"); ok {
		info.Variant = models.TargetUser
		info.Value = name
		return info, nil
	}
	if name, ok := stripPrefix(trimmed, "r/", "/r/"); ok {
		info.Variant = models.TargetSubreddit
		info.Value = name
		info.Metadata["listing"] = info.Listing
		info.Metadata["period"] = info.Period
		return info, nil
	}

	if u, err := url.ParseRequestURI(trimmed); err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
		info.Variant = models.TargetURL
		info.Value = trimmed
		return info, nil
	}

	if models.LooksLikeSubredditName(trimmed) {
		info.Variant = models.TargetSubreddit
		info.Value = trimmed
		info.Metadata["listing"] = info.Listing
		info.Metadata["period"] = info.Period
		return info, nil
	}

	info.Variant = models.TargetUnknown
	info.Value = trimmed
	return info, nil
}

// ValidateAccessibility reports whether a resolved target can actually
// be served given the available authentication, and a list of
// human-readable recommendations when it can't.
func (r *Resolver) ValidateAccessibility(info *models.TargetInfo) (accessible bool, recommendations []string) {
	if info.RequiresAuthenticatedScraper() && !r.cfg.HasAPIAuth {
		return false, []string{
			fmt.Sprintf("target %q requires an authenticated scraper (client_id/client_secret)", info.Original),
		}
	}
	if info.Variant == models.TargetUnknown {
		return false, []string{
			fmt.Sprintf("unrecognized target format %q: expected u/<name>, r/<name>, saved, upvoted, or a URL", info.Original),
		}
	}
	return true, nil
}

func stripPrefix(s string, prefixes ...string) (string, bool) {
	for _, p := range prefixes {
		if strings.HasPrefix(strings.ToLower(s), p) {
			return s[len(p):], true
		}
	}
	return "", false
}

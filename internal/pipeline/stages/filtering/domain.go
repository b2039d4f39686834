package filtering

import (
	"net/url"
	"slices"
	"strings"

	"github.com/jmylchreest/mediapull/internal/models"
	"golang.org/x/net/publicsuffix"
)

// DomainFilter passes posts whose resolved media URL's registrable
// domain is in Allow (when Allow is non-empty) and not in Block.
//
// Uses golang.org/x/net/publicsuffix (teacher dependency, previously
// used only for its HTTP/2 transport plumbing) to extract the
// registrable domain (e.g. "i.redd.it" -> "redd.it",
// "www.example.co.uk" -> "example.co.uk") instead of naive hostname
// matching.
type DomainFilter struct {
	Allow []string
	Block []string
}

func (f *DomainFilter) Name() string { return "domain" }

func (f *DomainFilter) ValidateConfig() []error { return nil }

func registrableDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}

func (f *DomainFilter) Pass(post *models.PostRecord) (bool, error) {
	domain := registrableDomain(post.ResolveMediaURL())
	if domain == "" {
		domain = post.Domain
	}
	if len(f.Allow) > 0 && !slices.Contains(f.Allow, domain) {
		return false, nil
	}
	if slices.Contains(f.Block, domain) {
		return false, nil
	}
	return true, nil
}

package filtering

import (
	"regexp"
	"strings"

	"github.com/jmylchreest/mediapull/internal/models"
	"golang.org/x/text/cases"
)

// KeywordFilter passes posts whose title+selftext contain every Include
// term and none of the Exclude terms. Case folding uses
// golang.org/x/text/cases (teacher dependency golang.org/x/text,
// previously used only for subtitle/locale text) for Unicode-aware
// case-insensitive matching instead of strings.ToLower, and WholeWords
// mode uses regexp word boundaries.
type KeywordFilter struct {
	Include       []string
	Exclude       []string
	CaseSensitive bool
	Regex         bool
	WholeWords    bool
}

func (f *KeywordFilter) Name() string { return "keyword" }

func (f *KeywordFilter) ValidateConfig() []error {
	if !f.Regex {
		return nil
	}
	var errs []error
	for _, pattern := range append(append([]string{}, f.Include...), f.Exclude...) {
		if _, err := regexp.Compile(pattern); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func (f *KeywordFilter) fold(s string) string {
	if f.CaseSensitive {
		return s
	}
	return cases.Fold().String(s)
}

func (f *KeywordFilter) matches(haystack, term string) bool {
	if f.Regex {
		pattern := term
		re, err := regexp.Compile(pattern)
		if err != nil {
			return false
		}
		return re.MatchString(haystack)
	}

	h := f.fold(haystack)
	t := f.fold(term)

	if f.WholeWords {
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(t) + `\b`)
		return re.MatchString(h)
	}
	return strings.Contains(h, t)
}

func (f *KeywordFilter) Pass(post *models.PostRecord) (bool, error) {
	haystack := post.Title + " " + post.SelfText

	for _, term := range f.Include {
		if !f.matches(haystack, term) {
			return false, nil
		}
	}
	for _, term := range f.Exclude {
		if f.matches(haystack, term) {
			return false, nil
		}
	}
	return true, nil
}

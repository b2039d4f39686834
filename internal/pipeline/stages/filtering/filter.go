// Package filtering implements the Filter Chain: six typed predicate
// filters (score, date, keyword, domain, media-type, NSFW) composed by a
// Chain with AND/OR semantics, plus the pipeline Stage that runs the
// chain against a run's posts.
//
// Grounded on an earlier filtering stage's BaseStage embedding and
// artifact-emission shape, but replaces its expression-based
// include/exclude channel/program filtering with six typed predicate
// filters composed with true AND/OR semantics over the full post list
// instead of a sequential include-then-exclude pass.
package filtering

import "github.com/jmylchreest/mediapull/internal/models"

// Filter is one predicate in the chain.
type Filter interface {
	Name() string
	ValidateConfig() []error
	// Pass reports whether post satisfies the filter. A returned error
	// is treated as an uncertain result: the caller includes the post
	// by default and notes the failing filter in the decision's reason
	// (the safe-failure rule).
	Pass(post *models.PostRecord) (bool, error)
}

// Composition selects how a Chain combines its filters' verdicts.
type Composition string

const (
	CompositionAND Composition = "AND"
	CompositionOR  Composition = "OR"
)

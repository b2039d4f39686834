package filtering

import (
	"time"

	"github.com/jmylchreest/mediapull/internal/models"
)

// Chain composes Filters with AND/OR semantics. An empty OR chain
// passes everything; an empty AND chain also passes everything (there
// is nothing to fail).
type Chain struct {
	Composition Composition
	Filters     []Filter
}

// ValidateConfig aggregates every filter's ValidateConfig.
func (c *Chain) ValidateConfig() []error {
	var errs []error
	for _, f := range c.Filters {
		errs = append(errs, f.ValidateConfig()...)
	}
	return errs
}

// Evaluate runs every filter against post and returns the chain's
// verdict plus a FilterDecision recording the reason and duration. A
// filter that returns an error is treated as an uncertain result: the
// post is included by default and the reason notes the failing filter
// (the safe-failure rule).
func (c *Chain) Evaluate(post *models.PostRecord) models.FilterDecision {
	start := time.Now()

	if len(c.Filters) == 0 {
		return models.FilterDecision{PostID: post.ID, Passed: true, Reason: "empty chain", Duration: time.Since(start)}
	}

	switch c.Composition {
	case CompositionOR:
		for _, f := range c.Filters {
			passed, err := f.Pass(post)
			if err != nil {
				return models.FilterDecision{PostID: post.ID, Passed: true, Reason: "filter " + f.Name() + " errored: " + err.Error(), Duration: time.Since(start)}
			}
			if passed {
				return models.FilterDecision{PostID: post.ID, Passed: true, Reason: "passed " + f.Name(), Duration: time.Since(start)}
			}
		}
		return models.FilterDecision{PostID: post.ID, Passed: false, Reason: "no filter passed", Duration: time.Since(start)}
	default: // CompositionAND
		for _, f := range c.Filters {
			passed, err := f.Pass(post)
			if err != nil {
				return models.FilterDecision{PostID: post.ID, Passed: true, Reason: "filter " + f.Name() + " errored: " + err.Error(), Duration: time.Since(start)}
			}
			if !passed {
				return models.FilterDecision{PostID: post.ID, Passed: false, Reason: "failed " + f.Name(), Duration: time.Since(start)}
			}
		}
		return models.FilterDecision{PostID: post.ID, Passed: true, Reason: "passed all filters", Duration: time.Since(start)}
	}
}

package filtering

import "github.com/jmylchreest/mediapull/internal/models"

// ScoreFilter passes posts whose score lies within [Min, Max]. A nil
// bound is ignored.
type ScoreFilter struct {
	Min *int
	Max *int
}

func (f *ScoreFilter) Name() string { return "score" }

func (f *ScoreFilter) ValidateConfig() []error {
	if f.Min != nil && f.Max != nil && *f.Min > *f.Max {
		return []error{errInvalidRange("score", "min > max")}
	}
	return nil
}

func (f *ScoreFilter) Pass(post *models.PostRecord) (bool, error) {
	if f.Min != nil && post.Score < *f.Min {
		return false, nil
	}
	if f.Max != nil && post.Score > *f.Max {
		return false, nil
	}
	return true, nil
}

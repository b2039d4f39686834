package filtering

import (
	"time"

	"github.com/jmylchreest/mediapull/internal/models"
)

// DateFilter passes posts created within [From, To] (inclusive). A zero
// time bound is ignored.
type DateFilter struct {
	From time.Time
	To   time.Time
}

func (f *DateFilter) Name() string { return "date" }

func (f *DateFilter) ValidateConfig() []error {
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return []error{errInvalidRange("date", "from > to")}
	}
	return nil
}

func (f *DateFilter) Pass(post *models.PostRecord) (bool, error) {
	created, err := time.Parse(time.RFC3339, post.CreatedAtISO)
	if err != nil {
		created = time.Unix(int64(post.CreatedAtEpoch), 0).UTC()
	}
	if !f.From.IsZero() && created.Before(f.From) {
		return false, nil
	}
	if !f.To.IsZero() && created.After(f.To) {
		return false, nil
	}
	return true, nil
}

package filtering

import "github.com/jmylchreest/mediapull/internal/models"

// NSFWMode selects how NSFWFilter treats flagged posts.
type NSFWMode string

const (
	NSFWInclude NSFWMode = "include"
	NSFWExclude NSFWMode = "exclude"
	NSFWOnly    NSFWMode = "only"
)

// NSFWFilter passes posts according to Mode.
type NSFWFilter struct {
	Mode NSFWMode
}

func (f *NSFWFilter) Name() string { return "nsfw" }

func (f *NSFWFilter) ValidateConfig() []error {
	switch f.Mode {
	case NSFWInclude, NSFWExclude, NSFWOnly, "":
		return nil
	default:
		return []error{errInvalidRange("nsfw_mode", "must be one of include, exclude, only")}
	}
}

func (f *NSFWFilter) Pass(post *models.PostRecord) (bool, error) {
	switch f.Mode {
	case NSFWExclude:
		return !post.IsNSFW, nil
	case NSFWOnly:
		return post.IsNSFW, nil
	default: // NSFWInclude, or unset
		return true, nil
	}
}

// Package fields reconstructs (label, value) field records from two-column form pages.
//
// Each page is split into label anchors (left column) and content runs (right column).
// Anchors, taken in provider order, define half-open vertical intervals; every content run
// is appended to the field whose interval contains its top edge. Runs that fall in no
// interval continue the field most recently matched, possibly on an earlier page.
package fields

import "github.com/a3tai/mcp-form-fields/internal/checkbox"

// Default calibration for the proposal template.
const (
	DefaultColumnThreshold   = 210.0
	DefaultVerticalTolerance = 5.0
	DefaultChecklistLabel    = "Thematic Areas Addressed"
	DefaultSeparator         = ";"
)

// DefaultArtifactLabels are UI control captions rendered into the content column.
var DefaultArtifactLabels = []string{"Edit"}

// Options configures page classification and association.
type Options struct {
	// ColumnThreshold splits labels (x0 left of it) from content (x0 right of it).
	ColumnThreshold float64
	// VerticalTolerance widens each interval's upper bound.
	VerticalTolerance float64
	// ArtifactLabels are content texts dropped on sight.
	ArtifactLabels []string
	// ChecklistLabel names the field whose value comes from checkbox images.
	ChecklistLabel string
	// Separator is stripped from labels; it delimits columns in the field table.
	Separator string
	Checkbox  checkbox.Config
}

// DefaultOptions returns the proposal template calibration
func DefaultOptions() Options {
	return Options{
		ColumnThreshold:   DefaultColumnThreshold,
		VerticalTolerance: DefaultVerticalTolerance,
		ArtifactLabels:    append([]string(nil), DefaultArtifactLabels...),
		ChecklistLabel:    DefaultChecklistLabel,
		Separator:         DefaultSeparator,
		Checkbox:          checkbox.DefaultConfig(),
	}
}

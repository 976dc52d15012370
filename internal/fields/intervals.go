package fields

import (
	"github.com/a3tai/mcp-form-fields/internal/checkbox"
	"github.com/a3tai/mcp-form-fields/internal/layout"
	"github.com/a3tai/mcp-form-fields/internal/textnorm"
)

// Anchor is a label's vertical position and normalized text.
type Anchor struct {
	Top   float64 `json:"top"`
	Label string  `json:"label"`
}

// Interval is the vertical band owned by the label at Index: Lower < y <= Upper.
type Interval struct {
	Index int     `json:"index"`
	Upper float64 `json:"upper"`
	Lower float64 `json:"lower"`
}

// Bands is the interval structure of one page.
type Bands struct {
	// Anchors end with a sentinel at Top 0 with an empty label.
	Anchors   []Anchor
	Intervals []Interval
	// ChecklistIndex is the interval of the checklist label, or -1.
	ChecklistIndex int
}

// BuildIntervals turns label runs into anchors and intervals, keeping provider order.
// Anchors are not re-sorted: when they are not monotonic, Match returns the first
// interval that qualifies.
func BuildIntervals(labels []*layout.TextRun, opts Options) *Bands {
	b := &Bands{ChecklistIndex: -1}
	for _, run := range labels {
		label := textnorm.Label(run.Text, opts.Separator)
		if b.ChecklistIndex < 0 && opts.ChecklistLabel != "" && textnorm.Equal(label, opts.ChecklistLabel) {
			b.ChecklistIndex = len(b.Anchors)
		}
		b.Anchors = append(b.Anchors, Anchor{Top: run.Box.Top(), Label: label})
	}
	b.Anchors = append(b.Anchors, Anchor{Top: 0, Label: ""})

	for i := 0; i < len(b.Anchors)-1; i++ {
		b.Intervals = append(b.Intervals, Interval{
			Index: i,
			Upper: b.Anchors[i].Top + opts.VerticalTolerance,
			Lower: b.Anchors[i+1].Top,
		})
	}
	return b
}

// HasLabels reports whether the page has any anchor besides the sentinel.
func (b *Bands) HasLabels() bool {
	return len(b.Anchors) > 1
}

// IsChecklist reports whether the page carries the checklist label.
func (b *Bands) IsChecklist() bool {
	return b.ChecklistIndex >= 0
}

// Holds reports Lower < y <= Upper.
func (iv Interval) Holds(y float64) bool {
	return y > iv.Lower && y <= iv.Upper
}

// Match returns the first interval that holds top.
func (b *Bands) Match(top float64) (int, bool) {
	for _, iv := range b.Intervals {
		if iv.Holds(top) {
			return iv.Index, true
		}
	}
	return 0, false
}

// Band returns interval i as a checkbox band.
func (b *Bands) Band(i int) checkbox.Band {
	iv := b.Intervals[i]
	return checkbox.Band{Lower: iv.Lower, Upper: iv.Upper}
}

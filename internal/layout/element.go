package layout

import (
	"errors"
	"fmt"
)

// ErrMalformedElement marks a page whose element tree cannot be classified.
var ErrMalformedElement = errors.New("malformed layout element")

// Element is one positioned item on a page: a *TextRun, an *ImageRegion or a *Group.
// The set is closed; Walk is the only place that switches on the concrete type.
type Element interface {
	Bounds() BoundingBox
	element()
}

// Line is a single visual line inside a text run.
type Line struct {
	Text string      `json:"text"`
	Box  BoundingBox `json:"box"`
}

// TextRun is a block of text (a text box) with its lines.
type TextRun struct {
	Text  string      `json:"text"`
	Box   BoundingBox `json:"box"`
	Lines []Line      `json:"lines,omitempty"`
}

// Bounds returns the run's bounding box
func (t *TextRun) Bounds() BoundingBox { return t.Box }

func (*TextRun) element() {}

// TextLines returns the run's lines, or the run itself as a single line when it has none.
func (t *TextRun) TextLines() []Line {
	if len(t.Lines) > 0 {
		return t.Lines
	}
	return []Line{{Text: t.Text, Box: t.Box}}
}

// RawImage carries the undecoded bytes of an embedded image.
type RawImage struct {
	Name string `json:"name"`
	// Format is "png", "jpg", "tif" or "raw" (uncompressed samples).
	Format           string `json:"format"`
	Width            int    `json:"width"`
	Height           int    `json:"height"`
	BitsPerComponent int    `json:"bits_per_component,omitempty"`
	Components       int    `json:"components,omitempty"`
	Data             []byte `json:"-"`
}

// ImageRegion is an embedded raster image placed on the page.
type ImageRegion struct {
	Box   BoundingBox `json:"box"`
	Image RawImage    `json:"image"`
}

// Bounds returns the placed image's bounding box
func (i *ImageRegion) Bounds() BoundingBox { return i.Box }

func (*ImageRegion) element() {}

// Group is an ordered container of elements, e.g. a form XObject.
type Group struct {
	Box      BoundingBox `json:"box"`
	Children []Element   `json:"children"`
}

// Bounds returns the group's bounding box
func (g *Group) Bounds() BoundingBox { return g.Box }

func (*Group) element() {}

// NewGroup builds a group whose box is the union of its children's boxes.
func NewGroup(children ...Element) *Group {
	g := &Group{Children: children}
	for i, c := range children {
		if i == 0 {
			g.Box = c.Bounds()
			continue
		}
		g.Box = g.Box.Union(c.Bounds())
	}
	return g
}

// Page is one page of positioned elements in provider order.
type Page struct {
	// ID increases monotonically across a document but need not be contiguous.
	ID       int       `json:"id"`
	Elements []Element `json:"elements"`
}

// Validate checks every element's geometry, recursing into groups.
func (p *Page) Validate() error {
	return validateElements(p.ID, p.Elements)
}

func validateElements(pageID int, elements []Element) error {
	for i, e := range elements {
		if e == nil {
			return fmt.Errorf("page %d element %d: %w: nil element", pageID, i, ErrMalformedElement)
		}
		if !e.Bounds().Valid() {
			return fmt.Errorf("page %d element %d: %w: invalid bounds %+v",
				pageID, i, ErrMalformedElement, e.Bounds())
		}
		if g, ok := e.(*Group); ok {
			if err := validateElements(pageID, g.Children); err != nil {
				return err
			}
		}
	}
	return nil
}

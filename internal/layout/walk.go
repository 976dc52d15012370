package layout

// Visitor receives the leaves of an element tree during Walk.
type Visitor interface {
	VisitText(t *TextRun)
	VisitImage(img *ImageRegion)
}

// Filter decides whether an element is visited (leaves) or descended into (groups).
type Filter func(e Element) bool

// Walk visits the leaves of elements depth-first, left to right, in document order.
// A nil filter accepts everything.
func Walk(elements []Element, filter Filter, v Visitor) {
	for _, e := range elements {
		if filter != nil && !filter(e) {
			continue
		}
		switch el := e.(type) {
		case *TextRun:
			v.VisitText(el)
		case *ImageRegion:
			v.VisitImage(el)
		case *Group:
			Walk(el.Children, filter, v)
		}
	}
}

// TextVisitor adapts a function to a Visitor that only sees text runs.
type TextVisitor func(t *TextRun)

// VisitText calls f
func (f TextVisitor) VisitText(t *TextRun) { f(t) }

// VisitImage does nothing
func (TextVisitor) VisitImage(*ImageRegion) {}

// ImageVisitor adapts a function to a Visitor that only sees images.
type ImageVisitor func(img *ImageRegion)

// VisitText does nothing
func (ImageVisitor) VisitText(*TextRun) {}

// VisitImage calls f
func (f ImageVisitor) VisitImage(img *ImageRegion) { f(img) }

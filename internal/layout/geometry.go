package layout

import "math"

// BoundingBox is a rectangle in page coordinates with y increasing upward.
type BoundingBox struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// NewBoundingBox builds a box from two opposite corners in any order.
func NewBoundingBox(xa, ya, xb, yb float64) BoundingBox {
	return BoundingBox{
		X0: math.Min(xa, xb),
		Y0: math.Min(ya, yb),
		X1: math.Max(xa, xb),
		Y1: math.Max(ya, yb),
	}
}

// Left returns the left edge X coordinate
func (b BoundingBox) Left() float64 {
	return b.X0
}

// Top returns the top edge Y coordinate
func (b BoundingBox) Top() float64 {
	return b.Y1
}

// Width returns the horizontal extent
func (b BoundingBox) Width() float64 {
	return b.X1 - b.X0
}

// Height returns the vertical extent
func (b BoundingBox) Height() float64 {
	return b.Y1 - b.Y0
}

// Valid reports whether the corners are ordered and finite.
func (b BoundingBox) Valid() bool {
	for _, v := range []float64{b.X0, b.Y0, b.X1, b.Y1} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return b.X0 <= b.X1 && b.Y0 <= b.Y1
}

// Union returns the smallest box containing both boxes.
func (b BoundingBox) Union(other BoundingBox) BoundingBox {
	return BoundingBox{
		X0: math.Min(b.X0, other.X0),
		Y0: math.Min(b.Y0, other.Y0),
		X1: math.Max(b.X1, other.X1),
		Y1: math.Max(b.Y1, other.Y1),
	}
}

// Contains checks if other lies entirely inside b (edges inclusive).
func (b BoundingBox) Contains(other BoundingBox) bool {
	return other.X0 >= b.X0 && other.X1 <= b.X1 &&
		other.Y0 >= b.Y0 && other.Y1 <= b.Y1
}

// OverlapsVertically reports whether b shares any vertical extent with the open band (lower, upper).
func (b BoundingBox) OverlapsVertically(lower, upper float64) bool {
	return b.Y1 > lower && b.Y0 < upper
}

// Between reports lower < v < upper.
func Between(v, lower, upper float64) bool {
	return v > lower && v < upper
}

// Near reports |a-b| <= tolerance.
func Near(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

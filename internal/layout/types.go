// Package layout implements keyword-driven bounding-box inference over
// positioned page text. All coordinates use a top-left origin with Y
// increasing downward; the loader converts from PDF space before any of
// this code runs.
package layout

import "sort"

// sameLineTolerance is the vertical slack within which two fragments are
// considered to sit on the same text line when sorting in reading order.
const sameLineTolerance = 2.0

// Rect is an axis-aligned rectangle in page coordinates.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// Width returns the horizontal extent of the rectangle.
func (r Rect) Width() float64 {
	return r.Right - r.Left
}

// Height returns the vertical extent of the rectangle.
func (r Rect) Height() float64 {
	return r.Bottom - r.Top
}

// Area returns the rectangle's area, zero for degenerate rectangles.
func (r Rect) Area() float64 {
	w, h := r.Width(), r.Height()
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// Intersection returns the overlapping region of two rectangles. The
// result is degenerate (zero area) when they do not overlap.
func (r Rect) Intersection(o Rect) Rect {
	out := Rect{
		Left:   max(r.Left, o.Left),
		Top:    max(r.Top, o.Top),
		Right:  min(r.Right, o.Right),
		Bottom: min(r.Bottom, o.Bottom),
	}
	return out
}

// Intersects reports whether the two rectangles share any area.
func (r Rect) Intersects(o Rect) bool {
	return r.Intersection(o).Area() > 0
}

// OverlapRatio returns the fraction of r's own area covered by o.
// A zero-area r yields 0.
func (r Rect) OverlapRatio(o Rect) float64 {
	area := r.Area()
	if area == 0 {
		return 0
	}
	return r.Intersection(o).Area() / area
}

// BoundingBox is a rectangle presumed to contain a field's value,
// derived from keyword and terminator positions on a page.
type BoundingBox = Rect

// Fragment is an immutable positioned run of text on a page.
type Fragment struct {
	Text string `json:"text"`
	Rect Rect   `json:"rect"`
}

// Page holds the positioned text fragments of a single PDF page.
// Fragments are kept in reading order (top-to-bottom, then
// left-to-right).
type Page struct {
	Number    int        `json:"number"` // 1-based, for diagnostics
	Width     float64    `json:"width"`
	Height    float64    `json:"height"`
	Fragments []Fragment `json:"fragments"`
}

// SortReadingOrder sorts fragments top-to-bottom, then left-to-right.
// Fragments whose tops differ by less than sameLineTolerance count as
// the same line and are ordered by their left edge. The sort is stable
// so exact duplicates keep their input order.
func SortReadingOrder(frags []Fragment) {
	sort.SliceStable(frags, func(i, j int) bool {
		a, b := frags[i].Rect, frags[j].Rect
		if diff := a.Top - b.Top; diff > sameLineTolerance || diff < -sameLineTolerance {
			return a.Top < b.Top
		}
		return a.Left < b.Left
	})
}

// readingOrderLess reports whether fragment a comes before fragment b in
// reading order, using the same line tolerance as SortReadingOrder.
func readingOrderLess(a, b Rect) bool {
	if diff := a.Top - b.Top; diff > sameLineTolerance || diff < -sameLineTolerance {
		return a.Top < b.Top
	}
	return a.Left < b.Left
}

package layout

import "fmt"

// Orientation selects where a field's value sits relative to its label.
type Orientation string

const (
	// OrientationRightOf places the value in the table column right of
	// the label, spanning down to the next row's label.
	OrientationRightOf Orientation = "right_of"
	// OrientationBelow places the value underneath the label.
	OrientationBelow Orientation = "below"
)

// Valid reports whether the orientation is one of the known values.
func (o Orientation) Valid() bool {
	return o == OrientationRightOf || o == OrientationBelow
}

// DefaultTerminatorMargin is the vertical gap kept above a terminator
// row so the terminator's own line is not swept into the value box.
const DefaultTerminatorMargin = 1.0

// BoxCalculator derives bounding boxes from keyword and terminator
// positions on a page.
type BoxCalculator struct {
	// Margin is subtracted from a terminator's top edge when it closes
	// a bounding box.
	Margin float64
}

// NewBoxCalculator creates a calculator with the given terminator margin.
// A negative margin is treated as zero.
func NewBoxCalculator(margin float64) *BoxCalculator {
	if margin < 0 {
		margin = 0
	}
	return &BoxCalculator{Margin: margin}
}

// Compute derives the bounding box for the value belonging to the given
// keyword fragment. The box opens at the keyword according to the
// orientation, and closes just above the nearest terminator fragment
// found after the keyword in reading order. Without a terminator the box
// extends exactly to the page's bottom edge.
func (c *BoxCalculator) Compute(page Page, keyword Fragment, orientation Orientation, terminators []*KeywordMatcher) (BoundingBox, error) {
	if !orientation.Valid() {
		return BoundingBox{}, fmt.Errorf("unknown orientation %q", orientation)
	}

	box := BoundingBox{
		Right:  page.Width,
		Bottom: page.Height,
	}
	switch orientation {
	case OrientationRightOf:
		box.Left = keyword.Rect.Right
		box.Top = keyword.Rect.Top
	case OrientationBelow:
		box.Left = keyword.Rect.Left
		box.Top = keyword.Rect.Bottom
	}

	if term, ok := c.findTerminator(page, keyword, terminators); ok {
		bottom := term.Rect.Top - c.Margin
		if bottom < box.Top {
			bottom = box.Top
		}
		box.Bottom = bottom
	}

	return box, nil
}

// findTerminator returns the terminator fragment closing the box: the
// candidate after the keyword with the smallest forward distance, ties
// resolved by reading order. Candidates are fragments matching any of
// the terminator patterns that start below the keyword's top edge.
func (c *BoxCalculator) findTerminator(page Page, keyword Fragment, terminators []*KeywordMatcher) (Fragment, bool) {
	var (
		best     Fragment
		bestDist float64
		found    bool
	)

	for _, frag := range page.Fragments {
		if !readingOrderLess(keyword.Rect, frag.Rect) {
			continue
		}
		if !matchesAny(frag.Text, terminators) {
			continue
		}

		dist := frag.Rect.Top - keyword.Rect.Bottom
		if !found || dist < bestDist {
			best = frag
			bestDist = dist
			found = true
			continue
		}
		// Exact tie: keep the earlier fragment in reading order.
		if dist == bestDist && readingOrderLess(frag.Rect, best.Rect) {
			best = frag
		}
	}

	return best, found
}

func matchesAny(text string, matchers []*KeywordMatcher) bool {
	for _, m := range matchers {
		if m.Match(text) {
			return true
		}
	}
	return false
}

package layout

import "strings"

const (
	// DefaultLineGap is the vertical distance between two fragments'
	// top edges beyond which they are joined with a newline instead of
	// a space.
	DefaultLineGap = 4.0

	// DefaultMinOverlap admits any fragment that touches the box with
	// positive area.
	DefaultMinOverlap = 0.0
)

// Assembler collects the fragments inside a bounding box and joins their
// text into the field's value.
type Assembler struct {
	// MinOverlap is the fraction of a fragment's own area that must lie
	// inside the box for the fragment to count as contained. Zero means
	// any positive overlap.
	MinOverlap float64

	// LineGap is the vertical distance between consecutive fragments
	// beyond which a newline is inserted instead of a space.
	LineGap float64
}

// NewAssembler creates an assembler with the given containment and
// line-break policies.
func NewAssembler(minOverlap, lineGap float64) *Assembler {
	if minOverlap < 0 {
		minOverlap = 0
	}
	if lineGap <= 0 {
		lineGap = DefaultLineGap
	}
	return &Assembler{MinOverlap: minOverlap, LineGap: lineGap}
}

// Contained returns the fragments overlapping the box by more than the
// configured minimum ratio, in reading order.
func (a *Assembler) Contained(box BoundingBox, frags []Fragment) []Fragment {
	var inside []Fragment
	for _, frag := range frags {
		ratio := frag.Rect.OverlapRatio(box)
		if ratio > a.MinOverlap || (a.MinOverlap == 0 && ratio > 0) {
			inside = append(inside, frag)
		}
	}
	SortReadingOrder(inside)
	return inside
}

// Assemble concatenates the text of all fragments contained in the box,
// in reading order. Fragments on the same line are joined with a space,
// fragments further apart vertically with a newline. Returns the empty
// string when the box contains nothing.
func (a *Assembler) Assemble(box BoundingBox, frags []Fragment) string {
	inside := a.Contained(box, frags)
	if len(inside) == 0 {
		return ""
	}

	var builder strings.Builder
	for i, frag := range inside {
		text := strings.TrimSpace(frag.Text)
		if text == "" {
			continue
		}
		if builder.Len() > 0 {
			if frag.Rect.Top-inside[i-1].Rect.Top > a.LineGap {
				builder.WriteString("\n")
			} else {
				builder.WriteString(" ")
			}
		}
		builder.WriteString(text)
	}

	return builder.String()
}

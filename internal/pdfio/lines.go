package pdfio

import (
	"sort"
	"strings"

	"github.com/hbkit/handbook-extract/internal/layout"
)

// Line coalescing thresholds, expressed as fractions of the text height.
// PDF generators frequently emit one run per word or even per glyph;
// keyword labels like "Lernziele / Kompetenzen" only match once such
// runs are merged back into visual lines. Runs separated by more than
// maxWordGapRatio remain separate fragments, which keeps table cells on
// the same row apart.
const (
	lineTopTolerance = 2.0
	minSpaceGapRatio = 0.12
	maxWordGapRatio  = 1.0
)

// CoalesceLines merges text runs that sit on the same visual line into
// single fragments. Runs are grouped by top edge, ordered by left edge,
// and joined while the horizontal gap between them stays below one text
// height. Larger gaps start a new fragment.
func CoalesceLines(frags []layout.Fragment) []layout.Fragment {
	if len(frags) <= 1 {
		return frags
	}

	sorted := make([]layout.Fragment, len(frags))
	copy(sorted, frags)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Rect, sorted[j].Rect
		if diff := a.Top - b.Top; diff > lineTopTolerance || diff < -lineTopTolerance {
			return a.Top < b.Top
		}
		return a.Left < b.Left
	})

	var out []layout.Fragment
	current := sorted[0]
	var builder strings.Builder
	builder.WriteString(current.Text)

	flush := func() {
		current.Text = builder.String()
		out = append(out, current)
		builder.Reset()
	}

	for _, frag := range sorted[1:] {
		height := current.Rect.Height()
		if height <= 0 {
			height = defaultTextHeight
		}
		sameLine := frag.Rect.Top-current.Rect.Top <= lineTopTolerance &&
			current.Rect.Top-frag.Rect.Top <= lineTopTolerance
		gap := frag.Rect.Left - current.Rect.Right

		if !sameLine || gap > maxWordGapRatio*height {
			flush()
			current = frag
			builder.WriteString(frag.Text)
			continue
		}

		if gap > minSpaceGapRatio*height && !strings.HasSuffix(builder.String(), " ") {
			builder.WriteString(" ")
		}
		builder.WriteString(frag.Text)

		// Grow the merged rectangle.
		if frag.Rect.Right > current.Rect.Right {
			current.Rect.Right = frag.Rect.Right
		}
		if frag.Rect.Top < current.Rect.Top {
			current.Rect.Top = frag.Rect.Top
		}
		if frag.Rect.Bottom > current.Rect.Bottom {
			current.Rect.Bottom = frag.Rect.Bottom
		}
	}
	flush()

	return out
}

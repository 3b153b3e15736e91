// Package pdfio is the PDF-loading collaborator: it turns a PDF file
// into pages of positioned text fragments and validates inputs before
// extraction. The layout packages never touch PDF binary data.
package pdfio

import (
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/hbkit/handbook-extract/internal/layout"
)

const (
	// Fallback page size when no MediaBox is present (US Letter).
	defaultPageWidth  = 612.0
	defaultPageHeight = 792.0

	// Fallback text height when the font size is unknown.
	defaultTextHeight = 12.0
)

// Loader reads PDF files into layout pages.
type Loader struct {
	maxFileSize int64
}

// NewLoader creates a loader with the specified file size constraint.
func NewLoader(maxFileSize int64) *Loader {
	return &Loader{maxFileSize: maxFileSize}
}

// LoadFile parses a PDF file into pages of positioned fragments.
// Coordinates are converted from PDF space (origin bottom-left, Y up)
// into layout space (origin top-left, Y down), and fragments are sorted
// in reading order.
func (l *Loader) LoadFile(path string) ([]layout.Page, error) {
	if err := checkPDFPath(path, l.maxFileSize); err != nil {
		return nil, err
	}

	f, pdfReader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	pages := make([]layout.Page, 0, pdfReader.NumPage())
	for pageNum := 1; pageNum <= pdfReader.NumPage(); pageNum++ {
		page := pdfReader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		width, height := pageSize(page)
		frags := pageFragments(page, height)
		frags = CoalesceLines(frags)
		layout.SortReadingOrder(frags)

		pages = append(pages, layout.Page{
			Number:    pageNum,
			Width:     width,
			Height:    height,
			Fragments: frags,
		})
	}

	return pages, nil
}

// pageFragments converts the page's text runs into layout fragments in
// top-left coordinates. Runs with empty text are dropped.
func pageFragments(page pdf.Page, pageHeight float64) []layout.Fragment {
	content := page.Content()

	frags := make([]layout.Fragment, 0, len(content.Text))
	for _, text := range content.Text {
		if text.S == "" {
			continue
		}

		height := text.FontSize
		if height == 0 {
			height = defaultTextHeight
		}

		frags = append(frags, layout.Fragment{
			Text: text.S,
			Rect: layout.Rect{
				Left:   text.X,
				Top:    pageHeight - (text.Y + height),
				Right:  text.X + text.W,
				Bottom: pageHeight - text.Y,
			},
		})
	}

	return frags
}

// pageSize reads the page's MediaBox, walking up the page tree for
// inherited values, and falls back to US Letter.
func pageSize(page pdf.Page) (width, height float64) {
	node := page.V
	for !node.IsNull() {
		if mb := node.Key("MediaBox"); mb.Kind() == pdf.Array && mb.Len() == 4 {
			x0, y0 := numeric(mb.Index(0)), numeric(mb.Index(1))
			x1, y1 := numeric(mb.Index(2)), numeric(mb.Index(3))
			if x1 > x0 && y1 > y0 {
				return x1 - x0, y1 - y0
			}
		}
		node = node.Key("Parent")
	}
	return defaultPageWidth, defaultPageHeight
}

// numeric reads an integer or real PDF value as a float64.
func numeric(v pdf.Value) float64 {
	switch v.Kind() {
	case pdf.Integer:
		return float64(v.Int64())
	case pdf.Real:
		return v.Float64()
	default:
		return 0
	}
}

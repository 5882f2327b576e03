// Package pdftext turns PDF bytes into per-page plain-text lines.
// It uses the ledongthuc/pdf library, a pure Go implementation with no CGO.
package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrUnreadablePDF indicates the bytes could not be opened as a PDF document
var ErrUnreadablePDF = errors.New("unreadable PDF document")

// Page is the extracted text of one PDF page, top to bottom.
type Page struct {
	Number int
	Lines  []string
}

// Text returns the page as a single newline-joined string.
func (p Page) Text() string {
	return strings.Join(p.Lines, "\n")
}

// FirstLine returns the first line of the page, or "" for an empty page.
func (p Page) FirstLine() string {
	if len(p.Lines) == 0 {
		return ""
	}
	return p.Lines[0]
}

// Source supplies the ordered page texts of a document.
type Source interface {
	Pages(data []byte) ([]Page, error)
}

// LedongthucSource extracts page text with github.com/ledongthuc/pdf.
type LedongthucSource struct {
	// SpaceRatio is the gap between two fragments on a row, as a fraction of the
	// font size, above which they are separated by a space.
	SpaceRatio float64
	// MinGap is the gap in PDF units used when a fragment carries no font size.
	MinGap float64
}

// NewLedongthucSource creates a source with the default word-gap thresholds
func NewLedongthucSource() *LedongthucSource {
	return &LedongthucSource{SpaceRatio: 0.15, MinGap: 1}
}

// Pages opens the document and extracts the lines of every page.
// Pages whose content cannot be decoded are returned with no lines so that page
// numbering stays aligned with the document.
func (s *LedongthucSource) Pages(data []byte) (pages []Page, err error) {
	// The parser panics on some malformed xref tables
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("%w: %v", ErrUnreadablePDF, r)
		}
	}()

	if !LooksLikePDF(data) {
		return nil, fmt.Errorf("%w: missing %%PDF- header", ErrUnreadablePDF)
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadablePDF, err)
	}

	total := reader.NumPage()
	pages = make([]Page, 0, total)
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, Page{Number: i})
			continue
		}

		rows, err := page.GetTextByRow()
		if err != nil {
			pages = append(pages, Page{Number: i})
			continue
		}

		lines := make([]string, 0, len(rows))
		for _, row := range rows {
			line := s.joinRow(row.Content)
			if line == "" {
				continue
			}
			lines = append(lines, line)
		}
		pages = append(pages, Page{Number: i, Lines: lines})
	}

	return pages, nil
}

// joinRow concatenates the fragments of one row, inserting a single space
// wherever the horizontal gap between fragments is wider than a word gap.
// Blank glyphs are separators in their own right.
func (s *LedongthucSource) joinRow(texts []pdf.Text) string {
	var sb strings.Builder
	var prevEnd float64
	for _, t := range texts {
		if t.S == "" {
			continue
		}
		if strings.TrimSpace(t.S) == "" {
			sb.WriteByte(' ')
			prevEnd = t.X + t.W
			continue
		}
		if sb.Len() > 0 && t.X-prevEnd > s.wordGap(t.FontSize) {
			sb.WriteByte(' ')
		}
		sb.WriteString(t.S)
		prevEnd = t.X + t.W
	}
	return strings.TrimSpace(collapseSpaces(sb.String()))
}

func (s *LedongthucSource) wordGap(fontSize float64) float64 {
	if fontSize > 0 {
		return s.SpaceRatio * fontSize
	}
	return s.MinGap
}

// collapseSpaces reduces runs of spaces produced by fragments that already carry
// their own trailing blanks.
func collapseSpaces(s string) string {
	for strings.Contains(s, "  ") {
		s = strings.ReplaceAll(s, "  ", " ")
	}
	return s
}

// LooksLikePDF checks the magic bytes at the start of the document
func LooksLikePDF(data []byte) bool {
	return len(data) >= 5 && string(data[:5]) == "%PDF-"
}

// StaticSource serves pre-extracted page text; used when text comes from
// another extractor or from fixtures.
type StaticSource []Page

// Pages returns the stored pages regardless of input.
func (s StaticSource) Pages(_ []byte) ([]Page, error) {
	return []Page(s), nil
}

// PagesFromText splits raw page texts into Pages numbered from 1.
func PagesFromText(texts ...string) []Page {
	pages := make([]Page, 0, len(texts))
	for i, text := range texts {
		var lines []string
		if text != "" {
			lines = strings.Split(text, "\n")
		}
		pages = append(pages, Page{Number: i + 1, Lines: lines})
	}
	return pages
}

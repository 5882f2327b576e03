package extractor

import (
	"strings"

	"github.com/cloudflare/ahocorasick"
)

const (
	summaryStartAnchor = "Számlaösszesítő"
	summaryEndAnchor   = "Egyenlegközlő információ"
)

// summaryNoise are substrings of header, subtotal and title lines inside the summary block.
var summaryNoise = []string{"összeg", "Megnevezés", "Összesen", "Számlaösszesítő"}

// LineStats counts what a parser did with the lines it was given.
type LineStats struct {
	Accepted int
	Dropped  int
	// Unrecognized is set when an anchor, header or terminator was missing and
	// the whole page or block was skipped.
	Unrecognized bool
}

// noiseFilter matches all noise tokens in one pass over a line.
// The matcher keeps per-call state, so each parse builds its own.
type noiseFilter struct {
	matcher *ahocorasick.Matcher
}

func newNoiseFilter(tokens []string) *noiseFilter {
	return &noiseFilter{matcher: ahocorasick.NewStringMatcher(tokens)}
}

func (f *noiseFilter) matches(line string) bool {
	return len(f.matcher.Match([]byte(line))) > 0
}

// ParseInvoiceSummary extracts the summary rows of a page opening the invoice.
//
// Lines carrying a TESZOR code have nine columns; lines without one have eight and
// get an empty code inserted before the VAT rate. Lines that do not split into the
// exact column count are dropped.
func ParseInvoiceSummary(text string) ([]InvoiceSummaryRow, LineStats) {
	var stats LineStats

	start := strings.Index(text, summaryStartAnchor)
	end := strings.Index(text, summaryEndAnchor)
	if start == -1 || end == -1 || end < start {
		stats.Unrecognized = true
		return nil, stats
	}

	noise := newNoiseFilter(summaryNoise)

	var rows []InvoiceSummaryRow
	for _, line := range strings.Split(text[start:end], "\n") {
		if strings.TrimSpace(line) == "" || noise.matches(line) {
			continue
		}

		fields, ok := splitSummaryLine(line)
		if !ok {
			stats.Dropped++
			continue
		}

		row, err := newInvoiceSummaryRow(fields)
		if err != nil {
			stats.Dropped++
			continue
		}
		rows = append(rows, row)
		stats.Accepted++
	}

	return rows, stats
}

func splitSummaryLine(line string) ([]string, bool) {
	if IsTeszorCode(line) {
		parts := rsplit(line, " ", invoiceSummaryArity-1)
		return parts, len(parts) == invoiceSummaryArity
	}

	parts := rsplit(line, " ", invoiceSummaryArity-2)
	if len(parts) != invoiceSummaryArity-1 {
		return nil, false
	}

	fields := make([]string, 0, invoiceSummaryArity)
	fields = append(fields, parts[:4]...)
	fields = append(fields, "")
	fields = append(fields, parts[4:]...)
	return fields, true
}

package extractor

import (
	"errors"

	"github.com/FACorreiaa/invoice-ledger/internal/domain/invoice/pdftext"
)

// ErrNoInvoiceData is returned when a document yields neither summary nor charge rows
var ErrNoInvoiceData = errors.New("no relevant invoice data found")

// Stats describes what happened to the pages and lines of one document.
type Stats struct {
	Pages               int
	EmptyPages          int
	SummaryPages        int
	SkippedSummaryPages int
	Flushes             int
	SkippedBlocks       int
	DroppedLines        int
	// DanglingLines are lines of a service-charge table whose total line never came.
	DanglingLines int
}

// Result holds the raw rows of one document in document order.
type Result struct {
	InvoiceSummary []InvoiceSummaryRow
	ServiceCharges []ServiceChargeRow
	Stats          Stats
}

// Processor runs the extraction over the pages of a single document.
// It is not safe for concurrent use; create one per document.
type Processor struct {
	acc    Accumulator
	result Result
}

// NewProcessor creates a processor for one document
func NewProcessor() *Processor {
	return &Processor{}
}

// Feed processes the next page of the document.
func (p *Processor) Feed(page pdftext.Page) {
	p.result.Stats.Pages++
	if len(page.Lines) == 0 {
		p.result.Stats.EmptyPages++
		return
	}

	section := ClassifyHeader(page.FirstLine())

	if block, flushed := p.acc.Feed(page.Lines, section); flushed {
		p.result.Stats.Flushes++
		rows, stats := ParseServiceCharges(block)
		if stats.Unrecognized {
			p.result.Stats.SkippedBlocks++
		}
		p.result.Stats.DroppedLines += stats.Dropped
		p.result.ServiceCharges = append(p.result.ServiceCharges, rows...)
	}

	if section == SectionInvoiceSummary {
		p.result.Stats.SummaryPages++
		rows, stats := ParseInvoiceSummary(page.Text())
		if stats.Unrecognized {
			p.result.Stats.SkippedSummaryPages++
		}
		p.result.Stats.DroppedLines += stats.Dropped
		p.result.InvoiceSummary = append(p.result.InvoiceSummary, rows...)
	}
}

// Finish closes the document. A service-charge table still open is discarded.
// ErrNoInvoiceData is returned, together with the stats, when nothing was extracted.
func (p *Processor) Finish() (*Result, error) {
	p.result.Stats.DanglingLines = p.acc.Pending()
	p.acc.Reset()

	result := p.result
	p.result = Result{}

	if len(result.InvoiceSummary) == 0 && len(result.ServiceCharges) == 0 {
		return &result, ErrNoInvoiceData
	}
	return &result, nil
}

// Extract runs a fresh processor over all pages of a document.
func Extract(pages []pdftext.Page) (*Result, error) {
	p := NewProcessor()
	for _, page := range pages {
		p.Feed(page)
	}
	return p.Finish()
}

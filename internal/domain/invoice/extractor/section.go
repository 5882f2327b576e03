package extractor

import "strings"

// Section tags what a page opens, judged from its first line.
type Section int

const (
	SectionNone Section = iota
	SectionInvoiceSummary
	SectionServiceCharges
)

func (s Section) String() string {
	switch s {
	case SectionInvoiceSummary:
		return "invoice_summary"
	case SectionServiceCharges:
		return "service_charges"
	default:
		return "none"
	}
}

const invoiceSummaryMarker = "SZÁMLA"

var serviceChargeMarkers = []string{"KISZÁMLÁZOTT DÍJAK", "ÜGYFÉLSZINTŰ DÍJAK"}

// ClassifyHeader maps the first line of a page to the section it opens.
func ClassifyHeader(firstLine string) Section {
	header := strings.ToUpper(strings.TrimSpace(firstLine))

	if header == invoiceSummaryMarker {
		return SectionInvoiceSummary
	}
	for _, marker := range serviceChargeMarkers {
		if header == marker {
			return SectionServiceCharges
		}
	}
	return SectionNone
}

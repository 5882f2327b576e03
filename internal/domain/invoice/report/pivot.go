// Package report aggregates enriched charges and exports the extraction result as a workbook.
package report

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/invoice-ledger/internal/domain/invoice/reference"
	"github.com/FACorreiaa/invoice-ledger/pkg/money"
)

// PivotKey groups charges booked the same way for the same subscriber.
type PivotKey struct {
	PhoneNumber   string
	Owner         string
	VatRate       string
	LedgerTitle   string
	VatCode       string
	LedgerAccount string
}

func (k PivotKey) compare(o PivotKey) int {
	return cmp.Or(
		cmp.Compare(k.PhoneNumber, o.PhoneNumber),
		cmp.Compare(k.Owner, o.Owner),
		cmp.Compare(k.VatRate, o.VatRate),
		cmp.Compare(k.LedgerTitle, o.LedgerTitle),
		cmp.Compare(k.VatCode, o.VatCode),
		cmp.Compare(k.LedgerAccount, o.LedgerAccount),
	)
}

// PivotEntry is one row of the pivot table.
type PivotEntry struct {
	Key       PivotKey
	NetAmount decimal.Decimal
	VatAmount decimal.Decimal
}

// Pivot sums net and VAT amounts per key, treating missing amounts as zero.
// Entries are ordered by key fields, phone number first.
func Pivot(rows []reference.EnrichedChargeRow) []PivotEntry {
	index := make(map[PivotKey]int)
	var entries []PivotEntry

	for _, row := range rows {
		key := PivotKey{
			PhoneNumber:   row.PhoneNumber,
			Owner:         row.Owner,
			VatRate:       row.VatRate,
			LedgerTitle:   row.LedgerTitle,
			VatCode:       row.VatCode,
			LedgerAccount: row.LedgerAccount,
		}

		i, ok := index[key]
		if !ok {
			i = len(entries)
			index[key] = i
			entries = append(entries, PivotEntry{Key: key})
		}
		entries[i].NetAmount = entries[i].NetAmount.Add(money.OrZero(row.NetAmount))
		entries[i].VatAmount = entries[i].VatAmount.Add(money.OrZero(row.VatAmount))
	}

	slices.SortFunc(entries, func(a, b PivotEntry) int {
		return a.Key.compare(b.Key)
	})
	return entries
}

// Report is everything written to the exported workbook.
type Report struct {
	Summary []reference.SummaryLine
	Charges []reference.EnrichedChargeRow
	Pivot   []PivotEntry
}

// Build assembles a report and computes its pivot.
func Build(summary []reference.SummaryLine, charges []reference.EnrichedChargeRow) *Report {
	return &Report{
		Summary: summary,
		Charges: charges,
		Pivot:   Pivot(charges),
	}
}

// Totals returns the net and VAT sums over all pivot entries.
func (r *Report) Totals() (net, vat decimal.Decimal) {
	for _, e := range r.Pivot {
		net = net.Add(e.NetAmount)
		vat = vat.Add(e.VatAmount)
	}
	return net, vat
}

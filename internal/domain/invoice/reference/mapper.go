package reference

import (
	"strings"

	"github.com/FACorreiaa/invoice-ledger/internal/domain/invoice/extractor"
	"github.com/FACorreiaa/invoice-ledger/pkg/money"
)

type mappingKey struct {
	teszorCode string
	vatRate    string
}

type ledgerInfo struct {
	title   string
	vatCode string
	account string
}

// Misses counts enrichment lookups that fell back to a sentinel.
type Misses struct {
	Owner  int
	Ledger int
}

// Mapper joins extracted charges against the reference tables.
// Lookups are exact on the phone number, on the TESZOR code for the category and on
// the (TESZOR code, VAT rate) pair for the ledger fields.
type Mapper struct {
	owners     map[string]string
	categories map[string]string
	ledgers    map[mappingKey]ledgerInfo
	misses     Misses
}

// NewMapper builds both lookups once. Later entries win on duplicate keys.
func NewMapper(phoneBook []PhoneBookEntry, mappings []TeszorMapping) *Mapper {
	m := &Mapper{
		owners:     make(map[string]string, len(phoneBook)),
		categories: make(map[string]string, len(mappings)),
		ledgers:    make(map[mappingKey]ledgerInfo, len(mappings)),
	}

	for _, e := range phoneBook {
		m.owners[strings.TrimSpace(e.PhoneNumber)] = e.Owner
	}

	for _, mp := range mappings {
		key := mappingKey{
			teszorCode: strings.TrimSpace(mp.TeszorCode),
			vatRate:    strings.TrimSpace(mp.VatRate),
		}
		if title := strings.TrimSpace(mp.LedgerTitle); title != "" {
			m.categories[key.teszorCode] = mp.LedgerTitle
		}
		m.ledgers[key] = ledgerInfo{
			title:   orUnknown(mp.LedgerTitle),
			vatCode: orUnknown(mp.VatCode),
			account: orUnknown(mp.LedgerAccountNumber),
		}
	}

	return m
}

// Enrich attaches owner and ledger data to every row and normalizes its amounts.
// No row is ever dropped; failed lookups get sentinels and are counted in Misses.
func (m *Mapper) Enrich(rows []extractor.ServiceChargeRow) []EnrichedChargeRow {
	enriched := make([]EnrichedChargeRow, 0, len(rows))

	for _, row := range rows {
		out := EnrichedChargeRow{
			PhoneNumber: row.PhoneNumber,
			Description: row.Description,
			TeszorCode:  row.TeszorCode,
			NetAmount:   money.ParseHUF(row.NetAmount),
			VatRate:     row.VatRate,
			VatAmount:   money.ParseHUF(row.VatAmount),
			TotalAmount: money.ParseHUF(row.TotalAmount),
		}

		owner, ok := m.owners[row.PhoneNumber]
		if !ok || owner == "" {
			owner = UnknownOwner
			m.misses.Owner++
		}
		out.Owner = owner

		category, ok := m.categories[row.TeszorCode]
		if !ok {
			category = UnknownCategory
		}
		out.Category = category

		info, ok := m.ledgers[mappingKey{teszorCode: row.TeszorCode, vatRate: row.VatRate}]
		if !ok {
			info = ledgerInfo{title: Unknown, vatCode: Unknown, account: Unknown}
			m.misses.Ledger++
		}
		out.LedgerTitle = info.title
		out.VatCode = info.vatCode
		out.LedgerAccount = info.account

		enriched = append(enriched, out)
	}

	return enriched
}

// Misses returns the lookup misses accumulated by Enrich.
func (m *Mapper) Misses() Misses {
	return m.misses
}

// NormalizeSummary converts the money columns of summary rows to decimals.
func NormalizeSummary(rows []extractor.InvoiceSummaryRow) []SummaryLine {
	lines := make([]SummaryLine, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, SummaryLine{
			Description: row.Description,
			Quantity:    row.Quantity,
			Unit:        row.Unit,
			UnitPrice:   money.ParseHUF(row.UnitPrice),
			TeszorCode:  row.TeszorCode,
			VatRate:     row.VatRate,
			NetAmount:   money.ParseHUF(row.NetAmount),
			VatAmount:   money.ParseHUF(row.VatAmount),
			GrossAmount: money.ParseHUF(row.GrossAmount),
		})
	}
	return lines
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return Unknown
	}
	return s
}

// Package reference holds the lookup tables used to enrich extracted charges:
// who owns each subscriber number, and which ledger account and VAT code a
// TESZOR code at a given VAT rate is booked to.
package reference

import (
	"context"

	"github.com/shopspring/decimal"
)

const (
	// UnknownOwner is the owner of a phone number missing from the phone book.
	UnknownOwner = "N/A"
	// UnknownCategory is the category title of a TESZOR code with no mapping at any VAT rate.
	UnknownCategory = "N/A"
	// Unknown fills ledger fields for a (TESZOR, VAT rate) pair without a mapping.
	Unknown = "Ismeretlen"
)

// PhoneBookEntry assigns a subscriber number to an employee
type PhoneBookEntry struct {
	ID          int64  `json:"id" csv:"-"`
	PhoneNumber string `json:"phone_number" csv:"phone_number"`
	Owner       string `json:"owner" csv:"owner"`
}

// TeszorMapping books a TESZOR code at a VAT rate to a ledger account.
type TeszorMapping struct {
	TeszorCode          string `json:"teszor_code" csv:"teszor_code"`
	VatRate             string `json:"vat_rate" csv:"vat_rate"`
	LedgerTitle         string `json:"ledger_title" csv:"ledger_title"`
	VatCode             string `json:"vat_code" csv:"vat_code"`
	LedgerAccountNumber string `json:"ledger_account_number" csv:"ledger_account_number"`
}

// LedgerAccount is a general ledger account
type LedgerAccount struct {
	ID            int64  `json:"id"`
	AccountNumber string `json:"account_number"`
	Title         string `json:"title"`
}

// VatSetting is a VAT code with its rate as printed on invoices, e.g. "27%".
type VatSetting struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Rate string `json:"rate"`
}

// TeszorCode is a known service classification code
type TeszorCode struct {
	ID          int64   `json:"id"`
	Code        string  `json:"teszor_code"`
	Description *string `json:"description,omitempty"`
}

// ExtractionSupport is everything an operator needs to review an extraction run.
type ExtractionSupport struct {
	PhoneBook      []PhoneBookEntry `json:"phonebook"`
	LedgerAccounts []LedgerAccount  `json:"ledger_accounts"`
	VatSettings    []VatSetting     `json:"vat_settings"`
	TeszorCodes    []TeszorCode     `json:"teszor_codes"`
}

// Source provides the reference tables for one extraction run.
type Source interface {
	PhoneBook(ctx context.Context) ([]PhoneBookEntry, error)
	TeszorMappings(ctx context.Context) ([]TeszorMapping, error)
}

// EnrichedChargeRow is a service charge with normalized amounts and reference data attached.
// Category is the ledger title of the TESZOR code alone, regardless of VAT rate.
type EnrichedChargeRow struct {
	PhoneNumber   string
	Description   string
	TeszorCode    string
	NetAmount     decimal.NullDecimal
	VatRate       string
	VatAmount     decimal.NullDecimal
	TotalAmount   decimal.NullDecimal
	Owner         string
	Category      string
	LedgerTitle   string
	VatCode       string
	LedgerAccount string
}

// SummaryLine is an invoice summary row with its money columns normalized.
type SummaryLine struct {
	Description string
	Quantity    string
	Unit        string
	UnitPrice   decimal.NullDecimal
	TeszorCode  string
	VatRate     string
	NetAmount   decimal.NullDecimal
	VatAmount   decimal.NullDecimal
	GrossAmount decimal.NullDecimal
}

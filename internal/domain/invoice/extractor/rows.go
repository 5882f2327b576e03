// Package extractor turns the page text of a carrier invoice into raw billing rows.
//
// The layout is fixed: a "SZÁMLA" page carries the invoice summary table, and one or
// more service-charge tables ("KISZÁMLÁZOTT DÍJAK", "ÜGYFÉLSZINTŰ DÍJAK") may run over
// several pages until their "Kiszámlázott díjak összesen" total line. Columns are
// located from the right edge of each line because descriptions contain spaces while
// the trailing numeric columns are fixed in count.
package extractor

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// NoPhoneNumber is the phone number of charges found before any phone-number line.
const NoPhoneNumber = "N/A"

const (
	invoiceSummaryArity = 9
	serviceChargeArity  = 7
)

// ErrRowArity is returned when a row is built from the wrong number of fields
var ErrRowArity = errors.New("row has wrong number of fields")

// teszorPattern matches a TESZOR service classification code, e.g. 61.20.1 or 61.20.11.
// The code must not touch a letter or digit on either side. \b only knows ASCII
// word characters, so an accented letter such as the á in "Díjá61.20.1" would count
// as a boundary.
var teszorPattern = regexp.MustCompile(`(?:^|[^\p{L}\p{N}_])(\d{2}\.\d{2}\.\d{1,2})(?:[^\p{L}\p{N}_]|$)`)

// FindTeszorCode returns the first TESZOR code in s, or "".
func FindTeszorCode(s string) string {
	m := teszorPattern.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return m[1]
}

// IsTeszorCode reports whether s contains a TESZOR code.
func IsTeszorCode(s string) bool {
	return teszorPattern.MatchString(s)
}

// InvoiceSummaryRow is one line of the invoice summary table.
// An empty TeszorCode means the line carried no code.
type InvoiceSummaryRow struct {
	Description string
	Quantity    string
	Unit        string
	UnitPrice   string
	TeszorCode  string
	VatRate     string
	NetAmount   string
	VatAmount   string
	GrossAmount string
}

func newInvoiceSummaryRow(fields []string) (InvoiceSummaryRow, error) {
	if len(fields) != invoiceSummaryArity {
		return InvoiceSummaryRow{}, fmt.Errorf("%w: invoice summary needs %d, got %d",
			ErrRowArity, invoiceSummaryArity, len(fields))
	}
	return InvoiceSummaryRow{
		Description: fields[0],
		Quantity:    fields[1],
		Unit:        fields[2],
		UnitPrice:   fields[3],
		TeszorCode:  fields[4],
		VatRate:     fields[5],
		NetAmount:   fields[6],
		VatAmount:   fields[7],
		GrossAmount: fields[8],
	}, nil
}

// Fields returns the row in column order.
func (r InvoiceSummaryRow) Fields() []string {
	return []string{
		r.Description, r.Quantity, r.Unit, r.UnitPrice, r.TeszorCode,
		r.VatRate, r.NetAmount, r.VatAmount, r.GrossAmount,
	}
}

// ServiceChargeRow is one itemized charge of a service-charge table.
type ServiceChargeRow struct {
	PhoneNumber string
	Description string
	TeszorCode  string
	NetAmount   string
	VatRate     string
	VatAmount   string
	TotalAmount string
}

func newServiceChargeRow(fields []string) (ServiceChargeRow, error) {
	if len(fields) != serviceChargeArity {
		return ServiceChargeRow{}, fmt.Errorf("%w: service charge needs %d, got %d",
			ErrRowArity, serviceChargeArity, len(fields))
	}
	return ServiceChargeRow{
		PhoneNumber: fields[0],
		Description: fields[1],
		TeszorCode:  fields[2],
		NetAmount:   fields[3],
		VatRate:     fields[4],
		VatAmount:   fields[5],
		TotalAmount: fields[6],
	}, nil
}

// Fields returns the row in column order.
func (r ServiceChargeRow) Fields() []string {
	return []string{
		r.PhoneNumber, r.Description, r.TeszorCode, r.NetAmount,
		r.VatRate, r.VatAmount, r.TotalAmount,
	}
}

// rsplit splits s on sep from the right, performing at most maxSplit splits.
// Consecutive separators produce empty fields, so a line's trailing columns are
// always counted from its right edge.
func rsplit(s, sep string, maxSplit int) []string {
	parts := make([]string, 0, maxSplit+1)
	rest := s
	for len(parts) < maxSplit {
		idx := strings.LastIndex(rest, sep)
		if idx < 0 {
			break
		}
		parts = append(parts, rest[idx+len(sep):])
		rest = rest[:idx]
	}
	parts = append(parts, rest)

	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return parts
}

// Package money normalizes the Hungarian-formatted monetary tokens found in carrier
// invoices ("12.345,67") into decimal values and renders them back for display.
package money

import (
	"regexp"
	"strings"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// HUF is the ISO-4217 code every invoice amount is denominated in.
const HUF = "HUF"

// decimalPattern is the strict shape a token must have after separator rewriting.
var decimalPattern = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

// ParseHUF converts a Hungarian-formatted amount into a decimal.
// Thousands-separator dots are stripped and the decimal comma becomes a dot.
// Anything that does not then look like a plain decimal number yields an invalid
// (null) value instead of an error; callers keep the row and carry the null.
func ParseHUF(raw string) (result decimal.NullDecimal) {
	defer func() {
		if r := recover(); r != nil {
			result = decimal.NullDecimal{}
		}
	}()

	cleaned := strings.ReplaceAll(raw, ".", "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	cleaned = strings.TrimSpace(cleaned)

	if !decimalPattern.MatchString(cleaned) {
		return decimal.NullDecimal{}
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.NullDecimal{}
	}

	return decimal.NewNullDecimal(d)
}

// Sum adds the valid values and treats nulls as zero.
func Sum(values ...decimal.NullDecimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		if v.Valid {
			total = total.Add(v.Decimal)
		}
	}
	return total
}

// OrZero unwraps a null decimal, substituting zero for null.
func OrZero(v decimal.NullDecimal) decimal.Decimal {
	if !v.Valid {
		return decimal.Zero
	}
	return v.Decimal
}

// FormatHUF renders an amount with the forint grapheme, rounded to the currency's
// minor unit (e.g. "12.346 Ft").
func FormatHUF(amount decimal.Decimal) string {
	currency := gomoney.GetCurrency(HUF)
	multiplier := decimal.New(1, int32(currency.Fraction))
	minor := amount.Mul(multiplier).Round(0).IntPart()

	return gomoney.New(minor, HUF).Display()
}

package extractor

import (
	"regexp"
	"strings"
)

const (
	chargesHeaderPrefix = "Megnevezés"
	tariffPackageMarker = "Tarifacsomag:"
	chargeTrailingCols  = 4
)

var phoneNumberPattern = regexp.MustCompile(`Telefonszám:\s*(36\d{9})`)

// ResolvePhoneNumber finds the subscriber number a charge block belongs to.
// The scan stops at the first tariff-package line: a new package starts a new
// scope and must not borrow a number printed further down.
func ResolvePhoneNumber(lines []string) string {
	for _, line := range lines {
		if strings.Contains(line, tariffPackageMarker) {
			break
		}
		if m := phoneNumberPattern.FindStringSubmatch(line); m != nil {
			return m[1]
		}
	}
	return NoPhoneNumber
}

// ParseServiceCharges extracts itemized charges from one closed service-charge block.
//
// Only lines strictly between the "Megnevezés" header and the total line are read.
// Each needs a TESZOR code and four trailing columns which, right to left, are the
// total, the VAT amount, the VAT rate and the net amount.
func ParseServiceCharges(lines []string) ([]ServiceChargeRow, LineStats) {
	var stats LineStats

	phone := ResolvePhoneNumber(lines)

	header := indexOfPrefix(lines, chargesHeaderPrefix)
	total := indexOfPrefix(lines, chargesTotalPhrase)
	if header == -1 || total == -1 || total <= header {
		stats.Unrecognized = true
		return nil, stats
	}

	var rows []ServiceChargeRow
	for _, line := range lines[header+1 : total] {
		teszor := FindTeszorCode(line)
		if teszor == "" {
			continue
		}

		parts := rsplit(line, " ", chargeTrailingCols)
		if len(parts) < chargeTrailingCols+1 {
			stats.Dropped++
			continue
		}

		leading := parts[0]
		netAmount, vatRate, vatAmount, totalAmount := parts[1], parts[2], parts[3], parts[4]

		description := strings.TrimSpace(leading)
		if before, _, found := strings.Cut(leading, teszor); found {
			description = strings.TrimSpace(before)
		}

		row, err := newServiceChargeRow([]string{
			phone, description, teszor, netAmount, vatRate, vatAmount, totalAmount,
		})
		if err != nil {
			stats.Dropped++
			continue
		}
		rows = append(rows, row)
		stats.Accepted++
	}

	return rows, stats
}

func indexOfPrefix(lines []string, prefix string) int {
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), prefix) {
			return i
		}
	}
	return -1
}

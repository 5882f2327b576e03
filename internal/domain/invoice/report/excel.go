package report

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	SheetSummary = "InvoiceSummary"
	SheetCharges = "ServiceCharges"
	SheetPivot   = "Kimutatás"

	// ContentType is the MIME type of the exported workbook
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	// FileName is the download name of the exported workbook
	FileName = "invoice_data.xlsx"
)

var (
	summaryHeader = []any{
		"Megnevezés", "Mennyiség", "Mennyiségi egység", "Egységár (Ft)", "TESZOR szám",
		"ÁFA kulcs", "Nettó összeg (Ft)", "ÁFA összeg (Ft)", "Bruttó összeg (Ft)",
	}
	chargesHeader = []any{
		"PhoneNumber", "Description", "TESZOR", "NetAmount", "VATRate", "VATAmount",
		"TotalAmount", "Employee", "LedgerTitle", "Title", "VatCode", "LedgerAccount",
	}
	pivotHeader = []any{
		"PhoneNumber", "Employee", "VATRate", "Title", "VatCode", "LedgerAccount",
		"NetAmount", "VATAmount",
	}
)

// WriteXLSX writes the report as a workbook with the summary, charge and pivot
// sheets, in that order. All three sheets are written even when empty.
func WriteXLSX(w io.Writer, r *Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetSummary); err != nil {
		return fmt.Errorf("failed to name summary sheet: %w", err)
	}
	for _, name := range []string{SheetCharges, SheetPivot} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	sw := sheetWriter{f: f, headerStyle: headerStyle}

	summary := make([][]any, 0, len(r.Summary))
	for _, l := range r.Summary {
		summary = append(summary, []any{
			l.Description, l.Quantity, l.Unit, cellDecimal(l.UnitPrice), l.TeszorCode,
			l.VatRate, cellDecimal(l.NetAmount), cellDecimal(l.VatAmount), cellDecimal(l.GrossAmount),
		})
	}
	sw.write(SheetSummary, summaryHeader, summary)

	charges := make([][]any, 0, len(r.Charges))
	for _, c := range r.Charges {
		charges = append(charges, []any{
			c.PhoneNumber, c.Description, c.TeszorCode, cellDecimal(c.NetAmount), c.VatRate,
			cellDecimal(c.VatAmount), cellDecimal(c.TotalAmount), c.Owner, c.Category,
			c.LedgerTitle, c.VatCode, c.LedgerAccount,
		})
	}
	sw.write(SheetCharges, chargesHeader, charges)

	pivot := make([][]any, 0, len(r.Pivot))
	for _, e := range r.Pivot {
		pivot = append(pivot, []any{
			e.Key.PhoneNumber, e.Key.Owner, e.Key.VatRate, e.Key.LedgerTitle, e.Key.VatCode,
			e.Key.LedgerAccount, e.NetAmount.InexactFloat64(), e.VatAmount.InexactFloat64(),
		})
	}
	sw.write(SheetPivot, pivotHeader, pivot)

	if sw.err != nil {
		return sw.err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// sheetWriter keeps the first error so the sheets can be written back to back.
type sheetWriter struct {
	f           *excelize.File
	headerStyle int
	err         error
}

func (s *sheetWriter) write(sheet string, header []any, rows [][]any) {
	if s.err != nil {
		return
	}

	if err := s.f.SetSheetRow(sheet, "A1", &header); err != nil {
		s.err = fmt.Errorf("failed to write %s header: %w", sheet, err)
		return
	}

	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := s.f.SetCellStyle(sheet, "A1", last, s.headerStyle); err != nil {
		s.err = fmt.Errorf("failed to style %s header: %w", sheet, err)
		return
	}

	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := s.f.SetSheetRow(sheet, cell, &row); err != nil {
			s.err = fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
			return
		}
	}
}

// cellDecimal leaves the cell empty when the amount could not be parsed.
func cellDecimal(d decimal.NullDecimal) any {
	if !d.Valid {
		return nil
	}
	return d.Decimal.InexactFloat64()
}

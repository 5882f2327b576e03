package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/invoice-ledger/internal/domain/invoice/extractor"
	"github.com/FACorreiaa/invoice-ledger/internal/domain/invoice/history"
	"github.com/FACorreiaa/invoice-ledger/internal/domain/invoice/pdftext"
	"github.com/FACorreiaa/invoice-ledger/internal/domain/invoice/reference"
	"github.com/FACorreiaa/invoice-ledger/internal/domain/invoice/report"
	"github.com/FACorreiaa/invoice-ledger/pkg/mail"
	"github.com/FACorreiaa/invoice-ledger/pkg/metrics"
	"github.com/FACorreiaa/invoice-ledger/pkg/storage"
)

const invoiceSummaryPage = `SZÁMLA
Számlaösszesítő
Megnevezés Mennyiség Egység Egységár TESZOR ÁFA Nettó összeg ÁFA összeg Bruttó összeg
Mobil szolgáltatás havidíj 1 db 10.000,00 61.20.1 27% 10.000,00 2.700,00 12.700,00
Egyenlegközlő információ`

const chargesPage = `KISZÁMLÁZOTT DÍJAK
Telefonszám: 36301234567
Tarifacsomag: Business
Megnevezés TESZOR Nettó ÁFA% ÁFA Bruttó
Havi előfizetési díj 61.20.1 5.000,00 27% 1.350,00 6.350,00
Adatforgalom 61.20.11 1.000,00 27% 270,00 1.270,00
Kiszámlázott díjak összesen 6.000,00 1.620,00 7.620,00`

type fakeRefs struct {
	phoneBook []reference.PhoneBookEntry
	mappings  []reference.TeszorMapping
	err       error
}

func (f *fakeRefs) PhoneBook(context.Context) ([]reference.PhoneBookEntry, error) {
	return f.phoneBook, f.err
}

func (f *fakeRefs) TeszorMappings(context.Context) ([]reference.TeszorMapping, error) {
	return f.mappings, f.err
}

type fakeRecorder struct {
	runs []history.Run
}

func (f *fakeRecorder) Record(_ context.Context, run history.Run) error {
	f.runs = append(f.runs, run)
	return nil
}

type fakeMailer struct {
	sent []mail.Message
}

func (f *fakeMailer) Enabled() bool { return true }

func (f *fakeMailer) Send(_ context.Context, msg mail.Message) (string, error) {
	f.sent = append(f.sent, msg)
	return "id", nil
}

type failingSource struct{}

func (failingSource) Pages([]byte) ([]pdftext.Page, error) {
	return nil, pdftext.ErrUnreadablePDF
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRefs() *fakeRefs {
	return &fakeRefs{
		phoneBook: []reference.PhoneBookEntry{{PhoneNumber: "36301234567", Owner: "Kiss Péter"}},
		mappings: []reference.TeszorMapping{{
			TeszorCode:          "61.20.1",
			VatRate:             "27%",
			LedgerTitle:         "Telefonköltség",
			VatCode:             "A27",
			LedgerAccountNumber: "52210",
		}},
	}
}

func newTestService(pages ...string) *InvoiceService {
	return NewInvoiceService(pdftext.StaticSource(pdftext.PagesFromText(pages...)), testRefs(), testLogger())
}

func TestInvoiceService_Extract(t *testing.T) {
	svc := newTestService(invoiceSummaryPage, chargesPage)

	ext, err := svc.Extract(context.Background(), []byte("%PDF-"))
	require.NoError(t, err)

	assert.Len(t, ext.Result.InvoiceSummary, 1)
	require.Len(t, ext.Report.Charges, 2)
	assert.Equal(t, "Kiss Péter", ext.Report.Charges[0].Owner)
	assert.Equal(t, "52210", ext.Report.Charges[0].LedgerAccount)
	assert.Equal(t, reference.Unknown, ext.Report.Charges[1].LedgerAccount)
	assert.Equal(t, reference.Misses{Ledger: 1}, ext.Misses)

	require.Len(t, ext.Report.Pivot, 2)
	net, vat := ext.Report.Totals()
	assert.True(t, decimal.NewFromInt(6000).Equal(net))
	assert.True(t, decimal.NewFromInt(1620).Equal(vat))
}

func TestInvoiceService_ExtractErrors(t *testing.T) {
	t.Run("no invoice data", func(t *testing.T) {
		m := metrics.NewNop()
		svc := newTestService("Általános szerződési feltételek").WithMetrics(m)

		_, err := svc.Extract(context.Background(), nil)
		assert.ErrorIs(t, err, extractor.ErrNoInvoiceData)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.DocumentsProcessed.WithLabelValues(metrics.OutcomeEmpty)))
	})

	t.Run("unreadable", func(t *testing.T) {
		svc := NewInvoiceService(failingSource{}, testRefs(), testLogger())

		_, err := svc.Extract(context.Background(), []byte("garbage"))
		assert.ErrorIs(t, err, pdftext.ErrUnreadablePDF)
	})

	t.Run("reference failure", func(t *testing.T) {
		dbErr := errors.New("connection refused")
		svc := NewInvoiceService(
			pdftext.StaticSource(pdftext.PagesFromText(chargesPage)),
			&fakeRefs{err: dbErr},
			testLogger(),
		)

		_, err := svc.Extract(context.Background(), nil)
		assert.ErrorIs(t, err, dbErr)
	})
}

func TestInvoiceService_ExportXLSX(t *testing.T) {
	svc := newTestService(chargesPage)
	ext, err := svc.Extract(context.Background(), nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportXLSX(context.Background(), &buf, ext))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{report.SheetSummary, report.SheetCharges, report.SheetPivot}, f.GetSheetList())
}

func TestInvoiceService_ProcessUpload(t *testing.T) {
	archive, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	recorder := &fakeRecorder{}
	mailer := &fakeMailer{}

	svc := newTestService(invoiceSummaryPage, chargesPage).
		WithArchive(archive).
		WithRunRecorder(recorder).
		WithMailer(mailer)

	result, err := svc.ProcessUpload(context.Background(), Upload{
		FileName: "szamla.pdf",
		Data:     []byte("%PDF-1.7"),
		Email:    "konyveles@example.com",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Workbook)

	files, err := archive.List(context.Background(), result.Extraction.RunID)
	require.NoError(t, err)
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Name)
	}
	assert.ElementsMatch(t, []string{"szamla.pdf", report.FileName}, names)

	require.Len(t, recorder.runs, 1)
	assert.Equal(t, history.StatusSucceeded, recorder.runs[0].Status)
	assert.Equal(t, 2, recorder.runs[0].ChargeRows)
	assert.Equal(t, result.Extraction.RunID, recorder.runs[0].ID)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, []string{"konyveles@example.com"}, mailer.sent[0].To)
	require.Len(t, mailer.sent[0].Attachments, 2)
	assert.Equal(t, result.Workbook, mailer.sent[0].Attachments[1].Content)
}

func TestInvoiceService_ProcessUploadRecordsEmptyRun(t *testing.T) {
	recorder := &fakeRecorder{}
	mailer := &fakeMailer{}
	svc := newTestService("Tájékoztató").WithRunRecorder(recorder).WithMailer(mailer)

	_, err := svc.ProcessUpload(context.Background(), Upload{FileName: "ures.pdf", Email: "a@example.com"})
	assert.ErrorIs(t, err, extractor.ErrNoInvoiceData)

	require.Len(t, recorder.runs, 1)
	assert.Equal(t, history.StatusEmpty, recorder.runs[0].Status)
	require.NotNil(t, recorder.runs[0].ErrorMessage)
	assert.Empty(t, mailer.sent)
}

func TestInvoiceService_ProcessUploadWithoutEmail(t *testing.T) {
	mailer := &fakeMailer{}
	svc := newTestService(chargesPage).WithMailer(mailer)

	_, err := svc.ProcessUpload(context.Background(), Upload{FileName: "szamla.pdf"})
	require.NoError(t, err)
	assert.Empty(t, mailer.sent)
}

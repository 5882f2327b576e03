// Package service runs the invoice pipeline: page text, extraction, enrichment and export.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/invoice-ledger/internal/domain/invoice/extractor"
	"github.com/FACorreiaa/invoice-ledger/internal/domain/invoice/history"
	"github.com/FACorreiaa/invoice-ledger/internal/domain/invoice/pdftext"
	"github.com/FACorreiaa/invoice-ledger/internal/domain/invoice/reference"
	"github.com/FACorreiaa/invoice-ledger/internal/domain/invoice/report"
	"github.com/FACorreiaa/invoice-ledger/pkg/mail"
	"github.com/FACorreiaa/invoice-ledger/pkg/metrics"
	"github.com/FACorreiaa/invoice-ledger/pkg/money"
	"github.com/FACorreiaa/invoice-ledger/pkg/storage"
)

const tracerName = "github.com/FACorreiaa/invoice-ledger/internal/domain/invoice/service"

const (
	mailSubject = "Riport készítés"
	mailText    = "Csatolva a számla és a kinyert adatok."
)

// RunRecorder stores the outcome of a run
type RunRecorder interface {
	Record(ctx context.Context, run history.Run) error
}

// Mailer delivers report e-mails
type Mailer interface {
	Enabled() bool
	Send(ctx context.Context, msg mail.Message) (string, error)
}

// Extraction is the result of running the pipeline over one document
type Extraction struct {
	RunID  uuid.UUID
	Result *extractor.Result
	Report *report.Report
	Misses reference.Misses
}

// Upload is a document received from a client
type Upload struct {
	FileName string
	Data     []byte
	// Email, when set, receives the workbook and the uploaded PDF
	Email string
}

// UploadResult is a processed upload
type UploadResult struct {
	Extraction *Extraction
	Workbook   []byte
}

// InvoiceService drives the extraction pipeline
type InvoiceService struct {
	pages   pdftext.Source
	refs    reference.Source
	archive storage.Archive
	runs    RunRecorder
	mailer  Mailer
	metrics *metrics.Metrics
	tracer  trace.Tracer
	logger  *slog.Logger
}

// NewInvoiceService creates a new invoice service
func NewInvoiceService(pages pdftext.Source, refs reference.Source, logger *slog.Logger) *InvoiceService {
	return &InvoiceService{
		pages:   pages,
		refs:    refs,
		metrics: metrics.NewNop(),
		tracer:  otel.Tracer(tracerName),
		logger:  logger,
	}
}

// WithArchive stores every upload and its workbook
func (s *InvoiceService) WithArchive(a storage.Archive) *InvoiceService {
	s.archive = a
	return s
}

// WithRunRecorder records the outcome of every upload
func (s *InvoiceService) WithRunRecorder(r RunRecorder) *InvoiceService {
	s.runs = r
	return s
}

// WithMailer sends workbooks to the address given with an upload
func (s *InvoiceService) WithMailer(m Mailer) *InvoiceService {
	s.mailer = m
	return s
}

// WithMetrics replaces the unregistered default collectors
func (s *InvoiceService) WithMetrics(m *metrics.Metrics) *InvoiceService {
	s.metrics = m
	return s
}

// Extract runs page extraction, parsing and enrichment over a PDF.
// It returns extractor.ErrNoInvoiceData when the document holds no invoice rows
// and wraps pdftext.ErrUnreadablePDF when the bytes cannot be read.
func (s *InvoiceService) Extract(ctx context.Context, data []byte) (*Extraction, error) {
	ctx, span := s.tracer.Start(ctx, "InvoiceService.Extract")
	defer span.End()

	runID := uuid.New()
	span.SetAttributes(attribute.String("run.id", runID.String()), attribute.Int("pdf.bytes", len(data)))

	pages, err := s.pages.Pages(data)
	if err != nil {
		s.countDocument(err)
		return nil, s.fail(span, fmt.Errorf("failed to read pages: %w", err))
	}
	span.SetAttributes(attribute.Int("pdf.pages", len(pages)))

	result, err := extractor.Extract(pages)
	if result != nil {
		s.logStats(ctx, runID, result.Stats)
	}
	if err != nil {
		s.countDocument(err)
		return nil, s.fail(span, err)
	}

	mapper, err := s.loadMapper(ctx)
	if err != nil {
		s.countDocument(err)
		return nil, s.fail(span, err)
	}

	enriched := mapper.Enrich(result.ServiceCharges)
	misses := mapper.Misses()
	rep := report.Build(reference.NormalizeSummary(result.InvoiceSummary), enriched)

	s.metrics.RowsExtracted.WithLabelValues("summary").Add(float64(len(result.InvoiceSummary)))
	s.metrics.RowsExtracted.WithLabelValues("charge").Add(float64(len(result.ServiceCharges)))
	s.metrics.DroppedLines.Add(float64(result.Stats.DroppedLines))
	s.metrics.ReferenceMisses.WithLabelValues("owner").Add(float64(misses.Owner))
	s.metrics.ReferenceMisses.WithLabelValues("ledger").Add(float64(misses.Ledger))
	s.countDocument(nil)

	net, vat := rep.Totals()
	s.logger.InfoContext(ctx, "invoice extracted",
		slog.String("run_id", runID.String()),
		slog.Int("summary_rows", len(result.InvoiceSummary)),
		slog.Int("charge_rows", len(result.ServiceCharges)),
		slog.Int("pivot_rows", len(rep.Pivot)),
		slog.Int("owner_misses", misses.Owner),
		slog.Int("ledger_misses", misses.Ledger),
		slog.String("net_total", money.FormatHUF(net)),
		slog.String("vat_total", money.FormatHUF(vat)),
	)

	return &Extraction{
		RunID:  runID,
		Result: result,
		Report: rep,
		Misses: misses,
	}, nil
}

// ExportXLSX writes the workbook of an extraction
func (s *InvoiceService) ExportXLSX(ctx context.Context, w io.Writer, ext *Extraction) error {
	_, span := s.tracer.Start(ctx, "InvoiceService.ExportXLSX")
	defer span.End()

	if err := report.WriteXLSX(w, ext.Report); err != nil {
		return s.fail(span, fmt.Errorf("failed to export workbook: %w", err))
	}
	return nil
}

// ProcessUpload extracts an uploaded document, exports its workbook, archives both,
// records the run and mails the workbook when an address was given.
// Archive, history and mail failures are logged and do not fail the upload.
func (s *InvoiceService) ProcessUpload(ctx context.Context, up Upload) (*UploadResult, error) {
	start := time.Now()
	defer func() {
		s.metrics.ExtractionDuration.Observe(time.Since(start).Seconds())
	}()

	ext, err := s.Extract(ctx, up.Data)
	if err != nil {
		s.recordFailure(ctx, up.FileName, err)
		return nil, err
	}

	var buf bytes.Buffer
	if err := s.ExportXLSX(ctx, &buf, ext); err != nil {
		s.recordFailure(ctx, up.FileName, err)
		return nil, err
	}
	workbook := buf.Bytes()

	s.archiveUpload(ctx, ext.RunID, up, workbook)
	s.recordRun(ctx, history.Run{
		ID:           ext.RunID,
		FileName:     up.FileName,
		Status:       history.StatusSucceeded,
		SummaryRows:  len(ext.Result.InvoiceSummary),
		ChargeRows:   len(ext.Result.ServiceCharges),
		DroppedLines: ext.Result.Stats.DroppedLines,
		OwnerMisses:  ext.Misses.Owner,
		LedgerMisses: ext.Misses.Ledger,
	})
	if up.Email != "" {
		s.mailReport(ctx, up, workbook)
	}

	return &UploadResult{Extraction: ext, Workbook: workbook}, nil
}

func (s *InvoiceService) loadMapper(ctx context.Context) (*reference.Mapper, error) {
	ctx, span := s.tracer.Start(ctx, "InvoiceService.loadReferences")
	defer span.End()

	phoneBook, err := s.refs.PhoneBook(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load phone book: %w", err)
	}
	mappings, err := s.refs.TeszorMappings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load teszor mappings: %w", err)
	}

	span.SetAttributes(
		attribute.Int("reference.phone_book", len(phoneBook)),
		attribute.Int("reference.mappings", len(mappings)),
	)
	return reference.NewMapper(phoneBook, mappings), nil
}

func (s *InvoiceService) logStats(ctx context.Context, runID uuid.UUID, stats extractor.Stats) {
	if stats.DanglingLines > 0 {
		s.logger.DebugContext(ctx, "service charge table never closed",
			slog.String("run_id", runID.String()),
			slog.Int("lines", stats.DanglingLines),
		)
	}
	if stats.SkippedSummaryPages > 0 || stats.SkippedBlocks > 0 || stats.DroppedLines > 0 {
		s.logger.WarnContext(ctx, "invoice layout partially unrecognized",
			slog.String("run_id", runID.String()),
			slog.Int("skipped_summary_pages", stats.SkippedSummaryPages),
			slog.Int("skipped_blocks", stats.SkippedBlocks),
			slog.Int("dropped_lines", stats.DroppedLines),
		)
	}
}

func (s *InvoiceService) countDocument(err error) {
	outcome := metrics.OutcomeSuccess
	switch {
	case err == nil:
	case errors.Is(err, extractor.ErrNoInvoiceData):
		outcome = metrics.OutcomeEmpty
	case errors.Is(err, pdftext.ErrUnreadablePDF):
		outcome = metrics.OutcomeUnreadable
	default:
		outcome = metrics.OutcomeError
	}
	s.metrics.DocumentsProcessed.WithLabelValues(outcome).Inc()
}

func (s *InvoiceService) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func (s *InvoiceService) archiveUpload(ctx context.Context, runID uuid.UUID, up Upload, workbook []byte) {
	if s.archive == nil {
		return
	}

	files := []struct {
		name, contentType string
		data              []byte
	}{
		{up.FileName, "application/pdf", up.Data},
		{report.FileName, report.ContentType, workbook},
	}
	for _, f := range files {
		if _, err := s.archive.Put(ctx, runID, f.name, f.contentType, bytes.NewReader(f.data)); err != nil {
			s.logger.ErrorContext(ctx, "failed to archive file",
				slog.String("run_id", runID.String()),
				slog.String("file", f.name),
				slog.Any("error", err),
			)
		}
	}
}

func (s *InvoiceService) recordFailure(ctx context.Context, fileName string, err error) {
	status := history.StatusFailed
	if errors.Is(err, extractor.ErrNoInvoiceData) {
		status = history.StatusEmpty
	}
	msg := err.Error()
	s.recordRun(ctx, history.Run{
		ID:           uuid.New(),
		FileName:     fileName,
		Status:       status,
		ErrorMessage: &msg,
	})
}

func (s *InvoiceService) recordRun(ctx context.Context, run history.Run) {
	if s.runs == nil {
		return
	}
	if err := s.runs.Record(ctx, run); err != nil {
		s.logger.ErrorContext(ctx, "failed to record run",
			slog.String("run_id", run.ID.String()),
			slog.Any("error", err),
		)
	}
}

func (s *InvoiceService) mailReport(ctx context.Context, up Upload, workbook []byte) {
	if s.mailer == nil || !s.mailer.Enabled() {
		s.logger.WarnContext(ctx, "mailer not configured, skipping report email")
		return
	}

	_, err := s.mailer.Send(ctx, mail.Message{
		To:      []string{up.Email},
		Subject: mailSubject,
		Text:    mailText,
		Attachments: []mail.Attachment{
			{Filename: up.FileName, ContentType: "application/pdf", Content: up.Data},
			{Filename: report.FileName, ContentType: report.ContentType, Content: workbook},
		},
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to send report email",
			slog.String("email", up.Email),
			slog.Any("error", err),
		)
	}
}

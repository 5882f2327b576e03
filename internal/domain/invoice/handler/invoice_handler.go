package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/FACorreiaa/invoice-ledger/internal/domain/invoice/extractor"
	"github.com/FACorreiaa/invoice-ledger/internal/domain/invoice/history"
	"github.com/FACorreiaa/invoice-ledger/internal/domain/invoice/reference"
	"github.com/FACorreiaa/invoice-ledger/internal/domain/invoice/report"
	"github.com/FACorreiaa/invoice-ledger/internal/domain/invoice/service"
	"github.com/FACorreiaa/invoice-ledger/pkg/interceptors"
)

const (
	pdfContentType = "application/pdf"

	detailNotPDF     = "A feltöltött fájl nem PDF."
	detailNoData     = "No relevant invoice data found in the PDF."
	detailProcessing = "Error processing PDF: "
)

// UploadProcessor runs an uploaded invoice through the pipeline
type UploadProcessor interface {
	ProcessUpload(ctx context.Context, up service.Upload) (*service.UploadResult, error)
}

// SupportLoader lists the reference data used for enrichment
type SupportLoader interface {
	ExtractionSupport(ctx context.Context) (*reference.ExtractionSupport, error)
}

// RunLister lists recent extraction runs
type RunLister interface {
	Recent(ctx context.Context, limit int) ([]history.Run, error)
}

// InvoiceHandler serves the invoice upload and reference endpoints
type InvoiceHandler struct {
	processor UploadProcessor
	support   SupportLoader
	runs      RunLister
	maxUpload int64
	logger    *slog.Logger
}

// NewInvoiceHandler creates a new invoice handler. maxUploadBytes caps the request body.
func NewInvoiceHandler(processor UploadProcessor, support SupportLoader, runs RunLister, maxUploadBytes int64, logger *slog.Logger) *InvoiceHandler {
	return &InvoiceHandler{
		processor: processor,
		support:   support,
		runs:      runs,
		maxUpload: maxUploadBytes,
		logger:    logger,
	}
}

// Register mounts the handler's routes on mux, each wrapped in mw
func (h *InvoiceHandler) Register(mux *http.ServeMux, mw ...func(http.Handler) http.Handler) {
	mux.Handle("POST /api/v1/upload/vodafone", interceptors.Chain(http.HandlerFunc(h.Upload), mw...))
	mux.Handle("GET /api/v1/vodafone/extraction-support", interceptors.Chain(http.HandlerFunc(h.ExtractionSupport), mw...))
	if h.runs != nil {
		mux.Handle("GET /api/v1/vodafone/runs", interceptors.Chain(http.HandlerFunc(h.Runs), mw...))
	}
}

// Upload extracts a Vodafone invoice and responds with its workbook
func (h *InvoiceHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			interceptors.WriteDetail(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("File exceeds %d bytes.", tooLarge.Limit))
			return
		}
		interceptors.WriteDetail(w, http.StatusBadRequest, "Missing upload field: file.")
		return
	}
	defer file.Close()

	if header.Header.Get("Content-Type") != pdfContentType {
		interceptors.WriteDetail(w, http.StatusBadRequest, detailNotPDF)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to read upload", slog.Any("error", err))
		interceptors.WriteDetail(w, http.StatusInternalServerError, detailProcessing+err.Error())
		return
	}

	result, err := h.processor.ProcessUpload(ctx, service.Upload{
		FileName: header.Filename,
		Data:     data,
		Email:    r.FormValue("email"),
	})
	if err != nil {
		if errors.Is(err, extractor.ErrNoInvoiceData) {
			interceptors.WriteDetail(w, http.StatusBadRequest, detailNoData)
			return
		}
		h.logger.ErrorContext(ctx, "failed to process upload",
			slog.String("file", header.Filename),
			slog.Any("error", err),
		)
		interceptors.WriteDetail(w, http.StatusInternalServerError, detailProcessing+err.Error())
		return
	}

	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+report.FileName)
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Workbook)))
	w.Header().Set("X-Run-ID", result.Extraction.RunID.String())
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, bytes.NewReader(result.Workbook)); err != nil {
		h.logger.WarnContext(ctx, "failed to stream workbook", slog.Any("error", err))
	}
}

// ExtractionSupport returns the reference tables as JSON
func (h *InvoiceHandler) ExtractionSupport(w http.ResponseWriter, r *http.Request) {
	support, err := h.support.ExtractionSupport(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to load extraction support", slog.Any("error", err))
		interceptors.WriteDetail(w, http.StatusInternalServerError, "Error loading reference data")
		return
	}
	interceptors.WriteJSON(w, http.StatusOK, support)
}

// Runs returns the most recent extraction runs
func (h *InvoiceHandler) Runs(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			interceptors.WriteDetail(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	runs, err := h.runs.Recent(r.Context(), limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list runs", slog.Any("error", err))
		interceptors.WriteDetail(w, http.StatusInternalServerError, "Error loading runs")
		return
	}
	if runs == nil {
		runs = []history.Run{}
	}
	interceptors.WriteJSON(w, http.StatusOK, runs)
}

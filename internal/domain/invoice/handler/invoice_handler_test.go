package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/invoice-ledger/internal/domain/invoice/extractor"
	"github.com/FACorreiaa/invoice-ledger/internal/domain/invoice/history"
	"github.com/FACorreiaa/invoice-ledger/internal/domain/invoice/reference"
	"github.com/FACorreiaa/invoice-ledger/internal/domain/invoice/report"
	"github.com/FACorreiaa/invoice-ledger/internal/domain/invoice/service"
)

type fakeProcessor struct {
	got    service.Upload
	result *service.UploadResult
	err    error
}

func (f *fakeProcessor) ProcessUpload(_ context.Context, up service.Upload) (*service.UploadResult, error) {
	f.got = up
	return f.result, f.err
}

type fakeSupport struct {
	support *reference.ExtractionSupport
	err     error
}

func (f *fakeSupport) ExtractionSupport(context.Context) (*reference.ExtractionSupport, error) {
	return f.support, f.err
}

type fakeRuns struct {
	limit int
	runs  []history.Run
}

func (f *fakeRuns) Recent(_ context.Context, limit int) ([]history.Run, error) {
	f.limit = limit
	return f.runs, nil
}

func newTestMux(p UploadProcessor, s SupportLoader, runs RunLister) *http.ServeMux {
	h := NewInvoiceHandler(p, s, runs, 1<<20, slog.New(slog.NewTextHandler(io.Discard, nil)))
	mux := http.NewServeMux()
	h.Register(mux)
	return mux
}

func uploadRequest(t *testing.T, contentType, email string, data []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="szamla.pdf"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)

	if email != "" {
		require.NoError(t, mw.WriteField("email", email))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload/vodafone", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestInvoiceHandler_Upload(t *testing.T) {
	runID := uuid.New()
	workbook := []byte("PK\x03\x04workbook")

	tests := []struct {
		name        string
		contentType string
		processor   *fakeProcessor
		wantStatus  int
		wantDetail  string
	}{
		{
			name:        "success",
			contentType: "application/pdf",
			processor: &fakeProcessor{result: &service.UploadResult{
				Extraction: &service.Extraction{RunID: runID},
				Workbook:   workbook,
			}},
			wantStatus: http.StatusOK,
		},
		{
			name:        "not a pdf",
			contentType: "image/png",
			processor:   &fakeProcessor{},
			wantStatus:  http.StatusBadRequest,
			wantDetail:  "A feltöltött fájl nem PDF.",
		},
		{
			name:        "no invoice data",
			contentType: "application/pdf",
			processor:   &fakeProcessor{err: extractor.ErrNoInvoiceData},
			wantStatus:  http.StatusBadRequest,
			wantDetail:  "No relevant invoice data found in the PDF.",
		},
		{
			name:        "pipeline failure",
			contentType: "application/pdf",
			processor:   &fakeProcessor{err: errors.New("failed to load phone book: timeout")},
			wantStatus:  http.StatusInternalServerError,
			wantDetail:  "Error processing PDF: failed to load phone book: timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := newTestMux(tt.processor, &fakeSupport{}, nil)
			rec := httptest.NewRecorder()

			mux.ServeHTTP(rec, uploadRequest(t, tt.contentType, "konyveles@example.com", []byte("%PDF-1.7")))

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantDetail != "" {
				assert.JSONEq(t, fmt.Sprintf(`{"detail":%q}`, tt.wantDetail), rec.Body.String())
				return
			}

			assert.Equal(t, report.ContentType, rec.Header().Get("Content-Type"))
			assert.Equal(t, "attachment; filename=invoice_data.xlsx", rec.Header().Get("Content-Disposition"))
			assert.Equal(t, runID.String(), rec.Header().Get("X-Run-ID"))
			assert.Equal(t, workbook, rec.Body.Bytes())

			assert.Equal(t, "szamla.pdf", tt.processor.got.FileName)
			assert.Equal(t, "konyveles@example.com", tt.processor.got.Email)
			assert.Equal(t, []byte("%PDF-1.7"), tt.processor.got.Data)
		})
	}
}

func TestInvoiceHandler_UploadMissingFile(t *testing.T) {
	mux := newTestMux(&fakeProcessor{}, &fakeSupport{}, nil)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("email", "a@example.com"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload/vodafone", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInvoiceHandler_ExtractionSupport(t *testing.T) {
	support := &reference.ExtractionSupport{
		PhoneBook: []reference.PhoneBookEntry{{ID: 1, PhoneNumber: "36301234567", Owner: "Kiss Péter"}},
	}

	t.Run("ok", func(t *testing.T) {
		mux := newTestMux(&fakeProcessor{}, &fakeSupport{support: support}, nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/vodafone/extraction-support", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var got reference.ExtractionSupport
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, support.PhoneBook, got.PhoneBook)
	})

	t.Run("database error", func(t *testing.T) {
		mux := newTestMux(&fakeProcessor{}, &fakeSupport{err: errors.New("down")}, nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/vodafone/extraction-support", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestInvoiceHandler_Runs(t *testing.T) {
	runs := &fakeRuns{runs: []history.Run{{ID: uuid.New(), FileName: "szamla.pdf", Status: history.StatusSucceeded}}}
	mux := newTestMux(&fakeProcessor{}, &fakeSupport{}, runs)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/vodafone/runs?limit=10", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10, runs.limit)

	var got []history.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, history.StatusSucceeded, got[0].Status)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/vodafone/runs?limit=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

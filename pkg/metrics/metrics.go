// Package metrics defines the Prometheus collectors of the service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "invoice_ledger"

// Outcomes of a processed document
const (
	OutcomeSuccess    = "success"
	OutcomeEmpty      = "empty"
	OutcomeUnreadable = "unreadable"
	OutcomeError      = "error"
)

// Metrics holds all collectors
type Metrics struct {
	DocumentsProcessed *prometheus.CounterVec
	RowsExtracted      *prometheus.CounterVec
	DroppedLines       prometheus.Counter
	ReferenceMisses    *prometheus.CounterVec
	ExtractionDuration prometheus.Histogram
	HTTPDuration       *prometheus.HistogramVec
}

// New registers the collectors with reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		DocumentsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_processed_total",
			Help:      "Invoice documents processed, by outcome.",
		}, []string{"outcome"}),
		RowsExtracted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_extracted_total",
			Help:      "Rows extracted, by kind (summary or charge).",
		}, []string{"kind"}),
		DroppedLines: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_lines_total",
			Help:      "Lines inside a recognized table that did not split into the expected columns.",
		}),
		ReferenceMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reference_misses_total",
			Help:      "Charges enriched with a sentinel value, by lookup (owner or ledger).",
		}, []string{"lookup"}),
		ExtractionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "extraction_duration_seconds",
			Help:      "Time from PDF bytes to finished workbook.",
			Buckets:   prometheus.DefBuckets,
		}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// NewNop returns collectors registered nowhere, for tests and the CLI.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}

// Handler exposes the collectors gathered by g
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

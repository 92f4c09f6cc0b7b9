package report

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dray-ops/ratecon-tracker/internal/ingest"
)

// Metrics exposes ingest and reconciliation counters on a private
// registry.
type Metrics struct {
	reg               *prometheus.Registry
	RecordsIngested   prometheus.Counter
	FilesSkipped      *prometheus.CounterVec
	MismatchedRecords prometheus.Gauge
	TotalRecords      prometheus.Gauge
}

func NewMetrics() *Metrics {
	r := prometheus.NewRegistry()
	ingested := prometheus.NewCounter(prometheus.CounterOpts{Name: "ratecon_records_ingested_total"})
	skipped := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ratecon_files_skipped_total"}, []string{"reason"})
	mismatched := prometheus.NewGauge(prometheus.GaugeOpts{Name: "ratecon_mismatched_records"})
	total := prometheus.NewGauge(prometheus.GaugeOpts{Name: "ratecon_records"})

	r.MustRegister(ingested, skipped, mismatched, total)
	return &Metrics{
		reg:               r,
		RecordsIngested:   ingested,
		FilesSkipped:      skipped,
		MismatchedRecords: mismatched,
		TotalRecords:      total,
	}
}

// ObserveBatch records one ingest batch outcome.
func (m *Metrics) ObserveBatch(res ingest.Result) {
	m.RecordsIngested.Add(float64(len(res.Accepted)))
	for _, s := range res.Skipped {
		m.FilesSkipped.WithLabelValues(skipLabel(s.Reason)).Inc()
	}
}

// ObserveSummary refreshes the record-set gauges after a read or write.
func (m *Metrics) ObserveSummary(s Summary) {
	m.TotalRecords.Set(float64(s.TotalLoads))
	m.MismatchedRecords.Set(float64(s.MismatchCount))
}

// skipLabel collapses per-reference skip reasons into stable label
// values.
func skipLabel(reason string) string {
	switch reason {
	case ingest.ReasonDuplicateFilename:
		return "duplicate_filename"
	case ingest.ReasonUnsupportedFormat:
		return "unsupported_format"
	default:
		return "duplicate_reference"
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

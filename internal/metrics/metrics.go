// Package metrics exposes Prometheus metrics for imports, exports and the
// payload archive. A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Import outcomes.
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
)

// Metrics provides observability for the import service.
type Metrics struct {
	RecordsImported *prometheus.CounterVec
	ImportFailures  *prometheus.CounterVec
	ImportDuration  *prometheus.HistogramVec
	Exports         *prometheus.CounterVec
	ArchivePurged   prometheus.Counter
	ImportsActive   prometheus.Gauge
}

// New creates a Metrics instance registered with reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RecordsImported: f.NewCounterVec(prometheus.CounterOpts{
			Name: "softjail_records_imported_total",
			Help: "Top-level import records by kind and outcome",
		}, []string{"kind", "outcome"}),
		ImportFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "softjail_import_failures_total",
			Help: "Imports that failed as a whole (malformed payload, commit failure)",
		}, []string{"kind"}),
		ImportDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "softjail_import_duration_seconds",
			Help:    "Duration of import runs",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"kind"}),
		Exports: f.NewCounterVec(prometheus.CounterOpts{
			Name: "softjail_exports_total",
			Help: "Exports served by format",
		}, []string{"format"}),
		ArchivePurged: f.NewCounter(prometheus.CounterOpts{
			Name: "softjail_archive_purged_total",
			Help: "Archived import objects removed by retention",
		}),
		ImportsActive: f.NewGauge(prometheus.GaugeOpts{
			Name: "softjail_imports_active",
			Help: "Imports currently holding a limiter slot",
		}),
	}
}

// ObserveImport records the outcome of a completed import.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveImport(kind string, accepted, rejected int, start time.Time) {
	if m == nil {
		return
	}
	m.RecordsImported.WithLabelValues(kind, OutcomeAccepted).Add(float64(accepted))
	m.RecordsImported.WithLabelValues(kind, OutcomeRejected).Add(float64(rejected))
	m.ImportDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

// IncImportFailure records an import that produced no report.
func (m *Metrics) IncImportFailure(kind string) {
	if m == nil {
		return
	}
	m.ImportFailures.WithLabelValues(kind).Inc()
}

// IncExport records one served export.
func (m *Metrics) IncExport(format string) {
	if m == nil {
		return
	}
	m.Exports.WithLabelValues(format).Inc()
}

// AddPurged records archive objects removed by retention.
func (m *Metrics) AddPurged(n int) {
	if m == nil {
		return
	}
	m.ArchivePurged.Add(float64(n))
}

// SetActiveImports records the number of running imports.
func (m *Metrics) SetActiveImports(n int) {
	if m == nil {
		return
	}
	m.ImportsActive.Set(float64(n))
}

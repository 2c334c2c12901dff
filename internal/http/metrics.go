// Package http provides the HTTP API, status and metrics endpoints.
package http

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ustunfatih/oktan/internal/importer"
	"github.com/ustunfatih/oktan/internal/models"
	"github.com/ustunfatih/oktan/internal/report"
)

// Metrics holds all Prometheus metrics of the service.
type Metrics struct {
	// HTTP request metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Import metrics
	ImportRunsTotal    *prometheus.CounterVec
	ImportDuration     *prometheus.HistogramVec
	ImportRecordsTotal *prometheus.CounterVec

	// Snapshot metrics
	LastSnapshotTimestamp prometheus.Gauge
	RecordsStored         prometheus.Gauge
	AverageEfficiency     *prometheus.GaugeVec
	AverageCostPerKm      *prometheus.GaugeVec
	DriveModeEfficiency   *prometheus.GaugeVec

	// Database metrics
	DBOperationsTotal *prometheus.CounterVec
}

// NewMetrics creates the metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oktan_http_requests_total",
				Help: "Total number of HTTP requests by route and status code",
			},
			[]string{"route", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "oktan_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		ImportRunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oktan_import_runs_total",
				Help: "Total number of import runs by source and status",
			},
			[]string{"source", "status"},
		),
		ImportDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "oktan_import_duration_seconds",
				Help:    "Import run duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		),
		ImportRecordsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oktan_import_records_total",
				Help: "Total number of imported rows by source and outcome",
			},
			[]string{"source", "outcome"},
		),
		LastSnapshotTimestamp: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "oktan_last_snapshot_timestamp",
				Help: "Timestamp of the last report snapshot",
			},
		),
		RecordsStored: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "oktan_records_stored",
				Help: "Number of fill-ups in the store at the last snapshot",
			},
		),
		AverageEfficiency: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "oktan_average_efficiency_liters_per_100km",
				Help: "Average fuel consumption over the whole history or the recent window",
			},
			[]string{"window"},
		),
		AverageCostPerKm: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "oktan_average_cost_per_km",
				Help: "Average cost per km over the whole history or the recent window",
			},
			[]string{"window"},
		),
		DriveModeEfficiency: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "oktan_drive_mode_efficiency_liters_per_100km",
				Help: "Distance-weighted fuel consumption by drive mode",
			},
			[]string{"mode"},
		),
		DBOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oktan_db_operations_total",
				Help: "Total number of database operations by type and status",
			},
			[]string{"operation", "status"},
		),
	}
}

// RecordHTTPRequest records an HTTP request metric.
func (m *Metrics) RecordHTTPRequest(route string, status int, duration float64) {
	m.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(duration)
}

// RecordImport records the outcome of an import run.
func (m *Metrics) RecordImport(source string, success bool, duration time.Duration, result importer.ImportResult) {
	status := "success"
	if !success {
		status = "error"
	}
	m.ImportRunsTotal.WithLabelValues(source, status).Inc()
	m.ImportDuration.WithLabelValues(source).Observe(duration.Seconds())
	m.ImportRecordsTotal.WithLabelValues(source, "inserted").Add(float64(result.SuccessCount))
	m.ImportRecordsTotal.WithLabelValues(source, "duplicate").Add(float64(result.DuplicateCount))
	m.ImportRecordsTotal.WithLabelValues(source, "failed").Add(float64(result.FailedCount))
}

// RecordSnapshot publishes the statistics of a report snapshot. Statistics
// that cannot be computed remove their series instead of reporting zero.
func (m *Metrics) RecordSnapshot(rep report.Report, recordCount int, at time.Time) {
	m.LastSnapshotTimestamp.Set(float64(at.Unix()))
	m.RecordsStored.Set(float64(recordCount))

	setOrDelete(m.AverageEfficiency, rep.Summary.AverageEfficiency, "all")
	setOrDelete(m.AverageEfficiency, rep.Recent.AverageEfficiency, "recent")
	setOrDelete(m.AverageCostPerKm, rep.Summary.AverageCostPerKm, "all")
	setOrDelete(m.AverageCostPerKm, rep.Recent.AverageCostPerKm, "recent")

	for _, mode := range models.AllDriveModes() {
		var v *float64
		if b, ok := rep.Summary.DriveModes[mode]; ok {
			v = b.Efficiency
		}
		setOrDelete(m.DriveModeEfficiency, v, string(mode))
	}
}

// RecordDBOperation records a database operation metric.
func (m *Metrics) RecordDBOperation(operation string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.DBOperationsTotal.WithLabelValues(operation, status).Inc()
}

func setOrDelete(vec *prometheus.GaugeVec, v *float64, label string) {
	if v == nil {
		vec.DeleteLabelValues(label)
		return
	}
	vec.WithLabelValues(label).Set(*v)
}

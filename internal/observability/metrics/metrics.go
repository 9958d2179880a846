package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "gd_invoice_"

	resultSuccess = "success"
	resultError   = "error"

	lookupFound       = "found"
	lookupMissing     = "missing"
	lookupSourceError = "source_error"
)

var (
	registerOnce sync.Once

	computeTotal   *prometheus.CounterVec
	computeLatency *prometheus.HistogramVec

	validationTotal *prometheus.CounterVec
	alertsTotal     *prometheus.CounterVec

	rateCardLookups *prometheus.CounterVec

	closeTotal   *prometheus.CounterVec
	closeLatency *prometheus.HistogramVec

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec

	importFieldsTotal *prometheus.CounterVec
)

// Init registers invoice metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		computeTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "compute_total",
				Help: "Total invoice pipeline computations by result",
			},
			[]string{"result"},
		)
		computeLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "compute_latency_seconds",
				Help:    "Invoice pipeline latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		validationTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "validation_total",
				Help: "Cross-validation outcomes by status",
			},
			[]string{"status"},
		)
		alertsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "alerts_total",
				Help: "Generated alerts by kind and severity",
			},
			[]string{"kind", "severity"},
		)

		rateCardLookups = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "rate_card_lookups_total",
				Help: "Rate card lookups by outcome",
			},
			[]string{"outcome"},
		)

		closeTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "close_total",
				Help: "Total close-month operations by result",
			},
			[]string{"result"},
		)
		closeLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "close_latency_seconds",
				Help:    "Close-month latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total invoice export operations by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "export_latency_seconds",
				Help:    "Invoice export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		importFieldsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "import_fields_total",
				Help: "Imported document fields by outcome",
			},
			[]string{"outcome"},
		)

		prometheus.MustRegister(
			computeTotal,
			computeLatency,
			validationTotal,
			alertsTotal,
			rateCardLookups,
			closeTotal,
			closeLatency,
			exportTotal,
			exportLatency,
			importFieldsTotal,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveCompute records pipeline latency and result.
func ObserveCompute(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if computeTotal != nil {
		computeTotal.WithLabelValues(result).Inc()
	}
	if computeLatency != nil {
		computeLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncValidation increments the validation outcome counter.
func IncValidation(status string) {
	if status == "" {
		status = "unknown"
	}
	if validationTotal != nil {
		validationTotal.WithLabelValues(status).Inc()
	}
}

// IncAlert increments the alert counter.
func IncAlert(kind, severity string) {
	if kind == "" {
		kind = "unknown"
	}
	if severity == "" {
		severity = "unknown"
	}
	if alertsTotal != nil {
		alertsTotal.WithLabelValues(kind, severity).Inc()
	}
}

// IncRateCardLookup increments the rate card lookup counter.
func IncRateCardLookup(outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}
	if rateCardLookups != nil {
		rateCardLookups.WithLabelValues(outcome).Inc()
	}
}

// ObserveClose records close-month latency and result.
func ObserveClose(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if closeTotal != nil {
		closeTotal.WithLabelValues(result).Inc()
	}
	if closeLatency != nil {
		closeLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveExport records export latency and result.
func ObserveExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// AddImportFields adds imported field counts by outcome.
func AddImportFields(outcome string, count int) {
	if count <= 0 {
		return
	}
	if outcome == "" {
		outcome = "unknown"
	}
	if importFieldsTotal != nil {
		importFieldsTotal.WithLabelValues(outcome).Add(float64(count))
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError

	LookupFound       = lookupFound
	LookupMissing     = lookupMissing
	LookupSourceError = lookupSourceError

	ImportMapped  = "mapped"
	ImportIgnored = "ignored"
)

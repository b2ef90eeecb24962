package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "restobill_"

	resultSuccess = "success"
	resultError   = "error"
)

// ResultSuccess labels a successful operation.
const ResultSuccess = resultSuccess

// ResultError labels a failed operation.
const ResultError = resultError

var (
	registerOnce sync.Once

	reportTotal   *prometheus.CounterVec
	reportLatency *prometheus.HistogramVec

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec

	feedQueries *prometheus.CounterVec

	dayCloseRuns *prometheus.CounterVec
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		reportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_total",
				Help: "Total report operations by kind and result",
			},
			[]string{"report", "result"},
		)
		reportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "report_latency_seconds",
				Help:    "Report operation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"report", "result"},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total report export operations by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "export_latency_seconds",
				Help:    "Report export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		feedQueries = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "feed_queries_total",
				Help: "Total event feed queries by feed and result",
			},
			[]string{"feed", "result"},
		)

		dayCloseRuns = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "day_close_runs_total",
				Help: "Total scheduled day-close runs by result",
			},
			[]string{"result"},
		)

		prometheus.MustRegister(
			reportTotal,
			reportLatency,
			exportTotal,
			exportLatency,
			feedQueries,
			dayCloseRuns,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveReport records one report operation.
func ObserveReport(report, result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if reportTotal != nil {
		reportTotal.WithLabelValues(report, result).Inc()
	}
	if reportLatency != nil {
		reportLatency.WithLabelValues(report, result).Observe(duration.Seconds())
	}
}

// ObserveExport records one report export.
func ObserveExport(format, result string, duration time.Duration) {
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

// IncFeedQuery increments the event feed query counter.
func IncFeedQuery(feed, result string) {
	if result == "" {
		result = resultSuccess
	}
	if feedQueries != nil {
		feedQueries.WithLabelValues(feed, result).Inc()
	}
}

// IncDayCloseRun increments the scheduled day-close run counter.
func IncDayCloseRun(result string) {
	if result == "" {
		result = resultSuccess
	}
	if dayCloseRuns != nil {
		dayCloseRuns.WithLabelValues(result).Inc()
	}
}

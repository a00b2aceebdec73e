package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	apiRequestsTotal      *prometheus.CounterVec
	apiLatencySeconds     *prometheus.HistogramVec
	apiErrorsTotal        *prometheus.CounterVec
	autoDecisionsTotal    *prometheus.CounterVec
	autoScoreDistribution *prometheus.HistogramVec
	highRiskBlockedTotal  prometheus.Counter
	reportEventsTotal     *prometheus.CounterVec
	feedClientsActive     prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "medprice_api_requests_total",
			Help: "Total number of report and admin API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "medprice_api_latency_seconds",
			Help:    "Latency distribution for report and admin API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "medprice_api_errors_total",
			Help: "Total number of error responses returned by report and admin endpoints.",
		}, []string{"method", "route", "status"})

		autoDecisionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "medprice_auto_process_decisions_total",
			Help: "Auto-process runs by recommendation level and resulting status.",
		}, []string{"level", "status"})

		autoScoreDistribution = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "medprice_auto_process_score",
			Help:    "Distribution of auto-process and duplicate scores.",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}, []string{"kind"})

		highRiskBlockedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "medprice_high_risk_blocked_total",
			Help: "Auto-process attempts refused because of a high anomaly score.",
		})

		reportEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "medprice_report_events_total",
			Help: "Report events published by type.",
		}, []string{"type"})

		feedClientsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "medprice_report_feed_clients_active",
			Help: "Connected admin live feed websocket clients.",
		})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			autoDecisionsTotal,
			autoScoreDistribution,
			highRiskBlockedTotal,
			reportEventsTotal,
			feedClientsActive,
		)
	})
}

// APIRequests exposes the request counter.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the request latency histogram.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the error response counter.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// AutoDecisions exposes the auto-process outcome counter.
func AutoDecisions() *prometheus.CounterVec {
	RegisterMetrics()
	return autoDecisionsTotal
}

// AutoScores exposes the score histogram, labelled "auto" or "duplicate".
func AutoScores() *prometheus.HistogramVec {
	RegisterMetrics()
	return autoScoreDistribution
}

// HighRiskBlocked exposes the high-anomaly refusal counter.
func HighRiskBlocked() prometheus.Counter {
	RegisterMetrics()
	return highRiskBlockedTotal
}

// ReportEvents exposes the published event counter.
func ReportEvents() *prometheus.CounterVec {
	RegisterMetrics()
	return reportEventsTotal
}

// FeedClientsActive exposes the live feed connection gauge.
func FeedClientsActive() prometheus.Gauge {
	RegisterMetrics()
	return feedClientsActive
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Engine instrumentation, exposed on /metrics.
var (
	EvaluationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "netsentry",
		Name:      "evaluations_total",
		Help:      "Number of health evaluations performed.",
	})

	EvaluationErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "netsentry",
		Name:      "evaluation_errors_total",
		Help:      "Number of evaluations aborted by repository failures.",
	})

	NetworkHealthScore = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "netsentry",
		Name:      "network_health_score",
		Help:      "Latest health score by pipeline stage (raw, capped, final).",
	}, []string{"stage"})

	AlertsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "netsentry",
		Name:      "alerts_emitted_total",
		Help:      "Health alerts appended to the system device, by severity.",
	}, []string{"severity"})

	AlertEmissionErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "netsentry",
		Name:      "alert_emission_errors_total",
		Help:      "Alert emission attempts that failed (never fails scoring).",
	})

	ScrapeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "netsentry",
		Name:      "device_scrape_duration_seconds",
		Help:      "Duration of one device metrics probe.",
		Buckets:   prometheus.DefBuckets,
	})

	ScrapeFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "netsentry",
		Name:      "device_scrape_failures_total",
		Help:      "Device probes that failed and marked the device offline.",
	})
)

// Package metrics exposes Prometheus collectors for the report pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels completed reports.
	OutcomeSuccess = "success"
	// OutcomeError labels report requests that failed outright.
	OutcomeError = "error"
)

var (
	reportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medinsight",
			Name:      "reports_total",
			Help:      "Total number of insight reports generated, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	reportDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "medinsight",
			Name:      "report_seconds",
			Help:      "Report generation latency in seconds.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
	)

	insightsEmittedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "medinsight",
			Name:      "insights_emitted_total",
			Help:      "Total number of individual insights emitted across all reports.",
		},
	)

	excludedMedicationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medinsight",
			Name:      "excluded_medications_total",
			Help:      "Medications excluded from analysis, partitioned by reason.",
		},
		[]string{"reason"},
	)
)

// Register attaches the collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		reportsTotal,
		reportDurationSeconds,
		insightsEmittedTotal,
		excludedMedicationsTotal,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveReport records one report run's duration and outcome label.
func ObserveReport(duration time.Duration, outcome string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	reportsTotal.WithLabelValues(label).Inc()
	if duration < 0 {
		duration = 0
	}
	reportDurationSeconds.Observe(duration.Seconds())
}

// CountInsights adds emitted insights to the running total
func CountInsights(n int) {
	if n > 0 {
		insightsEmittedTotal.Add(float64(n))
	}
}

// CountExclusion records one excluded medication by reason code
func CountExclusion(reason string) {
	excludedMedicationsTotal.WithLabelValues(reason).Inc()
}

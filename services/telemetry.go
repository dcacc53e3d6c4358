package services

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	metricsFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metrics_fallbacks_total",
			Help: "Total number of backend fetch failures replaced by a default value",
		},
		[]string{"operation", "metric"},
	)
	metricsComputeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "metrics_compute_duration_seconds",
			Help:    "Duration of fetching and computing derived metrics",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
	badgesEarned = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "badges_evaluated_total",
			Help: "Total number of earned badges returned, by tier",
		},
		[]string{"tier"},
	)
)

// InitPrometheus registers the service collectors. Call this from main.go
func InitPrometheus() {
	prometheus.MustRegister(metricsFallbacksTotal)
	prometheus.MustRegister(metricsComputeDuration)
	prometheus.MustRegister(badgesEarned)
}

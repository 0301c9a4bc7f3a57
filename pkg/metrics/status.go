package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StatusMetrics contains Prometheus metrics for the status aggregator.
type StatusMetrics struct {
	RefreshesTotal  *prometheus.CounterVec
	RefreshDuration prometheus.Histogram
	SensorValue     *prometheus.GaugeVec
	SnapshotAge     prometheus.Gauge
}

// NewStatusMetrics creates and registers status aggregator metrics.
func NewStatusMetrics(namespace string) *StatusMetrics {
	m := &StatusMetrics{
		RefreshesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "status",
				Name:      "refreshes_total",
				Help:      "Total number of sensor snapshot refreshes",
			},
			[]string{"status"}, // status: success, partial, error
		),
		RefreshDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "status",
				Name:      "refresh_duration_seconds",
				Help:      "Duration of sensor provider reads",
				Buckets:   prometheus.DefBuckets,
			},
		),
		SensorValue: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "status",
				Name:      "sensor_value",
				Help:      "Most recently published value per sensor",
			},
			[]string{"sensor"},
		),
		SnapshotAge: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "status",
				Name:      "snapshot_age_seconds",
				Help:      "Age of the published snapshot at last refresh",
			},
		),
	}

	MustRegister(
		m.RefreshesTotal,
		m.RefreshDuration,
		m.SensorValue,
		m.SnapshotAge,
	)

	return m
}

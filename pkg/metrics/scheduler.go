package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SchedulerMetrics contains Prometheus metrics for the task scheduler.
type SchedulerMetrics struct {
	FiringsTotal       *prometheus.CounterVec
	FiringDuration     *prometheus.HistogramVec
	ArmedTimers        prometheus.Gauge
	CancellationsTotal *prometheus.CounterVec
}

// NewSchedulerMetrics creates and registers scheduler metrics.
func NewSchedulerMetrics(namespace string) *SchedulerMetrics {
	m := &SchedulerMetrics{
		FiringsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "scheduler",
				Name:      "firings_total",
				Help:      "Total number of timer firings",
			},
			[]string{"device", "status"}, // status: success, error
		),
		FiringDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "scheduler",
				Name:      "firing_duration_seconds",
				Help:      "Duration of dispatched device actions",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"device"},
		),
		ArmedTimers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "scheduler",
				Name:      "armed_timers",
				Help:      "Number of currently armed timers",
			},
		),
		CancellationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "scheduler",
				Name:      "cancellations_total",
				Help:      "Total number of schedule cancellations",
			},
			[]string{"kind"}, // kind: single, all
		),
	}

	MustRegister(
		m.FiringsTotal,
		m.FiringDuration,
		m.ArmedTimers,
		m.CancellationsTotal,
	)

	return m
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// NotifyMetrics contains Prometheus metrics for notification channels.
type NotifyMetrics struct {
	SendsTotal       *prometheus.CounterVec
	SendDuration     *prometheus.HistogramVec
	ConnectionStatus prometheus.Gauge
}

// NewNotifyMetrics creates and registers notification channel metrics.
func NewNotifyMetrics(namespace string) *NotifyMetrics {
	m := &NotifyMetrics{
		SendsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "notify",
				Name:      "sends_total",
				Help:      "Total number of notification sends",
			},
			[]string{"channel", "status"}, // status: success, error
		),
		SendDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "notify",
				Name:      "send_duration_seconds",
				Help:      "Duration of notification sends",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"channel"},
		),
		ConnectionStatus: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "notify",
				Name:      "connection_status",
				Help:      "Broker connection status (1 connected, 0 disconnected)",
			},
		),
	}

	MustRegister(
		m.SendsTotal,
		m.SendDuration,
		m.ConnectionStatus,
	)

	return m
}

package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	registry          *prometheus.Registry
	RequestsCaptured  *prometheus.CounterVec
	RequestsFailed    *prometheus.CounterVec
	RequestsFiltered  *prometheus.CounterVec
	RequestsInFlight  prometheus.Gauge
	EvictionsTotal    prometheus.Counter
	NotificationsSent prometheus.Counter
	ObserverPanics    prometheus.Counter
	StaleRequests     prometheus.Counter
}

func NewMetrics() *Metrics {
	r := prometheus.NewRegistry()
	m := &Metrics{
		registry: r,
		RequestsCaptured: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "network_logger",
			Name:      "requests_captured_total",
			Help:      "Requests recorded by the active transport hook",
		}, []string{"hook"}),
		RequestsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "network_logger",
			Name:      "requests_failed_total",
			Help:      "Recorded requests that failed at the transport level",
		}, []string{"hook"}),
		RequestsFiltered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "network_logger",
			Name:      "requests_filtered_total",
			Help:      "Requests passed through unlogged by the filter policy",
		}, []string{"hook"}),
		RequestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "network_logger",
			Name:      "requests_in_flight",
			Help:      "Recorded requests waiting for a terminal event",
		}),
		EvictionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "network_logger",
			Name:      "evictions_total",
			Help:      "Records evicted by the retention bound",
		}),
		NotificationsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "network_logger",
			Name:      "notifications_total",
			Help:      "Coalesced observer dispatches",
		}),
		ObserverPanics: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "network_logger",
			Name:      "observer_panics_total",
			Help:      "Observer callbacks that panicked",
		}),
		StaleRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "network_logger",
			Name:      "stale_requests_total",
			Help:      "In-flight records failed by the stale sweep",
		}),
	}
	r.MustRegister(m.RequestsCaptured, m.RequestsFailed, m.RequestsFiltered, m.RequestsInFlight,
		m.EvictionsTotal, m.NotificationsSent, m.ObserverPanics, m.StaleRequests)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

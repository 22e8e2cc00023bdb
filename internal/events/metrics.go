package events

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics holds Prometheus metrics shared by the broker implementations.
type metrics struct {
	published         *prometheus.CounterVec
	delivered         *prometheus.CounterVec
	dropped           *prometheus.CounterVec
	errorCount        *prometheus.CounterVec
	activeSubscribers prometheus.Gauge
}

// newMetrics registers the broker metrics on reg. A nil reg leaves them unregistered.
func newMetrics(reg prometheus.Registerer, broker string) *metrics {
	factory := promauto.With(reg)
	constLabels := prometheus.Labels{"broker": broker}
	return &metrics{
		published: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "folio_events_published_total",
			Help:        "Total number of events published by type",
			ConstLabels: constLabels,
		}, []string{"type"}),
		delivered: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "folio_events_delivered_total",
			Help:        "Total number of events handed to subscribers by type",
			ConstLabels: constLabels,
		}, []string{"type"}),
		dropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "folio_events_dropped_total",
			Help:        "Events dropped because a subscriber buffer was full",
			ConstLabels: constLabels,
		}, []string{"type"}),
		errorCount: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "folio_event_errors_total",
			Help:        "Total number of event-related errors",
			ConstLabels: constLabels,
		}, []string{"operation", "type"}),
		activeSubscribers: factory.NewGauge(prometheus.GaugeOpts{
			Name:        "folio_event_active_subscribers",
			Help:        "Current number of live feed subscribers",
			ConstLabels: constLabels,
		}),
	}
}

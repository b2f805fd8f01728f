// Package metrics exposes Prometheus metrics for the notification pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the notification pipeline instruments. All methods are safe
// on a nil receiver so tests can run without a registry.
type Metrics struct {
	Emitted        prometheus.Counter
	Dropped        prometheus.Counter
	OutboxFailures prometheus.Counter
	RelayPublished prometheus.Counter
	RelayFailures  prometheus.Counter
	BreakerState   prometheus.Gauge
}

// New registers the notification metrics with the default registry.
func New() *Metrics {
	return &Metrics{
		Emitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lifeline_notifications_emitted_total",
			Help: "Total number of notification events accepted by the publisher",
		}),
		Dropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lifeline_notifications_dropped_total",
			Help: "Total number of notification events dropped because the publisher buffer was full",
		}),
		OutboxFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lifeline_notifications_outbox_failures_total",
			Help: "Total number of failed outbox writes",
		}),
		RelayPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lifeline_notifications_relay_published_total",
			Help: "Total number of outbox entries shipped to Kafka",
		}),
		RelayFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lifeline_notifications_relay_failures_total",
			Help: "Total number of failed Kafka publishes",
		}),
		BreakerState: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "lifeline_notifications_relay_circuit_state",
			Help: "Relay circuit breaker state (0=closed, 1=open)",
		}),
	}
}

func (m *Metrics) IncEmitted() {
	if m != nil {
		m.Emitted.Inc()
	}
}

func (m *Metrics) IncDropped() {
	if m != nil {
		m.Dropped.Inc()
	}
}

func (m *Metrics) IncOutboxFailure() {
	if m != nil {
		m.OutboxFailures.Inc()
	}
}

func (m *Metrics) IncRelayPublished() {
	if m != nil {
		m.RelayPublished.Inc()
	}
}

func (m *Metrics) IncRelayFailure() {
	if m != nil {
		m.RelayFailures.Inc()
	}
}

func (m *Metrics) SetBreakerOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.BreakerState.Set(1)
	} else {
		m.BreakerState.Set(0)
	}
}

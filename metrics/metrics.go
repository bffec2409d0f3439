// Package metrics collects and exposes Prometheus metrics for the server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records broadcast and connection activity.
type Collector struct {
	connections    prometheus.Gauge
	broadcastTotal prometheus.Counter
	chainEvents    prometheus.Counter
	droppedTotal   prometheus.Counter
}

// NewCollector creates a Collector and registers its metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chaintalk_connections",
			Help: "Number of open websocket connections",
		}),
		broadcastTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chaintalk_messages_broadcast_total",
			Help: "Total messages fanned out to subscribers",
		}),
		chainEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chaintalk_chain_events_total",
			Help: "Total chain events rebroadcast on the global feed",
		}),
		droppedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chaintalk_dropped_messages_total",
			Help: "Total messages dropped from full subscriber buffers",
		}),
	}

	reg.MustRegister(
		c.connections,
		c.broadcastTotal,
		c.chainEvents,
		c.droppedTotal,
	)

	return c
}

// ConnectionOpened records a new websocket connection.
func (c *Collector) ConnectionOpened() {
	c.connections.Inc()
}

// ConnectionClosed records a closed websocket connection.
func (c *Collector) ConnectionClosed() {
	c.connections.Dec()
}

// MessageBroadcast records one message delivered to one subscriber.
func (c *Collector) MessageBroadcast() {
	c.broadcastTotal.Inc()
}

// MessageDropped records one message evicted from a full buffer.
func (c *Collector) MessageDropped() {
	c.droppedTotal.Inc()
}

// ChainEventBroadcast records one chain event rebroadcast.
func (c *Collector) ChainEventBroadcast() {
	c.chainEvents.Inc()
}

// Handler returns the Prometheus scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// internal/utils/metrics/collector.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "openpump"

// Collector owns the service metrics. A nil *Collector is valid and records nothing.
type Collector struct {
	streamMessages      *prometheus.CounterVec
	eventsPublished     *prometheus.CounterVec
	droppedMessages     *prometheus.CounterVec
	rpcLatency          *prometheus.HistogramVec
	curveLookups        *prometheus.CounterVec
	cacheLookups        *prometheus.CounterVec
	websocketClients    prometheus.Gauge
	pipelineRunning     prometheus.Gauge
	discoveredTokens    prometheus.Gauge
	externalAPIRequests *prometheus.CounterVec
	httpRequests        *prometheus.HistogramVec
}

// NewCollector создает коллектор и регистрирует метрики в reg.
// When reg is nil the metrics are created but not registered.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		streamMessages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stream_messages_total",
				Help:      "Log stream messages by outcome",
			},
			[]string{"outcome"},
		),
		eventsPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_published_total",
				Help:      "Events published on the bus",
			},
			[]string{"type"},
		),
		droppedMessages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dropped_messages_total",
				Help:      "Messages dropped before publication",
			},
			[]string{"reason"},
		),
		rpcLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "rpc_latency_seconds",
				Help:      "RPC request latency in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
			},
			[]string{"method", "status"},
		),
		curveLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "curve_lookups_total",
				Help:      "Bonding curve lookups by result",
			},
			[]string{"result"},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_lookups_total",
				Help:      "Cache lookups by area and result",
			},
			[]string{"area", "result"},
		),
		websocketClients: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "websocket_clients",
				Help:      "Number of connected stream clients",
			},
		),
		pipelineRunning: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "pipeline_running",
				Help:      "1 when the ingestion pipeline is subscribed",
			},
		),
		discoveredTokens: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "discovered_tokens",
				Help:      "Tokens returned by the last discovery scan",
			},
		),
		externalAPIRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "external_api_requests_total",
				Help:      "Requests to external data providers",
			},
			[]string{"provider", "status"},
		),
		httpRequests: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "REST request latency by route and status code",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "code"},
		),
	}

	if reg != nil {
		reg.MustRegister(
			c.streamMessages,
			c.eventsPublished,
			c.droppedMessages,
			c.rpcLatency,
			c.curveLookups,
			c.cacheLookups,
			c.websocketClients,
			c.pipelineRunning,
			c.discoveredTokens,
			c.externalAPIRequests,
			c.httpRequests,
		)
	}
	return c
}

// Reset сбрасывает все векторные метрики (полезно для тестирования)
func (c *Collector) Reset() {
	if c == nil {
		return
	}
	c.streamMessages.Reset()
	c.eventsPublished.Reset()
	c.droppedMessages.Reset()
	c.rpcLatency.Reset()
	c.curveLookups.Reset()
	c.cacheLookups.Reset()
	c.externalAPIRequests.Reset()
	c.httpRequests.Reset()
	c.websocketClients.Set(0)
	c.pipelineRunning.Set(0)
	c.discoveredTokens.Set(0)
}

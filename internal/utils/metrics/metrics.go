// internal/utils/metrics/metrics.go
package metrics

import (
	"strconv"
	"time"
)

// RecordStreamMessage считает сообщение потока логов по итогу обработки
// (duplicate, failed_tx, creation, buy, sell, none).
func (c *Collector) RecordStreamMessage(outcome string) {
	if c == nil {
		return
	}
	c.streamMessages.WithLabelValues(outcome).Inc()
}

// RecordEvent counts a published bus event.
func (c *Collector) RecordEvent(eventType string) {
	if c == nil {
		return
	}
	c.eventsPublished.WithLabelValues(eventType).Inc()
}

// RecordDrop counts a message dropped before publication.
func (c *Collector) RecordDrop(reason string) {
	if c == nil {
		return
	}
	c.droppedMessages.WithLabelValues(reason).Inc()
}

// RecordRPCLatency записывает метрики RPC-запроса
func (c *Collector) RecordRPCLatency(method string, duration time.Duration, err error) {
	if c == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.rpcLatency.WithLabelValues(method, status).Observe(duration.Seconds())
}

// RecordCurveLookup counts a bonding curve lookup (ok, unavailable, error).
func (c *Collector) RecordCurveLookup(result string) {
	if c == nil {
		return
	}
	c.curveLookups.WithLabelValues(result).Inc()
}

// RecordCache counts a cache hit or miss for an area.
func (c *Collector) RecordCache(area string, hit bool) {
	if c == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.cacheLookups.WithLabelValues(area, result).Inc()
}

// SetWebsocketClients обновляет число подключённых клиентов стрима
func (c *Collector) SetWebsocketClients(n int) {
	if c == nil {
		return
	}
	c.websocketClients.Set(float64(n))
}

// SetPipelineRunning reports the pipeline lifecycle state.
func (c *Collector) SetPipelineRunning(running bool) {
	if c == nil {
		return
	}
	if running {
		c.pipelineRunning.Set(1)
		return
	}
	c.pipelineRunning.Set(0)
}

// SetDiscoveredTokens records the size of the last discovery result.
func (c *Collector) SetDiscoveredTokens(n int) {
	if c == nil {
		return
	}
	c.discoveredTokens.Set(float64(n))
}

// RecordExternalRequest counts a request to an external provider.
func (c *Collector) RecordExternalRequest(provider string, err error) {
	if c == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.externalAPIRequests.WithLabelValues(provider, status).Inc()
}

// RecordHTTPRequest observes one REST request.
func (c *Collector) RecordHTTPRequest(route string, code int, d time.Duration) {
	if c == nil {
		return
	}
	c.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Observe(d.Seconds())
}

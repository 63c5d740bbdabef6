package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector собирает прометеевские метрики сервиса.
type Collector struct {
	registry *prometheus.Registry

	httpRequests  *prometheus.CounterVec
	httpLatency   prometheus.Histogram
	wsConnections prometheus.Gauge
	messagesSent  prometheus.Counter
	deliveredLive prometheus.Counter
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dm_http_requests_total",
			Help: "HTTP requests by method and status code",
		}, []string{"method", "status_code"}),
		httpLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dm_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}),
		wsConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dm_ws_connections",
			Help: "Currently open websocket connections",
		}),
		messagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dm_messages_sent_total",
			Help: "Messages persisted",
		}),
		deliveredLive: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dm_messages_delivered_live_total",
			Help: "Messages pushed to a live receiver connection",
		}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpLatency,
		c.wsConnections,
		c.messagesSent,
		c.deliveredLive,
	)
	return c
}

func (c *Collector) RecordHTTPRequest(method string, status int, dur time.Duration) {
	c.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	c.httpLatency.Observe(dur.Seconds())
}

func (c *Collector) WSConnected()      { c.wsConnections.Inc() }
func (c *Collector) WSDisconnected()   { c.wsConnections.Dec() }
func (c *Collector) MessageSent()      { c.messagesSent.Inc() }
func (c *Collector) MessageDelivered() { c.deliveredLive.Inc() }

// Handler отдаёт /metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcomes for AuthAttempts.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Metrics groups every collector the service records into.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	AuthAttempts    *prometheus.CounterVec
	StreamClients   prometheus.Gauge

	gatherer prometheus.Gatherer
}

// New creates a private registry with the Go and process collectors plus the
// service metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return NewMetrics(reg, reg)
}

// NewMetrics registers the service collectors with reg. gather backs Handler.
func NewMetrics(reg prometheus.Registerer, gather prometheus.Gatherer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tasks_http_requests_total",
				Help: "Total HTTP requests by route, method and status code",
			},
			[]string{"route", "method", "code"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tasks_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		AuthAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tasks_auth_attempts_total",
				Help: "Register, login and token resolution attempts by outcome",
			},
			[]string{"op", "outcome"},
		),
		StreamClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tasks_stream_clients",
			Help: "Open task stream WebSocket connections",
		}),
		gatherer: gather,
	}
	reg.MustRegister(m.RequestsTotal, m.RequestDuration, m.AuthAttempts, m.StreamClients)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveAuth counts one attempt of op. Safe on a nil *Metrics.
func (m *Metrics) ObserveAuth(op, outcome string) {
	if m == nil {
		return
	}
	m.AuthAttempts.WithLabelValues(op, outcome).Inc()
}

// StreamOpened and StreamClosed track live WebSocket clients. Safe on nil.
func (m *Metrics) StreamOpened() {
	if m != nil {
		m.StreamClients.Inc()
	}
}

func (m *Metrics) StreamClosed() {
	if m != nil {
		m.StreamClients.Dec()
	}
}

// Middleware records request count and latency per matched route. Unmatched
// paths share one label so scanners cannot blow up cardinality.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		m.RequestsTotal.WithLabelValues(route, method, strconv.Itoa(c.Writer.Status())).Inc()
		m.RequestDuration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
	}
}

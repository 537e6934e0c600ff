// Package metrics exposes Prometheus instrumentation for the HTTP
// surface and the ingestion path.
package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

type Metrics struct {
	Registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	ingestRecords *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		Registry: registry,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		ingestRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "telemetry_ingest_records_total",
			Help: "Ingested telemetry records by category and outcome.",
		}, []string{"category", "outcome"}),
	}

	registry.MustRegister(m.httpRequests, m.httpDuration, m.ingestRecords)
	return m
}

// ObserveIngest counts one ingestion attempt for a telemetry category.
func (m *Metrics) ObserveIngest(category string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.ingestRecords.WithLabelValues(category, outcome).Inc()
}

// GinMiddleware records request counts and latency per route.
func GinMiddleware(m *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if strings.TrimSpace(route) == "" {
			route = "unknown"
		}
		m.httpRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

var Module = fx.Module("metrics",
	fx.Provide(New),
)

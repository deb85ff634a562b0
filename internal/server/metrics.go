package server

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ppiankov/cliniprov/internal/model"
)

// Metrics holds the server's Prometheus collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	requests          *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	analyses          *prometheus.CounterVec
	valuesExtracted   *prometheus.HistogramVec
	verificationRate  prometheus.Histogram
	requiresAttention prometheus.Counter
	rateLimited       prometheus.Counter
}

// NewMetrics creates and registers the server collectors
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cliniprov_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cliniprov_http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		analyses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cliniprov_analyses_total",
				Help: "Total number of letter analyses",
			},
			[]string{"cached", "risk_level"},
		),
		valuesExtracted: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cliniprov_values_extracted",
				Help:    "Clinical values extracted per letter",
				Buckets: prometheus.ExponentialBuckets(1, 2, 8), // 1 to 128
			},
			[]string{"type"},
		),
		verificationRate: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "cliniprov_verification_rate_percent",
				Help:    "Share of values linked to a source anchor",
				Buckets: prometheus.LinearBuckets(0, 10, 11), // 0 to 100
			},
		),
		requiresAttention: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cliniprov_values_requiring_attention_total",
				Help: "Values with neither a source anchor nor clinician sign-off",
			},
		),
		rateLimited: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cliniprov_http_rate_limited_total",
				Help: "Requests rejected by the per-client rate limiter",
			},
		),
	}

	m.registry.MustRegister(
		m.requests,
		m.requestDuration,
		m.analyses,
		m.valuesExtracted,
		m.verificationRate,
		m.requiresAttention,
		m.rateLimited,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry returns the registry backing /metrics
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Middleware records request counts and latency per route template
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}

			route := routeLabel(c)
			m.requests.WithLabelValues(c.Request().Method, route, strconv.Itoa(status)).Inc()
			m.requestDuration.WithLabelValues(c.Request().Method, route).Observe(time.Since(start).Seconds())

			return err
		}
	}
}

// ObserveAnalysis records the outcome of one analysis
func (m *Metrics) ObserveAnalysis(a *model.Analysis) {
	m.analyses.WithLabelValues(strconv.FormatBool(a.Cached), string(a.Risk.Level)).Inc()

	counts := make(map[model.ValueType]int, len(model.ValueTypes))
	for _, v := range a.Values {
		counts[v.Type]++
	}
	for _, t := range model.ValueTypes {
		m.valuesExtracted.WithLabelValues(string(t)).Observe(float64(counts[t]))
	}

	m.verificationRate.Observe(a.Verification.Rate)
	m.requiresAttention.Add(float64(len(a.RequiresAttention)))
}

// routeLabel returns the matched route template, not the raw path
func routeLabel(c echo.Context) string {
	if p := c.Path(); p != "" {
		return p
	}
	return "unmatched"
}

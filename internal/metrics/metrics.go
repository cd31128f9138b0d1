// Package metrics exposes Prometheus counters for the content pipeline and
// the HTTP layer.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "showcase"

type Metrics struct {
	registry *prometheus.Registry

	shapes        *prometheus.CounterVec
	renderCache   *prometheus.CounterVec
	exports       *prometheus.CounterVec
	fallbacks     *prometheus.CounterVec
	requests      *prometheus.CounterVec
	requestTiming *prometheus.HistogramVec
}

// New builds a registry with process and Go runtime collectors plus the
// application metrics.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		shapes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "canonicalize_total",
			Help:      "Raw values canonicalized, by detected input shape.",
		}, []string{"shape"}),
		renderCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_cache_total",
			Help:      "Render cache lookups, by result.",
		}, []string{"result"}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Project exports, by format and whether the file came from storage.",
		}, []string{"format", "source"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "locale_resolutions_total",
			Help:      "Localized content resolutions, by outcome.",
		}, []string{"outcome"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests, by method, route and status.",
		}, []string{"method", "route", "status"}),
		requestTiming: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.shapes,
		m.renderCache,
		m.exports,
		m.fallbacks,
		m.requests,
		m.requestTiming,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveShape(shape string) {
	if m == nil {
		return
	}
	m.shapes.WithLabelValues(shape).Inc()
}

func (m *Metrics) ObserveRenderCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.renderCache.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveExport(format string, cached bool) {
	if m == nil {
		return
	}
	source := "generated"
	if cached {
		source = "storage"
	}
	m.exports.WithLabelValues(format, source).Inc()
}

// ObserveResolution records whether a locale lookup hit the requested
// locale, used the fallback, or found nothing.
func (m *Metrics) ObserveResolution(fallbackUsed, missing bool) {
	if m == nil {
		return
	}
	outcome := "requested"
	switch {
	case missing:
		outcome = "missing"
	case fallbackUsed:
		outcome = "fallback"
	}
	m.fallbacks.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestTiming.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Package metrics exposes Prometheus metrics for the parse service.
//
// Metrics:
//   - tsparse_http_requests_total: requests by route, method and status
//   - tsparse_http_request_duration_seconds: request latency by route and method
//   - tsparse_parses_total: parse attempts by result ("ok", "failed")
//   - tsparse_parse_duration_seconds: time spent parsing
//   - tsparse_cache_lookups_total: cache lookups by result ("hit", "miss", "error")
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tsparse"

// Cache lookup results
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// parseBuckets cover sub-millisecond expressions up to large files.
var parseBuckets = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1}

// Collector owns the service's metrics and the registry they live in.
type Collector struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	parsesTotal     *prometheus.CounterVec
	parseDuration   prometheus.Histogram
	cacheLookups    *prometheus.CounterVec
}

// NewCollector creates and registers the service metrics. A nil registry
// gets a fresh one, which also carries the Go runtime collector.
func NewCollector(registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector())
	}

	c := &Collector{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"route", "method", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		parsesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "parses_total",
				Help:      "Total number of parse attempts",
			},
			[]string{"result"},
		),
		parseDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "parse_duration_seconds",
				Help:      "Time spent parsing a source",
				Buckets:   parseBuckets,
			},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_lookups_total",
				Help:      "Total number of parse cache lookups",
			},
			[]string{"result"},
		),
	}

	registry.MustRegister(
		c.requestsTotal,
		c.requestDuration,
		c.parsesTotal,
		c.parseDuration,
		c.cacheLookups,
	)

	return c
}

// Registry returns the registry the collector's metrics are registered with
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordParse records one parse attempt
func (c *Collector) RecordParse(ok bool, duration time.Duration) {
	result := "ok"
	if !ok {
		result = "failed"
	}
	c.parsesTotal.WithLabelValues(result).Inc()
	c.parseDuration.Observe(duration.Seconds())
}

// RecordCacheLookup records a lookup with one of CacheHit, CacheMiss or
// CacheError.
func (c *Collector) RecordCacheLookup(result string) {
	c.cacheLookups.WithLabelValues(result).Inc()
}

// Middleware records request counts and latency. Requests are labelled by
// their chi route pattern so that path parameters do not grow cardinality;
// unmatched requests share the "unmatched" route.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		c.requestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		c.requestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}

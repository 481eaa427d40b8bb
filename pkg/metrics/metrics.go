// Package metrics defines the Prometheus metric collectors used across the
// crawler and query service, and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the crawl pipeline.
type Metrics struct {
	PagesProcessedTotal prometheus.Counter
	CrawlErrorsTotal    *prometheus.CounterVec
	PostingsTotal       prometheus.Counter
	LinksDroppedTotal   prometheus.Counter
	FrontierPending     prometheus.Gauge
	FrontierSeen        prometheus.Gauge
	WorkersInFlight     prometheus.Gauge
	FetchDuration       prometheus.Histogram
	QueriesTotal        *prometheus.CounterVec
	QueryLatency        *prometheus.HistogramVec
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates all collectors and registers them on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith creates all collectors and registers them on reg. Tests pass a
// fresh prometheus.NewRegistry to avoid duplicate-registration panics.
func NewWith(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PagesProcessedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "crawl_pages_processed_total",
				Help: "Total locations fully processed by the worker pool.",
			},
		),
		CrawlErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawl_errors_total",
				Help: "Total per-item crawl failures by stage (fetch, parse, index).",
			},
			[]string{"stage"},
		),
		PostingsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "index_postings_total",
				Help: "Total postings inserted into the index store.",
			},
		),
		LinksDroppedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "crawl_links_dropped_total",
				Help: "Discovered links dropped because the frontier queue was full.",
			},
		),
		FrontierPending: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "frontier_pending",
				Help: "Locations waiting in the frontier queue.",
			},
		),
		FrontierSeen: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "frontier_seen",
				Help: "Size of the frontier dedup set.",
			},
		),
		WorkersInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "crawl_in_flight",
				Help: "Locations dequeued but not yet completed.",
			},
		),
		FetchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "crawl_fetch_duration_seconds",
				Help:    "Page fetch latency in seconds.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
		),
		QueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "query_requests_total",
				Help: "Total term queries by result (hit, miss, error).",
			},
			[]string{"result"},
		),
		QueryLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "query_latency_seconds",
				Help:    "Term query latency in seconds.",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
			[]string{"cache_status"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"method", "path"},
		),
	}

	reg.MustRegister(
		m.PagesProcessedTotal,
		m.CrawlErrorsTotal,
		m.PostingsTotal,
		m.LinksDroppedTotal,
		m.FrontierPending,
		m.FrontierSeen,
		m.WorkersInFlight,
		m.FetchDuration,
		m.QueriesTotal,
		m.QueryLatency,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

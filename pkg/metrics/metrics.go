// Package metrics kumpulan collector prometheus untuk http api dan geocoder.
package metrics

import (
	"net/http"

	"github.com/lintang-b-s/osm-geocoder/pkg/shardstore"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	GeocodeLatency       *prometheus.HistogramVec
	GeocodeResults       *prometheus.HistogramVec
	ShardFetchesTotal    *prometheus.CounterVec
	CacheHitsTotal       prometheus.Counter
	CacheMissesTotal     prometheus.Counter

	gatherer prometheus.Gatherer
}

// New buat dan register semua collector ke reg.
func New(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geocoder_http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "geocoder_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "geocoder_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		GeocodeLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "geocoder_query_latency_seconds",
				Help:    "Geocode latency in seconds by mode (forward, reverse).",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"mode", "cache_status"},
		),
		GeocodeResults: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "geocoder_query_results",
				Help:    "Number of results returned per geocode query.",
				Buckets: []float64{0, 1, 2, 5, 10},
			},
			[]string{"mode"},
		),
		ShardFetchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geocoder_shard_keys_fetched_total",
				Help: "Keys requested from the shard store by layer and kind.",
			},
			[]string{"layer", "kind"},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "geocoder_cache_hits_total",
				Help: "Total number of response cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "geocoder_cache_misses_total",
				Help: "Total number of response cache misses.",
			},
		),
		gatherer: gatherer,
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.GeocodeLatency,
		m.GeocodeResults,
		m.ShardFetchesTotal,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
	)
	return m
}

// ObserveFetch dipasang ke phrasematch.Matcher lewat Geocoder.WithObserver.
func (m *Metrics) ObserveFetch(layer string, kind shardstore.Kind, keys int) {
	m.ShardFetchesTotal.WithLabelValues(layer, string(kind)).Add(float64(keys))
}

// Handler scrape endpoint untuk registry milik m.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

package metrics_di

import (
	"github.com/lintang-b-s/osm-geocoder/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
)

func New() *metrics.Metrics {
	return metrics.New(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

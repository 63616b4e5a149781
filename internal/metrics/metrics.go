// Package metrics holds the prometheus collectors for tile serving.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TileRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "heattile_tile_requests_total",
			Help: "Tile requests by response status code",
		},
		[]string{"code"},
	)

	TileProduction = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "heattile_tile_production_seconds",
			Help:    "Time spent producing a heatmap bitmap",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	ProducerInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "heattile_producer_in_flight",
			Help: "Bitmap productions currently running",
		},
	)

	ProducerShared = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "heattile_producer_shared_total",
			Help: "Tile requests answered by another request's in-flight production",
		},
	)

	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "heattile_producer_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)
)

// RecordTileRequest counts one finished tile request
func RecordTileRequest(code int) {
	TileRequests.WithLabelValues(strconv.Itoa(code)).Inc()
}

// ObserveProduction records how long one bitmap production took
func ObserveProduction(d time.Duration) {
	TileProduction.Observe(d.Seconds())
}

// Handler serves the default registry in the prometheus text format
func Handler() http.Handler {
	return promhttp.Handler()
}

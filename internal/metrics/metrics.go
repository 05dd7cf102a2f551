// Package metrics holds the process-wide Prometheus instruments and an
// optional /metrics listener.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// FeedRequests counts metadata API requests by endpoint and outcome
	// (endpoint: services|schedule|playouts; result: ok|error).
	FeedRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "livetuner_feed_requests_total",
		Help: "Metadata API requests by endpoint and result.",
	}, []string{"endpoint", "result"})

	// BuildDropped counts schedule/service entries dropped during catalog
	// build (reason: data_shape|consistency). Drops are best-effort filtering,
	// not failures; this counter is how they stay observable.
	BuildDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "livetuner_catalog_build_dropped_total",
		Help: "Entries dropped during catalog build by reason.",
	}, []string{"reason"})

	// Refreshes counts catalog refresh attempts (result: ok|error).
	Refreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "livetuner_catalog_refresh_total",
		Help: "Catalog refresh attempts by result.",
	}, []string{"result"})

	// RefreshDuration observes end-to-end refresh latency (both fetches +
	// build + swap).
	RefreshDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "livetuner_catalog_refresh_duration_seconds",
		Help:    "Catalog refresh duration.",
		Buckets: prometheus.DefBuckets,
	})

	// Resolutions counts route resolutions by outcome
	// (result: ready|metadata_only|error).
	Resolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "livetuner_route_resolutions_total",
		Help: "Route resolutions by outcome.",
	}, []string{"result"})

	// StaleDiscards counts resolutions superseded by a newer navigation
	// before they could publish. Discards are silent by design; the counter
	// is the only trace they leave.
	StaleDiscards = promauto.NewCounter(prometheus.CounterOpts{
		Name: "livetuner_route_stale_discards_total",
		Help: "Route resolutions discarded because a newer navigation superseded them.",
	})
)

// Serve exposes /metrics on addr. Blocks; run in a goroutine.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}

// Package metrics holds Prometheus instruments shared by the services. All
// collectors are registered with the default registry, so mounting
// Handler() on /metrics is enough to expose them.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests handled, by service, method, route and status.",
		}, []string{"service", "method", "route", "status"})

	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"service", "method", "route"})

	SlugCollisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slug_collisions_total",
			Help: "Slugs that needed a numeric suffix, by collection.",
		}, []string{"collection"})

	SlugConflictRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slug_conflict_retries_total",
			Help: "Writes retried after the unique slug index rejected them.",
		}, []string{"collection"})

	InlineImages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inline_images_total",
			Help: "Inline base64 images seen while rewriting content, by result.",
		}, []string{"result"})

	ImagesStored = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "images_stored_total",
			Help: "Images written to the object store, by backend.",
		}, []string{"backend"})
)

func init() {
	prometheus.MustRegister(
		HTTPRequests,
		HTTPDuration,
		SlugCollisions,
		SlugConflictRetries,
		InlineImages,
		ImagesStored,
	)
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

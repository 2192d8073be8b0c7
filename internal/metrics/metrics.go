// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "file_portal",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "file_portal",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	Uploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "file_portal",
		Name:      "uploads_total",
		Help:      "Stored uploads by file type.",
	}, []string{"file_type"})

	UploadBytes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "file_portal",
		Name:      "upload_bytes_total",
		Help:      "Bytes written to blob storage by uploads.",
	})

	Downloads = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "file_portal",
		Name:      "downloads_total",
		Help:      "Blobs streamed to their owners.",
	})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

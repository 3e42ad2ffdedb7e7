package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestsTotal counts HTTP requests by route pattern and status code.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memorial_http_requests_total",
			Help: "HTTP requests handled, by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration tracks handler latency by route pattern.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "memorial_http_request_duration_seconds",
			Help:    "Time spent handling HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// MediaUploads counts forwarded files by resource kind and outcome.
	MediaUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memorial_media_uploads_total",
			Help: "Files forwarded to the media host, by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	// StagedFilesRemoved counts staged temp files deleted by request cleanup
	// rather than by the media gateway.
	StagedFilesRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "memorial_staged_files_cleaned_total",
			Help: "Staged upload files removed by request cleanup",
		},
	)
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

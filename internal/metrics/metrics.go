package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contextd_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "contextd_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	AssembliesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contextd_assemblies_total",
			Help: "Total context assemblies by delta strategy.",
		},
		[]string{"strategy"},
	)

	AssemblyDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "contextd_assembly_duration_seconds",
			Help:    "End-to-end context assembly duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)

	AssemblyTruncationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "contextd_assembly_truncations_total",
			Help: "Assemblies where even the recency floor exceeded the token budget.",
		},
	)

	AssemblyTokensEstimate = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "contextd_assembly_tokens_estimate",
			Help:    "Estimated token size of assembled contexts.",
			Buckets: prometheus.ExponentialBuckets(64, 2, 10),
		},
	)

	ImagesProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contextd_images_processed_total",
			Help: "Image attachments processed, by outcome.",
		},
		[]string{"outcome"},
	)

	ImageCompressionRatio = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "contextd_image_compression_ratio",
			Help:    "Original/compressed size ratio of thumbnailed images.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8),
		},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		AssembliesTotal,
		AssemblyDuration,
		AssemblyTruncationsTotal,
		AssemblyTokensEstimate,
		ImagesProcessedTotal,
		ImageCompressionRatio,
	)
}

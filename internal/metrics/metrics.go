package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_catalog_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_catalog_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Catalog store metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_catalog_db_queries_total",
			Help: "Total number of catalog store queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_catalog_db_query_duration_seconds",
			Help:    "Catalog store query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	ImagesIndexed = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_catalog_images_indexed",
			Help: "Number of images currently in the catalog",
		},
	)
)

// Watcher metrics
var (
	ScanRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_catalog_scan_runs_total",
			Help: "Total number of watch-root scans",
		},
	)

	ScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "photo_catalog_scan_duration_seconds",
			Help:    "Duration of watch-root scans in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
		},
	)

	ScanFilesDiscovered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_catalog_scan_files_discovered_total",
			Help: "Total number of image files discovered by scans",
		},
	)

	WatchRootsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_catalog_watch_roots_active",
			Help: "Number of watch roots with a live filesystem watch",
		},
	)

	WatchEventErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_catalog_watch_event_errors_total",
			Help: "Total number of errors raised while handling watch events",
		},
	)
)

// Extraction worker metrics
var (
	ExtractionQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_catalog_extraction_queue_depth",
			Help: "Number of images waiting for metadata extraction",
		},
	)

	ExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_catalog_extractions_total",
			Help: "Total number of enrichment passes by outcome",
		},
		[]string{"status"},
	)

	ExtractionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "photo_catalog_extraction_duration_seconds",
			Help:    "Duration of a single enrichment pass in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)
)

// Notification metrics
var (
	NotifyClientsConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_catalog_notify_clients_connected",
			Help: "Number of connected catalog-changed subscribers",
		},
	)

	NotifyEventsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_catalog_notify_events_total",
			Help: "Total number of catalog-changed events broadcast",
		},
	)
)

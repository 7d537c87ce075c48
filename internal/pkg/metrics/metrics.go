package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// UpstreamRequests counts completed upstream HTTP attempts by status
	// class ("2xx", "429", "5xx", "error", ...).
	UpstreamRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cryptotwin_upstream_requests_total",
		Help: "Upstream market API request attempts by status class.",
	}, []string{"status"})

	// UpstreamRetries counts retry attempts after a failed upstream call.
	UpstreamRetries = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cryptotwin_upstream_retries_total",
		Help: "Retries performed against the upstream market API.",
	})

	// CacheHits and CacheMisses count TTL cache lookups by cache name
	// ("price", "history", "search").
	CacheHits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cryptotwin_cache_hits_total",
		Help: "TTL cache hits by cache name.",
	}, []string{"cache"})
	CacheMisses = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cryptotwin_cache_misses_total",
		Help: "TTL cache misses by cache name.",
	}, []string{"cache"})

	// ScheduledTasks counts tasks dispatched by the request scheduler.
	ScheduledTasks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cryptotwin_scheduled_tasks_total",
		Help: "Tasks dispatched by the outbound request scheduler.",
	})

	// SchedulerQueueDepth tracks the number of tasks waiting for dispatch.
	SchedulerQueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cryptotwin_scheduler_queue_depth",
		Help: "Tasks currently queued in the outbound request scheduler.",
	})

	// DirectoryBatches counts completed token directory refresh batches.
	DirectoryBatches = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cryptotwin_directory_batches_total",
		Help: "Completed token directory refresh batches.",
	})

	// DirectorySize tracks the number of tokens held by the directory.
	DirectorySize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cryptotwin_directory_tokens",
		Help: "Tokens currently held by the token directory.",
	})
)

// MustRegisterMetrics registers every collector with the default registry.
// Call once from main before serving /metrics.
func MustRegisterMetrics() {
	prometheus.MustRegister(
		UpstreamRequests,
		UpstreamRetries,
		CacheHits,
		CacheMisses,
		ScheduledTasks,
		SchedulerQueueDepth,
		DirectoryBatches,
		DirectorySize,
	)
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TilesRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tiles_requests_total",
		Help: "Total number of tile requests",
	})

	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total number of cache hits",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total number of cache misses",
	})

	CacheStores = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cache_stores_total",
		Help: "Total number of cache store operations",
	})

	PersistFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pyramid_persist_failures_total",
		Help: "Total number of computed tiles that could not be persisted",
	})

	TilesComputed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pyramid_tiles_computed_total",
		Help: "Total number of tiles computed, by kind (upscale, downscale)",
	}, []string{"kind"})

	SentinelHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pyramid_sentinel_hits_total",
		Help: "Total number of results canonicalized to a sentinel tile",
	}, []string{"sentinel"})

	TransformFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pyramid_transform_failures_total",
		Help: "Total number of decode/resize/encode failures, by stage",
	}, []string{"stage"})

	ComputeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pyramid_compute_duration_seconds",
		Help:    "Duration of a single tile computation in seconds, excluding children",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	BatchTiles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pyramid_batch_tiles_total",
		Help: "Total number of tiles visited by the batch precompute, by layer",
	}, []string{"layer"})

	// Redis metrics
	RedisOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "redis_operation_duration_seconds",
		Help:    "Duration of Redis operations in seconds",
		Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"operation"})

	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "redis_errors_total",
		Help: "Total number of Redis errors",
	}, []string{"operation"})
)

package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "merchant_cache_hits_total",
		Help: "Total number of response cache hits",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "merchant_cache_misses_total",
		Help: "Total number of response cache misses",
	})

	CacheSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "merchant_cache_size_bytes",
		Help: "Approximate bytes written to the response cache",
	})

	// ConditionalRequests counts 304 Not Modified answers served from cache.
	ConditionalRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "merchant_cache_304_responses_total",
		Help: "Total number of 304 Not Modified responses",
	})

	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "merchant_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // get, set, delete, invalidate
	)
)

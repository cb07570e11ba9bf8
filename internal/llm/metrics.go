package llm

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts upstream attempts.
	// Labels: outcome (success, or the error Kind)
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docent",
			Subsystem: "llm",
			Name:      "requests_total",
			Help:      "Total number of upstream model API attempts by outcome",
		},
		[]string{"outcome"},
	)

	// RequestDuration tracks upstream attempt latency.
	RequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "docent",
			Subsystem: "llm",
			Name:      "request_duration_seconds",
			Help:      "Duration of upstream model API attempts in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		},
	)

	// TokensTotal counts tokens reported by the upstream.
	// Labels: direction (input, output)
	TokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docent",
			Subsystem: "llm",
			Name:      "tokens_total",
			Help:      "Total number of tokens reported by the model API",
		},
		[]string{"direction"},
	)

	// CacheHits counts responses served from the response cache.
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "docent",
			Subsystem: "llm",
			Name:      "cache_hits_total",
			Help:      "Total number of response cache hits",
		},
	)

	// CacheMisses counts lookups that went upstream. Expired entries count as misses.
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "docent",
			Subsystem: "llm",
			Name:      "cache_misses_total",
			Help:      "Total number of response cache misses",
		},
	)

	// CacheEvictions counts entries removed by capacity or TTL.
	// Labels: reason (capacity, expired)
	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docent",
			Subsystem: "llm",
			Name:      "cache_evictions_total",
			Help:      "Total number of response cache evictions",
		},
		[]string{"reason"},
	)

	// RetriesTotal counts retry attempts after a retryable failure.
	RetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "docent",
			Subsystem: "llm",
			Name:      "retries_total",
			Help:      "Total number of upstream retries",
		},
	)
)

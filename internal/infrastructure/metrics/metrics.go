package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pipeline
	RecordsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "timeline",
		Subsystem: "normalizer",
		Name:      "records_dropped_total",
		Help:      "Raw marketplace records dropped before rendering",
	}, []string{"reason"})

	EventsClassified = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "timeline",
		Subsystem: "normalizer",
		Name:      "events_classified_total",
		Help:      "Canonical events produced, by action",
	}, []string{"action"})

	QueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "timeline",
		Subsystem: "service",
		Name:      "queries_total",
		Help:      "Timeline queries by outcome",
	}, []string{"status"})

	QueryLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "timeline",
		Subsystem: "service",
		Name:      "query_duration_seconds",
		Help:      "End to end timeline query duration",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})

	// Marketplace
	OpenSeaRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "timeline",
		Subsystem: "opensea",
		Name:      "requests_total",
		Help:      "Marketplace API calls by endpoint and status class",
	}, []string{"endpoint", "status"})

	OpenSeaLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "timeline",
		Subsystem: "opensea",
		Name:      "request_duration_seconds",
		Help:      "Marketplace API call duration",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"endpoint"})

	OpenSeaRateLimitWaits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "timeline",
		Subsystem: "opensea",
		Name:      "rate_limit_waits_total",
		Help:      "Requests delayed by the client side rate limiter",
	})

	// Wallet resolution
	WalletCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "timeline",
		Subsystem: "wallet",
		Name:      "cache_lookups_total",
		Help:      "Wallet resolution cache lookups by result",
	}, []string{"result"})
)

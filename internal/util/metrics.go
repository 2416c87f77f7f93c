package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QuotesCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quotes_created_total",
		Help: "Total number of quotes created",
	})

	QuoteItemsAddedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quote_items_added_total",
		Help: "Total number of line items added to quotes",
	})

	QuoteItemsDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quote_items_deleted_total",
		Help: "Total number of line items soft-deleted, cascaded children included",
	})

	QuoteTotalRecomputesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quote_total_recomputes_total",
		Help: "Total number of quote total recomputations",
	})

	QuoteMutationsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quote_mutations_failed_total",
		Help: "Total number of failed quote mutations",
	}, []string{"reason"})

	PriceEntriesRecordedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "price_entries_recorded_total",
		Help: "Total number of price ledger entries recorded",
	}, []string{"type"})

	CostPriceUpdatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cost_price_updates_total",
		Help: "Total number of catalog cost price updates driven by the ledger",
	})

	ItemConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "item_conflicts_total",
		Help: "Total number of rejected brand/model collisions",
	})

	CacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total number of cache hits",
	}, []string{"cache"})

	CacheMissesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total number of cache misses",
	}, []string{"cache"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
